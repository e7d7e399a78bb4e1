package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	rl "uiconfig/modules/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLimiter struct {
	result rl.Result
	err    error
	keys   []rl.Key
}

func (s *stubLimiter) Allow(_ context.Context, key rl.Key) (rl.Result, error) {
	s.keys = append(s.keys, key)
	return s.result, s.err
}

func newMux() *http.ServeMux {
	mux := http.NewServeMux()
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("GET /v1/profiles/{id}", ok)
	mux.Handle("POST /v1/profiles", ok)
	return mux
}

func setup(t *testing.T, cfg RestHTTPConfig, lim *stubLimiter) http.Handler {
	t.Helper()
	mux := newMux()
	factory := func(int64, time.Duration) rl.RateLimiter { return lim }
	p, err := ParsePolicy(factory, &cfg, ServeMuxRouteInfo(mux), DefaultKeyStrategies())
	require.NoError(t, err)
	return NewRateLimitMiddleware(p)(mux)
}

func routeCfg() RestHTTPConfig {
	return RestHTTPConfig{
		Routes: []Route{{
			Pattern: "/v1/profiles/{id}",
			EndpointRules: []EndpointRule{{
				Method: "get", Limit: 5, Window: time.Minute, KeyStrategy: RemoteIpKeyStrategy,
			}},
		}},
	}
}

func TestMiddlewareAllowsAndSetsHeaders(t *testing.T) {
	lim := &stubLimiter{result: rl.Result{Allowed: true, Limit: 5, Remaining: 4, Window: time.Minute, WindowResetIn: 30 * time.Second}}
	h := setup(t, routeCfg(), lim)

	req := httptest.NewRequest(http.MethodGet, "/v1/profiles/abc", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", rec.Header().Get("X-RateLimit-Window-Seconds"))
	assert.Equal(t, "30", rec.Header().Get("X-RateLimit-Reset-Seconds"))
	assert.Equal(t, []rl.Key{"10.0.0.1"}, lim.keys)
}

func TestMiddlewareRejects(t *testing.T) {
	lim := &stubLimiter{result: rl.Result{Allowed: false, Limit: 5, Window: time.Minute, RetryAfter: 1500 * time.Millisecond}}
	h := setup(t, routeCfg(), lim)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/profiles/abc", nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestMiddlewareLimiterError(t *testing.T) {
	h := setup(t, routeCfg(), &stubLimiter{err: errors.New("redis down")})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/profiles/abc", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMiddlewareUnmatched(t *testing.T) {
	lim := &stubLimiter{}

	t.Run("unknown route goes to the mux", func(t *testing.T) {
		h := setup(t, routeCfg(), lim)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("route without policy allowed", func(t *testing.T) {
		cfg := routeCfg()
		cfg.AllowIfNoMatch = true
		h := setup(t, cfg, lim)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/profiles", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("route without policy rejected", func(t *testing.T) {
		h := setup(t, routeCfg(), lim)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/profiles", nil))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	assert.Empty(t, lim.keys)
}

func TestMiddlewareDefaultPolicy(t *testing.T) {
	lim := &stubLimiter{result: rl.Result{Allowed: true, Limit: 1}}
	cfg := RestHTTPConfig{DefaultPolicy: EndpointRule{Method: "POST", Limit: 1, Window: time.Second, KeyStrategy: RemoteIpKeyStrategy}}
	h := setup(t, cfg, lim)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/profiles", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, lim.keys, 1)
}

func TestParsePolicyErrors(t *testing.T) {
	factory := func(int64, time.Duration) rl.RateLimiter { return &stubLimiter{} }
	route := func(rules ...EndpointRule) *RestHTTPConfig {
		return &RestHTTPConfig{Routes: []Route{{Pattern: "/x", EndpointRules: rules}}}
	}
	good := EndpointRule{Method: "GET", Window: time.Second, KeyStrategy: RemoteIpKeyStrategy}

	tests := map[string]*RestHTTPConfig{
		"duplicate method": route(good, good),
		"unknown strategy": route(EndpointRule{Method: "GET", Window: time.Second, KeyStrategy: "cookie"}),
		"zero window":      route(EndpointRule{Method: "GET", KeyStrategy: RemoteIpKeyStrategy}),
	}
	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePolicy(factory, cfg, nil, DefaultKeyStrategies())
			assert.ErrorIs(t, err, ErrInvalidPolicy)
		})
	}
}

func TestRemoteIpKeyFunc(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, rl.Key("192.0.2.1"), RemoteIpKeyFunc(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.5, 198.51.100.7")
	assert.Equal(t, rl.Key("198.51.100.7"), RemoteIpKeyFunc(r))
}

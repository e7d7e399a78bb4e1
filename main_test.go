package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"uiconfig/modules/appconfig"
	"uiconfig/modules/middleware/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{{"serve"}, {"migrate", "up"}, {"migrate", "down"}, {"migrate", "new"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestNewStorageMemory(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")
	cfg, err := appconfig.Load()
	require.NoError(t, err)

	var done cleanups
	s, err := newStorage(t.Context(), cfg, nil, &done)
	require.NoError(t, err)
	assert.NotNil(t, s)
	assert.Empty(t, done)
}

func TestCleanupsRunInReverse(t *testing.T) {
	var order []int
	var c cleanups
	c.add(func(_ context.Context) { order = append(order, 1) })
	c.add(func(_ context.Context) { order = append(order, 2) })
	c.run(t.Context())
	assert.Equal(t, []int{2, 1}, order)
}

func TestRateLimitMiddlewareMemory(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "1")
	t.Setenv("RATE_LIMIT_DEFAULT_WINDOW", "1h")
	t.Setenv("RATE_LIMIT_DEFAULT_KEY_STRATEGY", string(ratelimit.RemoteIpKeyStrategy))
	cfg, err := appconfig.Load()
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	mw, err := newRateLimitMiddleware(cfg, nil, mux)
	require.NoError(t, err)
	h := mw(mux)

	codes := make([]int, 0, 2)
	for range 2 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestRateLimitDisabledPassesThrough(t *testing.T) {
	cfg, err := appconfig.Load()
	require.NoError(t, err)
	mw, err := newRateLimitMiddleware(cfg, nil, http.NewServeMux())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	mw(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

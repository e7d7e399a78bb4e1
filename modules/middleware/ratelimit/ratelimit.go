// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ratelimit

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"uiconfig/modules/middleware/problem"
	rl "uiconfig/modules/ratelimit"
)

type (
	Pattern string
	method  string

	// KeyFunc extracts a caller identifier such as the remote IP.
	KeyFunc func(*http.Request) rl.Key

	// RouteInfoFunc resolves the route a request will be dispatched to.
	RouteInfoFunc func(*http.Request) RouteInfo

	// RouteInfo is empty in ID when no route matches.
	RouteInfo struct {
		ID     Pattern
		Method string
		Path   string
	}

	Policy struct {
		Limiter rl.RateLimiter
		KeyFn   KeyFunc
	}

	RuntimePolicy struct {
		policyMap map[Pattern]map[method]Policy

		// a method-specific default wins over the catch-all default
		defaultPolicyByMethod map[method]Policy
		defaultPolicy         *Policy

		// AllowIfNoMatch lets requests through when no policy applies to a known route.
		AllowIfNoMatch bool
		// AllowIfNoIdentifier lets requests through when KeyFn yields nothing.
		AllowIfNoIdentifier bool

		RouteInfoFn RouteInfoFunc
	}
)

type policySource string

const (
	policySourceExplicit      policySource = "explicit"
	policySourceDefaultMethod policySource = "default_method"
	policySourceDefaultAll    policySource = "default"
)

var ErrInvalidPolicy = errors.New("ratelimit: invalid policy")

func normalizeMethod(m string) method {
	return method(strings.ToUpper(strings.TrimSpace(m)))
}

// DefaultKeyStrategies lists the key strategies available to configuration.
func DefaultKeyStrategies() map[KeyStrategyId]KeyFunc {
	return map[KeyStrategyId]KeyFunc{RemoteIpKeyStrategy: RemoteIpKeyFunc}
}

// ServeMuxRouteInfo asks mux which pattern would serve r. The middleware runs
// in front of the mux, so r.Pattern is not populated yet.
func ServeMuxRouteInfo(mux *http.ServeMux) RouteInfoFunc {
	return func(r *http.Request) RouteInfo {
		info := RouteInfo{Method: r.Method, Path: r.URL.Path}
		if _, pattern := mux.Handler(r); pattern != "" {
			// "GET /v1/profiles/{id}" -> "/v1/profiles/{id}"
			if i := strings.IndexByte(pattern, ' '); i >= 0 {
				pattern = pattern[i+1:]
			}
			info.ID = Pattern(pattern)
		}
		return info
	}
}

func (p *RuntimePolicy) findPolicy(info RouteInfo) (Policy, bool, policySource) {
	if pm, ok := p.policyMap[info.ID]; ok {
		if px, ok := pm[normalizeMethod(info.Method)]; ok {
			return px, true, policySourceExplicit
		}
	}
	if px, ok := p.defaultPolicyByMethod[normalizeMethod(info.Method)]; ok {
		return px, true, policySourceDefaultMethod
	}
	if p.defaultPolicy != nil {
		return *p.defaultPolicy, true, policySourceDefaultAll
	}
	return Policy{}, false, ""
}

func ParsePolicy(
	factory rl.LimiterFactory,
	cfg *RestHTTPConfig,
	routeFn RouteInfoFunc,
	keyStrategies map[KeyStrategyId]KeyFunc,
) (*RuntimePolicy, error) {
	rtp := &RuntimePolicy{
		policyMap:             make(map[Pattern]map[method]Policy),
		defaultPolicyByMethod: make(map[method]Policy),
		AllowIfNoIdentifier:   cfg.AllowIfNoIdentifier,
		AllowIfNoMatch:        cfg.AllowIfNoMatch,
		RouteInfoFn:           routeFn,
	}

	compile := func(rule EndpointRule) (Policy, error) {
		if rule.Window <= 0 {
			return Policy{}, fmt.Errorf("%w: window must be positive", ErrInvalidPolicy)
		}
		ks, ok := keyStrategies[rule.KeyStrategy]
		if !ok {
			return Policy{}, fmt.Errorf("%w: no such key strategy %q", ErrInvalidPolicy, rule.KeyStrategy)
		}
		return Policy{Limiter: factory(rule.Limit, rule.Window), KeyFn: ks}, nil
	}

	// the default only counts as configured once it can be enforced
	if def := cfg.DefaultPolicy; def.Window > 0 && def.KeyStrategy != "" {
		px, err := compile(def)
		if err != nil {
			return nil, err
		}
		if def.Method != "" {
			rtp.defaultPolicyByMethod[normalizeMethod(def.Method)] = px
		} else {
			rtp.defaultPolicy = &px
		}
	}

	for _, r := range cfg.Routes {
		pat := Pattern(r.Pattern)
		if _, ok := rtp.policyMap[pat]; !ok {
			rtp.policyMap[pat] = make(map[method]Policy)
		}
		for _, rule := range r.EndpointRules {
			m := normalizeMethod(rule.Method)
			if _, dup := rtp.policyMap[pat][m]; dup {
				return nil, fmt.Errorf("%w: duplicate %s rule on %q", ErrInvalidPolicy, m, pat)
			}
			px, err := compile(rule)
			if err != nil {
				return nil, err
			}
			rtp.policyMap[pat][m] = px
		}
	}
	return rtp, nil
}

func NewRateLimitMiddleware(p *RuntimePolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := p.RouteInfoFn(r)
			// unknown routes are the mux's business (404/405)
			if info.ID == "" {
				next.ServeHTTP(w, r)
				return
			}

			log := slog.With(
				slog.String("middleware", "rate_limiter"),
				slog.String("route", string(info.ID)),
				slog.String("method", info.Method),
			)

			px, ok, src := p.findPolicy(info)
			if !ok {
				if p.AllowIfNoMatch {
					next.ServeHTTP(w, r)
					return
				}
				log.WarnContext(r.Context(), "no rate limit policy found")
				problem.Write(w, problem.TooManyRequests(http.StatusText(http.StatusTooManyRequests)))
				return
			}
			if src != policySourceExplicit {
				log.DebugContext(r.Context(), "using default rate limit policy", slog.String("policy_source", string(src)))
			}

			var key rl.Key
			if px.KeyFn != nil {
				key = px.KeyFn(r)
			}
			if key == "" {
				if p.AllowIfNoIdentifier {
					next.ServeHTTP(w, r)
					return
				}
				log.WarnContext(r.Context(), "no rate limit key for request")
				problem.Write(w, problem.TooManyRequests(http.StatusText(http.StatusTooManyRequests)))
				return
			}

			result, err := px.Limiter.Allow(r.Context(), key)
			if err != nil {
				// the counter store may be down
				log.ErrorContext(r.Context(), "rate limit error", slog.Any("error", err))
				problem.Write(w, problem.Internal(http.StatusText(http.StatusInternalServerError)))
				return
			}

			w = &rateLimitHeaderWriter{ResponseWriter: w, result: result}
			if !result.Allowed {
				log.DebugContext(r.Context(), "rate limited", slog.String("key", string(key)))
				w.Header().Set("Retry-After", strconv.FormatInt(ceilSeconds(result.RetryAfter.Seconds()), 10))
				problem.Write(w, problem.TooManyRequests(http.StatusText(http.StatusTooManyRequests)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ceilSeconds(s float64) int64 {
	n := int64(s)
	if float64(n) < s {
		n++
	}
	return n
}

func writeRateLimitHeaders(w http.ResponseWriter, result rl.Result) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
	h.Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
	h.Set("X-RateLimit-Window-Seconds", strconv.FormatInt(int64(result.Window.Seconds()), 10))
	h.Set("X-RateLimit-Reset-Seconds", strconv.FormatInt(ceilSeconds(result.WindowResetIn.Seconds()), 10))
}

// rateLimitHeaderWriter writes the headers right before the response is
// committed so handlers cannot clobber them.
type rateLimitHeaderWriter struct {
	http.ResponseWriter
	result  rl.Result
	ensured bool
}

func (w *rateLimitHeaderWriter) ensure() {
	if w.ensured {
		return
	}
	writeRateLimitHeaders(w.ResponseWriter, w.result)
	w.ensured = true
}

func (w *rateLimitHeaderWriter) WriteHeader(statusCode int) {
	w.ensure()
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *rateLimitHeaderWriter) Write(p []byte) (int, error) {
	w.ensure()
	return w.ResponseWriter.Write(p)
}

func (w *rateLimitHeaderWriter) Flush() {
	w.ensure()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *rateLimitHeaderWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// RemoteIpKeyFunc uses the last X-Forwarded-For hop, which is the one added
// by the closest proxy, and falls back to the peer address.
func RemoteIpKeyFunc(r *http.Request) rl.Key {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		if last := strings.TrimSpace(hops[len(hops)-1]); last != "" {
			return rl.Key(last)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return rl.Key(r.RemoteAddr)
	}
	return rl.Key(host)
}

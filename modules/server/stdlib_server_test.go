package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct{ trace *[]string }

func (s stubService) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, _ *http.Request) {
		*s.trace = append(*s.trace, "handler")
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s stubService) Middlewares() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{tag(s.trace, "service")}
}

func tag(trace *[]string, name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*trace = append(*trace, name)
			next.ServeHTTP(w, r)
		})
	}
}

func TestMiddlewareOrder(t *testing.T) {
	var trace []string
	s, err := New("127.0.0.1", 8080,
		WithGlobalMiddlewares(tag(&trace, "first"), tag(&trace, "second")),
		WithServices(stubService{trace: &trace}),
	)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"first", "second", "service", "handler"}, trace)
}

func TestNewValidation(t *testing.T) {
	_, err := New("", 0)
	assert.Error(t, err)
	_, err = New("", 70000)
	assert.Error(t, err)

	s, err := New("", 8080, WithReadTimeout(time.Second), WithWriteTimeout(0))
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", s.server.Addr)
	assert.Equal(t, time.Second, s.server.ReadTimeout)
	assert.Equal(t, defaultTimeout, s.server.WriteTimeout)
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestRunShutsDownOnCancel(t *testing.T) {
	var trace []string
	port := freePort(t)
	s, err := New("127.0.0.1", port, WithServices(stubService{trace: &trace}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	url := "http://" + s.server.Addr + "/ping"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusNoContent
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRunReportsListenError(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	port := l.Addr().(*net.TCPAddr).Port

	s, err := New("127.0.0.1", port)
	require.NoError(t, err)
	assert.Error(t, s.Run(context.Background()))
}

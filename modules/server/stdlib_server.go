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

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

type (
	// RegistrableService mounts its routes on the shared mux and may
	// contribute middlewares wrapping the whole server.
	RegistrableService interface {
		Register(mux *http.ServeMux)
		Middlewares() []func(http.Handler) http.Handler
	}

	Server struct {
		server *http.Server
		mux    *http.ServeMux
		host   string
		port   uint16

		// global middleware chain applied around the mux, outermost first
		middlewares []func(http.Handler) http.Handler

		services []RegistrableService
	}

	ServerOptions func(*Server)
)

func WithWriteTimeout(t time.Duration) ServerOptions {
	return func(s *Server) {
		if t > 0 {
			s.server.WriteTimeout = t
		}
	}
}

func WithReadTimeout(t time.Duration) ServerOptions {
	return func(s *Server) {
		if t > 0 {
			s.server.ReadTimeout = t
		}
	}
}

// WithServices registers self-contained services.
func WithServices(svcs ...RegistrableService) ServerOptions {
	return func(s *Server) {
		s.services = append(s.services, svcs...)
	}
}

// WithGlobalMiddlewares registers middlewares wrapping the entire mux, in the
// order provided. Service middlewares are nested inside them.
func WithGlobalMiddlewares(mw ...func(http.Handler) http.Handler) ServerOptions {
	return func(s *Server) {
		s.middlewares = append(s.middlewares, mw...)
	}
}

// WithMux hands in a pre-built mux, e.g. one that other middlewares must
// inspect for routing.
func WithMux(mux *http.ServeMux) ServerOptions {
	return func(s *Server) {
		if mux != nil {
			s.mux = mux
		}
	}
}

// Example usage:
//
//	srv, _ := server.New("0.0.0.0", 8080, server.WithWriteTimeout(10*time.Second))
func New(host string, port int, opts ...ServerOptions) (*Server, error) {
	if host == "" {
		slog.Warn("empty host, binding to all interfaces")
		host = "0.0.0.0"
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("server: bad port %d", port)
	}

	s := &Server{
		host: host,
		port: uint16(port),
		mux:  http.NewServeMux(),
		server: &http.Server{
			Addr:              net.JoinHostPort(host, strconv.Itoa(port)),
			ReadTimeout:       defaultTimeout,
			ReadHeaderTimeout: defaultTimeout,
			WriteTimeout:      defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, svc := range s.services {
		svc.Register(s.mux)
		s.middlewares = append(s.middlewares, svc.Middlewares()...)
		slog.Info("registered service", slog.String("type", fmt.Sprintf("%T", svc)))
	}

	handler := http.Handler(s.mux)
	for i := len(s.middlewares) - 1; i >= 0; i-- {
		handler = s.middlewares[i](handler)
	}
	s.server.Handler = handler

	return s, nil
}

// Handler returns the composed middleware chain and mux.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Run serves until ctx is cancelled or the listener fails, then drains
// in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "started server", slog.String("host", s.host), slog.Any("port", s.port))
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		slog.ErrorContext(ctx, "server error", slog.Any("error", err))
		return err
	case <-ctx.Done():
	}

	slog.InfoContext(ctx, "shutting down...")
	// ctx is already done; the drain gets its own deadline
	dCtx, dCancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer dCancel()
	return s.server.Shutdown(dCtx)
}

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

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"uiconfig/core/profile/adapters/persistence/memory"
	"uiconfig/core/profile/adapters/persistence/pg"
	redisstore "uiconfig/core/profile/adapters/persistence/redis"
	"uiconfig/core/profile/adapters/rest"
	"uiconfig/core/profile/domain"
	"uiconfig/modules/appconfig"
	"uiconfig/modules/clock"
	"uiconfig/modules/db/postgres"
	"uiconfig/modules/db/redis"
	"uiconfig/modules/db/redis/counter"
	"uiconfig/modules/logging"
	"uiconfig/modules/middleware"
	"uiconfig/modules/middleware/ratelimit"
	"uiconfig/modules/oapi"
	rl "uiconfig/modules/ratelimit"
	"uiconfig/modules/server"
	"uiconfig/modules/services"
	"uiconfig/modules/telemetry"

	"github.com/redis/rueidis"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the profile HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

// cleanups run in reverse registration order.
type cleanups []func(context.Context)

func (c *cleanups) add(fn func(context.Context)) { *c = append(*c, fn) }

func (c cleanups) run(ctx context.Context) {
	for i := len(c) - 1; i >= 0; i-- {
		c[i](ctx)
	}
}

func runServe(ctx context.Context) error {
	cfg, err := appconfig.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, logCloser, err := logging.New(cfg.Log, os.Stdout)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	var done cleanups
	// shutdown work still needs a live context after the signal fired
	defer func() { done.run(context.WithoutCancel(ctx)) }()

	otelShutdown, err := telemetry.Init(ctx, cfg.Otel)
	if err != nil {
		return fmt.Errorf("telemetry not properly configured: %w", err)
	}
	done.add(func(ctx context.Context) {
		if err := otelShutdown(ctx); err != nil {
			slog.ErrorContext(ctx, "telemetry shutdown error", slog.Any("error", err))
		}
	})

	var redisClient rueidis.Client
	if cfg.NeedsRedis() {
		redisClient, err = redis.NewRueidisClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis not properly setup: %w", err)
		}
		done.add(func(context.Context) { redisClient.Close() })
	}

	storage, err := newStorage(ctx, cfg, redisClient, &done)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	rateLimit, err := newRateLimitMiddleware(cfg, redisClient, mux)
	if err != nil {
		return err
	}

	profileSvc, err := services.NewProfileAPIService(ctx, rest.NewProfileAPI(storage), oapi.SpecFS, oapi.ProfileSpecPath)
	if err != nil {
		return err
	}

	httpMetrics, err := telemetry.NewHTTPMetrics(cfg.Otel.ServiceName)
	if err != nil {
		slog.WarnContext(ctx, "failed to initialize HTTP metrics, continuing without metrics", slog.Any("error", err))
		httpMetrics = nil
	}

	srv, err := server.New(
		cfg.HTTP.Host, cfg.HTTP.Port,
		server.WithMux(mux),
		server.WithReadTimeout(cfg.HTTP.ReadTimeout),
		server.WithWriteTimeout(cfg.HTTP.WriteTimeout),
		server.WithServices(profileSvc),
		server.WithGlobalMiddlewares(
			// tracing clones the request, so it sits outside anything reading r.Pattern
			telemetry.OtelHTTPMiddleware(cfg.Otel.ServiceName),
			middleware.Telemetry(httpMetrics),
			middleware.Recovery(nil),
			rateLimit,
		),
	)
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}

	slog.InfoContext(ctx, "serving profiles",
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.Storage.Backend),
		slog.Bool("rate_limit", cfg.RateLimit.Enabled),
	)
	return srv.Run(ctx)
}

func newStorage(ctx context.Context, cfg *appconfig.Config, client rueidis.Client, done *cleanups) (domain.ProfileStorage, error) {
	switch cfg.Storage.Backend {
	case appconfig.BackendPostgres:
		pool, err := postgres.New(ctx, &cfg.Postgres, cfg.Postgres.Options())
		if err != nil {
			return nil, fmt.Errorf("database error: %w", err)
		}
		done.add(func(ctx context.Context) {
			if err := pool.Shutdown(ctx); err != nil {
				slog.ErrorContext(ctx, "database shutdown error", slog.Any("error", err))
			}
		})
		if err := pool.HealthCheck(ctx); err != nil {
			return nil, fmt.Errorf("database health check failed: %w", err)
		}
		if cfg.Postgres.MigrateOnStart {
			if err := pool.MigrateUp(); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		return pg.NewPostgresProfileStore(pool, cfg.Storage.Table), nil

	case appconfig.BackendRedis:
		return redisstore.NewProfileStore(client,
			redisstore.WithKeyPrefix(cfg.Storage.KeyPrefix),
			redisstore.WithCacheTTL(cfg.Storage.CacheTTL),
		), nil

	case appconfig.BackendMemory:
		return memory.NewProfileStore(), nil
	}
	return nil, errors.New("unknown storage backend " + cfg.Storage.Backend)
}

func newRateLimitMiddleware(cfg *appconfig.Config, client rueidis.Client, mux *http.ServeMux) (func(http.Handler) http.Handler, error) {
	if !cfg.RateLimit.Enabled {
		return func(next http.Handler) http.Handler { return next }, nil
	}

	var factory rl.LimiterFactory
	switch cfg.RateLimit.Backend {
	case ratelimit.BackendRedis:
		store := counter.NewRedisCounterStore(client, cfg.RateLimit.KeyPrefix)
		// the store owns the shared prefix, the limiter only namespaces its windows
		factory = rl.SlidingWindowFactory(clock.RealClock{}, store, "sw")
	default:
		factory = rl.TokenBucketFactory(clock.RealClock{})
	}

	slog.Debug("app rate limit config", slog.Any("rate_limit_config", cfg.RateLimit))
	rtp, err := ratelimit.ParsePolicy(factory, &cfg.RateLimit, ratelimit.ServeMuxRouteInfo(mux), ratelimit.DefaultKeyStrategies())
	if err != nil {
		return nil, fmt.Errorf("ratelimit config not properly parsed: %w", err)
	}
	return ratelimit.NewRateLimitMiddleware(rtp), nil
}

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

package appconfig

import (
	"errors"
	"fmt"
	"time"

	"uiconfig/modules/db/postgres"
	"uiconfig/modules/db/redis"
	"uiconfig/modules/logging"
	"uiconfig/modules/middleware/ratelimit"
	"uiconfig/modules/telemetry"

	"github.com/caarlos0/env/v11"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type (
	Config struct {
		Env string `env:"ENV" envDefault:"dev"`

		HTTP    HTTPConfig     `envPrefix:"HTTP_"`
		Log     logging.Config `envPrefix:"LOG_"`
		Storage StorageConfig  `envPrefix:"STORAGE_"`

		// --- core infra ----
		Redis    redis.RedisConfig       `envPrefix:"REDIS_"`
		Postgres postgres.PostgresConfig `envPrefix:"POSTGRES_"`

		// --- middlewares ----
		RateLimit ratelimit.RestHTTPConfig `envPrefix:"RATE_LIMIT_"`

		// --- otel ----
		// since it has special naming conventions, we do not use prefix here
		Otel telemetry.Config
	}

	HTTPConfig struct {
		Host         string        `env:"HOST" envDefault:"0.0.0.0"`
		Port         int           `env:"PORT" envDefault:"8080"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	}

	StorageConfig struct {
		Backend string `env:"BACKEND" envDefault:"memory"`
		// postgres table
		Table string `env:"TABLE" envDefault:"profiles"`
		// redis key prefix, keep the hash tag so all keys share a slot
		KeyPrefix string `env:"KEY_PREFIX" envDefault:"uiconfig:{profiles}:"`
		// redis client side caching of single reads, 0 disables
		CacheTTL time.Duration `env:"CACHE_TTL"`
	}
)

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(c *Config) error {
	var errs []error
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("HTTP_PORT %d out of range", c.HTTP.Port))
	}
	if c.HTTP.ReadTimeout <= 0 || c.HTTP.WriteTimeout <= 0 {
		errs = append(errs, errors.New("HTTP timeouts must be positive"))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, err)
	}

	switch c.Storage.Backend {
	case BackendMemory, BackendPostgres, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_BACKEND %q unknown", c.Storage.Backend))
	}
	if c.Storage.CacheTTL < 0 {
		errs = append(errs, errors.New("STORAGE_CACHE_TTL must not be negative"))
	}

	if c.RateLimit.Enabled {
		switch c.RateLimit.Backend {
		case ratelimit.BackendMemory, ratelimit.BackendRedis:
		default:
			errs = append(errs, fmt.Errorf("RATE_LIMIT_BACKEND %q unknown", c.RateLimit.Backend))
		}
	}
	return errors.Join(errs...)
}

// NeedsRedis reports whether any enabled component talks to Redis.
func (c *Config) NeedsRedis() bool {
	return c.Storage.Backend == BackendRedis ||
		(c.RateLimit.Enabled && c.RateLimit.Backend == ratelimit.BackendRedis)
}

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

package postgres

import "time"

type (
	// Note: For env parsing to work, we must export all struct fields
	PostgresConfig struct {
		WriteConfig    PoolConfig   `envPrefix:"PRIMARY_"`
		ReadConfigs    []PoolConfig `envPrefix:"REPLICA_"`
		MigrateOnStart bool         `env:"MIGRATE_ON_START" envDefault:"false"`
		// PgBouncer switches pgx to the simple protocol (no server-side prepared statements).
		PgBouncer bool `env:"PGBOUNCER" envDefault:"false"`

		ApplicationName  string        `env:"APPLICATION_NAME" envDefault:"uiconfig"`
		StatementTimeout time.Duration `env:"STATEMENT_TIMEOUT" envDefault:"0s"`
	}

	PoolConfig struct {
		Host         string `env:"HOST"     envDefault:"localhost"`
		Port         uint16 `env:"PORT"     envDefault:"5432"`
		User         string `env:"USER"     envDefault:"postgres"`
		Password     string `env:"PASSWORD" envDefault:"postgres"`
		Database     string `env:"DATABASE" envDefault:"postgres"`
		SSLMode      string `env:"SSL_MODE" envDefault:"disable"`
		PoolMaxConns int    `env:"POOL_MAX_CONNS" envDefault:"5"`
	}
)

// Options turns config switches into pgx pool options.
func (c *PostgresConfig) Options() PostgresOptions {
	var opts PostgresOptions
	if c.PgBouncer {
		opts.both(WithPgBouncerSimpleProtocol())
	}
	if c.ApplicationName != "" {
		opts.both(WithApplicationName(c.ApplicationName))
	}
	if c.StatementTimeout > 0 {
		opts.both(WithStatementTimeout(c.StatementTimeout))
	}
	return opts
}

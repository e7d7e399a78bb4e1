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

import (
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxConfigOption mutates a pool config after the DSN is parsed.
type PgxConfigOption func(cfg *pgxpool.Config)

// PostgresOptions lets the primary and the replicas be tuned separately.
type PostgresOptions struct {
	WriterOptions []PgxConfigOption
	ReaderOptions []PgxConfigOption
}

func (o *PostgresOptions) both(opt PgxConfigOption) {
	o.WriterOptions = append(o.WriterOptions, opt)
	o.ReaderOptions = append(o.ReaderOptions, opt)
}

// WithPgBouncerSimpleProtocol turns off server-side prepared statements, which
// PgBouncer cannot route in transaction pooling mode.
func WithPgBouncerSimpleProtocol() PgxConfigOption {
	return func(cfg *pgxpool.Config) {
		cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}
}

// WithApplicationName tags connections in pg_stat_activity.
func WithApplicationName(name string) PgxConfigOption {
	return func(cfg *pgxpool.Config) {
		cfg.ConnConfig.RuntimeParams["application_name"] = name
	}
}

// WithStatementTimeout makes the server cancel statements running longer than d.
func WithStatementTimeout(d time.Duration) PgxConfigOption {
	return func(cfg *pgxpool.Config) {
		cfg.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(d.Milliseconds(), 10)
	}
}

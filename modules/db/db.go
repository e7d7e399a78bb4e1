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

// Package db holds the storage-agnostic contracts the profile adapters are
// written against. Concrete pools live in the postgres and redis subpackages.
package db

import (
	"context"
	"time"

	"github.com/stephenafamo/bob"
)

// Querier is satisfied by both bob.DB and bob.Tx, so store code runs the same
// statements inside or outside a transaction.
type Querier interface {
	bob.Executor
}

// TxFn runs inside a transaction; returning an error rolls it back.
type TxFn func(ctx context.Context, q Querier) error

type (
	ReaderConnectionManager interface {
		// Reader may hand out the primary when no replica is configured.
		Reader() Querier
	}

	ConnectionManager interface {
		ReaderConnectionManager
		Writer() Querier
	}

	TxManager interface {
		WithTx(ctx context.Context, fn TxFn) error
		WithTimeoutTx(ctx context.Context, timeout time.Duration, fn TxFn) error
	}

	HealthManager interface {
		HealthCheck(ctx context.Context) error
	}

	// ConnectionPool is everything the Postgres profile store needs.
	ConnectionPool interface {
		ConnectionManager
		TxManager
		HealthManager
		Shutdown(context.Context) error
	}

	// MigrationManager drives dbmate for the migrate command.
	MigrationManager interface {
		MigrateUp() error
		MigrateDown() error
		NewMigration(name string) error
	}
)

// KV reads single values by key. A missing key yields (nil, nil); present
// values are []byte or string depending on the backend.
type KV interface {
	AtomicGet(ctx context.Context, key string) (any, error)
}

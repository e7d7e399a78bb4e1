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
	"embed"
	"fmt"

	"github.com/amacneil/dbmate/v2/pkg/dbmate"
	_ "github.com/amacneil/dbmate/v2/pkg/driver/postgres"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationsDir is where "migrate new" writes files. Up and down always read
// the copies embedded at build time.
var MigrationsDir = "modules/db/postgres/migrations"

func (p *PostgresConnectionPool) migrator(embedded bool) *dbmate.DB {
	m := dbmate.New(dsn(&p.primary, nil))
	m.AutoDumpSchema = false
	m.MigrationsDir = []string{MigrationsDir}
	if embedded {
		m.FS = migrationsFS
		m.MigrationsDir = []string{"migrations"}
	}
	return m
}

// MigrateUp creates the database when missing and applies pending migrations.
func (p *PostgresConnectionPool) MigrateUp() error {
	if err := p.migrator(true).CreateAndMigrate(); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// MigrateDown rolls back the latest applied migration.
func (p *PostgresConnectionPool) MigrateDown() error {
	if err := p.migrator(true).Rollback(); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// NewMigration writes an empty migration file into MigrationsDir.
func (p *PostgresConnectionPool) NewMigration(name string) error {
	if err := p.migrator(false).NewMigration(name); err != nil {
		return fmt.Errorf("new migration %q: %w", name, err)
	}
	return nil
}

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
	"fmt"

	"uiconfig/modules/appconfig"
	"uiconfig/modules/db/postgres"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Create the database if needed and apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withPool(cmd, (*postgres.PostgresConnectionPool).MigrateUp)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withPool(cmd, (*postgres.PostgresConnectionPool).MigrateDown)
			},
		},
		&cobra.Command{
			Use:   "new <name>",
			Short: "Write a new migration file under " + postgres.MigrationsDir,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withPool(cmd, func(p *postgres.PostgresConnectionPool) error {
					return p.NewMigration(args[0])
				})
			},
		},
	)
	return cmd
}

func withPool(cmd *cobra.Command, fn func(*postgres.PostgresConnectionPool) error) error {
	cfg, err := appconfig.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx := cmd.Context()
	pool, err := postgres.New(ctx, &cfg.Postgres, cfg.Postgres.Options())
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	defer pool.Shutdown(ctx)
	return fn(pool)
}

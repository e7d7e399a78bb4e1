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

package pg

import (
	"uiconfig/core/profile/domain"
	"uiconfig/modules/db"
)

var _ domain.ProfileStorage = (*PostgresProfileStore)(nil)

// PostgresProfileStore reads from replicas when configured and writes to the primary.
type PostgresProfileStore struct {
	*PostgresProfileReader
	*PostgresProfileWriter
}

func NewPostgresProfileStore(pool db.ConnectionPool, table string) *PostgresProfileStore {
	if table == "" {
		table = DefaultTable
	}
	return &PostgresProfileStore{
		PostgresProfileReader: NewPostgresProfileReader(pool, table),
		PostgresProfileWriter: NewPostgresProfileWriter(pool, table),
	}
}

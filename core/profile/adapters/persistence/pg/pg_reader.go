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
	"context"

	"uiconfig/core/profile/domain"
	"uiconfig/modules/db"

	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"
)

var _ domain.ProfileReadStore = (*PostgresProfileReader)(nil)

type PostgresProfileReader struct {
	table string
	pool  db.ReaderConnectionManager // calls Reader() at runtime
}

func NewPostgresProfileReader(pool db.ReaderConnectionManager, table string) *PostgresProfileReader {
	return &PostgresProfileReader{
		table: table,
		pool:  pool,
	}
}

func (r *PostgresProfileReader) GetAllProfiles(ctx context.Context) ([]domain.Profile, error) {
	query := psql.Select(
		sm.Columns(profileColumns...),
		sm.From(r.table),
		sm.Where(psql.Quote("deleted_at").IsNull()),
		sm.OrderBy("created_at").Asc(),
		sm.OrderBy("id").Asc(),
	)

	rows, err := bob.All(ctx, r.pool.Reader(), query, scan.StructMapper[ProfileRow]())
	if err != nil {
		return nil, wrapProfileError(err)
	}

	out := make([]domain.Profile, len(rows))
	for i, row := range rows {
		out[i] = toProfile(row)
	}
	return out, nil
}

func (r *PostgresProfileReader) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	query := psql.Select(
		sm.Columns(profileColumns...),
		sm.From(r.table),
		sm.Where(psql.Quote("id").EQ(psql.Arg(uid))),
		sm.Where(psql.Quote("deleted_at").IsNull()),
	)

	row, err := bob.One(ctx, r.pool.Reader(), query, scan.StructMapper[ProfileRow]())
	if err != nil {
		return nil, wrapProfileError(err)
	}
	p := toProfile(row)
	return &p, nil
}

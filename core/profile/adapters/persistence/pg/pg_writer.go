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
	"database/sql"
	"errors"
	"fmt"

	"uiconfig/core/profile/domain"
	"uiconfig/modules/db"
	"uiconfig/modules/etag"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/stephenafamo/scan"
)

var _ domain.ProfileWriteStore = (*PostgresProfileWriter)(nil)

type (
	PostgresProfileWriter struct {
		table string
		conns db.ConnectionManager
		txm   db.TxManager
	}

	writerPool interface {
		db.ConnectionManager
		db.TxManager
	}
)

func NewPostgresProfileWriter(pool writerPool, table string) *PostgresProfileWriter {
	return &PostgresProfileWriter{
		table: table,
		conns: pool,
		txm:   pool,
	}
}

func (w *PostgresProfileWriter) CreateProfile(ctx context.Context, profile domain.Profile) (*domain.Profile, error) {
	uid, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate profile id: %w", err)
	}

	query := psql.Insert(
		im.Into(w.table, "id", "display_name", "desired_properties", "version_number"),
		im.Values(
			psql.Arg(uid),
			psql.Arg(profile.DisplayName),
			psql.Arg(jsonbArg(profile.DesiredProperties)),
			psql.Arg(int64(1)),
		),
		im.Returning(profileColumns...),
	)

	row, err := bob.One(ctx, w.conns.Writer(), query, scan.StructMapper[ProfileRow]())
	if err != nil {
		return nil, wrapProfileError(err)
	}
	p := toProfile(row)
	return &p, nil
}

// UpdateProfile bumps version_number only when the stored version still
// matches the precondition. When nothing matched, a second lookup in the same
// transaction tells a stale etag apart from a missing row.
func (w *PostgresProfileWriter) UpdateProfile(ctx context.Context, id string, profile domain.Profile, tag string) (*domain.Profile, error) {
	if tag == "" {
		return nil, domain.ErrInvalidData
	}
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	// an unparseable etag can never match; versions start at 1
	expected, err := etag.ParseVersion(tag)
	if err != nil {
		expected = 0
	}

	var updated ProfileRow
	err = w.txm.WithTx(ctx, func(ctx context.Context, q db.Querier) error {
		query := psql.Update(
			um.Table(w.table),
			um.SetCol("display_name").To(psql.Arg(profile.DisplayName)),
			um.SetCol("desired_properties").To(psql.Arg(jsonbArg(profile.DesiredProperties))),
			um.SetCol("version_number").To(psql.Raw("version_number + 1")),
			um.SetCol("updated_at").To(psql.Raw("CURRENT_TIMESTAMP")),
			um.Where(psql.Quote("id").EQ(psql.Arg(uid))),
			um.Where(psql.Quote("deleted_at").IsNull()),
			um.Where(psql.Quote("version_number").EQ(psql.Arg(expected))),
			um.Returning(profileColumns...),
		)

		row, err := bob.One(ctx, q, query, scan.StructMapper[ProfileRow]())
		if err == nil {
			updated = row
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		exists, err := w.exists(ctx, q, uid)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrConflict
		}
		return domain.ErrProfileNotFound
	})
	if err != nil {
		return nil, wrapProfileError(err)
	}

	p := toProfile(updated)
	return &p, nil
}

// DeleteProfile soft deletes the row.
func (w *PostgresProfileWriter) DeleteProfile(ctx context.Context, id string) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}

	query := psql.Update(
		um.Table(w.table),
		um.SetCol("deleted_at").To(psql.Raw("CURRENT_TIMESTAMP")),
		um.SetCol("version_number").To(psql.Raw("version_number + 1")),
		um.Where(psql.Quote("id").EQ(psql.Arg(uid))),
		um.Where(psql.Quote("deleted_at").IsNull()),
		um.Returning("id"),
	)

	if _, err := bob.One(ctx, w.conns.Writer(), query, scan.SingleColumnMapper[uuid.UUID]); err != nil {
		return wrapProfileError(err)
	}
	return nil
}

func (w *PostgresProfileWriter) exists(ctx context.Context, q db.Querier, uid uuid.UUID) (bool, error) {
	query := psql.Select(
		sm.Columns("id"),
		sm.From(w.table),
		sm.Where(psql.Quote("id").EQ(psql.Arg(uid))),
		sm.Where(psql.Quote("deleted_at").IsNull()),
	)

	_, err := bob.One(ctx, q, query, scan.SingleColumnMapper[uuid.UUID])
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	default:
		return false, err
	}
}

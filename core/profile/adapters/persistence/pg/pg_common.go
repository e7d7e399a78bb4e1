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
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"

	"uiconfig/core/profile/domain"
	"uiconfig/modules/etag"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DefaultTable matches the table created by the bundled migrations.
const DefaultTable = "profiles"

var profileColumns = []any{"id", "display_name", "desired_properties", "version_number"}

type (
	// ProfileRow is the persistence entity shape used by storage adapters.
	ProfileRow struct {
		ID                uuid.UUID `db:"id"`
		DisplayName       string    `db:"display_name"`
		DesiredProperties []byte    `db:"desired_properties"`
		Version           int64     `db:"version_number"`
	}
)

func toProfile(row ProfileRow) domain.Profile {
	return domain.Profile{
		ID:                row.ID.String(),
		DisplayName:       row.DisplayName,
		DesiredProperties: json.RawMessage(bytes.Clone(row.DesiredProperties)),
		ETag:              etag.ETag(etag.Version(row.Version)),
	}
}

// jsonbArg renders desired properties for a jsonb parameter. An absent
// document is stored as JSON null.
func jsonbArg(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "null"
	}
	return string(raw)
}

// parseID maps ids that are not UUIDs to not found, since no row can carry them.
func parseID(id string) (uuid.UUID, error) {
	uid, err := uuid.FromString(id)
	if err != nil {
		return uuid.Nil, domain.ErrProfileNotFound
	}
	return uid, nil
}

func wrapProfileError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrProfileNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return domain.ErrDuplicateProfile
		case "22P02": // invalid_text_representation, e.g. bad jsonb
			return domain.ErrInvalidData
		case "40001": // serialization_failure
			return domain.ErrConflict
		}
	}

	return err
}

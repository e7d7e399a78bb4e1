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

package redis

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"

	"uiconfig/core/profile/domain"
	"uiconfig/modules/db"
	redisdb "uiconfig/modules/db/redis"
	"uiconfig/modules/etag"

	"github.com/gofrs/uuid/v5"
	"github.com/redis/rueidis"
)

// DefaultKeyPrefix carries a hash tag so every key of the store lands in the
// same cluster slot, which the scripts and MGET rely on.
const DefaultKeyPrefix = "uiconfig:{profiles}:"

var (
	_ domain.ProfileStorage = (*ProfileStore)(nil)

	//go:embed create.lua
	createLua string
	//go:embed update.lua
	updateLua string
	//go:embed delete.lua
	deleteLua string

	luaCreate = rueidis.NewLuaScript(createLua)
	luaUpdate = rueidis.NewLuaScript(updateLua)
	luaDelete = rueidis.NewLuaScript(deleteLua)
)

const (
	updateMissing  = -1
	updateConflict = -2
)

type (
	// ProfileStore keeps each profile as a JSON document next to a plain
	// integer version key. Scripts compare the version key, so they never
	// decode user JSON.
	ProfileStore struct {
		client rueidis.Client
		prefix string
		docs   db.JSONKV[profileDoc]
	}

	profileDoc struct {
		ID                string          `json:"id"`
		DisplayName       string          `json:"displayName"`
		DesiredProperties json.RawMessage `json:"desiredProperties"`
		Version           int64           `json:"version"`
	}

	Option func(*options)

	options struct {
		prefix   string
		cacheTTL time.Duration
	}
)

func WithKeyPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithCacheTTL serves single reads from the rueidis client-side cache. Redis
// pushes an invalidation when a cached document changes, but it can trail the
// write reply, so a GetProfile right after an update may still return the
// previous version. ttl bounds that window; listings are never cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *options) { o.cacheTTL = ttl }
}

func NewProfileStore(client rueidis.Client, opts ...Option) *ProfileStore {
	o := options{prefix: DefaultKeyPrefix}
	for _, opt := range opts {
		opt(&o)
	}
	prefix := redisdb.NormalizePrefix(o.prefix)

	kvOpts := []redisdb.RedisKVOption{redisdb.WithKeyPrefix(prefix)}
	if o.cacheTTL > 0 {
		kvOpts = append(kvOpts, redisdb.WithClientSideCache(o.cacheTTL))
	}

	return &ProfileStore{
		client: client,
		prefix: prefix,
		docs:   db.NewJSONKV[profileDoc](redisdb.NewRedisKV(client, kvOpts...)),
	}
}

func (d profileDoc) toProfile() domain.Profile {
	return domain.Profile{
		ID:                d.ID,
		DisplayName:       d.DisplayName,
		DesiredProperties: d.DesiredProperties,
		ETag:              etag.ETag(etag.Version(d.Version)),
	}
}

func docKey(id string) string { return "profile:" + id }

func (s *ProfileStore) docKey(id string) string { return s.prefix + docKey(id) }
func (s *ProfileStore) verKey(id string) string { return s.prefix + docKey(id) + ":version" }
func (s *ProfileStore) indexKey() string        { return s.prefix + "index" }

func encode(d profileDoc) (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidData, err)
	}
	return rueidis.BinaryString(b), nil
}

func (s *ProfileStore) GetAllProfiles(ctx context.Context) ([]domain.Profile, error) {
	ids, err := s.client.Do(ctx, s.client.B().Smembers().Key(s.indexKey()).Build()).AsStrSlice()
	if err != nil {
		return nil, fmt.Errorf("redis store: list ids: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Profile{}, nil
	}
	// UUIDv7 ids sort by creation time
	slices.Sort(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.docKey(id)
	}
	msgs, err := s.client.Do(ctx, s.client.B().Mget().Key(keys...).Build()).ToArray()
	if err != nil {
		return nil, fmt.Errorf("redis store: load profiles: %w", err)
	}

	out := make([]domain.Profile, 0, len(msgs))
	for i, msg := range msgs {
		// deleted between SMEMBERS and MGET
		if msg.IsNil() {
			continue
		}
		raw, err := msg.ToString()
		if err != nil {
			return nil, fmt.Errorf("redis store: load %q: %w", ids[i], err)
		}
		var d profileDoc
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			return nil, fmt.Errorf("redis store: decode %q: %w", ids[i], err)
		}
		out = append(out, d.toProfile())
	}
	return out, nil
}

func (s *ProfileStore) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	d, err := s.docs.Get(ctx, docKey(id))
	if err != nil {
		return nil, fmt.Errorf("redis store: get %q: %w", id, err)
	}
	if d == nil {
		return nil, domain.ErrProfileNotFound
	}
	p := d.toProfile()
	return &p, nil
}

func (s *ProfileStore) CreateProfile(ctx context.Context, profile domain.Profile) (*domain.Profile, error) {
	uid, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("redis store: generate id: %w", err)
	}
	d := profileDoc{
		ID:                uid.String(),
		DisplayName:       profile.DisplayName,
		DesiredProperties: profile.DesiredProperties,
		Version:           1,
	}
	body, err := encode(d)
	if err != nil {
		return nil, err
	}

	keys := []string{s.docKey(d.ID), s.verKey(d.ID), s.indexKey()}
	created, err := luaCreate.Exec(ctx, s.client, keys, []string{body, d.ID}).AsInt64()
	if err != nil {
		return nil, fmt.Errorf("redis store: create: %w", err)
	}
	if created == 0 {
		return nil, domain.ErrDuplicateProfile
	}

	p := d.toProfile()
	return &p, nil
}

func (s *ProfileStore) UpdateProfile(ctx context.Context, id string, profile domain.Profile, tag string) (*domain.Profile, error) {
	if tag == "" {
		return nil, domain.ErrInvalidData
	}
	// an unparseable etag can never match; versions start at 1
	expected, err := etag.ParseVersion(tag)
	if err != nil {
		expected = 0
	}

	d := profileDoc{
		ID:                id,
		DisplayName:       profile.DisplayName,
		DesiredProperties: profile.DesiredProperties,
		Version:           expected + 1,
	}
	body, err := encode(d)
	if err != nil {
		return nil, err
	}

	keys := []string{s.docKey(id), s.verKey(id)}
	version, err := luaUpdate.Exec(ctx, s.client, keys, []string{body, strconv.FormatInt(expected, 10)}).AsInt64()
	if err != nil {
		return nil, fmt.Errorf("redis store: update %q: %w", id, err)
	}
	switch version {
	case updateMissing:
		return nil, domain.ErrProfileNotFound
	case updateConflict:
		return nil, domain.ErrConflict
	}

	d.Version = version
	p := d.toProfile()
	return &p, nil
}

func (s *ProfileStore) DeleteProfile(ctx context.Context, id string) error {
	keys := []string{s.docKey(id), s.verKey(id), s.indexKey()}
	deleted, err := luaDelete.Exec(ctx, s.client, keys, []string{id}).AsInt64()
	if err != nil {
		return fmt.Errorf("redis store: delete %q: %w", id, err)
	}
	if deleted == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

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

// Package storagetest holds the behavioural checks every domain.ProfileStorage
// adapter must pass. Adapters call Run from their own tests with a factory
// returning an empty store.
package storagetest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"uiconfig/core/profile/domain"
	"uiconfig/modules/etag"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Factory func(t *testing.T) domain.ProfileStorage

func Run(t *testing.T, newStore Factory) {
	t.Run("create assigns id and etag", func(t *testing.T) { testCreate(t, newStore(t)) })
	t.Run("get missing", func(t *testing.T) { testGetMissing(t, newStore(t)) })
	t.Run("list", func(t *testing.T) { testList(t, newStore(t)) })
	t.Run("update", func(t *testing.T) { testUpdate(t, newStore(t)) })
	t.Run("update preconditions", func(t *testing.T) { testUpdatePreconditions(t, newStore(t)) })
	t.Run("delete", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("concurrent updates", func(t *testing.T) { testConcurrentUpdates(t, newStore(t)) })
}

func sample(name string) domain.Profile {
	return domain.Profile{
		DisplayName:       name,
		DesiredProperties: json.RawMessage(`{"key":"value","nested":{"n":1}}`),
	}
}

func testCreate(t *testing.T, s domain.ProfileStorage) {
	ctx := context.Background()
	in := sample("Profile")
	in.ID = "client-id"
	in.ETag = "client-etag"

	created, err := s.CreateProfile(ctx, in)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.NotEqual(t, "client-id", created.ID)
	assert.NotEmpty(t, created.ETag)
	assert.NotEqual(t, "client-etag", created.ETag)
	assert.Equal(t, "Profile", created.DisplayName)
	assert.JSONEq(t, string(in.DesiredProperties), string(created.DesiredProperties))

	got, err := s.GetProfile(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.ETag, got.ETag)
	assert.Equal(t, created.DisplayName, got.DisplayName)
	assert.JSONEq(t, string(created.DesiredProperties), string(got.DesiredProperties))
}

func testGetMissing(t *testing.T, s domain.ProfileStorage) {
	_, err := s.GetProfile(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func testList(t *testing.T, s domain.ProfileStorage) {
	ctx := context.Background()

	empty, err := s.GetAllProfiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	want := map[string]string{}
	for _, name := range []string{"Profile1", "Profile2", "Profile3"} {
		p, err := s.CreateProfile(ctx, sample(name))
		require.NoError(t, err)
		want[p.ID] = name
	}

	all, err := s.GetAllProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(want))
	for _, p := range all {
		assert.Equal(t, want[p.ID], p.DisplayName)
		assert.NotEmpty(t, p.ETag)
	}
}

func testUpdate(t *testing.T, s domain.ProfileStorage) {
	ctx := context.Background()
	created, err := s.CreateProfile(ctx, sample("before"))
	require.NoError(t, err)

	next := domain.Profile{
		ID:                "ignored",
		DisplayName:       "after",
		DesiredProperties: json.RawMessage(`{"key":"changed"}`),
	}
	updated, err := s.UpdateProfile(ctx, created.ID, next, created.ETag)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "after", updated.DisplayName)
	assert.JSONEq(t, `{"key":"changed"}`, string(updated.DesiredProperties))
	assert.NotEqual(t, created.ETag, updated.ETag)

	got, err := s.GetProfile(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.ETag, got.ETag)
	assert.Equal(t, "after", got.DisplayName)
}

func testUpdatePreconditions(t *testing.T, s domain.ProfileStorage) {
	ctx := context.Background()
	created, err := s.CreateProfile(ctx, sample("p"))
	require.NoError(t, err)

	_, err = s.UpdateProfile(ctx, created.ID, sample("p"), "")
	assert.ErrorIs(t, err, domain.ErrInvalidData)

	_, err = s.UpdateProfile(ctx, created.ID, sample("p"), "not-an-etag")
	assert.ErrorIs(t, err, domain.ErrConflict)

	updated, err := s.UpdateProfile(ctx, created.ID, sample("p2"), created.ETag)
	require.NoError(t, err)

	// the original etag is stale now
	_, err = s.UpdateProfile(ctx, created.ID, sample("p3"), created.ETag)
	assert.ErrorIs(t, err, domain.ErrConflict)

	// tags are compared as versions
	version, err := etag.ParseVersion(updated.ETag)
	require.NoError(t, err)
	padded := fmt.Sprintf("v:%03d", version)
	updated, err = s.UpdateProfile(ctx, created.ID, sample("p4"), padded)
	require.NoError(t, err, padded)
	assert.Equal(t, etag.ETag(etag.Version(version+1)), updated.ETag)

	_, err = s.UpdateProfile(ctx, "does-not-exist", sample("p"), updated.ETag)
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func testDelete(t *testing.T, s domain.ProfileStorage) {
	ctx := context.Background()
	created, err := s.CreateProfile(ctx, sample("p"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteProfile(ctx, created.ID))

	_, err = s.GetProfile(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	err = s.DeleteProfile(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	_, err = s.UpdateProfile(ctx, created.ID, sample("p"), created.ETag)
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	all, err := s.GetAllProfiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

// Writers racing on the same etag: exactly one must win.
func testConcurrentUpdates(t *testing.T, s domain.ProfileStorage) {
	ctx := context.Background()
	created, err := s.CreateProfile(ctx, sample("race"))
	require.NoError(t, err)

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for range writers {
		wg.Go(func() {
			_, err := s.UpdateProfile(ctx, created.ID, sample("winner"), created.ETag)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case assert.ErrorIs(t, err, domain.ErrConflict):
				conflicts++
			}
		})
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, writers-1, conflicts)
}

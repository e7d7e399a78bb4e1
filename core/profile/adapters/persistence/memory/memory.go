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

package memory

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"uiconfig/core/profile/domain"
	"uiconfig/modules/etag"

	"github.com/gofrs/uuid/v5"
)

var _ domain.ProfileStorage = (*ProfileStore)(nil)

type (
	// ProfileStore keeps profiles in process memory. It is the default backend
	// for local runs and the reference implementation of the storage contract.
	ProfileStore struct {
		mu      sync.RWMutex
		records map[string]*record
		// order holds ids in insertion order so listings are stable
		order []string
	}

	record struct {
		id          string
		displayName string
		properties  []byte
		version     int64
	}
)

func (r *record) V() string {
	return etag.Version(r.version).V()
}

func (r *record) toProfile() domain.Profile {
	return domain.Profile{
		ID:                r.id,
		DisplayName:       r.displayName,
		DesiredProperties: bytes.Clone(r.properties),
		ETag:              etag.ETag(r),
	}
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{records: make(map[string]*record)}
}

// GetAllProfiles implements domain.ProfileReadStore.
func (s *ProfileStore) GetAllProfiles(ctx context.Context) ([]domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Profile, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id].toProfile())
	}
	return out, nil
}

// GetProfile implements domain.ProfileReadStore.
func (s *ProfileStore) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	p := rec.toProfile()
	return &p, nil
}

// CreateProfile implements domain.ProfileWriteStore.
func (s *ProfileStore) CreateProfile(ctx context.Context, profile domain.Profile) (*domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	uid, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("memory store: generate id: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uid.String()
	if _, exists := s.records[id]; exists {
		return nil, domain.ErrDuplicateProfile
	}
	rec := &record{
		id:          id,
		displayName: profile.DisplayName,
		properties:  bytes.Clone(profile.DesiredProperties),
		version:     1,
	}
	s.records[id] = rec
	s.order = append(s.order, id)

	p := rec.toProfile()
	return &p, nil
}

// UpdateProfile implements domain.ProfileWriteStore.
func (s *ProfileStore) UpdateProfile(ctx context.Context, id string, profile domain.Profile, tag string) (*domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if tag == "" {
		return nil, domain.ErrInvalidData
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	// compare versions, not strings, so "v:01" and "v:1" agree across backends
	if expected, err := etag.ParseVersion(tag); err != nil || expected != rec.version {
		return nil, domain.ErrConflict
	}

	rec.displayName = profile.DisplayName
	rec.properties = bytes.Clone(profile.DesiredProperties)
	rec.version++

	p := rec.toProfile()
	return &p, nil
}

// DeleteProfile implements domain.ProfileWriteStore.
func (s *ProfileStore) DeleteProfile(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return domain.ErrProfileNotFound
	}
	delete(s.records, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

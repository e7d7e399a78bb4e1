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

package domain

import "context"

// ProfileReadStore defines the port for read operations on profiles.
//
// Implementations may route reads to a replica; all methods are read-only.
type ProfileReadStore interface {
	// GetAllProfiles returns every live profile. The order is implementation
	// defined but stable between calls with no intervening writes.
	GetAllProfiles(ctx context.Context) ([]Profile, error)

	// GetProfile retrieves a single profile by its identifier.
	// Returns ErrProfileNotFound if the profile doesn't exist.
	GetProfile(ctx context.Context, id string) (*Profile, error)
}

// ProfileWriteStore defines the port for write operations on profiles.
//
// Optimistic Concurrency:
// Every stored profile carries an opaque ETag. UpdateProfile takes the ETag
// the client last observed as a precondition; if it no longer matches, the
// write is rejected with ErrConflict and nothing is modified. Concurrent
// writers to the same profile are arbitrated here, never above this port.
type ProfileWriteStore interface {
	// CreateProfile stores a new profile and returns it with a freshly
	// assigned ID and ETag. Any ID or ETag set on the input is ignored.
	//
	// Returns ErrInvalidData for unusable input and ErrDuplicateProfile if the
	// generated identifier collides with an existing profile.
	CreateProfile(ctx context.Context, profile Profile) (*Profile, error)

	// UpdateProfile replaces DisplayName and DesiredProperties of the profile
	// identified by id, provided etag matches the stored ETag.
	//
	// Returns:
	//   - The updated profile carrying a new ETag
	//   - ErrInvalidData if etag is empty
	//   - ErrProfileNotFound if the profile doesn't exist
	//   - ErrConflict if etag is stale
	UpdateProfile(ctx context.Context, id string, profile Profile, etag string) (*Profile, error)

	// DeleteProfile removes the profile identified by id.
	// Deleting is not idempotent: a missing profile yields ErrProfileNotFound.
	DeleteProfile(ctx context.Context, id string) error
}

// ProfileStorage is the storage collaborator consumed by the REST adapter.
type ProfileStorage interface {
	ProfileReadStore
	ProfileWriteStore
}

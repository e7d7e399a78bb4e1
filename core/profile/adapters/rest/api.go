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

// Package rest is the HTTP adapter for profiles. It maps between the wire
// model and the domain model and delegates every operation to storage.
package rest

import (
	"uiconfig/core/profile/domain"
)

// ProfileAPI implements the profile handlers. It holds no mutable state, so
// a single value serves all requests concurrently.
type ProfileAPI struct {
	storage domain.ProfileStorage
}

func NewProfileAPI(storage domain.ProfileStorage) *ProfileAPI {
	return &ProfileAPI{storage: storage}
}

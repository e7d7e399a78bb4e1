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

import "encoding/json"

type (
	// Profile is a named document of desired properties.
	//
	// ID and ETag are owned by the storage layer: they are assigned on create
	// (and ETag refreshed on every update) and are never fabricated above it.
	Profile struct {
		ID          string
		DisplayName string

		// DesiredProperties is opaque to this service and passed through verbatim.
		DesiredProperties json.RawMessage

		ETag string
	}
)

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

package rest

import (
	"net/http"

	"uiconfig/modules/api/serde"
)

// ListProfiles returns every profile in storage order.
func (p *ProfileAPI) ListProfiles(w http.ResponseWriter, r *http.Request) error {
	profiles, err := p.storage.GetAllProfiles(r.Context())
	if err != nil {
		return err
	}
	serde.WriteJSON(w, http.StatusOK, toAPIList(profiles))
	return nil
}

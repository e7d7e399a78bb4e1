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
	"uiconfig/modules/etag"
)

// GetProfile returns 200 with an ETag header, 404 if the id is unknown.
func (p *ProfileAPI) GetProfile(w http.ResponseWriter, r *http.Request) error {
	prof, err := p.storage.GetProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		return err
	}
	w.Header().Set("ETag", etag.Quote(prof.ETag))
	serde.WriteJSON(w, http.StatusOK, toAPIModel(*prof))
	return nil
}

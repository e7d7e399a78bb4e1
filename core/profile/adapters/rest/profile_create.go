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

// CreateProfile stores the body as a new profile. Any Id or ETag in the body
// is ignored; the response carries the ones storage assigned.
func (p *ProfileAPI) CreateProfile(w http.ResponseWriter, r *http.Request) error {
	var body ProfileAPIModel
	if err := serde.ParseJSONBody(w, r, &body); err != nil {
		return err
	}
	created, err := p.storage.CreateProfile(r.Context(), toDomainModel(body))
	if err != nil {
		return err
	}
	w.Header().Set("Location", profileLocation(created.ID))
	w.Header().Set("ETag", etag.Quote(created.ETag))
	serde.WriteJSON(w, http.StatusCreated, toAPIModel(*created))
	return nil
}

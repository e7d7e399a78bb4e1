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

// UpdateProfile replaces the profile at {id}. The precondition is the body
// ETag, or the If-Match header when the body carries none.
func (p *ProfileAPI) UpdateProfile(w http.ResponseWriter, r *http.Request) error {
	var body ProfileAPIModel
	if err := serde.ParseJSONBody(w, r, &body); err != nil {
		return err
	}
	precondition := body.ETag
	if precondition == "" {
		precondition = etag.Unquote(r.Header.Get("If-Match"))
	}

	updated, err := p.storage.UpdateProfile(r.Context(), r.PathValue("id"), toDomainModel(body), precondition)
	if err != nil {
		return err
	}
	w.Header().Set("ETag", etag.Quote(updated.ETag))
	serde.WriteJSON(w, http.StatusOK, toAPIModel(*updated))
	return nil
}

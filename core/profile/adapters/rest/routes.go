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
)

const profilesPath = "/" + VersionPath + "/profiles"

// Register mounts the profile routes on mux.
func (p *ProfileAPI) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+profilesPath, handle(p.ListProfiles))
	mux.HandleFunc("POST "+profilesPath, handle(p.CreateProfile))
	mux.HandleFunc("GET "+profilesPath+"/{id}", handle(p.GetProfile))
	mux.HandleFunc("PUT "+profilesPath+"/{id}", handle(p.UpdateProfile))
	mux.HandleFunc("DELETE "+profilesPath+"/{id}", handle(p.DeleteProfile))
	mux.HandleFunc("GET /healthz", p.Healthz)
}

func profileLocation(id string) string {
	return profilesPath + "/" + id
}

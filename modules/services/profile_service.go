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

package services

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"

	"uiconfig/core/profile/adapters/rest"
	"uiconfig/modules/middleware"
	"uiconfig/modules/server"
)

var _ server.RegistrableService = (*ProfileAPIService)(nil)

// ProfileAPIService mounts the profile routes and the request validator built
// from the profile OpenAPI document.
type ProfileAPIService struct {
	api      *rest.ProfileAPI
	validate func(http.Handler) http.Handler
}

// NewProfileAPIService fails when the OpenAPI document is missing or invalid,
// so a broken build never starts serving unvalidated requests.
func NewProfileAPIService(ctx context.Context, api *rest.ProfileAPI, specFS fs.FS, specPath string) (*ProfileAPIService, error) {
	spec, err := middleware.LoadSpec(ctx, specFS, specPath)
	if err != nil {
		return nil, err
	}
	validate, err := middleware.OpenAPIValidation(spec, middleware.ProblemValidationErrorHandler)
	if err != nil {
		return nil, fmt.Errorf("profile service: %w", err)
	}
	return &ProfileAPIService{api: api, validate: validate}, nil
}

func (s *ProfileAPIService) Register(mux *http.ServeMux) {
	s.api.Register(mux)
}

func (s *ProfileAPIService) Middlewares() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{s.validate}
}

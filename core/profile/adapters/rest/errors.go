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
	"errors"
	"log/slog"
	"net/http"

	"uiconfig/core/profile/domain"
	"uiconfig/modules/api/serde"
	"uiconfig/modules/middleware/problem"

	"go.opentelemetry.io/otel/trace"
)

func problemFromError(err error) *problem.Problem {
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		return problem.NotFound("profile not found")
	case errors.Is(err, domain.ErrConflict):
		return problem.Conflict("etag does not match the current version")
	case errors.Is(err, domain.ErrDuplicateProfile):
		return problem.Conflict("profile already exists")
	case errors.Is(err, domain.ErrInvalidData):
		return problem.UnprocessableEntity("invalid profile data")
	case errors.Is(err, serde.ErrMalformedBody):
		return problem.BadRequest(err.Error())
	case errors.Is(err, serde.ErrBodyTooLarge):
		return problem.Status(http.StatusRequestEntityTooLarge, err.Error())
	default:
		return problem.Internal("unhandled error")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	traceID := ""
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		traceID = sc.TraceID().String()
	}

	p := problemFromError(err)
	problem.WithInstance(r.URL.Path)(p)
	problem.WithTraceID(traceID)(p)

	if p.Status >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
	problem.Write(w, p)
}

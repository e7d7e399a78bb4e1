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

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"uiconfig/modules/middleware/problem"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
)

type ValidationError struct {
	Field  string
	Reason string
}

// ProblemValidationErrorHandler renders validation failures as a problem
// document listing every offending field.
func ProblemValidationErrorHandler(ctx context.Context, err error, w http.ResponseWriter, r *http.Request, status int) {
	slog.DebugContext(ctx, "request failed validation",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.Any("error", err),
	)

	opts := []problem.Option{problem.WithInstance(r.URL.Path)}
	for _, ve := range ExtractValidationErrors(err) {
		opts = append(opts, problem.WithInvalidParam(ve.Field, ve.Reason))
	}
	problem.Write(w, problem.Status(status, "request validation failed", opts...))
}

func ExtractValidationErrors(err error) []ValidationError {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		var out []ValidationError
		for _, item := range multi {
			out = append(out, ExtractValidationErrors(item)...)
		}
		return out
	}
	return []ValidationError{extractSingleError(err)}
}

func extractSingleError(err error) ValidationError {
	var re *openapi3filter.RequestError
	if errors.As(err, &re) {
		if isContentTypeError(re) {
			return ValidationError{Field: "Content-Type", Reason: contentTypeReason(re)}
		}
		// nested multi errors are flattened by the caller, keep the first here
		var multi openapi3.MultiError
		if errors.As(re.Err, &multi) && len(multi) > 0 {
			inner := extractSingleError(multi[0])
			if re.Parameter != nil {
				inner.Field = re.Parameter.Name
			}
			return inner
		}

		var se *openapi3.SchemaError
		if errors.As(re.Err, &se) {
			if re.Parameter != nil {
				return ValidationError{Field: re.Parameter.Name, Reason: se.Reason}
			}
			return ValidationError{Field: fieldFromPointer(se.JSONPointer()), Reason: se.Reason}
		}
		// do not echo input back
		if re.Parameter != nil {
			return ValidationError{Field: re.Parameter.Name, Reason: SafeReason(re.Reason)}
		}
		return ValidationError{Field: "body", Reason: SafeReason(re.Reason)}
	}

	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		return ValidationError{Field: fieldFromPointer(se.JSONPointer()), Reason: se.Reason}
	}

	var sre *openapi3filter.SecurityRequirementsError
	if errors.As(err, &sre) {
		return ValidationError{Field: "authorization", Reason: "missing or invalid credentials"}
	}

	return ValidationError{Field: "request", Reason: "invalid value"}
}

// fieldFromPointer keeps the top-level property of a JSON pointer.
func fieldFromPointer(ptr []string) string {
	if len(ptr) == 0 || ptr[0] == "" || ptr[0] == "0" {
		return "body"
	}
	return ptr[0]
}

// InferBodyValidationStatus returns 422 when err is a schema violation of a
// decodable body, and 0 otherwise.
func InferBodyValidationStatus(err error) int {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		for _, item := range multi {
			if InferBodyValidationStatus(item) == http.StatusUnprocessableEntity {
				return http.StatusUnprocessableEntity
			}
		}
		return 0
	}

	var re *openapi3filter.RequestError
	if errors.As(err, &re) {
		if re.RequestBody == nil || isContentTypeError(re) {
			return 0
		}
		// undecodable JSON stays a 400
		var pe *openapi3filter.ParseError
		if errors.As(re.Err, &pe) {
			return 0
		}
		return http.StatusUnprocessableEntity
	}

	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		return http.StatusUnprocessableEntity
	}
	return 0
}

// kin-openapi reports an undeclared body media type as a body error with no
// wrapped cause, e.g. `header Content-Type has unexpected value ""`.
func isContentTypeError(re *openapi3filter.RequestError) bool {
	return re.RequestBody != nil && re.Err == nil && strings.Contains(re.Reason, "Content-Type")
}

// IsUnsupportedMediaType reports whether err rejects the request body for its
// Content-Type alone.
func IsUnsupportedMediaType(err error) bool {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		return slices.ContainsFunc(multi, IsUnsupportedMediaType)
	}
	var re *openapi3filter.RequestError
	return errors.As(err, &re) && isContentTypeError(re)
}

func contentTypeReason(re *openapi3filter.RequestError) string {
	reason := "unsupported Content-Type"
	// the rejected value is quoted at the end of the reason
	if strings.HasSuffix(re.Reason, `""`) {
		reason = "missing Content-Type header"
	}
	accepted := make([]string, 0, len(re.RequestBody.Content))
	for mime := range re.RequestBody.Content {
		accepted = append(accepted, mime)
	}
	if len(accepted) == 0 {
		return reason
	}
	slices.Sort(accepted)
	return reason + ", expected " + strings.Join(accepted, " or ")
}

func SafeReason(reason string) string {
	if reason == "" {
		return "invalid value"
	}
	lower := strings.ToLower(reason)
	switch {
	case strings.Contains(lower, "doesn't match schema"):
		return "doesn't match schema"
	case strings.Contains(lower, "must be one of"):
		return reason
	case strings.Contains(lower, "value is required"):
		return "value is required"
	}
	return "invalid value"
}

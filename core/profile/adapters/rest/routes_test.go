package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"uiconfig/core/profile/adapters/persistence/memory"
	"uiconfig/modules/middleware"
	"uiconfig/modules/oapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newValidatedHandler serves the API over the memory store behind the
// OpenAPI request validator, the way the service is mounted in production.
func newValidatedHandler(t *testing.T) http.Handler {
	t.Helper()
	spec, err := middleware.LoadSpec(context.Background(), oapi.SpecFS, oapi.ProfileSpecPath)
	require.NoError(t, err)
	validate, err := middleware.OpenAPIValidation(spec, middleware.ProblemValidationErrorHandler)
	require.NoError(t, err)
	return validate(newTestMux(memory.NewProfileStore()))
}

func TestProfileLifecycle(t *testing.T) {
	h := newValidatedHandler(t)

	rec := serve(t, h, http.MethodPost, "/v1/profiles", `{"DisplayName":"first","DesiredProperties":{"theme":"dark"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeModel(t, rec)
	require.NotEmpty(t, created.Id)
	assert.Equal(t, "v:1", created.ETag)
	assert.Equal(t, "/v1/profiles/"+created.Id, rec.Header().Get("Location"))

	rec = serve(t, h, http.MethodGet, "/v1/profiles/"+created.Id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `"v:1"`, rec.Header().Get("ETag"))

	update := `{"DisplayName":"second","DesiredProperties":{"theme":"light"},"ETag":"v:1"}`
	rec = serve(t, h, http.MethodPut, "/v1/profiles/"+created.Id, update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeModel(t, rec)
	assert.Equal(t, "v:2", updated.ETag)
	assert.Equal(t, "second", updated.DisplayName)

	// replaying the stale etag loses
	rec = serve(t, h, http.MethodPut, "/v1/profiles/"+created.Id, update)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(t, h, http.MethodGet, "/v1/profiles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list ProfileListAPIModel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "second", list.Items[0].DisplayName)

	rec = serve(t, h, http.MethodDelete, "/v1/profiles/"+created.Id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(t, h, http.MethodDelete, "/v1/profiles/"+created.Id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, h, http.MethodGet, "/v1/profiles/"+created.Id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateWithoutPrecondition(t *testing.T) {
	h := newValidatedHandler(t)
	rec := serve(t, h, http.MethodPost, "/v1/profiles", `{"DisplayName":"p","DesiredProperties":{}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeModel(t, rec)

	rec = serve(t, h, http.MethodPut, "/v1/profiles/"+created.Id, `{"DisplayName":"p","DesiredProperties":{}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = serve(t, h, http.MethodPut, "/v1/profiles/"+created.Id, `{"DisplayName":"p","DesiredProperties":{},"ETag":"garbage"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRequestValidation(t *testing.T) {
	h := newValidatedHandler(t)

	rec := serve(t, h, http.MethodPost, "/v1/profiles", `{"DisplayName":"p","DesiredProperties":"not-an-object"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "DesiredProperties"), rec.Body.String())

	rec = serve(t, h, http.MethodPost, "/v1/profiles", `[]`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = serve(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequestWithoutContentType(t *testing.T) {
	h := newValidatedHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/profiles", strings.NewReader(`{"DisplayName":"p"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing Content-Type header")
}

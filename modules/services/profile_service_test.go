package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"uiconfig/core/profile/adapters/persistence/memory"
	"uiconfig/core/profile/adapters/rest"
	"uiconfig/modules/oapi"
	"uiconfig/modules/server"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileAPIServiceMountsValidatedRoutes(t *testing.T) {
	svc, err := NewProfileAPIService(context.Background(),
		rest.NewProfileAPI(memory.NewProfileStore()), oapi.SpecFS, oapi.ProfileSpecPath)
	require.NoError(t, err)

	srv, err := server.New("127.0.0.1", 8080, server.WithServices(svc))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/profiles",
		strings.NewReader(`{"DisplayName":"p","DesiredProperties":{"a":1}}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/v1/profiles",
		strings.NewReader(`{"DisplayName":7}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestProfileAPIServiceRejectsMissingSpec(t *testing.T) {
	_, err := NewProfileAPIService(context.Background(),
		rest.NewProfileAPI(memory.NewProfileStore()), fstest.MapFS{}, "missing.yaml")
	assert.Error(t, err)
}

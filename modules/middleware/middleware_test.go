package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSpec = `
openapi: 3.0.3
info:
  title: test
  version: "1"
paths:
  /items:
    post:
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              required: [Name]
              properties:
                Name:
                  type: string
                Tags:
                  type: object
      responses:
        "201":
          description: created
`

func validated(t *testing.T) http.Handler {
	t.Helper()
	spec, err := LoadSpec(context.Background(), fstest.MapFS{"spec.yaml": {Data: []byte(testSpec)}}, "spec.yaml")
	require.NoError(t, err)

	mw, err := OpenAPIValidation(spec, ProblemValidationErrorHandler)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /items", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusCreated) })
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	return mw(mux)
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestOpenAPIValidation(t *testing.T) {
	h := validated(t)

	t.Run("valid body", func(t *testing.T) {
		assert.Equal(t, http.StatusCreated, post(h, `{"Name":"a","Tags":{}}`).Code)
	})

	t.Run("schema violation is 422", func(t *testing.T) {
		rec := post(h, `{"Name":"a","Tags":"oops"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

		var body struct {
			InvalidParams []struct{ Name, Reason string } `json:"invalidParams"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.NotEmpty(t, body.InvalidParams)
		assert.Equal(t, "Tags", body.InvalidParams[0].Name)
	})

	t.Run("broken json is 400", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, post(h, `{"Name":`).Code)
	})

	t.Run("content type is checked before the body", func(t *testing.T) {
		for _, tc := range []struct{ contentType, reason string }{
			{"", "missing Content-Type header, expected application/json"},
			{"text/plain", "unsupported Content-Type, expected application/json"},
		} {
			req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(`{"Name":"a"}`))
			if tc.contentType != "" {
				req.Header.Set("Content-Type", tc.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code, tc.contentType)

			var body struct {
				InvalidParams []struct{ Name, Reason string } `json:"invalidParams"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Len(t, body.InvalidParams, 1)
			assert.Equal(t, "Content-Type", body.InvalidParams[0].Name)
			assert.Equal(t, tc.reason, body.InvalidParams[0].Reason)
		}
	})

	t.Run("undocumented routes pass through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestLoadSpecErrors(t *testing.T) {
	_, err := LoadSpec(context.Background(), fstest.MapFS{}, "nope.yaml")
	assert.Error(t, err)

	_, err = LoadSpec(context.Background(), fstest.MapFS{"bad.yaml": {Data: []byte("openapi: [")}}, "bad.yaml")
	assert.Error(t, err)
}

func TestRecovery(t *testing.T) {
	h := Recovery(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestRecoveryRepanicsAbort(t *testing.T) {
	h := Recovery(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestResponseRecorder(t *testing.T) {
	rec := newResponseRecorder(httptest.NewRecorder())
	_, _ = rec.Write([]byte("hello"))
	rec.WriteHeader(http.StatusTeapot)
	assert.Equal(t, http.StatusOK, rec.statusCode)
	assert.Equal(t, int64(5), rec.bytesWritten)
}

func TestTelemetryWithoutMetrics(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusAccepted) })
	rec := httptest.NewRecorder()
	Telemetry(nil)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestInferBodyValidationStatus(t *testing.T) {
	assert.Zero(t, InferBodyValidationStatus(assert.AnError))
	assert.Equal(t, "body", fieldFromPointer(nil))
	assert.Equal(t, "Tags", fieldFromPointer([]string{"Tags", "x"}))
	assert.Equal(t, "invalid value", SafeReason("secret 123 is bad"))
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadOpenAPIDoc(t *testing.T) *openapi3.T {
	t.Helper()
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(OpenAPIDocument())
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))
	return doc
}

// Every documented operation must be mounted.
func TestRouterParity_DocumentedRoutesExist(t *testing.T) {
	doc := loadOpenAPIDoc(t)
	env := newTestEnv(t)

	count := 0
	for path, item := range doc.Paths.Map() {
		for method, op := range item.Operations() {
			require.NotEmpty(t, op.OperationID, "%s %s", method, path)
			rec := env.do(t, method, BasePath+path, nil)
			assert.NotContains(t, []int{http.StatusNotFound, http.StatusMethodNotAllowed}, rec.Code,
				"route not mounted: %s %s", method, BasePath+path)
			count++
		}
	}
	assert.Equal(t, 15, count)
}

// Every mounted API route must be documented.
func TestRouterParity_MountedRoutesDocumented(t *testing.T) {
	doc := loadOpenAPIDoc(t)
	env := newTestEnv(t)

	routes, ok := env.server.Handler().(chi.Routes)
	require.True(t, ok)
	err := chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if !strings.HasPrefix(route, BasePath+"/") {
			return nil
		}
		path := strings.TrimPrefix(route, BasePath)
		item := doc.Paths.Value(path)
		if assert.NotNil(t, item, "undocumented route %s %s", method, route) {
			assert.NotNil(t, item.GetOperation(method), "undocumented method %s %s", method, route)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestOpenAPI_ServedDocumentParses(t *testing.T) {
	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, BasePath+"/openapi.yaml", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))

	doc, err := openapi3.NewLoader().LoadFromData(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, BasePath, doc.Servers[0].URL)
}

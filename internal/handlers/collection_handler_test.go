package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wanderlist/backend/internal/handlers"
	"github.com/wanderlist/backend/internal/models"
	"github.com/wanderlist/backend/internal/routes"
	"github.com/wanderlist/backend/internal/services"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	svc, err := services.NewMemoryCollectionService(nil, nil)
	require.NoError(t, err)

	logger := zap.NewNop().Sugar()
	return routes.New(routes.Options{
		Collections: handlers.NewCollectionHandler(svc, logger),
		Places:      handlers.NewPlacesHandler(nil, logger),
	})
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	// Unmarshal from Bytes so the body stays readable for later assertions.
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestCollectionLifecycle(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/users/u1/collections", `{"name": "Saved Places"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Collection
	decode(t, rec, &created)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "Saved Places", created.Name)
	assert.Equal(t, "", created.Description)

	rec = doJSON(t, h, http.MethodGet, "/api/users/u1/collections", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Collection
	decode(t, rec, &list)
	require.Len(t, list, 1)

	rec = doJSON(t, h, http.MethodGet, "/api/users/u1/collections/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPut, "/api/users/u1/collections/"+created.ID, `{"name": "Renamed", "description": "new"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.Collection
	decode(t, rec, &updated)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "new", updated.Description)

	rec = doJSON(t, h, http.MethodGet, "/api/users/u1/collections/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/users/u1/collections", `{"description": "no name"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/users/u1/collections", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// The full journey: create a collection and an item, read it back, rate it,
// delete it, and see it gone.
func TestLocationScenario(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/users/u1/collections", `{"name": "Saved Places"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var col models.Collection
	decode(t, rec, &col)

	base := "/api/users/u1/collections/" + col.ID + "/items"

	rec = doJSON(t, h, http.MethodPost, base, `{"name": "Cafe X", "address": "1 Main St"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var createResp models.CreateLocationResponse
	decode(t, rec, &createResp)
	assert.Equal(t, col.ID, createResp.CollectionID)
	loc := createResp.Location
	require.NotNil(t, loc)
	require.NotEmpty(t, loc.ID)
	assert.Equal(t, "Cafe X", loc.Name)
	assert.Equal(t, "1 Main St", loc.Address)
	assert.False(t, loc.Visited)
	assert.Nil(t, loc.Rating)
	assert.Nil(t, loc.Comment)

	rec = doJSON(t, h, http.MethodGet, base+"/"+loc.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Location
	decode(t, rec, &got)
	assert.Equal(t, loc.ID, got.ID)

	// Explicit nulls must appear in the response body.
	assert.Contains(t, rec.Body.String(), `"rating":null`)
	assert.Contains(t, rec.Body.String(), `"comment":null`)

	rec = doJSON(t, h, http.MethodPut, base+"/"+loc.ID, `{"rating": 5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var rated models.Location
	decode(t, rec, &rated)
	require.NotNil(t, rated.Rating)
	assert.Equal(t, 5, *rated.Rating)
	assert.Equal(t, "Cafe X", rated.Name)
	assert.False(t, rated.Visited)

	rec = doJSON(t, h, http.MethodDelete, base+"/"+loc.ID, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, strings.TrimSpace(rec.Body.String()))

	rec = doJSON(t, h, http.MethodDelete, base+"/"+loc.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodGet, base+"/"+loc.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLocationErrorMapping(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/users/u1/collections/missing/items", `{"name": "Cafe", "address": "1 Main St"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var errResp models.ErrorResponse
	decode(t, rec, &errResp)
	assert.Equal(t, "collection not found", errResp.Error)

	rec = doJSON(t, h, http.MethodGet, "/api/users/u1/collections/missing/items", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/users/u1/collections", `{"name": "Trips"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var col models.Collection
	decode(t, rec, &col)
	base := "/api/users/u1/collections/" + col.ID + "/items"

	rec = doJSON(t, h, http.MethodPost, base, `{"name": "Cafe"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, base, `{"name": "Cafe", "address": "1 Main St"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var createResp models.CreateLocationResponse
	decode(t, rec, &createResp)
	locID := createResp.Location.ID

	rec = doJSON(t, h, http.MethodPut, base+"/"+locID, `{"rating": 7}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPut, base+"/"+locID, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	decode(t, rec, &errResp)
	assert.Equal(t, "no valid fields to update", errResp.Error)

	rec = doJSON(t, h, http.MethodPut, base+"/missing", `{"visited": true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderlist/backend/internal/models"
)

func newTestService(t *testing.T) *MemoryCollectionService {
	t.Helper()
	svc, err := NewMemoryCollectionService(nil, nil)
	require.NoError(t, err)
	return svc
}

func patchOf(t *testing.T, body string) *models.LocationPatch {
	t.Helper()
	var patch models.LocationPatch
	require.NoError(t, json.Unmarshal([]byte(body), &patch))
	return &patch
}

func TestCreateCollection(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	col, err := svc.CreateCollection(ctx, "u1", &models.CreateCollectionRequest{
		Name:        "Saved Places",
		Description: "favorites",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, col.ID)
	assert.Equal(t, "Saved Places", col.Name)
	assert.Equal(t, "favorites", col.Description)

	other, err := svc.CreateCollection(ctx, "u1", &models.CreateCollectionRequest{Name: "Saved Places"})
	require.NoError(t, err)
	assert.NotEqual(t, col.ID, other.ID)
}

func TestCreateCollectionValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, req := range []*models.CreateCollectionRequest{
		{},
		{Description: "desc only"},
		{Name: "   "},
	} {
		_, err := svc.CreateCollection(ctx, "u1", req)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Fields, "name")
	}
}

func TestUpdateCollection(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	col, err := svc.CreateCollection(ctx, "u1", &models.CreateCollectionRequest{Name: "Old", Description: "old desc"})
	require.NoError(t, err)

	// Full replace: description is overwritten, not merged.
	updated, err := svc.UpdateCollection(ctx, "u1", col.ID, &models.UpdateCollectionRequest{Name: "New"})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Name)
	assert.Equal(t, "", updated.Description)

	_, err = svc.UpdateCollection(ctx, "u1", col.ID, &models.UpdateCollectionRequest{})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = svc.UpdateCollection(ctx, "u1", "missing", &models.UpdateCollectionRequest{Name: "x"})
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestGetAndListCollections(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	list, err := svc.ListCollections(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.GetCollection(ctx, "u1", "missing")
	assert.ErrorIs(t, err, ErrCollectionNotFound)

	a, err := svc.CreateCollection(ctx, "u1", &models.CreateCollectionRequest{Name: "A"})
	require.NoError(t, err)
	_, err = svc.CreateCollection(ctx, "u2", &models.CreateCollectionRequest{Name: "B"})
	require.NoError(t, err)

	list, err = svc.ListCollections(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	got, err := svc.GetCollection(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Name)

	// Collections are scoped per user.
	_, err = svc.GetCollection(ctx, "u2", a.ID)
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestCreateLocationDefaults(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	col, err := svc.CreateCollection(ctx, "u1", &models.CreateCollectionRequest{Name: "Trips"})
	require.NoError(t, err)

	loc, err := svc.CreateLocation(ctx, "u1", col.ID, &models.CreateLocationRequest{
		Name:    "Cafe X",
		Address: "1 Main St",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, loc.ID)
	assert.Equal(t, "Cafe X", loc.Name)
	assert.Equal(t, "1 Main St", loc.Address)
	assert.False(t, loc.Visited)
	assert.Nil(t, loc.Rating)
	assert.Nil(t, loc.Comment)

	got, err := svc.GetLocation(ctx, "u1", col.ID, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, loc.ID, got.ID)
}

func TestCreateLocationTouchesParent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	col, err := svc.CreateCollection(ctx, "u1", &models.CreateCollectionRequest{Name: "Trips"})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = svc.CreateLocation(ctx, "u1", col.ID, &models.CreateLocationRequest{Name: "Cafe", Address: "1 Main St"})
	require.NoError(t, err)

	after, err := svc.GetCollection(ctx, "u1", col.ID)
	require.NoError(t, err)
	assert.True(t, after.UpdatedAt.After(col.UpdatedAt), "parent updatedAt should advance on location create")
}

func TestCreateLocationMissingCollection(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateLocation(ctx, "u1", "missing", &models.CreateLocationRequest{Name: "Cafe", Address: "1 Main St"})
	assert.ErrorIs(t, err, ErrCollectionNotFound)

	// Nothing was written anywhere.
	col, err := svc.CreateCollection(ctx, "u1", &models.CreateCollectionRequest{Name: "Trips"})
	require.NoError(t, err)
	locs, err := svc.ListLocations(ctx, "u1", col.ID)
	require.NoError(t, err)
	assert.Empty(t, locs)
}

func TestCreateLocationValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	col, err := svc.CreateCollection(ctx, "u1", &models.CreateCollectionRequest{Name: "Trips"})
	require.NoError(t, err)

	for _, req := range []*models.CreateLocationRequest{
		{},
		{Name: "Cafe"},
		{Address: "1 Main St"},
	} {
		_, err := svc.CreateLocation(ctx, "u1", col.ID, req)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
	}
}

func TestListLocationsMissingCollection(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ListLocations(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestUpdateLocationPartial(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	col, err := svc.CreateCollection(ctx, "u1", &models.CreateCollectionRequest{Name: "Trips"})
	require.NoError(t, err)
	loc, err := svc.CreateLocation(ctx, "u1", col.ID, &models.CreateLocationRequest{Name: "Cafe X", Address: "1 Main St"})
	require.NoError(t, err)

	updated, err := svc.UpdateLocation(ctx, "u1", col.ID, loc.ID, patchOf(t, `{"visited": true}`))
	require.NoError(t, err)
	assert.True(t, updated.Visited)
	assert.Equal(t, "Cafe X", updated.Name)
	assert.Equal(t, "1 Main St", updated.Address)
	assert.Nil(t, updated.Rating)
	assert.Nil(t, updated.Comment)

	updated, err = svc.UpdateLocation(ctx, "u1", col.ID, loc.ID, patchOf(t, `{"rating": 5}`))
	require.NoError(t, err)
	require.NotNil(t, updated.Rating)
	assert.Equal(t, 5, *updated.Rating)
	assert.True(t, updated.Visited, "earlier update must be retained")

	updated, err = svc.UpdateLocation(ctx, "u1", col.ID, loc.ID, patchOf(t, `{"rating": null, "comment": "try the espresso"}`))
	require.NoError(t, err)
	assert.Nil(t, updated.Rating)
	require.NotNil(t, updated.Comment)
	assert.Equal(t, "try the espresso", *updated.Comment)
}

func TestUpdateLocationRejectsBadPatch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	col, err := svc.CreateCollection(ctx, "u1", &models.CreateCollectionRequest{Name: "Trips"})
	require.NoError(t, err)
	loc, err := svc.CreateLocation(ctx, "u1", col.ID, &models.CreateLocationRequest{Name: "Cafe", Address: "1 Main St"})
	require.NoError(t, err)

	for _, body := range []string{
		`{"rating": 0}`,
		`{"rating": 6}`,
		`{"rating": "3"}`,
		`{"visited": "yes"}`,
	} {
		_, err := svc.UpdateLocation(ctx, "u1", col.ID, loc.ID, patchOf(t, body))
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, "patch %s", body)
	}

	_, err = svc.UpdateLocation(ctx, "u1", col.ID, loc.ID, patchOf(t, `{}`))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "no valid fields to update", ve.Msg)

	// Not found wins over patch validation.
	_, err = svc.UpdateLocation(ctx, "u1", col.ID, "missing", patchOf(t, `{"rating": 99}`))
	assert.ErrorIs(t, err, ErrLocationNotFound)
}

func TestDeleteLocationTwice(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	col, err := svc.CreateCollection(ctx, "u1", &models.CreateCollectionRequest{Name: "Trips"})
	require.NoError(t, err)
	loc, err := svc.CreateLocation(ctx, "u1", col.ID, &models.CreateLocationRequest{Name: "Cafe", Address: "1 Main St"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteLocation(ctx, "u1", col.ID, loc.ID))

	err = svc.DeleteLocation(ctx, "u1", col.ID, loc.ID)
	assert.ErrorIs(t, err, ErrLocationNotFound)

	_, err = svc.GetLocation(ctx, "u1", col.ID, loc.ID)
	assert.ErrorIs(t, err, ErrLocationNotFound)
}

func TestValidationErrorType(t *testing.T) {
	err := newValidationError(map[string]string{"name": "name is required"})
	assert.Equal(t, "name is required", err.Error())

	var ve *ValidationError
	assert.True(t, errors.As(error(err), &ve))
}

package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wanderlist/backend/internal/models"
	"github.com/wanderlist/backend/internal/storage"
)

var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrLocationNotFound   = errors.New("location not found")
)

// ValidationError reports rejected input. Fields maps field names to
// messages; Msg is the summary the client sees.
type ValidationError struct {
	Msg    string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func newValidationError(fields map[string]string) *ValidationError {
	for _, msg := range fields {
		return &ValidationError{Msg: msg, Fields: fields}
	}
	return &ValidationError{Msg: "validation failed", Fields: fields}
}

// CollectionService owns the user -> collection -> location schema and its
// invariants: a location is only ever created against an existing
// collection, ratings stay within 1..5 or null, and updatedAt moves on
// every mutation.
type CollectionService interface {
	CreateCollection(ctx context.Context, userID string, req *models.CreateCollectionRequest) (*models.Collection, error)
	ListCollections(ctx context.Context, userID string) ([]*models.Collection, error)
	GetCollection(ctx context.Context, userID, collectionID string) (*models.Collection, error)
	UpdateCollection(ctx context.Context, userID, collectionID string, req *models.UpdateCollectionRequest) (*models.Collection, error)

	CreateLocation(ctx context.Context, userID, collectionID string, req *models.CreateLocationRequest) (*models.Location, error)
	ListLocations(ctx context.Context, userID, collectionID string) ([]*models.Location, error)
	GetLocation(ctx context.Context, userID, collectionID, locationID string) (*models.Location, error)
	UpdateLocation(ctx context.Context, userID, collectionID, locationID string, patch *models.LocationPatch) (*models.Location, error)
	DeleteLocation(ctx context.Context, userID, collectionID, locationID string) error

	Close(ctx context.Context) error
}

type memCollection struct {
	Collection models.Collection           `json:"collection"`
	Locations  map[string]*models.Location `json:"locations"`
}

type memSnapshot struct {
	Users map[string]map[string]*memCollection `json:"users"`
}

// MemoryCollectionService keeps everything behind one mutex, so the
// create-location existence check and parent touch are naturally atomic.
// With a JSONStore attached it snapshots to disk after every mutation.
type MemoryCollectionService struct {
	mu     sync.RWMutex
	users  map[string]map[string]*memCollection
	store  *storage.JSONStore
	logger *zap.SugaredLogger
}

func NewMemoryCollectionService(store *storage.JSONStore, logger *zap.SugaredLogger) (*MemoryCollectionService, error) {
	s := &MemoryCollectionService{
		users:  make(map[string]map[string]*memCollection),
		store:  store,
		logger: logger,
	}

	if store != nil {
		var snap memSnapshot
		if err := store.Load(&snap); err != nil {
			return nil, err
		}
		if snap.Users != nil {
			s.users = snap.Users
		}
	}

	return s, nil
}

// persist must be called with the write lock held.
func (s *MemoryCollectionService) persist() {
	if s.store == nil {
		return
	}
	if err := s.store.Save(memSnapshot{Users: s.users}); err != nil && s.logger != nil {
		s.logger.Errorw("failed to persist collections snapshot", "error", err)
	}
}

func (s *MemoryCollectionService) CreateCollection(ctx context.Context, userID string, req *models.CreateCollectionRequest) (*models.Collection, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, newValidationError(errs)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	col := models.Collection{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if s.users[userID] == nil {
		s.users[userID] = make(map[string]*memCollection)
	}
	s.users[userID][col.ID] = &memCollection{
		Collection: col,
		Locations:  make(map[string]*models.Location),
	}
	s.persist()

	out := col
	return &out, nil
}

func (s *MemoryCollectionService) ListCollections(ctx context.Context, userID string) ([]*models.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	collections := make([]*models.Collection, 0)
	for _, mc := range s.users[userID] {
		col := mc.Collection
		collections = append(collections, &col)
	}
	sort.Slice(collections, func(i, j int) bool {
		return collections[i].CreatedAt.Before(collections[j].CreatedAt)
	})
	return collections, nil
}

func (s *MemoryCollectionService) GetCollection(ctx context.Context, userID, collectionID string) (*models.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mc, ok := s.users[userID][collectionID]
	if !ok {
		return nil, ErrCollectionNotFound
	}
	col := mc.Collection
	return &col, nil
}

func (s *MemoryCollectionService) UpdateCollection(ctx context.Context, userID, collectionID string, req *models.UpdateCollectionRequest) (*models.Collection, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, newValidationError(errs)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mc, ok := s.users[userID][collectionID]
	if !ok {
		return nil, ErrCollectionNotFound
	}

	mc.Collection.Name = req.Name
	mc.Collection.Description = req.Description
	mc.Collection.UpdatedAt = time.Now().UTC()
	s.persist()

	col := mc.Collection
	return &col, nil
}

func (s *MemoryCollectionService) CreateLocation(ctx context.Context, userID, collectionID string, req *models.CreateLocationRequest) (*models.Location, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, newValidationError(errs)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Existence check, insert, and parent touch happen under one lock:
	// either all of them take effect or none do.
	mc, ok := s.users[userID][collectionID]
	if !ok {
		return nil, ErrCollectionNotFound
	}

	now := time.Now().UTC()
	loc := &models.Location{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Address:   req.Address,
		Visited:   false,
		Rating:    nil,
		Comment:   nil,
		CreatedAt: now,
		UpdatedAt: now,
	}

	mc.Locations[loc.ID] = loc
	mc.Collection.UpdatedAt = now
	s.persist()

	out := *loc
	return &out, nil
}

func (s *MemoryCollectionService) ListLocations(ctx context.Context, userID, collectionID string) ([]*models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mc, ok := s.users[userID][collectionID]
	if !ok {
		return nil, ErrCollectionNotFound
	}

	locations := make([]*models.Location, 0, len(mc.Locations))
	for _, loc := range mc.Locations {
		cp := *loc
		locations = append(locations, &cp)
	}
	sort.Slice(locations, func(i, j int) bool {
		return locations[i].CreatedAt.Before(locations[j].CreatedAt)
	})
	return locations, nil
}

func (s *MemoryCollectionService) GetLocation(ctx context.Context, userID, collectionID, locationID string) (*models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mc, ok := s.users[userID][collectionID]
	if !ok {
		return nil, ErrCollectionNotFound
	}
	loc, ok := mc.Locations[locationID]
	if !ok {
		return nil, ErrLocationNotFound
	}
	cp := *loc
	return &cp, nil
}

func (s *MemoryCollectionService) UpdateLocation(ctx context.Context, userID, collectionID, locationID string, patch *models.LocationPatch) (*models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Existence is checked before the patch is validated.
	mc, ok := s.users[userID][collectionID]
	if !ok {
		return nil, ErrCollectionNotFound
	}
	loc, ok := mc.Locations[locationID]
	if !ok {
		return nil, ErrLocationNotFound
	}

	upd, errs := patch.Resolve()
	if len(errs) > 0 {
		return nil, newValidationError(errs)
	}
	if upd.Empty() {
		return nil, &ValidationError{Msg: "no valid fields to update"}
	}

	if upd.Name != nil {
		loc.Name = *upd.Name
	}
	if upd.Address != nil {
		loc.Address = *upd.Address
	}
	if upd.Visited != nil {
		loc.Visited = *upd.Visited
	}
	if upd.SetRating {
		loc.Rating = upd.Rating
	}
	if upd.SetComment {
		loc.Comment = upd.Comment
	}
	loc.UpdatedAt = time.Now().UTC()
	s.persist()

	cp := *loc
	return &cp, nil
}

func (s *MemoryCollectionService) DeleteLocation(ctx context.Context, userID, collectionID, locationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mc, ok := s.users[userID][collectionID]
	if !ok {
		return ErrCollectionNotFound
	}
	if _, ok := mc.Locations[locationID]; !ok {
		return ErrLocationNotFound
	}

	delete(mc.Locations, locationID)
	s.persist()
	return nil
}

func (s *MemoryCollectionService) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil {
		return s.store.Save(memSnapshot{Users: s.users})
	}
	return nil
}

package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/wanderlist/backend/internal/models"
)

// MongoCollectionService persists collections and locations in two MongoDB
// collections keyed by user. Location creation runs inside a multi-document
// transaction, so the deployment must be a replica set.
type MongoCollectionService struct {
	client          *mongo.Client
	db              *mongo.Database
	collectionsColl *mongo.Collection
	locationsColl   *mongo.Collection
	logger          *zap.SugaredLogger
}

type collectionDoc struct {
	ID          string    `bson:"_id"`
	UserID      string    `bson:"user_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

type locationDoc struct {
	ID           string    `bson:"_id"`
	UserID       string    `bson:"user_id"`
	CollectionID string    `bson:"collection_id"`
	Name         string    `bson:"name"`
	Address      string    `bson:"address"`
	Visited      bool      `bson:"visited"`
	Rating       *int      `bson:"rating"`
	Comment      *string   `bson:"comment"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func NewMongoCollectionService(ctx context.Context, mongoURI, dbName string, logger *zap.SugaredLogger) (*MongoCollectionService, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(dbName)
	svc := &MongoCollectionService{
		client:          client,
		db:              db,
		collectionsColl: db.Collection("collections"),
		locationsColl:   db.Collection("locations"),
		logger:          logger,
	}

	// Best-effort indexes.
	_, _ = svc.collectionsColl.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}}},
	})
	_, _ = svc.locationsColl.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "collection_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	})

	logger.Infow("mongodb connected", "db", dbName)
	return svc, nil
}

func (s *MongoCollectionService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func collectionDocToModel(d collectionDoc) *models.Collection {
	return &models.Collection{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func locationDocToModel(d locationDoc) *models.Location {
	return &models.Location{
		ID:        d.ID,
		Name:      d.Name,
		Address:   d.Address,
		Visited:   d.Visited,
		Rating:    d.Rating,
		Comment:   d.Comment,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (s *MongoCollectionService) CreateCollection(ctx context.Context, userID string, req *models.CreateCollectionRequest) (*models.Collection, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, newValidationError(errs)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	now := time.Now().UTC()
	doc := collectionDoc{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.collectionsColl.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return collectionDocToModel(doc), nil
}

func (s *MongoCollectionService) ListCollections(ctx context.Context, userID string) ([]*models.Collection, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cur, err := s.collectionsColl.Find(
		ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	collections := make([]*models.Collection, 0)
	for cur.Next(ctx) {
		var d collectionDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		collections = append(collections, collectionDocToModel(d))
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return collections, nil
}

func (s *MongoCollectionService) GetCollection(ctx context.Context, userID, collectionID string) (*models.Collection, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var d collectionDoc
	if err := s.collectionsColl.FindOne(ctx, bson.M{"_id": collectionID, "user_id": userID}).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrCollectionNotFound
		}
		return nil, err
	}
	return collectionDocToModel(d), nil
}

func (s *MongoCollectionService) UpdateCollection(ctx context.Context, userID, collectionID string, req *models.UpdateCollectionRequest) (*models.Collection, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, newValidationError(errs)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res := s.collectionsColl.FindOneAndUpdate(
		ctx,
		bson.M{"_id": collectionID, "user_id": userID},
		bson.M{"$set": bson.M{
			"name":        req.Name,
			"description": req.Description,
			"updated_at":  time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated collectionDoc
	if err := res.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrCollectionNotFound
		}
		return nil, err
	}
	return collectionDocToModel(updated), nil
}

func (s *MongoCollectionService) CreateLocation(ctx context.Context, userID, collectionID string, req *models.CreateLocationRequest) (*models.Location, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, newValidationError(errs)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	now := time.Now().UTC()
	doc := locationDoc{
		ID:           uuid.New().String(),
		UserID:       userID,
		CollectionID: collectionID,
		Name:         req.Name,
		Address:      req.Address,
		Visited:      false,
		Rating:       nil,
		Comment:      nil,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	session, err := s.client.StartSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(ctx)

	// Parent existence check, location insert, and parent timestamp touch
	// commit together or not at all.
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var parent collectionDoc
		if err := s.collectionsColl.FindOne(sc, bson.M{"_id": collectionID, "user_id": userID}).Decode(&parent); err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, ErrCollectionNotFound
			}
			return nil, err
		}

		if _, err := s.locationsColl.InsertOne(sc, doc); err != nil {
			return nil, err
		}

		if _, err := s.collectionsColl.UpdateOne(
			sc,
			bson.M{"_id": collectionID},
			bson.M{"$set": bson.M{"updated_at": now}},
		); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	return locationDocToModel(doc), nil
}

func (s *MongoCollectionService) ListLocations(ctx context.Context, userID, collectionID string) ([]*models.Location, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Listing items of an absent collection is a not-found, same as every
	// other operation addressed by collection id.
	if err := s.collectionsColl.FindOne(ctx, bson.M{"_id": collectionID, "user_id": userID}).Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrCollectionNotFound
		}
		return nil, err
	}

	cur, err := s.locationsColl.Find(
		ctx,
		bson.M{"collection_id": collectionID, "user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	locations := make([]*models.Location, 0)
	for cur.Next(ctx) {
		var d locationDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		locations = append(locations, locationDocToModel(d))
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return locations, nil
}

func (s *MongoCollectionService) GetLocation(ctx context.Context, userID, collectionID, locationID string) (*models.Location, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var d locationDoc
	filter := bson.M{"_id": locationID, "collection_id": collectionID, "user_id": userID}
	if err := s.locationsColl.FindOne(ctx, filter).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}
	return locationDocToModel(d), nil
}

func (s *MongoCollectionService) UpdateLocation(ctx context.Context, userID, collectionID, locationID string, patch *models.LocationPatch) (*models.Location, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Existence is checked before the patch is validated.
	filter := bson.M{"_id": locationID, "collection_id": collectionID, "user_id": userID}
	if err := s.locationsColl.FindOne(ctx, filter).Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}

	upd, errs := patch.Resolve()
	if len(errs) > 0 {
		return nil, newValidationError(errs)
	}
	if upd.Empty() {
		return nil, &ValidationError{Msg: "no valid fields to update"}
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Address != nil {
		set["address"] = *upd.Address
	}
	if upd.Visited != nil {
		set["visited"] = *upd.Visited
	}
	if upd.SetRating {
		set["rating"] = upd.Rating
	}
	if upd.SetComment {
		set["comment"] = upd.Comment
	}

	res := s.locationsColl.FindOneAndUpdate(
		ctx,
		filter,
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated locationDoc
	if err := res.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}
	return locationDocToModel(updated), nil
}

func (s *MongoCollectionService) DeleteLocation(ctx context.Context, userID, collectionID, locationID string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := s.locationsColl.DeleteOne(ctx, bson.M{"_id": locationID, "collection_id": collectionID, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrLocationNotFound
	}
	return nil
}

var (
	_ CollectionService = (*MongoCollectionService)(nil)
	_ CollectionService = (*MemoryCollectionService)(nil)
)

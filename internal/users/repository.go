package users

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/invisibility-inc/echo-backend/internal/models"
)

// Repository defines persistence operations for locally stored users.
// GetByID returns (nil, nil) when the user is absent.
type Repository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	Upsert(ctx context.Context, u *models.User) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	BatchSetLinked(ctx context.Context, ids []string) error
}

// MongoRepository implements Repository using MongoDB
type MongoRepository struct {
	col *mongo.Collection
}

// NewMongoRepository creates a new repository for the given collection
func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// Upsert creates the record if absent, otherwise updates the mutable profile
// fields. Re-syncing an unchanged profile is a no-op write: linkedToKeywords
// and createdAt are never touched by an update.
func (r *MongoRepository) Upsert(ctx context.Context, u *models.User) (*models.User, error) {
	existing, err := r.GetByID(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Email == u.Email && existing.FullName == u.FullName {
		return existing, nil
	}

	now := time.Now().UTC()
	filter := bson.M{"_id": u.ID}
	update := bson.M{
		"$set": bson.M{
			"email":     u.Email,
			"fullName":  u.FullName,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"createdAt":        now,
			"linkedToKeywords": false,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var updated models.User
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *MongoRepository) List(ctx context.Context) ([]models.User, error) {
	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// BatchSetLinked flips linkedToKeywords to true for exactly the given ids in
// a single batched update.
func (r *MongoRepository) BatchSetLinked(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.col.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"linkedToKeywords": true, "updatedAt": time.Now().UTC()}},
	)
	return err
}

package transcript

import (
	"Recall_1.0/backend/go/internal/models"
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps turns in a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a MongoStore and the (owner, at) index it reads through.
func NewMongoStore(ctx context.Context, coll *mongo.Collection) (*MongoStore, error) {
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner", Value: 1}, {Key: "at", Value: -1}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create transcript index: %w", err)
	}
	return &MongoStore{coll: coll}, nil
}

func (s *MongoStore) Append(ctx context.Context, turn models.Turn) error {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if _, err := s.coll.InsertOne(ctx, turn); err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}
	return nil
}

func (s *MongoStore) Recent(ctx context.Context, owner string, limit int) ([]models.Turn, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "at", Value: -1}}).
		SetLimit(int64(ClampLimit(limit)))

	cursor, err := s.coll.Find(ctx, bson.M{"owner": owner}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query transcript: %w", err)
	}
	defer cursor.Close(ctx)

	var turns []models.Turn
	if err := cursor.All(ctx, &turns); err != nil {
		return nil, fmt.Errorf("failed to decode transcript: %w", err)
	}
	return turns, nil
}

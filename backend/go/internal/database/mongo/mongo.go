package mongo

import (
	"Recall_1.0/backend/go/internal/config"
	"Recall_1.0/backend/go/pkg/logger"
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	client  *mongo.Client
	once    sync.Once
	initErr error
)

// GetClient connects the process-wide MongoDB client on first use.
func GetClient(cfg *config.MongoConfig) (*mongo.Client, error) {
	once.Do(func() {
		clientOptions := options.Client().ApplyURI(cfg.Address)
		if cfg.Username != "" && cfg.Password != "" {
			clientOptions.SetAuth(options.Credential{
				Username: cfg.Username,
				Password: cfg.Password,
			})
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		c, err := mongo.Connect(ctx, clientOptions)
		if err != nil {
			initErr = fmt.Errorf("failed to connect to MongoDB: %w", err)
			return
		}
		if err = c.Ping(ctx, nil); err != nil {
			initErr = fmt.Errorf("failed to ping MongoDB: %w", err)
			return
		}

		logger.New("mongo", "", "").Info("connected to MongoDB")
		client = c
	})

	return client, initErr
}

// Collection returns the configured collection of the shared client.
func Collection(cfg *config.MongoConfig) (*mongo.Collection, error) {
	c, err := GetClient(cfg)
	if err != nil {
		return nil, err
	}
	return c.Database(cfg.Database).Collection(cfg.Collection), nil
}

// Close disconnects the shared client.
func Close(ctx context.Context) error {
	if client != nil {
		return client.Disconnect(ctx)
	}
	return nil
}

// HealthCheck pings the shared client.
func HealthCheck(ctx context.Context) error {
	if client == nil {
		return fmt.Errorf("mongodb client is not initialized")
	}
	return client.Ping(ctx, nil)
}

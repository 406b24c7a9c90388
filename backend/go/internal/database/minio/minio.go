package minio

import (
	"Recall_1.0/backend/go/internal/config"
	"Recall_1.0/backend/go/pkg/logger"
	"context"
	"fmt"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	client  *minio.Client
	once    sync.Once
	initErr error
)

// GetClient creates the process-wide MinIO client and makes sure the bucket exists.
func GetClient(ctx context.Context, cfg *config.MinIOConfig) (*minio.Client, error) {
	once.Do(func() {
		c, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.Secure,
		})
		if err != nil {
			initErr = fmt.Errorf("failed to create MinIO client: %w", err)
			return
		}

		if cfg.Bucket != "" {
			exists, err := c.BucketExists(ctx, cfg.Bucket)
			if err != nil {
				initErr = fmt.Errorf("failed to check bucket '%s': %w", cfg.Bucket, err)
				return
			}
			if !exists {
				if err := c.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
					initErr = fmt.Errorf("failed to create bucket '%s': %w", cfg.Bucket, err)
					return
				}
			}
		}

		logger.New("minio", "", "").Info("connected to MinIO at " + cfg.Endpoint)
		client = c
	})

	return client, initErr
}

// HealthCheck lists buckets to check connectivity and credentials.
func HealthCheck(ctx context.Context) error {
	if client == nil {
		return fmt.Errorf("minio client is not initialized")
	}
	if _, err := client.ListBuckets(ctx); err != nil {
		return fmt.Errorf("minio health check failed: %w", err)
	}
	return nil
}

// Package store persists relationship mappings.
package store

import (
	"Recall_1.0/backend/go/internal/models"
	"context"
	"errors"
)

var (
	// ErrDuplicate is returned by Add when the relationship already exists.
	ErrDuplicate = errors.New("relationship already exists")
	// ErrNotFound is returned by Update and Delete for unknown relationships.
	ErrNotFound = errors.New("relationship not found")
)

// Store is the relationship -> category table.
type Store interface {
	All(ctx context.Context) ([]models.Relationship, error)
	Add(ctx context.Context, relationship, category string) error
	Update(ctx context.Context, relationship, category string) error
	Delete(ctx context.Context, relationship string) error
	Close() error
}

// Package store persists facts. A fact lives in two places: the KeyIndex, which
// answers exact per-owner key lookups in insertion order, and the VectorIndex,
// which answers similarity queries over embedded storage keys.
package store

import (
	"Recall_1.0/backend/go/internal/embedding"
	"Recall_1.0/backend/go/internal/models"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrFactNotFound is returned by KeyIndex lookups for unknown keys.
var ErrFactNotFound = errors.New("fact not found")

// factNamespace seeds deterministic fact ids.
var factNamespace = uuid.MustParse("6f1c2b1e-6a36-4c59-9d8e-2a1f0f6c7a10")

// KeyIndex stores facts by (owner, storage key).
type KeyIndex interface {
	// Put inserts or overwrites a fact. An overwrite keeps the original position
	// in the owner's key order. created reports whether the key was new.
	Put(ctx context.Context, fact *models.Fact) (created bool, err error)
	Get(ctx context.Context, owner, storageKey string) (*models.Fact, error)
	// Keys lists the owner's storage keys in insertion order.
	Keys(ctx context.Context, owner string) ([]string, error)
	// List returns the owner's facts in insertion order.
	List(ctx context.Context, owner string) ([]*models.Fact, error)
	Delete(ctx context.Context, owner, storageKey string) error
}

// VectorIndex stores one embedding per fact, partitioned by namespace.
type VectorIndex interface {
	Upsert(ctx context.Context, id string, vector []float32, meta models.VectorMetadata, namespace string) error
	Query(ctx context.Context, vector []float32, topK int, namespace string) ([]models.VectorMatch, error)
	Delete(ctx context.Context, id, namespace string) error
}

// Namespace is the vector namespace owned by a user.
func Namespace(owner string) string {
	return "user_" + owner
}

// FactID is stable for an (owner, storage key) pair, so re-storing a key
// overwrites the same vector.
func FactID(owner, storageKey string) string {
	return uuid.NewSHA1(factNamespace, []byte(owner+"\x00"+storageKey)).String()
}

// Store keeps the key index and the vector index in step.
type Store struct {
	keys     KeyIndex
	vectors  VectorIndex
	embedder embedding.Embedding
	now      func() time.Time
}

// New creates a Store over the given indexes.
func New(keys KeyIndex, vectors VectorIndex, embedder embedding.Embedding) *Store {
	return &Store{keys: keys, vectors: vectors, embedder: embedder, now: time.Now}
}

// Upsert embeds the storage key and writes the fact to both indexes.
func (s *Store) Upsert(ctx context.Context, fact *models.Fact) (bool, error) {
	now := s.now().UTC()
	fact.ID = FactID(fact.Owner, fact.StorageKey)
	fact.UpdatedAt = now
	if existing, err := s.keys.Get(ctx, fact.Owner, fact.StorageKey); err == nil {
		fact.CreatedAt = existing.CreatedAt
	} else if errors.Is(err, ErrFactNotFound) {
		fact.CreatedAt = now
	} else {
		return false, err
	}

	vec, err := s.embedder.Embed(ctx, fact.StorageKey)
	if err != nil {
		return false, fmt.Errorf("failed to embed storage key: %w", err)
	}
	meta := models.VectorMetadata{Value: fact.Value, User: fact.Owner, Relation: fact.Relation, Key: fact.BaseKey}
	if err := s.vectors.Upsert(ctx, fact.ID, vec, meta, Namespace(fact.Owner)); err != nil {
		return false, fmt.Errorf("failed to upsert vector: %w", err)
	}
	return s.keys.Put(ctx, fact)
}

// Get returns the fact stored under the exact key.
func (s *Store) Get(ctx context.Context, owner, storageKey string) (*models.Fact, error) {
	return s.keys.Get(ctx, owner, storageKey)
}

// Keys returns the owner's keys in insertion order.
func (s *Store) Keys(ctx context.Context, owner string) ([]string, error) {
	return s.keys.Keys(ctx, owner)
}

// List returns the owner's facts in insertion order.
func (s *Store) List(ctx context.Context, owner string) ([]*models.Fact, error) {
	return s.keys.List(ctx, owner)
}

// Delete removes the fact from both indexes.
func (s *Store) Delete(ctx context.Context, owner, storageKey string) error {
	if err := s.keys.Delete(ctx, owner, storageKey); err != nil {
		return err
	}
	if err := s.vectors.Delete(ctx, FactID(owner, storageKey), Namespace(owner)); err != nil {
		return fmt.Errorf("failed to delete vector: %w", err)
	}
	return nil
}

// Search embeds text and queries the owner's namespace.
func (s *Store) Search(ctx context.Context, owner, text string, topK int) ([]models.VectorMatch, error) {
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	matches, err := s.vectors.Query(ctx, vec, topK, Namespace(owner))
	if err != nil {
		return nil, fmt.Errorf("failed to query vector index: %w", err)
	}
	return matches, nil
}

package store

import (
	"Recall_1.0/backend/go/internal/models"
	"context"
	"fmt"
	"sync"

	chromem "github.com/philippgille/chromem-go"
)

// ChromemIndex is an embedded VectorIndex with one chromem collection per namespace.
type ChromemIndex struct {
	db          *chromem.DB
	collections map[string]*chromem.Collection
	mu          sync.RWMutex
}

// NewChromemIndex creates an index. An empty path keeps everything in memory.
func NewChromemIndex(path string) (*ChromemIndex, error) {
	db := chromem.NewDB()
	if path != "" {
		var err error
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open chromem db: %w", err)
		}
	}
	return &ChromemIndex{db: db, collections: make(map[string]*chromem.Collection)}, nil
}

func (c *ChromemIndex) collection(namespace string) (*chromem.Collection, error) {
	c.mu.RLock()
	col, ok := c.collections[namespace]
	c.mu.RUnlock()
	if ok {
		return col, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if col, ok := c.collections[namespace]; ok {
		return col, nil
	}
	// Embeddings are always supplied by the caller, so no embedding func is set.
	col, err := c.db.GetOrCreateCollection(namespace, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection %s: %w", namespace, err)
	}
	c.collections[namespace] = col
	return col, nil
}

func (c *ChromemIndex) Upsert(ctx context.Context, id string, vector []float32, meta models.VectorMetadata, namespace string) error {
	col, err := c.collection(namespace)
	if err != nil {
		return err
	}
	doc := chromem.Document{
		ID:        id,
		Content:   meta.Key,
		Embedding: vector,
		Metadata: map[string]string{
			"value":    meta.Value,
			"user":     meta.User,
			"relation": meta.Relation,
			"key":      meta.Key,
		},
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}
	return nil
}

// Query clamps topK to the collection size, since chromem rejects larger values.
func (c *ChromemIndex) Query(ctx context.Context, vector []float32, topK int, namespace string) ([]models.VectorMatch, error) {
	col, err := c.collection(namespace)
	if err != nil {
		return nil, err
	}
	n := topK
	if count := col.Count(); count < n {
		n = count
	}
	if n <= 0 {
		return nil, nil
	}

	results, err := col.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}
	matches := make([]models.VectorMatch, 0, len(results))
	for _, r := range results {
		matches = append(matches, models.VectorMatch{
			ID:    r.ID,
			Score: r.Similarity,
			Metadata: models.VectorMetadata{
				Value:    r.Metadata["value"],
				User:     r.Metadata["user"],
				Relation: r.Metadata["relation"],
				Key:      r.Metadata["key"],
			},
		})
	}
	return matches, nil
}

func (c *ChromemIndex) Delete(ctx context.Context, id, namespace string) error {
	col, err := c.collection(namespace)
	if err != nil {
		return err
	}
	if err := col.Delete(ctx, nil, nil, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

package store

import (
	"Recall_1.0/backend/go/internal/database/milvus"
	"Recall_1.0/backend/go/internal/models"
	"context"
	"encoding/json"
	"fmt"
)

// MilvusIndex is a VectorIndex backed by one Milvus collection. Namespaces are
// a filtered scalar field, and the metadata travels as a JSON payload.
type MilvusIndex struct {
	client *milvus.MilvusClient
}

// NewMilvusIndex creates a MilvusIndex. The collection must already exist.
func NewMilvusIndex(client *milvus.MilvusClient) *MilvusIndex {
	return &MilvusIndex{client: client}
}

func (m *MilvusIndex) Upsert(ctx context.Context, id string, vector []float32, meta models.VectorMetadata, namespace string) error {
	payload, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return m.client.Upsert(ctx, id, namespace, string(payload), vector)
}

func (m *MilvusIndex) Query(ctx context.Context, vector []float32, topK int, namespace string) ([]models.VectorMatch, error) {
	hits, err := m.client.Search(ctx, namespace, topK, vector)
	if err != nil {
		return nil, err
	}
	matches := make([]models.VectorMatch, 0, len(hits))
	for _, h := range hits {
		match := models.VectorMatch{ID: h.ID, Score: h.Score}
		if h.Payload != "" {
			if err := json.Unmarshal([]byte(h.Payload), &match.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata of %s: %w", h.ID, err)
			}
		}
		matches = append(matches, match)
	}
	return matches, nil
}

func (m *MilvusIndex) Delete(ctx context.Context, id, namespace string) error {
	return m.client.Delete(ctx, id, namespace)
}

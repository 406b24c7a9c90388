package models

import "time"

// Fact is one remembered key/value/relation triple owned by a single user.
// StorageKey is always nlp.BuildStorageKey(BaseKey, Relation).
type Fact struct {
	ID         string    `json:"id"`
	Owner      string    `json:"owner"`
	StorageKey string    `json:"storage_key"`
	BaseKey    string    `json:"base_key"`
	Relation   string    `json:"relation,omitempty"`
	Category   string    `json:"category,omitempty"`
	Value      string    `json:"value"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ReadableKey renders a base key and optional relation the way it is spoken
// back to the user, "wife's ssn" for relational facts and "ssn" otherwise.
func ReadableKey(baseKey, relation string) string {
	if relation == "" {
		return baseKey
	}
	return relation + "'s " + baseKey
}

// VectorMetadata is the payload stored next to each fact embedding.
type VectorMetadata struct {
	Value    string `json:"value"`
	User     string `json:"user"`
	Relation string `json:"relation"`
	Key      string `json:"key"`
}

// VectorMatch is a single similarity hit returned by a vector index.
type VectorMatch struct {
	ID       string         `json:"id"`
	Score    float32        `json:"score"`
	Metadata VectorMetadata `json:"metadata"`
}

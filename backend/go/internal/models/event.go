package models

import "time"

// MemoryEventKind names what happened to a user's memory.
type MemoryEventKind string

const (
	EventFactStored  MemoryEventKind = "fact_stored"
	EventFactUpdated MemoryEventKind = "fact_updated"
	EventFactDeleted MemoryEventKind = "fact_deleted"
	EventFallback    MemoryEventKind = "fallback"
)

// MemoryEvent is published after each memory mutation or LLM fallback.
// Values are never included.
type MemoryEvent struct {
	Kind       MemoryEventKind `json:"kind"`
	Owner      string          `json:"owner"`
	StorageKey string          `json:"storage_key,omitempty"`
	Relation   string          `json:"relation,omitempty"`
	Topic      string          `json:"topic,omitempty"`
	At         time.Time       `json:"at"`
}

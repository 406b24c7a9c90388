// Package publisher emits memory events to downstream consumers.
package publisher

import (
	"Recall_1.0/backend/go/internal/models"
	"context"
	"sync"
)

// Publisher delivers memory events. Callers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, event models.MemoryEvent) error
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, models.MemoryEvent) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []models.MemoryEvent
}

func (r *Recorder) Publish(_ context.Context, event models.MemoryEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []models.MemoryEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.MemoryEvent(nil), r.events...)
}

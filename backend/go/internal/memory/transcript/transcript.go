// Package transcript keeps the history of handled chat turns.
package transcript

import (
	"Recall_1.0/backend/go/internal/models"
	"context"
	"sync"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Store appends turns and returns the most recent ones for an owner.
type Store interface {
	Append(ctx context.Context, turn models.Turn) error
	// Recent returns at most limit turns, newest first.
	Recent(ctx context.Context, owner string, limit int) ([]models.Turn, error)
}

// ClampLimit maps a requested page size into [1, MaxLimit], zero meaning DefaultLimit.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// Ring keeps the last capacity turns per owner in memory.
type Ring struct {
	mu       sync.RWMutex
	capacity int
	turns    map[string][]models.Turn
}

// NewRing creates a Ring. A non-positive capacity is raised to MaxLimit.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = MaxLimit
	}
	return &Ring{capacity: capacity, turns: make(map[string][]models.Turn)}
}

func (r *Ring) Append(_ context.Context, turn models.Turn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ts := append(r.turns[turn.Owner], turn)
	if len(ts) > r.capacity {
		ts = append([]models.Turn(nil), ts[len(ts)-r.capacity:]...)
	}
	r.turns[turn.Owner] = ts
	return nil
}

func (r *Ring) Recent(_ context.Context, owner string, limit int) ([]models.Turn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ts := r.turns[owner]
	if limit <= 0 || limit > len(ts) {
		limit = len(ts)
	}
	out := make([]models.Turn, 0, limit)
	for i := len(ts) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, ts[i])
	}
	return out, nil
}

// Package service caches relationship categories in front of their table.
package service

import (
	"Recall_1.0/backend/go/internal/apperr"
	"Recall_1.0/backend/go/internal/models"
	"Recall_1.0/backend/go/internal/relationship/store"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Unknown is the category of an unmapped relationship.
const Unknown = "unknown"

// Service serves lookups from memory and writes through to the store.
// The cache only changes after the store accepted the write.
type Service struct {
	store store.Store
	mu    sync.RWMutex
	cache map[string]string
}

// NewService creates a Service with an empty cache. Call Load before serving.
func NewService(s store.Store) *Service {
	return &Service{store: s, cache: make(map[string]string)}
}

func canonical(rel string) string {
	return strings.ToLower(strings.TrimSpace(rel))
}

// Load replaces the cache with the table contents.
func (s *Service) Load(ctx context.Context) error {
	rows, err := s.store.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load relationships: %w", err)
	}
	cache := make(map[string]string, len(rows))
	for _, r := range rows {
		cache[canonical(r.Relationship)] = r.Category
	}
	s.mu.Lock()
	s.cache = cache
	s.mu.Unlock()
	return nil
}

// Get returns the category of rel, or Unknown.
func (s *Service) Get(rel string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cat, ok := s.cache[canonical(rel)]; ok {
		return cat
	}
	return Unknown
}

// List returns every mapping ordered by relationship.
func (s *Service) List() []models.Relationship {
	s.mu.RLock()
	out := make([]models.Relationship, 0, len(s.cache))
	for rel, cat := range s.cache {
		out = append(out, models.Relationship{Relationship: rel, Category: cat})
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Relationship < out[j].Relationship })
	return out
}

func (s *Service) Add(ctx context.Context, rel, category string) error {
	rel = canonical(rel)
	if err := s.store.Add(ctx, rel, category); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return apperr.Conflict(fmt.Sprintf("Relationship '%s' already exists", rel))
		}
		return apperr.Wrap("failed to add relationship", err)
	}
	s.set(rel, category)
	return nil
}

func (s *Service) Update(ctx context.Context, rel, category string) error {
	rel = canonical(rel)
	if err := s.store.Update(ctx, rel, category); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound(fmt.Sprintf("Relationship '%s' not found", rel))
		}
		return apperr.Wrap("failed to update relationship", err)
	}
	s.set(rel, category)
	return nil
}

func (s *Service) Delete(ctx context.Context, rel string) error {
	rel = canonical(rel)
	if err := s.store.Delete(ctx, rel); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound(fmt.Sprintf("Relationship '%s' not found", rel))
		}
		return apperr.Wrap("failed to delete relationship", err)
	}
	s.mu.Lock()
	delete(s.cache, rel)
	s.mu.Unlock()
	return nil
}

func (s *Service) set(rel, category string) {
	s.mu.Lock()
	s.cache[rel] = category
	s.mu.Unlock()
}

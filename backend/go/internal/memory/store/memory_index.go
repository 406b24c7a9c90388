package store

import (
	"Recall_1.0/backend/go/internal/models"
	"context"
	"sync"
)

type ownerFacts struct {
	order []string
	facts map[string]*models.Fact
}

// MemoryKeyIndex is an in-process KeyIndex.
type MemoryKeyIndex struct {
	mu     sync.RWMutex
	owners map[string]*ownerFacts
}

// NewMemoryKeyIndex creates an empty MemoryKeyIndex.
func NewMemoryKeyIndex() *MemoryKeyIndex {
	return &MemoryKeyIndex{owners: make(map[string]*ownerFacts)}
}

func (m *MemoryKeyIndex) Put(_ context.Context, fact *models.Fact) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	of, ok := m.owners[fact.Owner]
	if !ok {
		of = &ownerFacts{facts: make(map[string]*models.Fact)}
		m.owners[fact.Owner] = of
	}
	cp := *fact
	_, exists := of.facts[fact.StorageKey]
	if !exists {
		of.order = append(of.order, fact.StorageKey)
	}
	of.facts[fact.StorageKey] = &cp
	return !exists, nil
}

func (m *MemoryKeyIndex) Get(_ context.Context, owner, storageKey string) (*models.Fact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if of, ok := m.owners[owner]; ok {
		if f, ok := of.facts[storageKey]; ok {
			cp := *f
			return &cp, nil
		}
	}
	return nil, ErrFactNotFound
}

func (m *MemoryKeyIndex) Keys(_ context.Context, owner string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	of, ok := m.owners[owner]
	if !ok {
		return nil, nil
	}
	return append([]string(nil), of.order...), nil
}

func (m *MemoryKeyIndex) List(_ context.Context, owner string) ([]*models.Fact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	of, ok := m.owners[owner]
	if !ok {
		return nil, nil
	}
	out := make([]*models.Fact, 0, len(of.order))
	for _, k := range of.order {
		cp := *of.facts[k]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryKeyIndex) Delete(_ context.Context, owner, storageKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	of, ok := m.owners[owner]
	if !ok {
		return ErrFactNotFound
	}
	if _, ok := of.facts[storageKey]; !ok {
		return ErrFactNotFound
	}
	delete(of.facts, storageKey)
	for i, k := range of.order {
		if k == storageKey {
			of.order = append(of.order[:i], of.order[i+1:]...)
			break
		}
	}
	if len(of.order) == 0 {
		delete(m.owners, owner)
	}
	return nil
}

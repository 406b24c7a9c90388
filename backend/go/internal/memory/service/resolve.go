package service

import (
	"Recall_1.0/backend/go/internal/apperr"
	"Recall_1.0/backend/go/internal/memory/resolver"
	"Recall_1.0/backend/go/internal/memory/store"
	"Recall_1.0/backend/go/internal/models"
	"context"
	"errors"
	"strings"
)

// keyResolver finds update and delete targets for one request. The owner's key
// list is fetched at most once.
type keyResolver struct {
	store  *store.Store
	owner  string
	keys   []string
	loaded bool
}

func (s *MemoryService) newKeyResolver(owner string) *keyResolver {
	return &keyResolver{store: s.store, owner: owner}
}

// resolve returns the fact stored under key, or under the closest existing key.
// A nil fact means nothing matched.
func (r *keyResolver) resolve(ctx context.Context, key string) (*models.Fact, error) {
	f, err := r.store.Get(ctx, r.owner, key)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, store.ErrFactNotFound) {
		return nil, apperr.Upstream("Failed to read memory", err)
	}

	if !r.loaded {
		r.keys, err = r.store.Keys(ctx, r.owner)
		if err != nil {
			return nil, apperr.Upstream("Failed to list memories", err)
		}
		r.loaded = true
	}
	match, ok := resolver.Resolve(key, r.keys)
	if !ok {
		return nil, nil
	}
	f, err = r.store.Get(ctx, r.owner, match)
	if errors.Is(err, store.ErrFactNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Upstream("Failed to read memory", err)
	}
	return f, nil
}

func (r *keyResolver) forget(key string) {
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			return
		}
	}
}

// outcomeSentence renders "I <verb> your a and b, but I couldn't find your c."
func outcomeSentence(verb string, done, missing []string) string {
	var parts []string
	if len(done) > 0 {
		parts = append(parts, "I "+verb+" your "+joinKeys(done))
	}
	if len(missing) > 0 {
		parts = append(parts, "I couldn't find your "+joinKeys(missing))
	}
	return strings.Join(parts, ", but ") + "."
}

func joinKeys(keys []string) string {
	switch len(keys) {
	case 0:
		return ""
	case 1:
		return keys[0]
	default:
		return strings.Join(keys[:len(keys)-1], ", ") + " and " + keys[len(keys)-1]
	}
}

package ratelimiter

import (
	"sync"
	"sync/atomic"
	"time"
)

// Keyed hands out one limiter per key, created on first use.
type Keyed[L any] struct {
	limiters sync.Map // key -> *keyedEntry[L]
	factory  func() L
	now      func() time.Time
}

type keyedEntry[L any] struct {
	limiter  L
	lastSeen atomic.Int64 // unix nanos
}

// NewKeyed creates a Keyed set whose limiters come from factory.
func NewKeyed[L any](factory func() L) *Keyed[L] {
	return &Keyed[L]{factory: factory, now: time.Now}
}

// Get returns the limiter for key and marks it as recently used.
func (k *Keyed[L]) Get(key string) L {
	if v, ok := k.limiters.Load(key); ok {
		e := v.(*keyedEntry[L])
		e.lastSeen.Store(k.now().UnixNano())
		return e.limiter
	}
	e := &keyedEntry[L]{limiter: k.factory()}
	e.lastSeen.Store(k.now().UnixNano())
	actual, _ := k.limiters.LoadOrStore(key, e)
	return actual.(*keyedEntry[L]).limiter
}

// Sweep removes limiters unused for longer than idle and returns how many were removed.
func (k *Keyed[L]) Sweep(idle time.Duration) int {
	cutoff := k.now().Add(-idle).UnixNano()
	removed := 0
	k.limiters.Range(func(key, value any) bool {
		if value.(*keyedEntry[L]).lastSeen.Load() < cutoff {
			k.limiters.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// Len returns how many keys currently hold a limiter.
func (k *Keyed[L]) Len() int {
	n := 0
	k.limiters.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}

// PerKey adapts a Keyed set of RateLimiters to KeyedLimiter.
type PerKey struct {
	set *Keyed[RateLimiter]
}

// NewPerKey creates a KeyedLimiter that builds one RateLimiter per key.
func NewPerKey(factory func() RateLimiter) *PerKey {
	return &PerKey{set: NewKeyed(factory)}
}

// AllowKey applies the limiter owned by key.
func (p *PerKey) AllowKey(key string) bool {
	return p.set.Get(key).Allow()
}

// Sweep forwards to the underlying Keyed set.
func (p *PerKey) Sweep(idle time.Duration) int {
	return p.set.Sweep(idle)
}

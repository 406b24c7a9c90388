package ratelimiter

import (
	"container/list"
	"sync"
	"time"
)

// SlidingWindowLog implements the RateLimiter interface using the sliding window log algorithm.
// It keeps a log of request timestamps in a sliding window.
type SlidingWindowLog struct {
	limit  int           // Maximum number of requests allowed in the window.
	window time.Duration // The duration of the time window.
	log    *list.List    // Request timestamps, oldest first.
	now    func() time.Time
	mutex  sync.Mutex
}

// NewSlidingWindowLog creates a new SlidingWindowLog.
// limit: the maximum number of requests allowed in the window.
// window: the duration of the time window.
func NewSlidingWindowLog(limit int, window time.Duration) *SlidingWindowLog {
	return &SlidingWindowLog{
		limit:  limit,
		window: window,
		log:    list.New(),
		now:    time.Now,
	}
}

// Allow records the request and returns true only while the window is under the limit.
// Rejected requests are not recorded.
func (swl *SlidingWindowLog) Allow() bool {
	swl.mutex.Lock()
	defer swl.mutex.Unlock()

	now := swl.now()
	swl.prune(now)
	if swl.log.Len() < swl.limit {
		swl.log.PushBack(now)
		return true
	}
	return false
}

// Record always logs the request and returns how many requests, including this
// one, fall inside the window.
func (swl *SlidingWindowLog) Record() int {
	swl.mutex.Lock()
	defer swl.mutex.Unlock()

	now := swl.now()
	swl.prune(now)
	swl.log.PushBack(now)
	return swl.log.Len()
}

// Limit returns the configured limit.
func (swl *SlidingWindowLog) Limit() int {
	return swl.limit
}

// prune drops timestamps at or before now-window. Callers hold the lock.
func (swl *SlidingWindowLog) prune(now time.Time) {
	boundary := now.Add(-swl.window)
	for e := swl.log.Front(); e != nil; {
		next := e.Next()
		if e.Value.(time.Time).After(boundary) {
			break
		}
		swl.log.Remove(e)
		e = next
	}
}

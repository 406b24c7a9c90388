package anomaly

import (
	"Recall_1.0/backend/go/internal/config"
	"Recall_1.0/backend/go/pkg/ratelimiter"
	"context"
	"sync"
	"time"
)

// MemoryDetector keeps one sliding log per user in process.
type MemoryDetector struct {
	logs   *ratelimiter.Keyed[*ratelimiter.SlidingWindowLog]
	limit  int
	window time.Duration
}

// NewMemoryDetector creates a detector that flags more than limit requests per window.
func NewMemoryDetector(limit int, window time.Duration) *MemoryDetector {
	return &MemoryDetector{
		logs: ratelimiter.NewKeyed(func() *ratelimiter.SlidingWindowLog {
			return ratelimiter.NewSlidingWindowLog(limit, window)
		}),
		limit:  limit,
		window: window,
	}
}

func (d *MemoryDetector) Inspect(_ context.Context, user string) (Verdict, error) {
	if d.logs.Get(user).Record() > d.limit {
		return Flag, nil
	}
	return Normal, nil
}

// Sweep drops logs of users idle for longer than the window.
func (d *MemoryDetector) Sweep() int {
	return d.logs.Sweep(d.window)
}

// StartSweeper calls Sweep every interval until stop is called. A non-positive
// interval means one window.
func (d *MemoryDetector) StartSweeper(interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = d.window
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				d.Sweep()
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// NewFromConfig builds the in-process detector, or Disabled when turned off.
// The Redis detector is built by the caller since it needs a client.
func NewFromConfig(cfg config.AnomalyConfig) (Detector, error) {
	if !cfg.Enabled {
		return Disabled{}, nil
	}
	window, err := ParseWindow(cfg)
	if err != nil {
		return nil, err
	}
	return NewMemoryDetector(limitOf(cfg), window), nil
}

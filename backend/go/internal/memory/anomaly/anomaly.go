// Package anomaly flags users who send requests faster than a sliding window allows.
package anomaly

import (
	"Recall_1.0/backend/go/internal/config"
	"context"
	"fmt"
	"time"
)

// Verdict is the outcome of inspecting one request.
type Verdict int

const (
	Normal Verdict = iota
	Flag
)

func (v Verdict) String() string {
	if v == Flag {
		return "flag"
	}
	return "normal"
}

// Detector records a request for user and judges it. Every request is recorded,
// flagged ones included, so a user who keeps hammering stays flagged.
type Detector interface {
	Inspect(ctx context.Context, user string) (Verdict, error)
}

// Disabled never flags.
type Disabled struct{}

func (Disabled) Inspect(context.Context, string) (Verdict, error) { return Normal, nil }

// ParseWindow reads the configured window, falling back to the default.
func ParseWindow(cfg config.AnomalyConfig) (time.Duration, error) {
	w := cfg.Window
	if w == "" {
		w = config.DefaultAnomalyWindow
	}
	d, err := time.ParseDuration(w)
	if err != nil {
		return 0, fmt.Errorf("invalid anomaly window %q: %w", w, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("anomaly window must be positive, got %s", d)
	}
	return d, nil
}

func limitOf(cfg config.AnomalyConfig) int {
	if cfg.Limit <= 0 {
		return config.DefaultAnomalyLimit
	}
	return cfg.Limit
}

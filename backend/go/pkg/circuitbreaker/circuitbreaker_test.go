package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func newTestBreaker(clock *time.Time) *Breaker {
	cb := New(Settings{Name: "test", FailureThreshold: 2, SuccessThreshold: 1, Timeout: time.Second})
	cb.now = func() time.Time { return *clock }
	return cb
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	now := time.Unix(0, 0)
	cb := newTestBreaker(&now)

	for i := 0; i < 2; i++ {
		if err := cb.Execute(func() error { return errBoom }); !errors.Is(err, errBoom) {
			t.Fatalf("call %d: expected errBoom, got %v", i, err)
		}
	}
	if cb.State() != Open {
		t.Fatalf("Expected Open, got %s", cb.State())
	}

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Errorf("Expected fast failure without calling, got err=%v called=%v", err, called)
	}
}

func TestBreaker_HalfOpenProbeCloses(t *testing.T) {
	now := time.Unix(0, 0)
	cb := newTestBreaker(&now)
	var transitions []State
	cb.settings.OnStateChange = func(_ string, _, to State) { transitions = append(transitions, to) }

	cb.Execute(func() error { return errBoom })
	cb.Execute(func() error { return errBoom })

	now = now.Add(2 * time.Second)
	if cb.State() != HalfOpen {
		t.Fatalf("Expected Half-Open after timeout, got %s", cb.State())
	}
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe error = %v", err)
	}
	if cb.State() != Closed {
		t.Errorf("Expected Closed after successful probe, got %s", cb.State())
	}
	want := []State{Open, HalfOpen, Closed}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, transitions[i], want[i])
		}
	}
}

func TestBreaker_IgnoredErrorsDoNotTrip(t *testing.T) {
	cb := New(Settings{FailureThreshold: 1, IsFailure: func(err error) bool {
		return !errors.Is(err, context.Canceled)
	}})
	cb.Execute(func() error { return context.Canceled })
	if cb.State() != Closed {
		t.Errorf("Expected Closed, got %s", cb.State())
	}
}

func TestCall_ReturnsValue(t *testing.T) {
	cb := New(Settings{})
	got, err := Call(cb, func() (int, error) { return 42, nil })
	if err != nil || got != 42 {
		t.Errorf("Call() = (%d, %v)", got, err)
	}
}

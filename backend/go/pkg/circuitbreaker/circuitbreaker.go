package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State represents the state of the circuit breaker.
type State int

const (
	// Closed is the initial state where requests are allowed.
	Closed State = iota
	// Open state is when the circuit has tripped and requests are blocked.
	Open
	// HalfOpen lets a single probe through to test recovery.
	HalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Closed:
		return "Closed"
	case Open:
		return "Open"
	case HalfOpen:
		return "Half-Open"
	default:
		return "Unknown"
	}
}

var (
	// ErrCircuitOpen is returned when the circuit breaker is in the Open state,
	// or when a half-open probe is already in flight.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// Settings configures a Breaker.
type Settings struct {
	Name string
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold uint32
	// SuccessThreshold is the number of consecutive half-open successes that closes it.
	SuccessThreshold uint32
	// Timeout is how long the circuit stays open before a probe is allowed.
	Timeout time.Duration
	// IsFailure decides whether an error counts against the circuit. Nil counts every error.
	IsFailure func(error) bool
	// OnStateChange is called with the lock released after every transition.
	OnStateChange func(name string, from, to State)
}

// Breaker implements the circuit breaker pattern. The zero value is not usable; call New.
type Breaker struct {
	settings Settings
	now      func() time.Time

	mutex     sync.Mutex
	state     State
	failures  uint32
	successes uint32
	openedAt  time.Time
	probing   bool
}

// New creates a Breaker. Zero thresholds default to 1 and a zero timeout to 30s.
func New(s Settings) *Breaker {
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 1
	}
	if s.SuccessThreshold == 0 {
		s.SuccessThreshold = 1
	}
	if s.Timeout <= 0 {
		s.Timeout = 30 * time.Second
	}
	return &Breaker{settings: s, now: time.Now, state: Closed}
}

// State returns the current state, moving Open to HalfOpen once the timeout elapsed.
func (cb *Breaker) State() State {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	if cb.state == Open && cb.now().Sub(cb.openedAt) > cb.settings.Timeout {
		return HalfOpen
	}
	return cb.state
}

// Execute runs req unless the circuit is open.
func (cb *Breaker) Execute(req func() error) error {
	if err := cb.before(); err != nil {
		return err
	}
	err := req()
	cb.after(err)
	return err
}

// Call is Execute for functions that return a value.
func Call[T any](cb *Breaker, req func() (T, error)) (T, error) {
	var out T
	err := cb.Execute(func() error {
		var err error
		out, err = req()
		return err
	})
	return out, err
}

func (cb *Breaker) before() error {
	cb.mutex.Lock()
	var from State
	changed := false
	if cb.state == Open && cb.now().Sub(cb.openedAt) > cb.settings.Timeout {
		from, changed = cb.state, true
		cb.state = HalfOpen
		cb.successes = 0
	}

	var err error
	switch cb.state {
	case Open:
		err = ErrCircuitOpen
	case HalfOpen:
		if cb.probing {
			err = ErrCircuitOpen
		} else {
			cb.probing = true
		}
	}
	cb.mutex.Unlock()

	if changed {
		cb.notify(from, HalfOpen)
	}
	return err
}

func (cb *Breaker) after(err error) {
	failed := err != nil
	if failed && cb.settings.IsFailure != nil {
		failed = cb.settings.IsFailure(err)
	}

	cb.mutex.Lock()
	from := cb.state
	switch cb.state {
	case HalfOpen:
		cb.probing = false
		if failed {
			cb.trip()
		} else {
			cb.successes++
			if cb.successes >= cb.settings.SuccessThreshold {
				cb.reset()
			}
		}
	case Closed:
		if failed {
			cb.failures++
			if cb.failures >= cb.settings.FailureThreshold {
				cb.trip()
			}
		} else {
			cb.failures = 0
		}
	}
	to := cb.state
	cb.mutex.Unlock()

	if from != to {
		cb.notify(from, to)
	}
}

// trip opens the circuit. Callers hold the lock.
func (cb *Breaker) trip() {
	cb.state = Open
	cb.openedAt = cb.now()
	cb.failures = 0
	cb.successes = 0
}

// reset closes the circuit. Callers hold the lock.
func (cb *Breaker) reset() {
	cb.state = Closed
	cb.failures = 0
	cb.successes = 0
}

func (cb *Breaker) notify(from, to State) {
	if cb.settings.OnStateChange != nil {
		cb.settings.OnStateChange(cb.settings.Name, from, to)
	}
}

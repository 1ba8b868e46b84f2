package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State represents the state of the circuit breaker.
type State int

const (
	// Closed is the initial state where calls are allowed.
	Closed State = iota
	// Open state is when the circuit has tripped and calls fail fast.
	Open
	// HalfOpen lets trial calls through to test whether the backend recovered.
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
	// ErrCircuitOpen is returned when the circuit breaker is in the Open state.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// Settings configures a Breaker.
type Settings struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold uint32
	// SuccessThreshold is the number of consecutive half-open successes that closes it again.
	SuccessThreshold uint32
	// Timeout is how long the circuit stays open before allowing a trial call.
	Timeout time.Duration
	// OnStateChange is called with the lock released after every transition.
	OnStateChange func(from, to State)
}

// Breaker guards calls to an unreliable backend.
type Breaker struct {
	settings             Settings
	consecutiveSuccesses uint32
	consecutiveFailures  uint32
	openedAt             time.Time
	state                State
	now                  func() time.Time
	mutex                sync.Mutex
}

// New creates a Breaker. Zero thresholds are raised to 1.
func New(s Settings) *Breaker {
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 1
	}
	if s.SuccessThreshold == 0 {
		s.SuccessThreshold = 1
	}
	return &Breaker{settings: s, state: Closed, now: time.Now}
}

// State returns the current state of the circuit breaker.
func (cb *Breaker) State() State {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.refresh()
	return cb.state
}

// Execute runs req unless the circuit is open. The outcome of req is
// recorded and its error returned unchanged.
func (cb *Breaker) Execute(req func() error) error {
	cb.mutex.Lock()
	from := cb.state
	cb.refresh()
	state := cb.state
	cb.mutex.Unlock()
	cb.notify(from, state)

	if state == Open {
		return ErrCircuitOpen
	}

	err := req()

	cb.mutex.Lock()
	from = cb.state
	if err != nil {
		cb.onFailure()
	} else {
		cb.onSuccess()
	}
	to := cb.state
	cb.mutex.Unlock()
	cb.notify(from, to)

	return err
}

// refresh moves Open to HalfOpen once the timeout elapsed. Caller holds the lock.
func (cb *Breaker) refresh() {
	if cb.state == Open && cb.now().Sub(cb.openedAt) >= cb.settings.Timeout {
		cb.state = HalfOpen
		cb.consecutiveSuccesses = 0
	}
}

func (cb *Breaker) onSuccess() {
	switch cb.state {
	case HalfOpen:
		cb.consecutiveSuccesses++
		if cb.consecutiveSuccesses >= cb.settings.SuccessThreshold {
			cb.reset()
		}
	case Closed:
		cb.consecutiveFailures = 0
	}
}

func (cb *Breaker) onFailure() {
	switch cb.state {
	case HalfOpen:
		cb.trip()
	case Closed:
		cb.consecutiveFailures++
		if cb.consecutiveFailures >= cb.settings.FailureThreshold {
			cb.trip()
		}
	}
}

// trip opens the circuit.
func (cb *Breaker) trip() {
	cb.state = Open
	cb.openedAt = cb.now()
	cb.consecutiveFailures = 0
	cb.consecutiveSuccesses = 0
}

// reset closes the circuit and resets all counters.
func (cb *Breaker) reset() {
	cb.state = Closed
	cb.consecutiveFailures = 0
	cb.consecutiveSuccesses = 0
}

func (cb *Breaker) notify(from, to State) {
	if from != to && cb.settings.OnStateChange != nil {
		cb.settings.OnStateChange(from, to)
	}
}

package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func fail() error { return errBoom }
func ok() error   { return nil }

func TestBreaker_TripsAfterThreshold(t *testing.T) {
	cb := New(Settings{FailureThreshold: 2, SuccessThreshold: 1, Timeout: time.Minute})

	if err := cb.Execute(fail); !errors.Is(err, errBoom) {
		t.Fatalf("first call error = %v", err)
	}
	if cb.State() != Closed {
		t.Fatalf("state after one failure = %v, want Closed", cb.State())
	}
	cb.Execute(fail)
	if cb.State() != Open {
		t.Fatalf("state after two failures = %v, want Open", cb.State())
	}

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Errorf("open breaker should fail fast, got err=%v called=%v", err, called)
	}
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	cb := New(Settings{FailureThreshold: 2, Timeout: time.Minute})
	cb.Execute(fail)
	cb.Execute(ok)
	cb.Execute(fail)
	if cb.State() != Closed {
		t.Errorf("non-consecutive failures must not trip, state = %v", cb.State())
	}
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	now := time.Unix(0, 0)
	var transitions []State
	cb := New(Settings{
		FailureThreshold: 1,
		SuccessThreshold: 2,
		Timeout:          10 * time.Second,
		OnStateChange:    func(_, to State) { transitions = append(transitions, to) },
	})
	cb.now = func() time.Time { return now }

	cb.Execute(fail)
	if cb.State() != Open {
		t.Fatalf("state = %v, want Open", cb.State())
	}

	now = now.Add(11 * time.Second)
	if cb.State() != HalfOpen {
		t.Fatalf("state after timeout = %v, want Half-Open", cb.State())
	}
	cb.Execute(ok)
	if cb.State() != HalfOpen {
		t.Fatalf("state after one trial success = %v, want Half-Open", cb.State())
	}
	cb.Execute(ok)
	if cb.State() != Closed {
		t.Fatalf("state after two trial successes = %v, want Closed", cb.State())
	}

	if len(transitions) == 0 || transitions[0] != Open || transitions[len(transitions)-1] != Closed {
		t.Errorf("unexpected transitions %v", transitions)
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Unix(0, 0)
	cb := New(Settings{FailureThreshold: 1, Timeout: time.Second})
	cb.now = func() time.Time { return now }

	cb.Execute(fail)
	now = now.Add(2 * time.Second)
	cb.Execute(fail)
	if cb.State() != Open {
		t.Errorf("state = %v, want Open", cb.State())
	}
}

func TestState_String(t *testing.T) {
	if Closed.String() != "Closed" || Open.String() != "Open" || HalfOpen.String() != "Half-Open" || State(9).String() != "Unknown" {
		t.Error("unexpected State.String() output")
	}
}

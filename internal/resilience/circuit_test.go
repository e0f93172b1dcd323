package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestBreaker_ClosedPassesThrough(t *testing.T) {
	b := NewBreaker("apify.listing", BreakerConfig{FailureThreshold: 3})

	if err := b.Allow(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b.Record(nil)
	if b.State() != CircuitClosed {
		t.Errorf("expected closed state, got %s", b.State())
	}
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := NewBreaker("apify.listing", BreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		if err := b.Allow(); err != nil {
			t.Fatalf("call %d rejected early: %v", i, err)
		}
		b.Record(errors.New("fail"))
	}

	if b.State() != CircuitOpen {
		t.Fatalf("expected open state, got %s", b.State())
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestBreaker_SuccessResetsCount(t *testing.T) {
	b := NewBreaker("jina.page", BreakerConfig{FailureThreshold: 3})

	b.Record(errors.New("fail"))
	b.Record(errors.New("fail"))
	b.Record(nil)
	b.Record(errors.New("fail"))
	b.Record(errors.New("fail"))

	if b.State() != CircuitClosed {
		t.Errorf("expected closed state after interleaved success, got %s", b.State())
	}
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	now := time.Now()
	b := NewBreaker("google.listing", BreakerConfig{FailureThreshold: 1, ResetTimeout: 100 * time.Millisecond})
	b.nowFunc = func() time.Time { return now }

	b.Record(errors.New("fail"))
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}

	b.nowFunc = func() time.Time { return now.Add(200 * time.Millisecond) }
	if err := b.Allow(); err != nil {
		t.Fatalf("expected probe to be allowed, got %v", err)
	}
	if b.State() != CircuitHalfOpen {
		t.Fatalf("expected half-open, got %s", b.State())
	}

	b.Record(nil)
	if b.State() != CircuitClosed {
		t.Errorf("expected closed after successful probe, got %s", b.State())
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	b := NewBreaker("google.listing", BreakerConfig{FailureThreshold: 2, ResetTimeout: 100 * time.Millisecond})
	b.nowFunc = func() time.Time { return now }

	b.Record(errors.New("fail"))
	b.Record(errors.New("fail"))

	b.nowFunc = func() time.Time { return now.Add(200 * time.Millisecond) }
	if err := b.Allow(); err != nil {
		t.Fatalf("expected probe, got %v", err)
	}
	b.Record(errors.New("still failing"))

	if b.State() != CircuitOpen {
		t.Errorf("expected open after failed probe, got %s", b.State())
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen right after reopening, got %v", err)
	}
}

func TestBreaker_DisabledWithZeroThreshold(t *testing.T) {
	b := NewBreaker("x", BreakerConfig{})
	for i := 0; i < 20; i++ {
		b.Record(errors.New("fail"))
	}
	if err := b.Allow(); err != nil {
		t.Errorf("disabled breaker rejected call: %v", err)
	}
}

func TestBreaker_OnStateChange(t *testing.T) {
	var transitions []string
	b := NewBreaker("apify.jobs", BreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Minute,
		OnStateChange: func(name string, from, to CircuitState) {
			transitions = append(transitions, name+":"+from.String()+"->"+to.String())
		},
	})

	b.Record(errors.New("fail"))

	if len(transitions) != 1 || transitions[0] != "apify.jobs:closed->open" {
		t.Errorf("unexpected transitions: %v", transitions)
	}
}

func TestBreakers_Registry(t *testing.T) {
	r := NewBreakers(BreakerConfig{FailureThreshold: 1})

	a := r.Get("apify.listing")
	if r.Get("apify.listing") != a {
		t.Fatal("expected the same breaker for the same name")
	}
	r.Get("jina.page").Record(errors.New("fail"))

	states := r.States()
	if states["apify.listing"] != CircuitClosed {
		t.Errorf("expected apify.listing closed, got %s", states["apify.listing"])
	}
	if states["jina.page"] != CircuitOpen {
		t.Errorf("expected jina.page open, got %s", states["jina.page"])
	}
}

func TestCircuitState_String(t *testing.T) {
	if CircuitState(99).String() != "unknown" {
		t.Errorf("expected unknown for invalid state")
	}
}

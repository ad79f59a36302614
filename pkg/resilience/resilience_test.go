package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLimiterAllow(t *testing.T) {
	now := time.Unix(0, 0)
	l := NewLimiter(LimiterOpts{Rate: 1, Burst: 2})
	l.now = func() time.Time { return now }

	if !l.Allow() || !l.Allow() {
		t.Fatal("burst of 2 should allow two calls")
	}
	if l.Allow() {
		t.Fatal("third call should be limited")
	}

	now = now.Add(time.Second)
	if !l.Allow() {
		t.Fatal("one token should refill after a second")
	}
}

func TestLimiterWaitCancelled(t *testing.T) {
	l := NewLimiter(LimiterOpts{Rate: 0.001, Burst: 1})
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
}

func TestBreakerTripsAndRecovers(t *testing.T) {
	now := time.Unix(0, 0)
	b := NewBreaker(BreakerOpts{FailThreshold: 2, Timeout: time.Minute, HalfOpenMax: 1})
	b.now = func() time.Time { return now }

	boom := errors.New("boom")
	fail := func(context.Context) error { return boom }
	ok := func(context.Context) error { return nil }
	ctx := context.Background()

	if err := b.Call(ctx, fail); !errors.Is(err, boom) {
		t.Fatalf("first failure: %v", err)
	}
	if b.State() != StateClosed {
		t.Fatal("one failure should not trip")
	}
	b.Call(ctx, fail)
	if b.State() != StateOpen {
		t.Fatal("threshold failures should trip the breaker")
	}
	if err := b.Call(ctx, ok); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("open breaker should reject: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if b.State() != StateHalfOpen {
		t.Fatal("breaker should be half-open after timeout")
	}
	if err := b.Call(ctx, ok); err != nil {
		t.Fatalf("probe call: %v", err)
	}
	if b.State() != StateClosed {
		t.Fatal("successful probe should close the breaker")
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Unix(0, 0)
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: time.Second, HalfOpenMax: 1})
	b.now = func() time.Time { return now }
	ctx := context.Background()
	boom := errors.New("boom")

	b.Call(ctx, func(context.Context) error { return boom })
	now = now.Add(2 * time.Second)
	b.Call(ctx, func(context.Context) error { return boom })
	if b.State() != StateOpen {
		t.Fatal("failed probe should reopen the breaker")
	}
}

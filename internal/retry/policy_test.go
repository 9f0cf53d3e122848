package retry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func fastPolicy(attempts int) Policy {
	p := Default()
	p.MaxAttempts = attempts
	p.BaseDelay = time.Millisecond
	p.MaxDelay = 2 * time.Millisecond
	p.Jitter = 0
	return p
}

type flakyOp struct {
	mu       sync.Mutex
	calls    int
	failFor  int
	failWith error
}

func (f *flakyOp) run(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failFor {
		return f.failWith
	}
	return nil
}

func (f *flakyOp) getCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestPolicy_Do(t *testing.T) {
	boom := errors.New("boom")

	t.Run("succeeds after transient failures", func(t *testing.T) {
		op := &flakyOp{failFor: 2, failWith: Transient(boom)}
		if err := fastPolicy(4).Do(context.Background(), op.run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if op.getCalls() != 3 {
			t.Errorf("expected 3 calls, got %d", op.getCalls())
		}
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		op := &flakyOp{failFor: 10, failWith: Transient(boom)}
		err := fastPolicy(3).Do(context.Background(), op.run)
		if !errors.Is(err, ErrExhausted) {
			t.Fatalf("expected ErrExhausted, got %v", err)
		}
		if !errors.Is(err, boom) {
			t.Errorf("expected cause to be preserved, got %v", err)
		}
		if op.getCalls() != 3 {
			t.Errorf("expected 3 calls, got %d", op.getCalls())
		}
	})

	t.Run("permanent error stops immediately", func(t *testing.T) {
		op := &flakyOp{failFor: 10, failWith: boom}
		err := fastPolicy(5).Do(context.Background(), op.run)
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if errors.Is(err, ErrExhausted) {
			t.Error("permanent error must not be reported as exhausted")
		}
		if op.getCalls() != 1 {
			t.Errorf("expected 1 call, got %d", op.getCalls())
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		op := &flakyOp{failFor: 10, failWith: Transient(boom)}
		err := fastPolicy(5).Do(ctx, op.run)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if op.getCalls() > 1 {
			t.Errorf("expected at most 1 call, got %d", op.getCalls())
		}
	})

	t.Run("notify sees each retry", func(t *testing.T) {
		var attempts []int
		p := fastPolicy(3)
		p.Notify = func(attempt int, err error, next time.Duration) {
			attempts = append(attempts, attempt)
		}
		op := &flakyOp{failFor: 10, failWith: Transient(boom)}
		_ = p.Do(context.Background(), op.run)
		if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
			t.Errorf("unexpected notify attempts: %v", attempts)
		}
	})
}

func TestPolicy_AttemptTimeout(t *testing.T) {
	p := fastPolicy(2)
	p.AttemptTimeout = 10 * time.Millisecond

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		<-ctx.Done()
		return Transient(ctx.Err())
	})
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

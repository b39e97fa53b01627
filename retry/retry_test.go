package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/pushsync/backoff"
	"github.com/xraph/pushsync/retry"
)

var errBoom = errors.New("boom")

func TestDoSuccessFirstAttempt(t *testing.T) {
	t.Parallel()

	calls := 0
	err := retry.Do(context.Background(), retry.Forever(), func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDoTerminalErrorNotRetried(t *testing.T) {
	t.Parallel()

	calls := 0
	err := retry.Do(context.Background(), retry.Forever(), func(context.Context) error {
		calls++
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("error = %v, want %v", err, errBoom)
	}
	if calls != 1 {
		t.Fatalf("terminal error retried: calls = %d, want 1", calls)
	}
}

func TestDoRetriesTransientUntilSuccess(t *testing.T) {
	t.Parallel()

	calls := 0
	p := retry.Limit(10, backoff.NewConstant(time.Millisecond))
	err := retry.Do(context.Background(), p, func(context.Context) error {
		calls++
		if calls < 3 {
			return retry.Transient(errBoom)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestDoBoundedExhaustion(t *testing.T) {
	t.Parallel()

	calls := 0
	p := retry.Limit(3, backoff.NewConstant(time.Millisecond))
	err := retry.Do(context.Background(), p, func(context.Context) error {
		calls++
		return retry.Transient(errBoom)
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("error = %v, want wrapped %v", err, errBoom)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestDoContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	p := retry.Policy{Strategy: backoff.NewConstant(time.Hour)}

	done := make(chan error, 1)
	go func() {
		done <- retry.Do(ctx, p, func(context.Context) error {
			return retry.Transient(errBoom)
		})
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	if retry.IsTransient(errBoom) {
		t.Fatal("plain error should not be transient")
	}
	if !retry.IsTransient(retry.Transient(errBoom)) {
		t.Fatal("marked error should be transient")
	}
	// Wrapping preserves the marker.
	wrapped := errors.Join(errors.New("outer"), retry.Transient(errBoom))
	if !retry.IsTransient(wrapped) {
		t.Fatal("joined transient error should remain transient")
	}
	if retry.Transient(nil) != nil {
		t.Fatal("Transient(nil) should be nil")
	}
}

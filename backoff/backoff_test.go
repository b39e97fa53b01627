package backoff_test

import (
	"testing"
	"time"

	"github.com/xraph/pushsync/backoff"
)

func TestConstant(t *testing.T) {
	t.Parallel()

	c := backoff.NewConstant(5 * time.Second)
	for _, attempt := range []int{1, 2, 10} {
		if got := c.Delay(attempt); got != 5*time.Second {
			t.Fatalf("Delay(%d) = %v, want 5s", attempt, got)
		}
	}
}

func TestExponential(t *testing.T) {
	t.Parallel()

	e := backoff.NewExponential(1*time.Second, 8*time.Second)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 8 * time.Second}, // capped at Max
		{10, 8 * time.Second},
	}

	for _, tt := range tests {
		if got := e.Delay(tt.attempt); got != tt.want {
			t.Fatalf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestExponentialNoMax(t *testing.T) {
	t.Parallel()

	e := backoff.NewExponential(1*time.Second, 0)
	if got := e.Delay(6); got != 32*time.Second {
		t.Fatalf("Delay(6) = %v, want 32s", got)
	}
}

func TestExponentialWithJitterBounds(t *testing.T) {
	t.Parallel()

	e := backoff.NewExponentialWithJitter(1*time.Second, 10*time.Second)
	for attempt := 1; attempt <= 8; attempt++ {
		d := e.Delay(attempt)
		if d < 0 || d > 10*time.Second {
			t.Fatalf("Delay(%d) = %v, outside [0, 10s]", attempt, d)
		}
	}
}

func TestDefaultStrategyCaps(t *testing.T) {
	t.Parallel()

	s := backoff.DefaultStrategy()
	if got := s.Delay(20); got != 64*time.Second {
		t.Fatalf("Delay(20) = %v, want 64s cap", got)
	}
}

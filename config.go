package pushsync

import "time"

// Config holds configuration for the sync engine.
type Config struct {
	// QueueCapacity is the initial capacity hint for the pending-job queue.
	QueueCapacity int

	// RetryInitialDelay is the first retry delay for remote calls.
	RetryInitialDelay time.Duration

	// RetryMaxDelay caps the exponential backoff for remote calls.
	RetryMaxDelay time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		QueueCapacity:     16,
		RetryInitialDelay: 1 * time.Second,
		RetryMaxDelay:     64 * time.Second,
		ShutdownTimeout:   30 * time.Second,
	}
}

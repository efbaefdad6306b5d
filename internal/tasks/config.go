package tasks

import "time"

// Config sizes the worker pool. Attempts, backoff and retention are set per
// queue by each task type's Config method.
type Config struct {
	Workers int

	// ReleaseAfter returns a claimed task to the queue if its worker has not
	// finished by then.
	ReleaseAfter time.Duration

	// CleanupInterval is how often expired task records are purged.
	CleanupInterval time.Duration
}

// DefaultConfig returns the configuration used when TASK_* variables are unset.
func DefaultConfig() Config {
	return Config{
		Workers:         2,
		ReleaseAfter:    15 * time.Minute,
		CleanupInterval: time.Hour,
	}
}

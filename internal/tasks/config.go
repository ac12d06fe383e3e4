package tasks

import "time"

// Config sizes the background queue shared by the maintenance tasks.
// Retry, timeout, and retention policy live on each queue's
// backlite.QueueConfig, not here.
type Config struct {
	// Workers is the number of concurrent task workers. Default: 2
	Workers int

	// ReleaseAfter is when stuck tasks are handed back to the queue. Default: 15m
	ReleaseAfter time.Duration

	// CleanupInterval is how often completed tasks are swept. Default: 1h
	CleanupInterval time.Duration
}

// DefaultConfig returns the queue sizing used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Workers:         2,
		ReleaseAfter:    15 * time.Minute,
		CleanupInterval: 1 * time.Hour,
	}
}

package tasks

import "time"

// Config holds configuration for the task queue system.
type Config struct {
	// Workers is the number of concurrent task workers. Default: 1
	//
	// Uploads and downloads each run one at a time regardless of this value;
	// a second worker only lets an upload and a download overlap.
	Workers int

	// ReleaseAfter is when a claimed task that never finished is handed out
	// again. The transfer record then stops it from running twice. Default: 24h
	ReleaseAfter time.Duration

	// CleanupInterval is how often to clean up completed tasks. Default: 1h
	CleanupInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:         1,
		ReleaseAfter:    24 * time.Hour,
		CleanupInterval: 1 * time.Hour,
	}
}

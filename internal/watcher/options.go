package watcher

import "time"

const (
	// DefaultPollInterval is how often the chain head is polled.
	DefaultPollInterval = 10 * time.Second
	// DefaultConfirmations is how many blocks deep a block must be before its logs are dispatched.
	DefaultConfirmations = 3
	// DefaultCheckpointInterval is how many confirmed blocks without logs may pass before the
	// cursor is persisted anyway.
	DefaultCheckpointInterval = 50
	// StartAtHead makes a watcher without a stored cursor start at the chain head.
	StartAtHead = -1
)

type config struct {
	pollInterval       time.Duration
	confirmations      uint
	startBlock         int64
	checkpointInterval uint64
}

type Option func(*config)

func WithPollInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithConfirmations sets the confirmation depth. It cannot be less than 1.
func WithConfirmations(n uint) Option {
	return func(c *config) {
		if n > 0 {
			c.confirmations = n
		}
	}
}

// WithStartBlock sets the block to start from when no cursor has been stored yet.
func WithStartBlock(n int64) Option {
	return func(c *config) {
		c.startBlock = n
	}
}

func WithCheckpointInterval(n uint64) Option {
	return func(c *config) {
		if n > 0 {
			c.checkpointInterval = n
		}
	}
}

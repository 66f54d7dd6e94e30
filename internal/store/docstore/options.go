package docstore

import "time"

const (
	// DefaultLockTimeout bounds how long an operation waits for exclusive access to a key.
	DefaultLockTimeout = 5 * time.Second
)

type config struct {
	lockTimeout    time.Duration
	strictDecoding bool
}

type Option func(*config)

// WithLockTimeout sets a custom per-key lock acquisition timeout. Non-positive values are ignored.
func WithLockTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.lockTimeout = d
		}
	}
}

// WithStrictDecoding makes reads of undecodable payloads fail with store.ErrStorageCorrupted
// instead of falling back to the document default.
func WithStrictDecoding() Option {
	return func(c *config) {
		c.strictDecoding = true
	}
}

package idemstore

import (
	"context"
	"time"
)

// Driver describes the presence operations of a backing medium.
// Keys are fully qualified. Implementations must be thread-safe, must honour
// ctx cancellation, and must be comparable (pointer types) since drivers are
// used as registry keys.
type Driver interface {
	// SetNX inserts key if absent and reports whether it was inserted.
	// ttl <= 0 means the key never expires.
	SetNX(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	// Delete reports whether a key was actually removed.
	Delete(ctx context.Context, key string) (bool, error)
	// Clear removes every key starting with prefix.
	Clear(ctx context.Context, prefix string) error
	// Close releases resources. Afterwards all calls return ErrStoreClosed.
	Close() error
}

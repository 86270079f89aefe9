package idemstore

import (
	"errors"
	"fmt"
)

var (
	ErrStoreUnavailable = errors.New("idemstore: store unavailable")
	ErrConfiguration    = errors.New("idemstore: no store name or driver configured")
	ErrNotStarted       = errors.New("idemstore: not started")
	ErrStoreClosed      = errors.New("idemstore: store closed")
)

// OpError records the operation, store and key of a failed call.
// Use errors.Is to match the sentinel and the underlying driver cause.
type OpError struct {
	Op    string
	Store string
	Key   string
	Err   error
}

func (e *OpError) Error() string {
	if e.Store == "" {
		return fmt.Sprintf("%s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("%s %s/%q: %v", e.Op, e.Store, e.Key, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// unavailable wraps a driver fault. ErrStoreClosed and errors already
// classified as unavailable pass through unchanged.
func unavailable(err error) error {
	if errors.Is(err, ErrStoreClosed) || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

package idemstore

import (
	"context"
	"strings"
	"sync/atomic"
	"time"
)

const (
	opAdd      = "add"
	opContains = "contains"
	opRemove   = "remove"
	opConfirm  = "confirm"
	opClear    = "clear"
)

// Separator joins the namespace, store name and key of a stored key.
// Namespaces and store names must not contain it.
const Separator = ":"

// KeyspaceConfig carries the per-keyspace settings applied by a Factory.
type KeyspaceConfig struct {
	// Namespace is prepended to the store name in every stored key.
	Namespace string

	// Timeout bounds each driver call. Zero disables the bound.
	Timeout time.Duration

	// TTL expires presence records. Zero keeps them until removed.
	TTL time.Duration

	Metrics *Metrics
}

// Keyspace is a named presence set on a Driver.
// Keys are stored as "namespace:name:key", or "name:key" without a namespace.
// Keys may contain Separator; names may not, see ValidName.
type Keyspace struct {
	name    string
	prefix  string
	driver  Driver
	timeout time.Duration
	ttl     time.Duration
	metrics *Metrics
	closed  atomic.Bool
}

// NewKeyspace binds name to driver.
func NewKeyspace(driver Driver, name string, cfg KeyspaceConfig) *Keyspace {
	prefix := name + Separator
	if cfg.Namespace != "" {
		prefix = cfg.Namespace + Separator + prefix
	}
	return &Keyspace{
		name:    name,
		prefix:  prefix,
		driver:  driver,
		timeout: cfg.Timeout,
		ttl:     cfg.TTL,
		metrics: cfg.Metrics,
	}
}

// Name returns the store name.
func (k *Keyspace) Name() string { return k.name }

// Driver returns the backing driver.
func (k *Keyspace) Driver() Driver { return k.driver }

// ValidName reports whether s can be used as a store name or namespace.
// A name containing Separator would share stored keys with another store.
func ValidName(s string) bool { return !strings.Contains(s, Separator) }

func (k *Keyspace) key(key string) string { return k.prefix + key }

// Add inserts key if absent. It returns true only for the caller that inserted it.
func (k *Keyspace) Add(ctx context.Context, key string) (bool, error) {
	return k.do(ctx, opAdd, key, func(ctx context.Context, full string) (bool, error) {
		return k.driver.SetNX(ctx, full, k.ttl)
	})
}

// Contains reports whether key is present.
func (k *Keyspace) Contains(ctx context.Context, key string) (bool, error) {
	return k.do(ctx, opContains, key, k.driver.Exists)
}

// Remove deletes key and reports whether it was present.
func (k *Keyspace) Remove(ctx context.Context, key string) (bool, error) {
	return k.do(ctx, opRemove, key, k.driver.Delete)
}

// Confirm reports whether key is present. It is equivalent to Contains: it
// asserts current presence only, not that the key was added by the same caller.
func (k *Keyspace) Confirm(ctx context.Context, key string) (bool, error) {
	return k.do(ctx, opConfirm, key, k.driver.Exists)
}

// Clear removes every key of this keyspace.
func (k *Keyspace) Clear(ctx context.Context) error {
	_, err := k.do(ctx, opClear, "", func(ctx context.Context, _ string) (bool, error) {
		return false, k.driver.Clear(ctx, k.prefix)
	})
	return err
}

func (k *Keyspace) close() { k.closed.Store(true) }

func (k *Keyspace) do(ctx context.Context, op, key string, fn func(context.Context, string) (bool, error)) (bool, error) {
	if k.closed.Load() {
		return false, &OpError{Op: op, Store: k.name, Key: key, Err: ErrStoreClosed}
	}
	if k.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, k.timeout)
		defer cancel()
	}

	start := time.Now()
	ok, err := fn(ctx, k.key(key))
	k.metrics.observe(k.name, op, ok, err, time.Since(start))
	if err != nil {
		return false, &OpError{Op: op, Store: k.name, Key: key, Err: unavailable(err)}
	}
	return ok, nil
}

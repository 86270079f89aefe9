package idemstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	// DefaultStoreName is used by Start when no store name was configured.
	DefaultStoreName = "default"

	// DefaultTimeout bounds each backing store call unless WithTimeout overrides it.
	DefaultTimeout = 3 * time.Second
)

// IdempotentRepository is the contract an idempotent consumer relies on.
type IdempotentRepository[TKey ~string] interface {
	Add(ctx context.Context, key TKey) (bool, error)
	Contains(ctx context.Context, key TKey) (bool, error)
	Remove(ctx context.Context, key TKey) (bool, error)
	Confirm(ctx context.Context, key TKey) (bool, error)

	AddWith(ctx context.Context, o Override, key TKey) (bool, error)
	ContainsWith(ctx context.Context, o Override, key TKey) (bool, error)
	RemoveWith(ctx context.Context, o Override, key TKey) (bool, error)
	ConfirmWith(ctx context.Context, o Override, key TKey) (bool, error)

	Start() error
	Stop() error
}

var _ IdempotentRepository[string] = (*Adapter[string])(nil)

// Option customizes Adapter behavior.
type Option[TKey ~string] func(*Adapter[TKey])

// WithStoreName sets the default store name. Empty names are ignored.
func WithStoreName[TKey ~string](name string) Option[TKey] {
	return func(a *Adapter[TKey]) {
		if name != "" {
			a.storeName = name
		}
	}
}

// WithDriver sets the default backing driver. The adapter closes it on Stop.
func WithDriver[TKey ~string](d Driver) Option[TKey] {
	return func(a *Adapter[TKey]) {
		if d != nil {
			a.driver = d
		}
	}
}

// WithNamespace prefixes every stored key with ns. Start rejects a
// namespace containing Separator.
func WithNamespace[TKey ~string](ns string) Option[TKey] {
	return func(a *Adapter[TKey]) {
		a.namespace = ns
	}
}

// WithTimeout bounds each backing store call. Zero disables the bound.
func WithTimeout[TKey ~string](d time.Duration) Option[TKey] {
	return func(a *Adapter[TKey]) {
		if d >= 0 {
			a.timeout = d
		}
	}
}

// WithTTL expires presence records after ttl. Zero keeps them until removed.
func WithTTL[TKey ~string](ttl time.Duration) Option[TKey] {
	return func(a *Adapter[TKey]) {
		if ttl >= 0 {
			a.ttl = ttl
		}
	}
}

// WithLogger specifies a logger for lifecycle logging.
// If not provided, a no-op logger is used (no logging).
func WithLogger[TKey ~string](logger Logger) Option[TKey] {
	return func(a *Adapter[TKey]) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithLogTag sets a tag prefix for all log messages.
// Useful for identifying the source of logs in multi-adapter scenarios.
func WithLogTag[TKey ~string](tag string) Option[TKey] {
	return func(a *Adapter[TKey]) {
		a.logTag = tag
	}
}

// WithMetrics records operation outcomes in m.
func WithMetrics[TKey ~string](m *Metrics) Option[TKey] {
	return func(a *Adapter[TKey]) {
		a.metrics = m
	}
}

// Adapter resolves a keyspace per call and forwards presence operations to it.
// Start must be called before use.
type Adapter[TKey ~string] struct {
	mu        sync.RWMutex
	storeName string
	driver    Driver

	namespace string
	timeout   time.Duration
	ttl       time.Duration
	logger    Logger
	logTag    string
	metrics   *Metrics

	log      taggedLogger
	registry *Registry
	stopOnce sync.Once
	stopErr  error
}

// New creates an Adapter. Both the store name and the driver are optional;
// a call that cannot resolve a driver fails with ErrConfiguration.
func New[TKey ~string](opts ...Option[TKey]) *Adapter[TKey] {
	a := &Adapter[TKey]{
		timeout: DefaultTimeout,
		logger:  defaultLogger,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = taggedLogger{logger: a.logger, tag: a.logTag}
	a.registry = NewRegistry(a.newKeyspace, a.log)
	return a
}

func (a *Adapter[TKey]) newKeyspace(d Driver, name string) *Keyspace {
	return NewKeyspace(d, name, KeyspaceConfig{
		Namespace: a.namespace,
		Timeout:   a.timeout,
		TTL:       a.ttl,
		Metrics:   a.metrics,
	})
}

// Start assigns DefaultStoreName if no store name was configured and
// starts the registry. A configured name is never reset.
func (a *Adapter[TKey]) Start() error {
	a.mu.Lock()
	if a.storeName == "" {
		a.storeName = DefaultStoreName
	}
	name := a.storeName
	ns := a.namespace
	a.mu.Unlock()

	if !ValidName(ns) {
		return fmt.Errorf("%w: namespace %q contains %q", ErrConfiguration, ns, Separator)
	}
	if err := a.registry.Start(); err != nil {
		return err
	}
	a.log.Info(context.Background(), "started with store %s", name)
	return nil
}

// Stop closes all keyspaces and the configured driver. Calling it again is a no-op.
func (a *Adapter[TKey]) Stop() error {
	a.stopOnce.Do(func() {
		a.registry.Stop()

		a.mu.RLock()
		d := a.driver
		a.mu.RUnlock()

		if d != nil {
			if err := d.Close(); err != nil {
				a.stopErr = fmt.Errorf("close driver: %w", err)
			}
		}
		a.log.Info(context.Background(), "stopped")
	})
	return a.stopErr
}

// StoreName returns the default store name, empty before Start if none was configured.
func (a *Adapter[TKey]) StoreName() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.storeName
}

// Keyspace resolves o against the defaults and returns the matching keyspace.
func (a *Adapter[TKey]) Keyspace(o Override) (*Keyspace, error) {
	a.mu.RLock()
	sel := Selector{StoreName: a.storeName, Driver: a.driver}
	a.mu.RUnlock()

	// Lifecycle errors take precedence over configuration errors.
	if err := stateErr(a.registry.State()); err != nil {
		return nil, err
	}
	t, err := sel.Resolve(o)
	if err != nil {
		return nil, err
	}
	return a.registry.GetOrCreate(t.Driver, t.StoreName)
}

func (a *Adapter[TKey]) call(ctx context.Context, op string, o Override, key TKey, fn func(*Keyspace, context.Context, string) (bool, error)) (bool, error) {
	ks, err := a.Keyspace(o)
	if err != nil {
		name := o.StoreName
		if name == "" {
			name = a.StoreName()
		}
		return false, &OpError{Op: op, Store: name, Key: string(key), Err: err}
	}
	return fn(ks, ctx, string(key))
}

// Add inserts key into the default store. It returns false for a duplicate.
func (a *Adapter[TKey]) Add(ctx context.Context, key TKey) (bool, error) {
	return a.AddWith(ctx, Override{}, key)
}

// Contains reports whether key is present in the default store.
func (a *Adapter[TKey]) Contains(ctx context.Context, key TKey) (bool, error) {
	return a.ContainsWith(ctx, Override{}, key)
}

// Remove deletes key from the default store and reports whether it was present.
func (a *Adapter[TKey]) Remove(ctx context.Context, key TKey) (bool, error) {
	return a.RemoveWith(ctx, Override{}, key)
}

// Confirm reports whether key is present in the default store.
func (a *Adapter[TKey]) Confirm(ctx context.Context, key TKey) (bool, error) {
	return a.ConfirmWith(ctx, Override{}, key)
}

func (a *Adapter[TKey]) AddWith(ctx context.Context, o Override, key TKey) (bool, error) {
	return a.call(ctx, opAdd, o, key, (*Keyspace).Add)
}

func (a *Adapter[TKey]) ContainsWith(ctx context.Context, o Override, key TKey) (bool, error) {
	return a.call(ctx, opContains, o, key, (*Keyspace).Contains)
}

func (a *Adapter[TKey]) RemoveWith(ctx context.Context, o Override, key TKey) (bool, error) {
	return a.call(ctx, opRemove, o, key, (*Keyspace).Remove)
}

// ConfirmWith is ContainsWith under the name a two-phase consumer expects.
// It does not prove the key was added by the same caller.
func (a *Adapter[TKey]) ConfirmWith(ctx context.Context, o Override, key TKey) (bool, error) {
	return a.call(ctx, opConfirm, o, key, (*Keyspace).Confirm)
}

// Clear removes every key of the default store.
func (a *Adapter[TKey]) Clear(ctx context.Context) error {
	return a.ClearWith(ctx, Override{})
}

func (a *Adapter[TKey]) ClearWith(ctx context.Context, o Override) error {
	_, err := a.call(ctx, opClear, o, "", func(ks *Keyspace, ctx context.Context, _ string) (bool, error) {
		return false, ks.Clear(ctx)
	})
	return err
}

// Process runs fn at most once per key. A duplicate key returns (false, nil)
// without calling fn. If fn fails the key is removed so the work can be
// retried, and fn's error is returned.
func (a *Adapter[TKey]) Process(ctx context.Context, key TKey, fn func(context.Context) error) (bool, error) {
	return a.ProcessWith(ctx, Override{}, key, fn)
}

func (a *Adapter[TKey]) ProcessWith(ctx context.Context, o Override, key TKey, fn func(context.Context) error) (bool, error) {
	added, err := a.AddWith(ctx, o, key)
	if err != nil || !added {
		return false, err
	}
	if err := fn(ctx); err != nil {
		if _, rerr := a.RemoveWith(context.WithoutCancel(ctx), o, key); rerr != nil {
			return false, errors.Join(err, rerr)
		}
		return false, err
	}
	if _, err := a.ConfirmWith(ctx, o, key); err != nil {
		return true, err
	}
	return true, nil
}

// taggedLogger prefixes every message with a log tag.
type taggedLogger struct {
	logger Logger
	tag    string
}

func (l taggedLogger) format(format string) string {
	if l.tag == "" {
		return format
	}
	return l.tag + " " + format
}

func (l taggedLogger) Info(ctx context.Context, format string, args ...interface{}) {
	l.logger.Info(ctx, l.format(format), args...)
}

func (l taggedLogger) Warn(ctx context.Context, format string, args ...interface{}) {
	l.logger.Warn(ctx, l.format(format), args...)
}

func (l taggedLogger) Error(ctx context.Context, format string, args ...interface{}) {
	l.logger.Error(ctx, l.format(format), args...)
}

func (l taggedLogger) Debug(ctx context.Context, format string, args ...interface{}) {
	l.logger.Debug(ctx, l.format(format), args...)
}

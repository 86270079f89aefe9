package idemstore

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

// State is the lifecycle state of a Registry.
type State int

const (
	Uninitialized State = iota
	Started
	Stopped
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Started:
		return "started"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// Factory creates the keyspace for name on driver.
type Factory func(driver Driver, name string) *Keyspace

type registryKey struct {
	driver Driver
	name   string
}

// Registry owns the keyspaces of a process, one per driver and store name.
type Registry struct {
	mu      sync.RWMutex
	state   State
	stores  map[registryKey]*Keyspace
	factory Factory
	logger  Logger
}

// NewRegistry creates a Registry. A nil factory creates keyspaces with a zero KeyspaceConfig.
func NewRegistry(factory Factory, logger Logger) *Registry {
	if factory == nil {
		factory = func(d Driver, name string) *Keyspace { return NewKeyspace(d, name, KeyspaceConfig{}) }
	}
	if logger == nil {
		logger = defaultLogger
	}
	return &Registry{
		stores:  make(map[registryKey]*Keyspace),
		factory: factory,
		logger:  logger,
	}
}

// Start moves the registry to Started. Calling it again is a no-op;
// calling it after Stop returns ErrStoreClosed.
func (r *Registry) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case Stopped:
		return ErrStoreClosed
	case Uninitialized:
		r.state = Started
	}
	return nil
}

// Stop closes every managed keyspace and forgets it. Calling it again is a no-op.
func (r *Registry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == Stopped {
		return
	}
	for k, ks := range r.stores {
		ks.close()
		delete(r.stores, k)
	}
	r.state = Stopped
}

// State returns the current lifecycle state.
func (r *Registry) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Len returns the number of managed keyspaces.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stores)
}

// GetOrCreate returns the keyspace for name on driver, creating it on first use.
// Concurrent first calls for the same pair observe the same keyspace.
// A driver whose type is not comparable fails with ErrConfiguration.
func (r *Registry) GetOrCreate(driver Driver, name string) (*Keyspace, error) {
	if driver == nil {
		return nil, ErrConfiguration
	}
	if !reflect.TypeOf(driver).Comparable() {
		return nil, fmt.Errorf("%w: driver %T is not comparable", ErrConfiguration, driver)
	}
	k := registryKey{driver: driver, name: name}

	r.mu.RLock()
	ks, ok := r.stores[k]
	state := r.state
	r.mu.RUnlock()
	if err := stateErr(state); err != nil {
		return nil, err
	}
	if ok {
		return ks, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := stateErr(r.state); err != nil {
		return nil, err
	}
	if ks, ok := r.stores[k]; ok {
		return ks, nil
	}
	ks = r.factory(driver, name)
	r.stores[k] = ks
	r.logger.Debug(context.Background(), "created keyspace %s (%T)", name, driver)
	return ks, nil
}

func stateErr(s State) error {
	switch s {
	case Uninitialized:
		return ErrNotStarted
	case Stopped:
		return ErrStoreClosed
	}
	return nil
}

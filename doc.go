// Package idemstore provides an idempotent-key store for idempotent consumers.
//
// # Overview
//
// A consumer that must not process a message twice derives a key from the
// message and asks the store to add it. Add is an atomic insert-if-absent:
// among any number of concurrent callers adding the same key exactly one
// observes true. A duplicate is a normal false result, never an error.
//
// # Architecture
//
// The package consists of four pieces:
//
// 1. Driver: the backing medium (Memory in-process, Redis distributed)
// 2. Keyspace: a named presence set bound to one Driver
// 3. Registry: creates one Keyspace per driver and store name, owns the lifecycle
// 4. Adapter[TKey]: resolves the store per call and forwards operations
//
// Keys are stored as "namespace:storeName:key". Keys may contain ":", store
// names and namespaces may not, so two stores never share a stored key.
//
// # Quick Start
//
//	store := idemstore.New[string](
//	    idemstore.WithStoreName[string]("orders"),
//	    idemstore.WithDriver[string](idemstore.NewMemory()))
//	if err := store.Start(); err != nil {
//	    return err
//	}
//	defer store.Stop()
//
//	added, err := store.Add(ctx, "order:1001") // true
//	added, err = store.Add(ctx, "order:1001")  // false, duplicate
//
// # Per-call overrides
//
// AddWith, ContainsWith, RemoveWith and ConfirmWith take an Override that
// replaces the default store name and/or driver for that call only:
//
//	store.AddWith(ctx, idemstore.Override{StoreName: "refunds"}, key)
//
// # Confirm
//
// Confirm is Contains under the name a two-phase consumer expects. The store
// keeps no provisional state, so Confirm only asserts current presence.
//
// # Lifecycle
//
// Start must be called before any operation (ErrNotStarted otherwise). Stop
// closes every keyspace and the configured driver; later calls fail with
// ErrStoreClosed. Both are idempotent.
//
// # Error Handling
//
// Failures are *OpError values carrying the operation, store and key:
//
//	_, err := store.Add(ctx, key)
//	if errors.Is(err, idemstore.ErrStoreUnavailable) {
//	    // backing medium unreachable or timed out; retry is up to the caller
//	}
//
// Available errors: ErrStoreUnavailable, ErrConfiguration, ErrNotStarted, ErrStoreClosed
package idemstore

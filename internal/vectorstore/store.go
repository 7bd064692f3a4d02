// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

// Package vectorstore persists entity vectors in named collections and runs
// exact cosine similarity search over them.
//
// Three collections exist: algorithms, posts and users. Each is an
// independent set of records keyed by the owning entity's integer id. The
// store knows nothing about the relational schema of those entities.
//
// # Implementations
//
//   - MemoryStore: maps guarded by a RWMutex, for tests and ephemeral runs
//   - BadgerStore: one BadgerDB per collection under a base directory
//
// Both serialize writes per collection and implement upsert as a single
// atomic replace, so readers see either the old or the new record and never
// a gap. Reads run concurrently with writes and may observe a slightly stale
// snapshot.
//
// # Search
//
// Search is a brute-force scan: every record passing the filter is scored
// against the query vector and the best matches are returned. An approximate
// index can replace it behind the same Collection interface.
package vectorstore

import (
	"context"
)

// Collection names.
const (
	CollectionAlgorithms = "algorithms"
	CollectionPosts      = "posts"
	CollectionUsers      = "users"
)

// CollectionNames lists every collection in a stable order.
var CollectionNames = []string{CollectionAlgorithms, CollectionPosts, CollectionUsers}

// Collection is a named, independently persisted set of records.
type Collection interface {
	// Name returns the collection name.
	Name() string

	// Dimension returns the vector length every record must have.
	Dimension() int

	// Upsert inserts rec or atomically replaces the record with the same id.
	Upsert(ctx context.Context, rec Record) error

	// Delete removes the record with id. Deleting an absent id is a no-op.
	Delete(ctx context.Context, id int64) error

	// Get returns the record with id and whether it exists.
	Get(ctx context.Context, id int64) (Record, bool, error)

	// GetAll returns every record matching f, ordered by ascending id.
	GetAll(ctx context.Context, f Filter) ([]Record, error)

	// Count returns the number of records.
	Count(ctx context.Context) (int, error)

	// Reset removes every record.
	Reset(ctx context.Context) error
}

// Store groups the collections.
type Store interface {
	// Collection returns the named collection or ErrUnknownCollection.
	Collection(name string) (Collection, error)

	// Names returns the collection names.
	Names() []string

	// Close releases underlying resources.
	Close() error
}

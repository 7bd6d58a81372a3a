// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Universe Contributors

// Package index defines the persistent nearest-neighbor store contract for a
// single universe. Implementations own their on-disk representation.
package index

import "context"

// Result is one similarity match. Closeness is in [0, 1] with 1 meaning an
// exact match; results are ordered most similar first.
type Result struct {
	ID        string
	Text      string
	Closeness float64
}

// Index is a single universe's persistent store of (id, vector, text) records.
type Index interface {
	// Insert stores a record. An empty id means "generate one". If a live
	// record already has the given id it is replaced atomically (upsert, not
	// merge). Returns the effective id.
	Insert(ctx context.Context, id string, vector []float32, text string) (string, error)

	// Delete removes the record with the given id. Absent ids are a no-op.
	Delete(ctx context.Context, id string) error

	// Query returns up to k records ranked by cosine similarity to vector,
	// most similar first, ties broken by insertion order. An empty index
	// yields an empty slice.
	Query(ctx context.Context, vector []float32, k int) ([]Result, error)

	// ListIDs returns all live identifiers in insertion order.
	ListIDs(ctx context.Context) ([]string, error)

	// Destroy irreversibly removes all persisted state for the universe,
	// including its directory. The index is unusable afterwards.
	Destroy() error

	// Close releases the underlying handle without touching persisted state.
	Close() error
}

// OpenFunc opens (or creates) the index rooted at dir with the given vector
// dimensionality. It must be safe to call repeatedly against the same
// directory without corrupting existing data.
type OpenFunc func(dir string, dimensions int) (Index, error)

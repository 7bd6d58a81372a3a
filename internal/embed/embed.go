// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Universe Contributors

// Package embed abstracts text-to-vector conversion behind a small provider
// interface so the store never depends on a concrete embedding API.
package embed

import "context"

// Provider converts batches of text into embedding vectors.
type Provider interface {
	// Name returns the provider identifier (e.g. "openai", "voyage").
	Name() string

	// Dimensions returns the fixed output vector length for this
	// provider/model pair.
	Dimensions() int

	// MaxInputTokens returns the per-input token capacity advertised by the
	// provider. Callers use it to decide batching; it is not enforced here.
	MaxInputTokens() int

	// Embed returns one vector per input text, in input order. Any upstream
	// failure, rate limit, or result-count mismatch is returned as a
	// provider error; there is no internal retry.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Universe Contributors

// Package universe implements the store orchestration core: per-universe
// index lifecycle, id-based upsert/replace semantics, and the mediation
// between the embedding provider and the similarity index.
package universe

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/shoprag/universe/internal/embed"
	unierr "github.com/shoprag/universe/pkg/errors"
)

// DefaultReach is the number of results returned when a resonate request
// does not specify one.
const DefaultReach = 10

var nameRE = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Item is one piece of text to emit, with an optional caller-chosen id.
type Item struct {
	Text string
	ID   string
}

// Match is one resonate result.
type Match struct {
	ID        string
	Text      string
	Closeness float64
}

// Store orchestrates emit / resonate / delete operations over universes.
type Store struct {
	registry *Registry
	provider embed.Provider
	log      *slog.Logger
}

// NewStore creates the orchestrator. A nil logger falls back to slog.Default.
func NewStore(registry *Registry, provider embed.Provider, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{registry: registry, provider: provider, log: log}
}

// Emit embeds and stores items in the named universe, creating it on first
// use. Items with an id that already exists replace the prior record. When
// replace is non-empty that id is deleted after all insertions, so it is
// gone afterwards regardless of whether the new items reused it. Returns the
// effective stored ids in input order.
func (s *Store) Emit(ctx context.Context, universe string, items []Item, replace string) ([]string, error) {
	if err := validateName(universe); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, unierr.New(unierr.CodeEmitItemsInvalid,
			"emit requires at least one thing", unierr.FieldUniverse(universe))
	}

	texts := make([]string, len(items))
	for i, item := range items {
		if item.Text == "" {
			return nil, unierr.Errorf(unierr.CodeEmitItemsInvalid,
				"thing %d has empty text", i)
		}
		texts[i] = item.Text
	}

	vectors, err := s.provider.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(items) {
		return nil, unierr.Errorf(unierr.CodeProviderResponseInvalid,
			"provider returned %d vectors for %d things", len(vectors), len(items))
	}

	idx, err := s.registry.Resolve(universe)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(items))
	for i, item := range items {
		id, err := idx.Insert(ctx, item.ID, vectors[i], item.Text)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}

	if replace != "" {
		if err := idx.Delete(ctx, replace); err != nil {
			return nil, err
		}
		s.log.Debug("replaced thing", "universe", universe, "thing_id", replace)
	}

	s.log.Info("emitted things", "universe", universe, "count", len(ids))
	return ids, nil
}

// Resonate embeds the query text and returns up to reach matches ranked by
// closeness. reach == 0 means "not supplied" and defaults to DefaultReach;
// negative values are rejected before any provider call. An empty universe
// (or one that has never been written to) yields an empty, non-error result.
func (s *Store) Resonate(ctx context.Context, universe, text string, reach int) ([]Match, error) {
	if err := validateName(universe); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, unierr.New(unierr.CodeReachInvalid,
			"resonate requires a non-empty thing", unierr.FieldUniverse(universe))
	}
	if reach < 0 {
		return nil, unierr.Errorf(unierr.CodeReachInvalid,
			"reach must be a positive integer, got %d", reach)
	}
	if reach == 0 {
		reach = DefaultReach
	}

	vectors, err := s.provider.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, unierr.Errorf(unierr.CodeProviderResponseInvalid,
			"provider returned %d vectors for 1 query", len(vectors))
	}

	idx, err := s.registry.Resolve(universe)
	if err != nil {
		return nil, err
	}

	results, err := idx.Query(ctx, vectors[0], reach)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = Match{ID: r.ID, Text: r.Text, Closeness: r.Closeness}
	}
	return matches, nil
}

// DeleteThing removes one record by id. Deleting an id that was never
// present succeeds.
func (s *Store) DeleteThing(ctx context.Context, universe, id string) error {
	if err := validateName(universe); err != nil {
		return err
	}
	if id == "" {
		return unierr.New(unierr.CodeThingIDInvalid, "thing id must not be empty",
			unierr.FieldUniverse(universe))
	}

	idx, err := s.registry.Resolve(universe)
	if err != nil {
		return err
	}
	return idx.Delete(ctx, id)
}

// DeleteUniverse destroys the universe's entire persisted state and evicts
// its cached handle. Returns a not-found error when the universe was never
// created, distinguishing that from a no-op thing delete.
func (s *Store) DeleteUniverse(ctx context.Context, universe string) error {
	if err := validateName(universe); err != nil {
		return err
	}
	if !s.registry.Exists(universe) {
		return unierr.New(unierr.CodeUniverseNotFound,
			"universe does not exist", unierr.FieldUniverse(universe))
	}

	idx, err := s.registry.Resolve(universe)
	if err != nil {
		return err
	}
	if err := idx.Destroy(); err != nil {
		return err
	}
	s.registry.Evict(universe)

	s.log.Info("destroyed universe", "universe", universe)
	return nil
}

// ListUniverses returns the names of all created universes.
func (s *Store) ListUniverses(_ context.Context) ([]string, error) {
	return s.registry.List()
}

func validateName(universe string) error {
	if universe == "" {
		return unierr.New(unierr.CodeUniverseNameInvalid, "universe name must not be empty")
	}
	if !nameRE.MatchString(universe) {
		return unierr.New(unierr.CodeUniverseNameInvalid,
			"universe name must match ^[A-Za-z0-9_]+$", unierr.FieldUniverse(universe))
	}
	return nil
}

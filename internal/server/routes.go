// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Universe Contributors

package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shoprag/universe/internal/universe"
	unierr "github.com/shoprag/universe/pkg/errors"
)

// Service is the store surface the HTTP adapter depends on.
type Service interface {
	Emit(ctx context.Context, name string, items []universe.Item, replace string) ([]string, error)
	Resonate(ctx context.Context, name, text string, reach int) ([]universe.Match, error)
	DeleteThing(ctx context.Context, name, id string) error
	DeleteUniverse(ctx context.Context, name string) error
	ListUniverses(ctx context.Context) ([]string, error)
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "emit",
		Method:      http.MethodPost,
		Path:        "/emit",
		Summary:     "Emit things into a universe",
		Tags:        []string{"things"},
	}, s.handleEmit)

	huma.Register(s.api, huma.Operation{
		OperationID: "resonate",
		Method:      http.MethodPost,
		Path:        "/resonate",
		Summary:     "Find the things most similar to a query",
		Tags:        []string{"things"},
	}, s.handleResonate)

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-thing",
		Method:      http.MethodDelete,
		Path:        "/universe/{universe}/{id}",
		Summary:     "Delete one thing by id",
		Tags:        []string{"things"},
	}, s.handleDeleteThing)

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-universe",
		Method:      http.MethodDelete,
		Path:        "/universe/{universe}",
		Summary:     "Destroy a universe and everything in it",
		Tags:        []string{"universes"},
	}, s.handleDeleteUniverse)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-universes",
		Method:      http.MethodGet,
		Path:        "/universes",
		Summary:     "List all universes",
		Tags:        []string{"universes"},
	}, s.handleListUniverses)
}

// --- Request/Response types ---

type emitThing struct {
	Thing string `json:"thing" minLength:"1" doc:"Text content to store"`
	ID    string `json:"id,omitempty" doc:"Optional id; an existing thing with this id is replaced"`
}

type emitInput struct {
	Body struct {
		Universe string      `json:"universe" doc:"Target universe name"`
		Thing    *emitThing  `json:"thing,omitempty" doc:"Single thing to emit"`
		Things   []emitThing `json:"things,omitempty" doc:"Multiple things to emit"`
		Replace  string      `json:"replace,omitempty" doc:"Id to remove after the emit completes"`
	}
}

type emitOutput struct {
	Body struct {
		IDs []string `json:"ids" doc:"Effective stored ids, in input order"`
	}
}

type resonateInput struct {
	Body struct {
		Universe string `json:"universe" doc:"Universe to search"`
		Thing    string `json:"thing" minLength:"1" doc:"Query text"`
		Reach    int    `json:"reach,omitempty" minimum:"1" doc:"Maximum number of results (default 10)"`
	}
}

type resonateResult struct {
	Closeness float64 `json:"closeness" doc:"Similarity score, 1 is an exact match"`
	Thing     string  `json:"thing" doc:"Stored text"`
	ID        string  `json:"id" doc:"Thing id"`
}

type resonateOutput struct {
	Body struct {
		Results []resonateResult `json:"results"`
	}
}

type deleteThingInput struct {
	Universe string `path:"universe"`
	ID       string `path:"id"`
}

type deleteUniverseInput struct {
	Universe string `path:"universe"`
}

type deleteOutput struct {
	Body struct {
		Status string `json:"status" example:"gone"`
	}
}

type listUniversesOutput struct {
	Body struct {
		Universes []string `json:"universes"`
	}
}

// --- Handlers ---

// handleEmit normalizes the thing/things request shapes into one item slice
// before handing off; the store's emit signature is always a sequence.
func (s *Server) handleEmit(ctx context.Context, input *emitInput) (*emitOutput, error) {
	items := make([]universe.Item, 0, len(input.Body.Things)+1)
	if input.Body.Thing != nil {
		items = append(items, universe.Item{Text: input.Body.Thing.Thing, ID: input.Body.Thing.ID})
	}
	for _, thing := range input.Body.Things {
		items = append(items, universe.Item{Text: thing.Thing, ID: thing.ID})
	}

	ids, err := s.service.Emit(ctx, input.Body.Universe, items, input.Body.Replace)
	if err != nil {
		return nil, s.mapError(err, "emit")
	}

	out := &emitOutput{}
	out.Body.IDs = ids
	return out, nil
}

func (s *Server) handleResonate(ctx context.Context, input *resonateInput) (*resonateOutput, error) {
	matches, err := s.service.Resonate(ctx, input.Body.Universe, input.Body.Thing, input.Body.Reach)
	if err != nil {
		return nil, s.mapError(err, "resonate")
	}

	out := &resonateOutput{}
	out.Body.Results = make([]resonateResult, len(matches))
	for i, m := range matches {
		out.Body.Results[i] = resonateResult{Closeness: m.Closeness, Thing: m.Text, ID: m.ID}
	}
	return out, nil
}

func (s *Server) handleDeleteThing(ctx context.Context, input *deleteThingInput) (*deleteOutput, error) {
	if err := s.service.DeleteThing(ctx, input.Universe, input.ID); err != nil {
		return nil, s.mapError(err, "delete-thing")
	}

	out := &deleteOutput{}
	out.Body.Status = "gone"
	return out, nil
}

func (s *Server) handleDeleteUniverse(ctx context.Context, input *deleteUniverseInput) (*deleteOutput, error) {
	if err := s.service.DeleteUniverse(ctx, input.Universe); err != nil {
		return nil, s.mapError(err, "delete-universe")
	}

	out := &deleteOutput{}
	out.Body.Status = "gone"
	return out, nil
}

func (s *Server) handleListUniverses(ctx context.Context, _ *struct{}) (*listUniversesOutput, error) {
	names, err := s.service.ListUniverses(ctx)
	if err != nil {
		return nil, s.mapError(err, "list-universes")
	}

	out := &listUniversesOutput{}
	out.Body.Universes = names
	return out, nil
}

// mapError converts a store error into a huma status error. Internal errors
// are logged with their detail and reported generically so nothing leaks.
func (s *Server) mapError(err error, op string) error {
	status := unierr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.log.Error("operation failed", "op", op, "error", err)
		return huma.NewError(status, "internal error")
	}
	return huma.NewError(status, err.Error())
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Universe Contributors

package voyage_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shoprag/universe/internal/embed/voyage"
	unierr "github.com/shoprag/universe/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := voyage.New(voyage.Config{})
	require.Error(t, err)
	assert.True(t, unierr.HasCode(err, unierr.CodeProviderConfigInvalid))
}

func TestEmbedReturnsVectorsInInputOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Input, 2)

		// Reply out of order to exercise index-based placement.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float32{0, 1, 0}, "index": 1},
				{"embedding": []float32{1, 0, 0}, "index": 0},
			},
		})
	}))
	defer srv.Close()

	p, err := voyage.New(voyage.Config{APIKey: "test-key", BaseURL: srv.URL, Dimensions: 3})
	require.NoError(t, err)

	vecs, err := p.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{1, 0, 0}, vecs[0])
	assert.Equal(t, []float32{0, 1, 0}, vecs[1])
}

func TestEmbedEmptyInputSkipsCall(t *testing.T) {
	p, err := voyage.New(voyage.Config{APIKey: "test-key", BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	vecs, err := p.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
}

func TestEmbedUpstreamErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"detail":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p, err := voyage.New(voyage.Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = p.Embed(context.Background(), []string{"hello"})
	require.Error(t, err)
	assert.True(t, unierr.IsUpstreamFailure(err))
}

func TestEmbedCountMismatchRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float32{1, 0}, "index": 0},
			},
		})
	}))
	defer srv.Close()

	p, err := voyage.New(voyage.Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = p.Embed(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.True(t, unierr.HasCode(err, unierr.CodeProviderResponseInvalid))
}

func TestDefaults(t *testing.T) {
	p, err := voyage.New(voyage.Config{APIKey: "test-key"})
	require.NoError(t, err)
	assert.Equal(t, "voyage", p.Name())
	assert.Equal(t, 1024, p.Dimensions())
	assert.Positive(t, p.MaxInputTokens())
}

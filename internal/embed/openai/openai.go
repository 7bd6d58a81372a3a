// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Universe Contributors

package openai

import (
	"context"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/shoprag/universe/internal/embed"
	unierr "github.com/shoprag/universe/pkg/errors"
)

const (
	defaultModel      = "text-embedding-3-small"
	defaultDimensions = 1536
	maxInputTokens    = 8191
)

// Config holds OpenAI provider configuration.
type Config struct {
	APIKey     string
	Model      string // optional, defaults to text-embedding-3-small
	Dimensions int    // optional, defaults to the model's native size
	BaseURL    string // optional, useful for testing against a mock server
}

// Provider implements embed.Provider using the OpenAI Embeddings API.
type Provider struct {
	client     openaisdk.Client
	model      string
	dimensions int
}

// Compile-time interface check.
var _ embed.Provider = (*Provider)(nil)

// New creates a new OpenAI embedding provider. Returns an error if the API
// key is missing.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, unierr.New(unierr.CodeProviderConfigInvalid,
			"openai: missing api_key in config", unierr.FieldProvider("openai"))
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	dims := cfg.Dimensions
	if dims == 0 {
		dims = defaultDimensions
	}

	return &Provider{
		client:     openaisdk.NewClient(opts...),
		model:      model,
		dimensions: dims,
	}, nil
}

func (p *Provider) Name() string { return "openai" }

func (p *Provider) Dimensions() int { return p.dimensions }

func (p *Provider) MaxInputTokens() int { return maxInputTokens }

// Embed converts texts into vectors via a single batched API call.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	params := openaisdk.EmbeddingNewParams{
		Input:          openaisdk.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:          openaisdk.EmbeddingModel(p.model),
		EncodingFormat: openaisdk.EmbeddingNewParamsEncodingFormatFloat,
	}
	if p.dimensions != defaultDimensions {
		params.Dimensions = openaisdk.Int(int64(p.dimensions))
	}

	resp, err := p.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, unierr.Wrapf(err, unierr.CodeProviderUpstreamFailure,
			"openai: embedding %d texts", len(texts))
	}

	if len(resp.Data) != len(texts) {
		return nil, unierr.Errorf(unierr.CodeProviderResponseInvalid,
			"openai: got %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= int64(len(texts)) {
			return nil, unierr.Errorf(unierr.CodeProviderResponseInvalid,
				"openai: embedding index %d out of range", item.Index)
		}
		vec := make([]float32, len(item.Embedding))
		for i, v := range item.Embedding {
			vec[i] = float32(v)
		}
		vectors[item.Index] = vec
	}

	return vectors, nil
}

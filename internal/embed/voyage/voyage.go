// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Universe Contributors

// Package voyage implements embed.Provider against the Voyage AI embeddings
// API. Voyage has no Go SDK, so the client is a plain JSON-over-HTTP caller.
package voyage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shoprag/universe/internal/embed"
	unierr "github.com/shoprag/universe/pkg/errors"
)

const (
	defaultBaseURL    = "https://api.voyageai.com/v1"
	defaultModel      = "voyage-3"
	defaultDimensions = 1024
	maxInputTokens    = 16000
)

// Config holds Voyage provider configuration.
type Config struct {
	APIKey     string
	Model      string        // optional, defaults to voyage-3
	Dimensions int           // optional, defaults to the model's native size
	BaseURL    string        // optional, useful for testing against a mock server
	Timeout    time.Duration // optional, defaults to 30s
}

// Provider implements embed.Provider using the Voyage AI REST API.
type Provider struct {
	client     *http.Client
	apiKey     string
	baseURL    string
	model      string
	dimensions int
}

// Compile-time interface check.
var _ embed.Provider = (*Provider)(nil)

// New creates a new Voyage embedding provider. Returns an error if the API
// key is missing.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, unierr.New(unierr.CodeProviderConfigInvalid,
			"voyage: missing api_key in config", unierr.FieldProvider("voyage"))
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	dims := cfg.Dimensions
	if dims == 0 {
		dims = defaultDimensions
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Provider{
		client:     &http.Client{Timeout: timeout},
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		model:      model,
		dimensions: dims,
	}, nil
}

func (p *Provider) Name() string { return "voyage" }

func (p *Provider) Dimensions() int { return p.dimensions }

func (p *Provider) MaxInputTokens() int { return maxInputTokens }

type embedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed converts texts into vectors via a single batched API call.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	body, err := json.Marshal(embedRequest{Input: texts, Model: p.model})
	if err != nil {
		return nil, unierr.Wrap(err, unierr.CodeProviderUpstreamFailure, "voyage: encoding request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, unierr.Wrap(err, unierr.CodeProviderUpstreamFailure, "voyage: building request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, unierr.Wrapf(err, unierr.CodeProviderUpstreamFailure,
			"voyage: embedding %d texts", len(texts))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, unierr.New(unierr.CodeProviderUpstreamFailure,
			fmt.Sprintf("voyage: upstream returned %d: %s", resp.StatusCode, snippet),
			unierr.FieldProvider("voyage"))
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, unierr.Wrap(err, unierr.CodeProviderResponseInvalid, "voyage: decoding response")
	}

	if len(parsed.Data) != len(texts) {
		return nil, unierr.Errorf(unierr.CodeProviderResponseInvalid,
			"voyage: got %d embeddings for %d inputs", len(parsed.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range parsed.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, unierr.Errorf(unierr.CodeProviderResponseInvalid,
				"voyage: embedding index %d out of range", item.Index)
		}
		vectors[item.Index] = item.Embedding
	}

	return vectors, nil
}

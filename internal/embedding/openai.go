// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tomtom215/lodestar/internal/vecmath"
)

// OpenAIModelPrefix selects the OpenAI embedder for a model name that is
// not in the known table, e.g. "openai:my-compatible-model".
const OpenAIModelPrefix = "openai:"

// Native output lengths of the OpenAI embedding models.
var openAIDimensions = map[string]int{
	"text-embedding-3-large": 3072,
	"text-embedding-3-small": 1536,
	"text-embedding-ada-002": 1536,
}

// OpenAIConfig configures the OpenAI embeddings client.
type OpenAIConfig struct {
	APIKey string

	// BaseURL overrides the API endpoint, for OpenAI-compatible servers.
	// Empty means api.openai.com.
	BaseURL string

	// Timeout bounds one HTTP request. Default: 30s
	Timeout time.Duration
}

// IsOpenAIModel reports whether model selects the OpenAI embedder, and
// returns the model name to send to the API.
func IsOpenAIModel(model string) (string, bool) {
	if name, ok := strings.CutPrefix(model, OpenAIModelPrefix); ok {
		return name, name != ""
	}
	_, ok := openAIDimensions[model]
	return model, ok
}

// OpenAIEmbedder encodes text with the OpenAI embeddings API.
//
// text-embedding-3 models are asked for exactly dim components. Other
// models must natively produce dim components or every call fails.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	dim    int
	shrink bool
}

// NewOpenAIEmbedder creates an embedder for model producing vectors of
// length dim.
func NewOpenAIEmbedder(model string, dim int, cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	name, ok := IsOpenAIModel(model)
	if !ok {
		return nil, fmt.Errorf("not an openai embedding model: %q", model)
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}
	if dim <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dim)
	}
	shrink := strings.HasPrefix(name, "text-embedding-3")
	if native, known := openAIDimensions[name]; known {
		if dim > native || (!shrink && dim != native) {
			return nil, fmt.Errorf("model %s cannot produce %d dimensions (native %d)", name, dim, native)
		}
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientCfg),
		model:  name,
		dim:    dim,
		shrink: shrink,
	}, nil
}

// Dimension returns the vector length.
func (o *OpenAIEmbedder) Dimension() int { return o.dim }

// Model returns the API model name.
func (o *OpenAIEmbedder) Model() string { return o.model }

// Embed encodes text. Blank text fails with ErrEmptyText without a request.
func (o *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	req := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(o.model),
		Input: []string{text},
	}
	if o.shrink {
		req.Dimensions = o.dim
	}
	resp, err := o.client.CreateEmbeddings(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("openai embeddings: empty response")
	}

	raw := resp.Data[0].Embedding
	if len(raw) != o.dim {
		return nil, fmt.Errorf("openai embeddings: got %d dimensions, want %d", len(raw), o.dim)
	}
	vec, ok := vecmath.Normalize(raw)
	if !ok {
		return nil, errors.New("openai embeddings: zero vector")
	}
	return vec, nil
}

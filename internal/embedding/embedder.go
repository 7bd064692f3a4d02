// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

// Package embedding turns algorithms, posts and user interest profiles into
// fixed-length, unit-norm vectors.
//
// The package is organized as a small decorator stack:
//
//	CachingEmbedder -> BreakerEmbedder -> HashingEmbedder | OpenAIEmbedder
//
// HashingEmbedder is the default: a deterministic feature-hashing encoder
// that needs no model files and produces identical output for identical
// input on every platform. OpenAIEmbedder calls the OpenAI embeddings API
// (or a compatible server) and is selected by model name. CachingEmbedder memoizes vectors for repeated texts and
// BreakerEmbedder converts encoder failures into ErrUnavailable so that the
// recommendation engine can fall back.
//
// Text fed to an embedder is built from labeled "field: value" fragments by
// AlgorithmText, PostText and the profile fragment helpers in text.go.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lodestar/internal/breaker"
)

// DefaultDimension is the vector length used when none is configured.
const DefaultDimension = 384

// ModelHashing is the name of the built-in feature-hashing model.
const ModelHashing = "hashing-v1"

var (
	// ErrUnavailable means the encoder failed or is temporarily disabled.
	// Recommendation callers treat it as a signal to fall back.
	ErrUnavailable = errors.New("embedding unavailable")

	// ErrEmptyText means the input produced no tokens to embed.
	ErrEmptyText = errors.New("embedding: text has no tokens")
)

// Embedder maps text to a unit-length vector of a fixed dimension.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
	Model() string
}

// Config selects and tunes the embedder stack.
type Config struct {
	// Model is ModelHashing, a known OpenAI model such as
	// text-embedding-3-small, or OpenAIModelPrefix plus a model name.
	Model     string
	Dimension int
	CacheSize int
	CacheTTL  time.Duration
	Breaker   breaker.Config

	// OpenAI is used only by OpenAI models.
	OpenAI OpenAIConfig
}

// DefaultConfig returns the built-in model with a 4096 entry cache.
func DefaultConfig() Config {
	return Config{
		Model:     ModelHashing,
		Dimension: DefaultDimension,
		CacheSize: 4096,
		CacheTTL:  time.Hour,
		Breaker:   breaker.DefaultConfig("embedder"),
	}
}

// New builds the configured embedder stack.
func New(cfg Config, logger zerolog.Logger) (Embedder, error) {
	var base Embedder
	switch cfg.Model {
	case "", ModelHashing:
		h, err := NewHashingEmbedder(cfg.Dimension)
		if err != nil {
			return nil, err
		}
		base = h
	default:
		if _, ok := IsOpenAIModel(cfg.Model); !ok {
			return nil, fmt.Errorf("unknown embedding model %q", cfg.Model)
		}
		o, err := NewOpenAIEmbedder(cfg.Model, cfg.Dimension, cfg.OpenAI)
		if err != nil {
			return nil, err
		}
		base = o
	}

	if cfg.Breaker.Name == "" {
		cfg.Breaker.Name = "embedder"
	}
	var e Embedder = NewBreakerEmbedder(base, cfg.Breaker, logger)
	if cfg.CacheSize > 0 {
		e = NewCachingEmbedder(e, cfg.CacheSize, cfg.CacheTTL)
	}

	logger.Info().
		Str("model", base.Model()).
		Int("dimension", base.Dimension()).
		Int("cache_size", cfg.CacheSize).
		Msg("Embedder initialized")

	return e, nil
}

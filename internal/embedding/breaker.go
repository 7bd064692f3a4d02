// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lodestar/internal/breaker"
	"github.com/tomtom215/lodestar/internal/metrics"
)

// BreakerEmbedder guards an encoder with a circuit breaker. Encoder failures
// and open-circuit rejections are returned wrapped in ErrUnavailable.
// ErrEmptyText and context cancellation pass through and do not count as
// encoder failures.
type BreakerEmbedder struct {
	next   Embedder
	cb     *breaker.Breaker
	logger zerolog.Logger
}

// NewBreakerEmbedder wraps next with a breaker built from cfg.
func NewBreakerEmbedder(next Embedder, cfg breaker.Config, logger zerolog.Logger) *BreakerEmbedder {
	cfg.IsSuccessful = func(err error) bool {
		return err == nil ||
			errors.Is(err, ErrEmptyText) ||
			errors.Is(err, context.Canceled) ||
			errors.Is(err, context.DeadlineExceeded)
	}
	logger = logger.With().Str("component", "embedder").Logger()
	return &BreakerEmbedder{
		next:   next,
		cb:     breaker.New(cfg, logger),
		logger: logger,
	}
}

// Dimension returns the wrapped embedder's dimension.
func (b *BreakerEmbedder) Dimension() int { return b.next.Dimension() }

// Model returns the wrapped embedder's model name.
func (b *BreakerEmbedder) Model() string { return b.next.Model() }

// State returns the breaker state.
func (b *BreakerEmbedder) State() string { return b.cb.State() }

// Embed encodes text through the breaker.
func (b *BreakerEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vec, err := breaker.Do(b.cb, func() ([]float32, error) {
		return b.next.Embed(ctx, text)
	})
	metrics.RecordEmbedding(time.Since(start), err)

	if err == nil {
		return vec, nil
	}
	if errors.Is(err, ErrEmptyText) || errors.Is(err, ErrUnavailable) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	// Length only; the text itself may be user content.
	b.logger.Warn().Err(err).Int("text_len", len(text)).Msg("Embedding failed")
	return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package embedding

import (
	"context"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/tomtom215/lodestar/internal/cache"
	"github.com/tomtom215/lodestar/internal/metrics"
)

// CachingEmbedder memoizes vectors keyed by the xxhash of the input text.
// Returned slices are copies and may be modified by the caller.
type CachingEmbedder struct {
	next  Embedder
	cache *cache.LRU[uint64, []float32]
}

// NewCachingEmbedder wraps next with an LRU of the given size and TTL.
func NewCachingEmbedder(next Embedder, size int, ttl time.Duration) *CachingEmbedder {
	return &CachingEmbedder{
		next:  next,
		cache: cache.NewLRU[uint64, []float32](size, ttl),
	}
}

// Dimension returns the wrapped embedder's dimension.
func (c *CachingEmbedder) Dimension() int { return c.next.Dimension() }

// Model returns the wrapped embedder's model name.
func (c *CachingEmbedder) Model() string { return c.next.Model() }

// Embed returns a cached vector or computes and caches a new one.
// Errors are never cached.
func (c *CachingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := xxhash.Sum64String(text)
	if vec, ok := c.cache.Get(key); ok {
		metrics.RecordEmbeddingCache(true)
		return clone(vec), nil
	}
	metrics.RecordEmbeddingCache(false)

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, clone(vec))
	return vec, nil
}

// Purge drops every cached vector.
func (c *CachingEmbedder) Purge() {
	c.cache.Purge()
}

func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

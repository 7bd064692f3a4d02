// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package api

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lodestar/internal/recommend"
	"github.com/tomtom215/lodestar/internal/vectorstore"
)

// Recommender is the part of recommend.Engine the handlers call.
type Recommender interface {
	Recommend(ctx context.Context, userID int64) (*recommend.Response, error)
	RelatedPosts(ctx context.Context, algorithmID, userID int64, page, perPage int) (*recommend.RelatedPostsPage, error)
	FindPostsByText(ctx context.Context, text string, opts recommend.TextSearchOptions) ([]recommend.ScoredCandidate, error)
	RefreshUserProfile(ctx context.Context, userID int64) error
	ResetCollection(ctx context.Context, name string) error
	CollectionStats(ctx context.Context, name string) (vectorstore.CollectionStats, error)
	HealthCheck(ctx context.Context) recommend.Health
}

// JobQueue accepts background vectorization jobs. vectorizer.Queue
// implements it.
type JobQueue interface {
	Upsert(ctx context.Context, kind string, id int64) error
	Delete(ctx context.Context, kind string, id int64) error
}

// ReadinessCheck reports whether a backing dependency is reachable.
type ReadinessCheck func(ctx context.Context) error

// Handler contains dependencies for API handlers
//
// Handler methods are split across files:
//   - handlers.go: Handler struct and constructor (this file)
//   - handlers_helpers.go: response and parameter helpers
//   - handlers_recommend.go: recommendation and search endpoints
//   - handlers_vectors.go: vector maintenance endpoints
//   - handlers_health.go: probes
type Handler struct {
	engine    Recommender
	queue     JobQueue
	readiness map[string]ReadinessCheck
	logger    zerolog.Logger
	startTime time.Time
}

// NewHandler creates a new API handler.
//
// queue may be nil, in which case the enqueue endpoints answer 503.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(engine Recommender, queue JobQueue, logger zerolog.Logger) *Handler {
	return &Handler{
		engine:    engine,
		queue:     queue,
		readiness: make(map[string]ReadinessCheck),
		logger:    logger.With().Str("component", "api").Logger(),
		startTime: time.Now(),
	}
}

// AddReadinessCheck registers a dependency the readiness probe runs.
func (h *Handler) AddReadinessCheck(name string, check ReadinessCheck) {
	h.readiness[name] = check
}

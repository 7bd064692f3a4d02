// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/lodestar/internal/metrics"
)

// Reindexer rebuilds the algorithm and post vectors from the catalog.
type Reindexer interface {
	ReindexAlgorithms(ctx context.Context) (int, error)
	ReindexPosts(ctx context.Context) (int, error)
}

// ReindexServiceConfig holds configuration for the re-index service.
type ReindexServiceConfig struct {
	// OnStartup runs one re-index as soon as the service starts.
	OnStartup bool

	// Interval between scheduled runs. Zero disables the schedule.
	Interval time.Duration

	// Timeout bounds a single run. Default: 30m
	Timeout time.Duration
}

// ReindexService re-embeds every algorithm and post on startup and/or on a
// schedule.
type ReindexService struct {
	reindexer Reindexer
	config    ReindexServiceConfig
	logger    zerolog.Logger
	name      string
}

// NewReindexService creates a new re-index service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewReindexService(reindexer Reindexer, cfg ReindexServiceConfig, logger zerolog.Logger) *ReindexService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Minute
	}
	return &ReindexService{
		reindexer: reindexer,
		config:    cfg,
		logger:    logger.With().Str("service", "reindex").Logger(),
		name:      "reindex-service",
	}
}

// Serve implements suture.Service. With neither a startup run nor a
// schedule it returns suture.ErrDoNotRestart immediately. After a startup
// run without a schedule it does the same.
func (s *ReindexService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("on_startup", s.config.OnStartup).
		Dur("interval", s.config.Interval).
		Msg("reindex service starting")

	if s.config.OnStartup {
		if err := s.run(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("startup reindex failed")
		}
	}

	if s.config.Interval <= 0 {
		return suture.ErrDoNotRestart
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("reindex service shutting down")
			return ctx.Err()

		case <-ticker.C:
			if err := s.run(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("scheduled reindex failed")
			}
		}
	}
}

func (s *ReindexService) run(ctx context.Context) error {
	runCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	algorithms, algErr := s.reindexer.ReindexAlgorithms(runCtx)
	metrics.RecordOperation("reindex_algorithms", time.Since(start))

	// Posts are rebuilt even when algorithms failed.
	postStart := time.Now()
	posts, postErr := s.reindexer.ReindexPosts(runCtx)
	metrics.RecordOperation("reindex_posts", time.Since(postStart))

	if err := errors.Join(algErr, postErr); err != nil {
		return err
	}

	s.logger.Info().
		Int("algorithms", algorithms).
		Int("posts", posts).
		Dur("duration", time.Since(start)).
		Msg("reindex complete")
	return nil
}

// String returns the service name for logging.
func (s *ReindexService) String() string {
	return s.name
}

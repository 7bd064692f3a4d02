// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package services

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lodestar/internal/recommend"
)

// HealthChecker reports vector store health. HealthCheck also refreshes
// the collection size gauges.
type HealthChecker interface {
	HealthCheck(ctx context.Context) recommend.Health
}

// CollectionMonitorConfig holds configuration for the collection monitor.
type CollectionMonitorConfig struct {
	// Interval between checks. Default: 1m
	Interval time.Duration

	// DegradedThreshold is the number of consecutive non-healthy checks
	// before a warning is logged. Default: 3
	DegradedThreshold int
}

// CollectionMonitor periodically checks collection health.
type CollectionMonitor struct {
	checker  HealthChecker
	config   CollectionMonitorConfig
	logger   zerolog.Logger
	degraded atomic.Int64
	name     string
}

// NewCollectionMonitor creates a new collection monitor.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCollectionMonitor(checker HealthChecker, cfg CollectionMonitorConfig, logger zerolog.Logger) *CollectionMonitor {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.DegradedThreshold <= 0 {
		cfg.DegradedThreshold = 3
	}
	return &CollectionMonitor{
		checker: checker,
		config:  cfg,
		logger:  logger.With().Str("service", "collection-monitor").Logger(),
		name:    "collection-monitor",
	}
}

// Serve implements suture.Service. The first check runs immediately.
func (m *CollectionMonitor) Serve(ctx context.Context) error {
	m.check(ctx)

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *CollectionMonitor) check(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, m.config.Interval)
	defer cancel()

	h := m.checker.HealthCheck(checkCtx)
	if h.Status == recommend.HealthHealthy {
		if prev := m.degraded.Swap(0); prev >= int64(m.config.DegradedThreshold) {
			m.logger.Info().Int64("failed_checks", prev).Msg("vector store recovered")
		}
		return
	}

	n := m.degraded.Add(1)
	if n == int64(m.config.DegradedThreshold) {
		m.logger.Warn().
			Str("status", h.Status).
			Int64("consecutive", n).
			Strs("failing_collections", failingCollections(h)).
			Msg("vector store unhealthy")
	}
}

// ConsecutiveDegraded returns the number of consecutive non-healthy checks.
func (m *CollectionMonitor) ConsecutiveDegraded() int {
	return int(m.degraded.Load())
}

// String returns the service name for logging.
func (m *CollectionMonitor) String() string {
	return m.name
}

func failingCollections(h recommend.Health) []string {
	var names []string
	for name, c := range h.Collections {
		if c.Error != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

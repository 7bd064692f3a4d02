// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package vectorstore

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lodestar/internal/breaker"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverBadger = "badger"
)

// Config selects and configures the store.
type Config struct {
	Driver    string
	Dir       string
	Dimension int
	SyncWrite bool
	Breaker   breaker.Config
}

// Open builds the configured store with every collection guarded by a
// circuit breaker.
func Open(cfg Config, logger zerolog.Logger) (Store, error) {
	logger = logger.With().Str("component", "vectorstore").Logger()

	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case DriverMemory:
		s = NewMemoryStore(cfg.Dimension)
	case "", DriverBadger:
		s, err = OpenBadgerStore(BadgerOptions{
			Dir:       cfg.Dir,
			Dimension: cfg.Dimension,
			SyncWrite: cfg.SyncWrite,
		}, logger)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown vector store driver %q", cfg.Driver)
	}

	guarded, err := GuardStore(s, cfg.Breaker, logger)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return guarded, nil
}

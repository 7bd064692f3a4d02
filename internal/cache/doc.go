// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

// Package cache provides a generic, thread-safe LRU cache with optional
// per-entry TTL. It backs the embedding cache and the compiled filter
// expression cache.
package cache

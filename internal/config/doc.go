// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

/*
Package config loads and validates Lodestar configuration.

Configuration is layered with Koanf v2:

 1. Built-in defaults (defaultConfig)
 2. A YAML file from CONFIG_PATH, ./config.yaml or /etc/lodestar/config.yaml
 3. Environment variables listed in envMappings

Later layers override earlier ones. Environment variables outside the
mapping are ignored.

# Sections

  - server: listen address, timeouts, CORS origins, rate limiting
  - logging: level, format, caller
  - embedding: model name (hashing-v1 or an OpenAI model), vector dimension,
    embedding cache, OpenAI API key, base URL and timeout
  - vector_store: memory or badger collections and their directory
  - catalog: memory, sqlite or duckdb source of algorithms, posts and
    learning records
  - queue: background vectorization transport (memory or nats) and worker
  - breaker: circuit breaker thresholds shared by all dependencies
  - monitor: collection health checks and scheduled re-indexing
  - recommend: every scoring constant of the recommendation engine

# Example

	server:
	  port: 8420
	  cors_origins: ["https://learn.example.com"]
	vector_store:
	  driver: badger
	  dir: /data/vectors
	recommend:
	  posts:
	    min_similarity: 0.35

The same port can be set with HTTP_PORT=8420. Comma-separated values are
accepted for CORS_ORIGINS.
*/
package config

// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

/*
Package main is the entry point for the Lodestar server.

Lodestar recommends algorithms and community posts to learners. It embeds
catalog entities into vectors, keeps them in named collections, and fuses
vector similarity with a learner profile. When the vector path is not
available it walks a fallback chain of catalog queries instead.

# Application Architecture

	RootSupervisor ("lodestar")
	├── DataSupervisor ("data-layer")
	│   ├── CollectionMonitor
	│   └── ReindexService (optional)
	├── WorkerSupervisor ("worker-layer")
	│   └── vectorizer.Worker
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Catalog: memory snapshot, SQLite or DuckDB
 4. Embedder: hashing model behind a circuit breaker and LRU cache
 5. Vector store: BadgerDB or memory, every collection breaker-guarded
 6. Vectorizer: Watermill queue (in-process or NATS JetStream) and worker
 7. HTTP Server: Chi router with middleware stack
 8. Supervisor Tree: Suture v4 process supervision

# Configuration

Priority: Environment variables > Config file (CONFIG_PATH) > Defaults

	HTTP_PORT=8420
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console
	CATALOG_DRIVER=sqlite        # memory, sqlite or duckdb
	CATALOG_DSN=/data/lodestar.db
	VECTOR_STORE_DRIVER=badger   # badger or memory
	VECTOR_STORE_DIR=/data/vectors
	QUEUE_DRIVER=memory          # memory or nats (-tags nats)
	NATS_URL=nats://127.0.0.1:4222
	REINDEX_ON_STARTUP=false
	REINDEX_INTERVAL=0           # 0 disables the schedule

# Build Tags

	go build ./cmd/server              # in-process queue only
	go build -tags nats ./cmd/server   # adds the NATS JetStream queue

# Signal Handling

SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains for
SHUTDOWN_TIMEOUT, the worker finishes in-flight jobs, and then the queue,
vector store and catalog are closed in reverse order of creation.
*/
package main

// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

/*
Package vectorizer keeps the vector collections in step with the catalog
without making entity writes wait on embedding.

The host application calls Queue.Upsert or Queue.Delete when an algorithm,
post or user changes. The job is published on a Watermill topic and the
call returns. A Worker consumes the topic and applies each job through an
Indexer (the recommendation engine):

	tr, _ := vectorizer.NewTransport(cfg.Transport, logging.NewWatermillAdapter(logger))
	queue := vectorizer.NewQueue(tr.Publisher, "", logger)
	worker, _ := vectorizer.NewWorker(cfg.Worker, tr.Subscriber, tr.Publisher, engine, logger)
	tree.AddWorkerService(worker)

Transports:

  - memory: Watermill GoChannel. Best effort; jobs published while no
    worker is subscribed are lost.
  - nats: JetStream publisher and durable queue-group subscriber. Requires
    building with -tags=nats.

Failed jobs are retried with exponential backoff, then routed to the poison
topic (or dropped when none is configured). Malformed payloads are acked
immediately. Embeddings are rate limited with golang.org/x/time/rate.
*/
package vectorizer

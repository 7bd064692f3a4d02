// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

/*
Package services provides suture.Service wrappers for Lodestar components.

Each wrapper implements suture.Service and fmt.Stringer:

	type Service interface {
	    Serve(ctx context.Context) error
	}

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Shutdown is bounded by a configurable timeout

Collection Monitor (CollectionMonitor):
  - Runs the engine health check on an interval
  - Refreshes the collection size gauges as a side effect
  - Logs a warning after DegradedThreshold consecutive non-healthy checks
    and an info line on recovery

Re-index (ReindexService):
  - Re-embeds every catalog algorithm and post on startup and/or on a schedule
  - Posts are rebuilt even when the algorithm pass fails
  - A failed run is logged and retried on the next tick

# Error Handling

Return values determine supervisor behavior:

	nil / error             -> restarted with backoff
	suture.ErrDoNotRestart  -> finished, not restarted
	ctx.Err()               -> shutdown requested

ReindexService returns suture.ErrDoNotRestart when it has no schedule.
*/
package services

// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

/*
Package middleware provides HTTP middleware shared by the API router.

Key Components:

  - RequestID: UUID request IDs, echoed in X-Request-ID and attached to the
    logging context together with a correlation ID
  - PrometheusMetrics: request count, latency and in-flight gauge labeled by
    chi route pattern

Both use the http.HandlerFunc signature; the api package adapts them for
chi's r.Use:

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chiMiddleware(middleware.PrometheusMetrics))

CORS and rate limiting come from go-chi/cors and go-chi/httprate and are
configured in the api package.
*/
package middleware

// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

/*
Package api provides the HTTP REST API for Lodestar.

Routes are served by a Chi router (see Router.Setup). Every JSON endpoint
answers with the models.APIResponse envelope.

Endpoints:

Recommendations (/api/v1):
  - GET /users/{userID}/recommendations: personalized algorithms and posts
  - GET /algorithms/{algorithmID}/related-posts: paginated posts for one algorithm
  - GET /posts/search: free-text semantic post search

Vector maintenance (/api/v1/vectors):
  - POST /{kind}/{id}: enqueue a (re)vectorization
  - DELETE /{kind}/{id}: enqueue the removal of a vector
  - POST /users/{userID}/refresh: rebuild a user profile vector now
  - POST /collections/{name}/reset: drop every vector of a collection
  - GET /collections/{name}/stats: item count of one collection
  - GET /health: model and collection health

Operational:
  - GET /api/v1/health/live and /api/v1/health/ready: probes
  - GET /metrics: Prometheus exposition

Error mapping:

A missing entity answers 404 NOT_FOUND, malformed input 400
VALIDATION_ERROR, an unavailable vector subsystem 503 VECTOR_UNAVAILABLE and
an unavailable job queue 503 QUEUE_ERROR. The recommendation endpoint never
answers 503 for vector failures because the engine serves a fallback list
instead.

Middleware stack (outermost first):
  - RequestID: X-Request-ID propagation and logging context
  - RealIP and Recoverer from chi
  - CORS (go-chi/cors)
  - rate limiting (go-chi/httprate)
  - APISecurityHeaders
  - PrometheusMetrics labelled by route pattern
*/
package api

// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

// Package metrics exposes Prometheus instrumentation for the recommendation
// engine, the vector store, the background vectorizer and the HTTP API.
//
// All collectors are registered on the default registry through promauto and
// are safe for concurrent use. Call sites use the Record* helpers rather than
// touching collectors directly so label sets stay consistent.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation Metrics
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lodestar_recommendation_requests_total",
			Help: "Recommendation requests by the method that produced the algorithm list",
		},
		[]string{"method"}, // "vector_similarity", "fallback_newest", ...
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lodestar_recommendation_duration_seconds",
			Help:    "End-to-end latency of recommendation requests",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation"}, // "recommend", "related_posts", "search_text"
	)

	FallbackInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lodestar_fallback_invocations_total",
			Help: "Times a fallback strategy served results",
		},
		[]string{"target", "strategy"}, // target: algorithms|posts|related_posts
	)

	RecommendationsReturned = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lodestar_recommendations_returned",
			Help:    "Number of items returned per list",
			Buckets: []float64{0, 1, 2, 4, 6, 8, 12, 20},
		},
		[]string{"target"},
	)

	// Vector Store Metrics
	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lodestar_similarity_search_duration_seconds",
			Help:    "Duration of brute-force similarity scans",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
		[]string{"collection"},
	)

	SearchScanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lodestar_similarity_search_records_scanned_total",
			Help: "Records compared against a query vector",
		},
		[]string{"collection"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lodestar_vector_store_errors_total",
			Help: "Vector store operation failures",
		},
		[]string{"collection", "operation"},
	)

	CollectionSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lodestar_collection_records",
			Help: "Records currently held per collection",
		},
		[]string{"collection"},
	)

	// Embedding Metrics
	EmbeddingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lodestar_embedding_duration_seconds",
			Help:    "Time spent producing one embedding",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	EmbeddingErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lodestar_embedding_errors_total",
			Help: "Embedding failures, including open circuit rejections",
		},
	)

	EmbeddingCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lodestar_embedding_cache_hits_total",
			Help: "Embeddings served from the in-process cache",
		},
	)

	EmbeddingCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lodestar_embedding_cache_misses_total",
			Help: "Embeddings that had to be computed",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lodestar_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lodestar_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lodestar_circuit_breaker_requests_total",
			Help: "Calls made through a circuit breaker by result",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	// Vectorizer Metrics
	VectorizeJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lodestar_vectorize_jobs_total",
			Help: "Background vectorization jobs by kind, action and result",
		},
		[]string{"kind", "action", "result"}, // result: "ok", "error", "enqueued", "enqueue_error"
	)

	VectorizeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lodestar_vectorize_job_duration_seconds",
			Help:    "Processing time of background vectorization jobs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lodestar_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lodestar_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lodestar_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)
)

// RecordRecommendation records one served recommendation request.
func RecordRecommendation(method string, duration time.Duration, algorithms, posts int) {
	RecommendationRequests.WithLabelValues(method).Inc()
	RecommendationDuration.WithLabelValues("recommend").Observe(duration.Seconds())
	RecommendationsReturned.WithLabelValues("algorithms").Observe(float64(algorithms))
	RecommendationsReturned.WithLabelValues("posts").Observe(float64(posts))
}

// RecordOperation records the latency of a non-recommend engine operation.
func RecordOperation(operation string, duration time.Duration) {
	RecommendationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordFallback counts a fallback strategy serving a list.
func RecordFallback(target, strategy string) {
	FallbackInvocations.WithLabelValues(target, strategy).Inc()
}

// RecordSearch records one similarity scan over a collection.
func RecordSearch(collection string, scanned int, duration time.Duration) {
	SearchDuration.WithLabelValues(collection).Observe(duration.Seconds())
	SearchScanned.WithLabelValues(collection).Add(float64(scanned))
}

// RecordStoreError counts a failed vector store operation.
func RecordStoreError(collection, operation string) {
	StoreErrors.WithLabelValues(collection, operation).Inc()
}

// SetCollectionSize publishes the record count of a collection.
func SetCollectionSize(collection string, n int) {
	CollectionSize.WithLabelValues(collection).Set(float64(n))
}

// RecordEmbedding records one embedding attempt.
func RecordEmbedding(duration time.Duration, err error) {
	EmbeddingDuration.Observe(duration.Seconds())
	if err != nil {
		EmbeddingErrors.Inc()
	}
}

// RecordEmbeddingCache counts an embedding cache lookup.
func RecordEmbeddingCache(hit bool) {
	if hit {
		EmbeddingCacheHits.Inc()
		return
	}
	EmbeddingCacheMisses.Inc()
}

// SetCircuitBreakerState publishes a breaker state (0 closed, 1 half-open, 2 open).
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordBreakerTransition counts a breaker state change and publishes the
// new state.
func RecordBreakerTransition(name, from, to string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// RecordBreakerRequest counts one call through a breaker.
func RecordBreakerRequest(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// RecordVectorizeJob counts a background job outcome and, when duration is
// positive, its processing time.
func RecordVectorizeJob(kind, action, result string, duration time.Duration) {
	VectorizeJobs.WithLabelValues(kind, action, result).Inc()
	if duration > 0 {
		VectorizeDuration.WithLabelValues(kind).Observe(duration.Seconds())
	}
}

// RecordAPIRequest records one completed HTTP request.
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(start bool) {
	if start {
		APIActiveRequests.Inc()
		return
	}
	APIActiveRequests.Dec()
}

// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/lodestar/internal/recommend"
	"github.com/tomtom215/lodestar/internal/vectorizer"
)

// vectorJobRequest identifies the entity a vectorize job is for.
type vectorJobRequest struct {
	Kind string `json:"kind" validate:"entity_kind"`
	ID   int64  `json:"id" validate:"gt=0"`
}

// collectionRequest names a vector collection.
type collectionRequest struct {
	Name string `json:"name" validate:"collection"`
}

// jobAccepted is the body of a 202 answer to an enqueue request.
type jobAccepted struct {
	Kind     string `json:"kind"`
	ID       int64  `json:"id"`
	Action   string `json:"action"`
	Accepted bool   `json:"accepted"`
}

// EnqueueUpsert handles POST /api/v1/vectors/{kind}/{id}.
// The vector is computed later by the vectorizer worker.
func (h *Handler) EnqueueUpsert(w http.ResponseWriter, r *http.Request) {
	h.enqueue(w, r, vectorizer.ActionUpsert)
}

// EnqueueDelete handles DELETE /api/v1/vectors/{kind}/{id}.
func (h *Handler) EnqueueDelete(w http.ResponseWriter, r *http.Request) {
	h.enqueue(w, r, vectorizer.ActionDelete)
}

func (h *Handler) enqueue(w http.ResponseWriter, r *http.Request, action vectorizer.Action) {
	start := time.Now()

	req, ok := parseVectorJobRequest(w, r)
	if !ok {
		return
	}
	if h.queue == nil {
		respondError(w, r, http.StatusServiceUnavailable, codeQueue, "Background vectorization is not configured", nil)
		return
	}

	var err error
	if action == vectorizer.ActionDelete {
		err = h.queue.Delete(r.Context(), req.Kind, req.ID)
	} else {
		err = h.queue.Upsert(r.Context(), req.Kind, req.ID)
	}
	if err != nil {
		if errors.Is(err, vectorizer.ErrInvalidJob) {
			respondEngineError(w, r, err)
			return
		}
		respondError(w, r, http.StatusServiceUnavailable, codeQueue, "Failed to enqueue vectorize job", err)
		return
	}

	respondSuccess(w, r, http.StatusAccepted, start, jobAccepted{
		Kind:     req.Kind,
		ID:       req.ID,
		Action:   string(action),
		Accepted: true,
	})
}

func parseVectorJobRequest(w http.ResponseWriter, r *http.Request) (vectorJobRequest, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return vectorJobRequest{}, false
	}
	req := vectorJobRequest{Kind: chi.URLParam(r, "kind"), ID: id}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr, nil)
		return vectorJobRequest{}, false
	}
	return req, true
}

// RefreshUserVector handles POST /api/v1/vectors/users/{userID}/refresh.
// Unlike the enqueue endpoints this rebuilds the profile synchronously.
func (h *Handler) RefreshUserVector(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	userID, err := pathID(r, "userID")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}

	if err := h.engine.RefreshUserProfile(r.Context(), userID); err != nil {
		respondEngineError(w, r, err)
		return
	}

	h.logger.Info().Int64("user_id", userID).Msg("user profile vector refreshed")
	respondSuccess(w, r, http.StatusOK, start, map[string]interface{}{
		"user_id":   userID,
		"refreshed": true,
	})
}

// ResetCollection handles POST /api/v1/vectors/collections/{name}/reset.
func (h *Handler) ResetCollection(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, ok := parseCollectionRequest(w, r)
	if !ok {
		return
	}

	if err := h.engine.ResetCollection(r.Context(), req.Name); err != nil {
		respondEngineError(w, r, err)
		return
	}

	h.logger.Warn().Str("collection", req.Name).Msg("vector collection reset")
	respondSuccess(w, r, http.StatusOK, start, map[string]interface{}{
		"collection": req.Name,
		"reset":      true,
	})
}

// CollectionStats handles GET /api/v1/vectors/collections/{name}/stats.
func (h *Handler) CollectionStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, ok := parseCollectionRequest(w, r)
	if !ok {
		return
	}

	stats, err := h.engine.CollectionStats(r.Context(), req.Name)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	respondSuccess(w, r, http.StatusOK, start, stats)
}

func parseCollectionRequest(w http.ResponseWriter, r *http.Request) (collectionRequest, bool) {
	req := collectionRequest{Name: chi.URLParam(r, "name")}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr, nil)
		return collectionRequest{}, false
	}
	return req, true
}

// VectorHealth handles GET /api/v1/vectors/health.
// A degraded or uninitialized store answers 503 so load balancers and
// uptime checks can act on the status code alone.
func (h *Handler) VectorHealth(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	health := h.engine.HealthCheck(r.Context())

	status := http.StatusOK
	if health.Status != recommend.HealthHealthy {
		status = http.StatusServiceUnavailable
	}
	respondSuccess(w, r, status, start, health)
}

// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/lodestar/internal/recommend"
)

// relatedPostsRequest holds the validated related-posts parameters.
type relatedPostsRequest struct {
	AlgorithmID int64 `json:"algorithm_id" validate:"gt=0"`
	UserID      int64 `query:"user_id" validate:"gte=0"`
	Page        int   `query:"page" validate:"gte=1"`
	PerPage     int   `query:"per_page" validate:"gte=0"`
}

// searchRequest holds the validated post search parameters.
type searchRequest struct {
	Query         string  `query:"q" validate:"required,max=1000"`
	Limit         int     `query:"limit" validate:"gte=1,lte=100"`
	ExcludeAuthor int64   `query:"exclude_author" validate:"gte=0"`
	ExcludeIDs    []int64 `query:"exclude_ids" validate:"max=500"`
	MinSimilarity float64 `query:"min_similarity" validate:"gte=-1,lte=1"`
	Filter        string  `query:"filter" validate:"max=512,cel_filter"`
}

// GetRecommendations handles GET /api/v1/users/{userID}/recommendations.
// Returns personalized algorithms and posts. Vector failures are absorbed
// by the engine's fallback chain; only an unreadable catalog fails the
// request.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	userID, err := pathID(r, "userID")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}

	resp, err := h.engine.Recommend(r.Context(), userID)
	if err != nil {
		if errors.Is(err, recommend.ErrNotFound) {
			respondEngineError(w, r, err)
			return
		}
		respondError(w, r, http.StatusInternalServerError, codeCatalog, "Failed to generate recommendations", err)
		return
	}

	respondSuccess(w, r, http.StatusOK, start, resp)
}

// GetRelatedPosts handles GET /api/v1/algorithms/{algorithmID}/related-posts.
//
// Query parameters:
//   - user_id: viewer whose progress personalizes the ranking (optional)
//   - page: 1-based page number (default 1)
//   - per_page: page size (default from configuration)
func (h *Handler) GetRelatedPosts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	algorithmID, err := pathID(r, "algorithmID")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}
	userID, err := getInt64Param(r, "user_id")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}

	req := relatedPostsRequest{
		AlgorithmID: algorithmID,
		UserID:      userID,
		Page:        getIntParam(r, "page", 1),
		PerPage:     getIntParam(r, "per_page", 0),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}

	page, err := h.engine.RelatedPosts(r.Context(), req.AlgorithmID, req.UserID, req.Page, req.PerPage)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	respondSuccess(w, r, http.StatusOK, start, page)
}

// SearchPosts handles GET /api/v1/posts/search.
//
// Query parameters:
//   - q: free text (required)
//   - limit: result cap, 1-100 (default 10)
//   - exclude_author: drop posts by this author
//   - exclude_ids: comma-separated post ids to drop
//   - min_similarity: drop weaker matches, -1 to 1 (default 0)
//   - filter: CEL expression over id and metadata, e.g.
//     metadata.like_count >= 5 && "graphs" in metadata.tags
func (h *Handler) SearchPosts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	excludeAuthor, err := getInt64Param(r, "exclude_author")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}
	minSimilarity, err := getFloatParam(r, "min_similarity", 0)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}
	excludeIDs, err := parseCommaSeparatedIDs(r.URL.Query().Get("exclude_ids"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, "exclude_ids: "+err.Error(), nil)
		return
	}

	req := searchRequest{
		Query:         r.URL.Query().Get("q"),
		Limit:         getIntParam(r, "limit", 10),
		ExcludeAuthor: excludeAuthor,
		ExcludeIDs:    excludeIDs,
		MinSimilarity: minSimilarity,
		Filter:        strings.TrimSpace(r.URL.Query().Get("filter")),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}

	posts, err := h.engine.FindPostsByText(r.Context(), req.Query, recommend.TextSearchOptions{
		Limit:           req.Limit,
		ExcludeAuthorID: req.ExcludeAuthor,
		ExcludeIDs:      req.ExcludeIDs,
		MinSimilarity:   req.MinSimilarity,
		Filter:          req.Filter,
	})
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	respondSuccess(w, r, http.StatusOK, start, map[string]interface{}{
		"query": req.Query,
		"posts": posts,
		"count": len(posts),
	})
}

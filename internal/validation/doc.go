// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

// Package validation validates API request structs with
// go-playground/validator v10.
//
// A single validator instance is shared by all handlers. Fields are reported
// by their `query` or `json` tag name so error messages match what the client
// sent. Custom tags cover the vector endpoints:
//
//   - entity_kind: algorithm, post or user
//   - collection: algorithms, posts or users
//   - cel_filter: empty, or a CEL expression accepted by vectorstore.Filter.Expr
//
// Example:
//
//	type RelatedPostsRequest struct {
//	    AlgorithmID int64 `query:"algorithm_id" validate:"gt=0"`
//	    Page        int   `query:"page" validate:"gte=1"`
//	    PerPage     int   `query:"per_page" validate:"gte=1,lte=50"`
//	}
//
//	if errs := validation.ValidateStruct(&req); errs != nil {
//	    respondAPIError(w, r, http.StatusBadRequest, errs.ToAPIError(), nil)
//	    return
//	}
package validation

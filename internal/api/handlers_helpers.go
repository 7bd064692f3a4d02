// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/lodestar/internal/embedding"
	"github.com/tomtom215/lodestar/internal/logging"
	"github.com/tomtom215/lodestar/internal/models"
	"github.com/tomtom215/lodestar/internal/recommend"
	"github.com/tomtom215/lodestar/internal/validation"
	"github.com/tomtom215/lodestar/internal/vectorizer"
	"github.com/tomtom215/lodestar/internal/vectorstore"
)

// Error codes used in APIError.Code.
const (
	codeValidation        = "VALIDATION_ERROR"
	codeNotFound          = "NOT_FOUND"
	codeVectorUnavailable = "VECTOR_UNAVAILABLE"
	codeQueue             = "QUEUE_ERROR"
	codeCatalog           = "CATALOG_ERROR"
	codeInternal          = "INTERNAL_ERROR"
	codeTimeout           = "TIMEOUT"
	codeRateLimited       = "RATE_LIMIT_EXCEEDED"
)

// sanitizeLogValue removes control characters from strings to prevent log injection attacks.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&result, "\\x%02x", r)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", generateETag(data))

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// generateETag returns a weak validator derived from the response body.
func generateETag(data []byte) string {
	return `W/"` + strconv.FormatUint(xxhash.Sum64(data), 16) + `"`
}

// respondSuccess wraps data in a success envelope.
func respondSuccess(w http.ResponseWriter, r *http.Request, status int, start time.Time, data interface{}) {
	respondJSON(w, status, models.Success(data, newMetadata(r, start)))
}

// respondError sends an error response
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	respondAPIError(w, r, status, &models.APIError{Code: code, Message: message}, err)
}

// respondAPIError sends a prepared APIError. err, when set, is logged with
// the request's correlation fields and never reaches the client.
func respondAPIError(w http.ResponseWriter, r *http.Request, status int, apiErr *models.APIError, err error) {
	if err != nil {
		event := logging.Ctx(r.Context()).Warn()
		if status >= http.StatusInternalServerError {
			event = logging.Ctx(r.Context()).Error()
		}
		event.
			Str("code", sanitizeLogValue(apiErr.Code)).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API Error")
	}

	respondJSON(w, status, models.Failure(apiErr, newMetadata(r, time.Time{})))
}

// respondEngineError maps an engine, store or queue error to an HTTP status.
func respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, recommend.ErrNotFound):
		respondError(w, r, http.StatusNotFound, codeNotFound, "Resource not found", nil)
	case errors.Is(err, vectorstore.ErrUnknownCollection):
		respondError(w, r, http.StatusNotFound, codeNotFound, "Unknown collection", nil)
	case errors.Is(err, recommend.ErrInvalidArgument), errors.Is(err, vectorizer.ErrInvalidJob):
		respondError(w, r, http.StatusBadRequest, codeValidation, errorDetail(err), nil)
	case errors.Is(err, embedding.ErrEmptyText):
		respondError(w, r, http.StatusBadRequest, codeValidation, "Query text has no searchable terms", nil)
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, r, http.StatusGatewayTimeout, codeTimeout, "Request timed out", err)
	case recommend.IsVectorFailure(err), errors.Is(err, vectorstore.ErrClosed):
		respondError(w, r, http.StatusServiceUnavailable, codeVectorUnavailable, "Vector search is temporarily unavailable", err)
	default:
		respondError(w, r, http.StatusInternalServerError, codeInternal, "Internal server error", err)
	}
}

// errorDetail returns the message of an argument error without the
// sentinel prefix.
func errorDetail(err error) string {
	msg := err.Error()
	for _, prefix := range []string{recommend.ErrInvalidArgument.Error() + ": ", vectorizer.ErrInvalidJob.Error() + ": "} {
		if i := strings.Index(msg, prefix); i >= 0 {
			return msg[i+len(prefix):]
		}
	}
	return msg
}

func newMetadata(r *http.Request, start time.Time) models.Metadata {
	meta := models.Metadata{
		Timestamp: time.Now().UTC(),
		RequestID: logging.RequestIDFromContext(r.Context()),
	}
	if !start.IsZero() {
		meta.QueryTimeMS = time.Since(start).Milliseconds()
	}
	return meta
}

// validateRequest validates a struct using go-playground/validator.
// Returns nil if validation passes, or a models.APIError if validation fails.
//
// Example:
//
//	req := searchRequest{
//	    Query: r.URL.Query().Get("q"),
//	    Limit: getIntParam(r, "limit", 10),
//	}
//	if apiErr := validateRequest(&req); apiErr != nil {
//	    respondAPIError(w, r, http.StatusBadRequest, apiErr, nil)
//	    return
//	}
func validateRequest(v any) *models.APIError {
	if errs := validation.ValidateStruct(v); errs != nil {
		return errs.ToAPIError()
	}
	return nil
}

// getIntParam extracts an integer query parameter with a default value
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// getInt64Param extracts an int64 query parameter. A malformed value is an
// error rather than a silent default because ids select whose data is read.
func getInt64Param(r *http.Request, key string) (int64, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return id, nil
}

// getFloatParam extracts a float query parameter with a default value
func getFloatParam(r *http.Request, key string, defaultValue float64) (float64, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", key)
	}
	return f, nil
}

// pathID parses a positive integer path parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return id, nil
}

// parseCommaSeparatedIDs parses "1,2,3" into ids, skipping blanks. Any
// other malformed element is an error.
func parseCommaSeparatedIDs(value string) ([]int64, error) {
	if value == "" {
		return nil, nil
	}

	var result []int64
	for _, part := range strings.Split(value, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		id, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", trimmed)
		}
		result = append(result, id)
	}
	return result, nil
}

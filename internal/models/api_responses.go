// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package models

import "time"

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// APIResponse is the envelope of every HTTP response body:
//
//	{"status":"success","data":{...},"metadata":{"timestamp":"...","query_time_ms":12}}
//	{"status":"error","data":null,"error":{"code":"NOT_FOUND","message":"..."},"metadata":{...}}
type APIResponse struct {
	Status   string    `json:"status"`
	Data     any       `json:"data"`
	Metadata Metadata  `json:"metadata"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata describes the request that produced a response.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
}

// APIError is the machine-readable part of an error response. Code is one
// of the upper-case codes listed in the api package documentation.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Success wraps data in a success envelope.
func Success(data any, meta Metadata) *APIResponse {
	return &APIResponse{Status: StatusSuccess, Data: data, Metadata: meta}
}

// Failure wraps apiErr in an error envelope.
func Failure(apiErr *APIError, meta Metadata) *APIResponse {
	return &APIResponse{Status: StatusError, Metadata: meta, Error: apiErr}
}

// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package vectorstore

import (
	"math"
	"time"
)

// Record is one stored vector with its metadata.
//
// Vectors are expected to be unit length when written; the store does not
// re-normalize them.
//
// Metadata is stored in canonical form and read back that way, so an upsert
// round-trips values, not Go types: integers of any width and integral
// floats come back as int64, other numbers as float64, and []string or
// []int64 as []any. Both stores behave the same, since badger decodes JSON
// numbers as float64.
type Record struct {
	ID        int64          `json:"id"`
	Vector    []float32      `json:"vector"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Document  string         `json:"document,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// clone returns a deep copy of the vector and a normalized copy of the
// metadata map, so stored records never alias caller memory.
func (r Record) clone() Record {
	out := r
	out.Vector = make([]float32, len(r.Vector))
	copy(out.Vector, r.Vector)
	if r.Metadata != nil {
		out.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			out.Metadata[k] = normalizeValue(v)
		}
	}
	return out
}

// MetaInt64 reads an integer metadata field.
func (r Record) MetaInt64(key string) (int64, bool) {
	v, ok := r.Metadata[key]
	if !ok {
		return 0, false
	}
	n, ok := normalizeValue(v).(int64)
	return n, ok
}

// MetaString reads a string metadata field.
func (r Record) MetaString(key string) string {
	s, _ := r.Metadata[key].(string)
	return s
}

// normalizeValue maps numeric metadata to int64 when integral and float64
// otherwise, so values compare equal whether they came from Go code or were
// decoded from JSON.
func normalizeValue(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case uint:
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return int64(n)
	case float32:
		return normalizeFloat(float64(n))
	case float64:
		return normalizeFloat(n)
	case []string:
		out := make([]any, len(n))
		for i, s := range n {
			out[i] = s
		}
		return out
	case []int64:
		out := make([]any, len(n))
		for i, x := range n {
			out[i] = x
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, x := range n {
			out[i] = normalizeValue(x)
		}
		return out
	default:
		return v
	}
}

func normalizeFloat(f float64) any {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return f
}

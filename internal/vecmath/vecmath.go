// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

// Package vecmath provides the small amount of vector arithmetic shared by the
// embedder, the vector store and the similarity search.
//
// All functions operate on float32 slices and accumulate in float64 so that
// results are stable across platforms for the dimensions used here (a few
// hundred components).
package vecmath

import "math"

// Norm returns the L2 norm of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		f := float64(x)
		sum += f * f
	}
	return math.Sqrt(sum)
}

// IsZero reports whether every component of v is zero.
// An empty slice is considered zero.
func IsZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Zero returns a zero vector of dimension d.
func Zero(d int) []float32 {
	if d < 0 {
		d = 0
	}
	return make([]float32, d)
}

// Normalize returns a unit-length copy of v.
// The second return value is false when v has zero magnitude, in which case
// the returned slice is a zero vector of the same length.
func Normalize(v []float32) ([]float32, bool) {
	out := make([]float32, len(v))
	n := Norm(v)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return out, false
	}
	for i, x := range v {
		out[i] = float32(float64(x) / n)
	}
	return out, true
}

// Dot returns the dot product of a and b over their common prefix.
// Callers are expected to check lengths first; Dot never panics.
func Dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Cosine returns the cosine similarity of a and b clamped to [-1, 1].
// It returns 0 when the lengths differ or either vector has zero magnitude.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return Clamp(Dot(a, b) / (na * nb))
}

// Clamp limits a similarity value to [-1, 1]. Rounding error on unit vectors
// can otherwise produce values such as 1.0000001.
func Clamp(s float64) float64 {
	switch {
	case math.IsNaN(s):
		return 0
	case s > 1:
		return 1
	case s < -1:
		return -1
	default:
		return s
	}
}

// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package vecmath

import (
	"math"
	"testing"
)

const tolerance = 1e-6

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  []float32
		wantOK bool
	}{
		{"unit axis", []float32{1, 0, 0}, true},
		{"arbitrary", []float32{3, 4}, true},
		{"negative components", []float32{-2, 1, -7, 0.5}, true},
		{"zero vector", []float32{0, 0, 0}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Normalize(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("Normalize() ok = %v, want %v", ok, tt.wantOK)
			}
			if len(got) != len(tt.input) {
				t.Fatalf("Normalize() len = %d, want %d", len(got), len(tt.input))
			}
			if ok && math.Abs(Norm(got)-1) > tolerance {
				t.Errorf("Norm(Normalize()) = %v, want 1", Norm(got))
			}
			if !ok && !IsZero(got) {
				t.Errorf("Normalize() of zero input should stay zero, got %v", got)
			}
		})
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := []float32{3, 4}
	_, _ = Normalize(in)
	if in[0] != 3 || in[1] != 4 {
		t.Errorf("input mutated: %v", in)
	}
}

func TestCosine_SymmetricAndBounded(t *testing.T) {
	t.Parallel()

	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{1, 1, 0},
		{-1, -1, 0},
		{0.2, -0.7, 0.3},
		{5, 5, 5},
	}

	for i, a := range vectors {
		for j, b := range vectors {
			ab := Cosine(a, b)
			ba := Cosine(b, a)
			if ab != ba {
				t.Errorf("Cosine(%d,%d)=%v != Cosine(%d,%d)=%v", i, j, ab, j, i, ba)
			}
			if ab < -1 || ab > 1 {
				t.Errorf("Cosine(%d,%d)=%v out of [-1,1]", i, j, ab)
			}
		}
	}
}

func TestCosine_KnownValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 1}, []float32{-1, -1}, -1},
		{"zero side", []float32{0, 0}, []float32{1, 1}, 0},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Cosine(tt.a, tt.b); math.Abs(got-tt.want) > tolerance {
				t.Errorf("Cosine() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	t.Parallel()

	if got := Clamp(1.0000001); got != 1 {
		t.Errorf("Clamp(>1) = %v", got)
	}
	if got := Clamp(-1.5); got != -1 {
		t.Errorf("Clamp(<-1) = %v", got)
	}
	if got := Clamp(math.NaN()); got != 0 {
		t.Errorf("Clamp(NaN) = %v", got)
	}
}

func TestZero(t *testing.T) {
	t.Parallel()

	z := Zero(384)
	if len(z) != 384 || !IsZero(z) {
		t.Errorf("Zero(384) returned len=%d zero=%v", len(z), IsZero(z))
	}
	if len(Zero(-1)) != 0 {
		t.Error("Zero(-1) should be empty")
	}
}

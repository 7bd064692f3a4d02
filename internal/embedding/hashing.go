// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package embedding

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/tomtom215/lodestar/internal/vecmath"
)

// bigramWeight scales adjacent-token features relative to single tokens.
const bigramWeight = 0.5

// HashingEmbedder is a signed feature-hashing text encoder.
//
// Text is lowercased and split into tokens of letters and digits. Han, kana
// and hangul characters each form a token of their own, so mixed-script
// text is handled without a dictionary. Every token and every adjacent token
// pair is hashed with xxhash; the hash selects a bucket and a sign. Counts
// are dampened with 1+ln(tf) and the result is L2 normalized.
//
// Texts that share vocabulary land close together under cosine similarity,
// which is all the recommendation engine needs.
type HashingEmbedder struct {
	dim int
}

// NewHashingEmbedder creates an encoder producing vectors of length dim.
func NewHashingEmbedder(dim int) (*HashingEmbedder, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dim)
	}
	return &HashingEmbedder{dim: dim}, nil
}

// Dimension returns the vector length.
func (h *HashingEmbedder) Dimension() int { return h.dim }

// Model returns the model name.
func (h *HashingEmbedder) Model() string { return ModelHashing }

// Embed encodes text. It returns ErrEmptyText when text has no tokens.
func (h *HashingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil, ErrEmptyText
	}

	// Features are accumulated in first-seen order so float summation is
	// identical across runs.
	counts := make(map[string]int, len(tokens)*2)
	order := make([]string, 0, len(tokens)*2)
	add := func(f string) {
		if counts[f] == 0 {
			order = append(order, f)
		}
		counts[f]++
	}
	for i, tok := range tokens {
		add("u\x00" + tok)
		if i > 0 {
			add("b\x00" + tokens[i-1] + "\x00" + tok)
		}
	}

	acc := make([]float64, h.dim)
	for _, f := range order {
		sum := xxhash.Sum64String(f)
		idx := int(sum % uint64(h.dim))
		weight := 1 + math.Log(float64(counts[f]))
		if f[0] == 'b' {
			weight *= bigramWeight
		}
		if sum>>63 == 1 {
			weight = -weight
		}
		acc[idx] += weight
	}

	vec := make([]float32, h.dim)
	for i, x := range acc {
		vec[i] = float32(x)
	}
	out, ok := vecmath.Normalize(vec)
	if !ok {
		// Every feature cancelled out in its bucket.
		return nil, ErrEmptyText
	}
	return out, nil
}

// Tokenize lowercases text and splits it into word tokens. Runs of letters
// and digits form one token; each CJK character is a token by itself.
func Tokenize(text string) []string {
	var (
		tokens []string
		cur    strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for _, r := range strings.ToLower(text) {
		switch {
		case isCJK(r):
			flush()
			tokens = append(tokens, string(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			cur.WriteRune(r)
		default:
			flush()
		}
	}
	flush()

	return tokens
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}

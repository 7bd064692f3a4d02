// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package recommend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/lodestar/internal/metrics"
	"github.com/tomtom215/lodestar/internal/vectorstore"
)

// TextSearchOptions narrows FindPostsByText.
type TextSearchOptions struct {
	// Limit caps the result. Zero means 10.
	Limit int

	// ExcludeAuthorID drops posts by this author when non-zero.
	ExcludeAuthorID int64

	// ExcludeIDs drops these posts.
	ExcludeIDs []int64

	// MinSimilarity drops weaker matches.
	MinSimilarity float64

	// Filter is an optional CEL expression over the post record, for
	// example `metadata.like_count >= 5 && "graphs" in metadata.tags`.
	Filter string
}

// defaultTextSearchLimit is used when TextSearchOptions.Limit is zero.
const defaultTextSearchLimit = 10

// FindPostsByText embeds free text and returns the most similar posts.
// Candidates carry the raw similarity and a 0-100 score; no bonuses are
// applied.
func (e *Engine) FindPostsByText(ctx context.Context, text string, opts TextSearchOptions) ([]ScoredCandidate, error) {
	start := time.Now()
	defer func() { metrics.RecordOperation("find_posts_by_text", time.Since(start)) }()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalidArgument("query text is empty")
	}
	if opts.Limit == 0 {
		opts.Limit = defaultTextSearchLimit
	}
	if opts.Limit < 0 {
		return nil, invalidArgument("limit must be positive, got %d", opts.Limit)
	}
	if err := vectorstore.ValidateExpr(opts.Filter); err != nil {
		return nil, invalidArgument("filter: %v", err)
	}

	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	filter := vectorstore.Filter{ExcludeIDs: opts.ExcludeIDs, Expr: opts.Filter}
	if opts.ExcludeAuthorID != 0 {
		filter.Conditions = []vectorstore.Condition{vectorstore.Ne(metaAuthorID, opts.ExcludeAuthorID)}
	}
	matches, err := vectorstore.Search(ctx, e.posts, vec, vectorstore.SearchOptions{
		Limit:         opts.Limit,
		MinSimilarity: opts.MinSimilarity,
		Filter:        filter,
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []ScoredCandidate{}, nil
	}

	ids := make([]int64, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	byID, err := e.catalog.PostsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load matched posts: %w", err)
	}

	out := make([]ScoredCandidate, 0, len(matches))
	for _, m := range matches {
		p, ok := byID[m.ID]
		if !ok {
			continue
		}
		out = append(out, ScoredCandidate{
			ID:         p.ID,
			Kind:       KindPost,
			Title:      p.Title,
			Similarity: m.Similarity,
			FinalScore: round2(m.Similarity * 100),
			Reasons:    []string{ReasonContent},
			Strategy:   StrategyVectorSimilarity,
			Post:       &p,
		})
	}
	return out, nil
}

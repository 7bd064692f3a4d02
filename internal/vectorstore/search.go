// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package vectorstore

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/tomtom215/lodestar/internal/metrics"
	"github.com/tomtom215/lodestar/internal/vecmath"
)

// NoFloor disables the similarity floor when used as MinSimilarity.
const NoFloor = -1.0

// SearchOptions tunes Search.
type SearchOptions struct {
	// Limit caps the number of matches. Zero or negative means no cap.
	Limit int

	// MinSimilarity drops matches scoring below it. The zero value keeps
	// every non-negative match; use NoFloor to keep everything.
	MinSimilarity float64

	// Filter restricts the records scanned.
	Filter Filter
}

// Match is one search result.
type Match struct {
	ID         int64          `json:"id"`
	Similarity float64        `json:"similarity"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Document   string         `json:"document,omitempty"`
}

// Search scores every record of coll passing opts.Filter against query by
// cosine similarity and returns the best matches, highest first. Equal
// similarities are ordered by ascending id. Similarities are rounded to four
// decimal places.
//
// The query is re-normalized before scoring. A query whose length differs
// from the collection dimension fails with a *DimensionMismatchError and a
// zero query fails with ErrZeroQuery. An empty collection yields an empty
// result, not an error.
func Search(ctx context.Context, coll Collection, query []float32, opts SearchOptions) ([]Match, error) {
	start := time.Now()

	if err := checkDimension(coll.Name(), coll.Dimension(), query); err != nil {
		metrics.RecordStoreError(coll.Name(), "search")
		return nil, err
	}
	q, ok := vecmath.Normalize(query)
	if !ok {
		return nil, ErrZeroQuery
	}

	records, err := coll.GetAll(ctx, opts.Filter)
	if err != nil {
		metrics.RecordStoreError(coll.Name(), "search")
		return nil, err
	}

	matches := make([]Match, 0, len(records))
	for i := range records {
		rec := &records[i]
		if len(rec.Vector) != len(q) {
			continue
		}
		// The floor applies to the reported value.
		sim := round4(vecmath.Clamp(vecmath.Dot(q, rec.Vector)))
		if sim < opts.MinSimilarity {
			continue
		}
		matches = append(matches, Match{
			ID:         rec.ID,
			Similarity: sim,
			Metadata:   rec.Metadata,
			Document:   rec.Document,
		})
	}

	SortMatches(matches)
	if opts.Limit > 0 && len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}

	metrics.RecordSearch(coll.Name(), len(records), time.Since(start))
	return matches, nil
}

// SortMatches orders matches by descending similarity, then ascending id.
func SortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].ID < matches[j].ID
	})
}

func round4(f float64) float64 {
	return math.Round(f*1e4) / 1e4
}

// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package vectorstore

import (
	"context"
	"time"
)

// CollectionStats summarizes one collection.
type CollectionStats struct {
	Collection  string    `json:"collection"`
	TotalItems  int       `json:"total_items"`
	LastUpdated time.Time `json:"last_updated"`
}

// Stats counts coll. LastUpdated is the time of the check, not of the last
// write.
func Stats(ctx context.Context, coll Collection) (CollectionStats, error) {
	n, err := coll.Count(ctx)
	if err != nil {
		return CollectionStats{}, err
	}
	return CollectionStats{
		Collection:  coll.Name(),
		TotalItems:  n,
		LastUpdated: time.Now().UTC(),
	}, nil
}

// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

// Package recommend produces algorithm and post recommendations for a
// learning platform.
//
// # Architecture
//
// A request flows through a fixed pipeline:
//
//   - Profile: the user's learning records and post interactions are
//     rendered as text and embedded once into a profile vector. A vector
//     persisted in the users collection is reused as is.
//   - Search: the profile vector is scored against the algorithms and posts
//     collections concurrently.
//   - Fusion: algorithm similarity is rescaled to 0-100. Posts add a
//     learning bonus (progress weighted tag overlap), a capped community
//     bonus and a linear freshness bonus.
//   - Fallback: when the profile is empty, a search fails or yields
//     nothing, a rule-based chain fills the list instead.
//
// Vector subsystem failures never fail a request; the Stats block of the
// response names the path that served each list.
//
// # Usage
//
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), cat, emb, store, logger)
//	if err != nil {
//	    return err
//	}
//	resp, err := engine.Recommend(ctx, userID)
//
// # Maintenance
//
// IndexAlgorithm and IndexPost embed one entity and replace its record;
// RemoveAlgorithm and RemovePost drop it. RefreshUserProfile rebuilds and
// persists a profile vector. These are normally driven by the vectorizer
// worker rather than called on a request path.
//
// # Thread Safety
//
// Engine is safe for concurrent use. Writes are serialized by the vector
// store; reads may observe a record before or after a concurrent replace.
package recommend

// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

// Package catalog is the read side of the host application's entity storage:
// algorithms, posts, users, learning records, post interactions and the
// explicit algorithm-post links.
//
// The recommendation engine never writes domain entities. MemoryCatalog
// serves tests and local runs (optionally seeded from a JSON snapshot);
// SQLCatalog reads the host database through database/sql with either the
// DuckDB or the pure-Go SQLite driver.
package catalog

import (
	"context"
	"errors"

	"github.com/tomtom215/lodestar/internal/models"
)

// ErrNotFound means the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Catalog reads domain entities.
//
// Slices of algorithms are ordered by ascending id unless stated otherwise.
type Catalog interface {
	// Algorithm returns one algorithm or ErrNotFound.
	Algorithm(ctx context.Context, id int64) (*models.Algorithm, error)

	// Algorithms returns every algorithm.
	Algorithms(ctx context.Context) ([]models.Algorithm, error)

	// CountAlgorithms returns the number of algorithms.
	CountAlgorithms(ctx context.Context) (int, error)

	// Post returns one post or ErrNotFound.
	Post(ctx context.Context, id int64) (*models.Post, error)

	// Posts returns every post by ascending id.
	Posts(ctx context.Context) ([]models.Post, error)

	// PostsByIDs returns the posts that exist among ids, keyed by id.
	PostsByIDs(ctx context.Context, ids []int64) (map[int64]models.Post, error)

	// PopularPosts returns posts not written by excludeAuthorID, most liked
	// first, then newest first.
	PopularPosts(ctx context.Context, excludeAuthorID int64, limit int) ([]models.Post, error)

	// PostsByTags returns posts carrying any of tags, by ascending id.
	PostsByTags(ctx context.Context, tags []string, limit int) ([]models.Post, error)

	// PostsByKeywords returns posts whose title or content contains any of
	// keywords, case-insensitively, by ascending id.
	PostsByKeywords(ctx context.Context, keywords []string, limit int) ([]models.Post, error)

	// CountPosts returns the number of posts.
	CountPosts(ctx context.Context) (int, error)

	// LinkedPostIDs returns the posts explicitly associated with an
	// algorithm, by ascending id.
	LinkedPostIDs(ctx context.Context, algorithmID int64) ([]int64, error)

	// User returns one user or ErrNotFound.
	User(ctx context.Context, id int64) (*models.User, error)

	// LearningRecords returns a user's records, most recently accessed first.
	LearningRecords(ctx context.Context, userID int64) ([]models.LearningRecord, error)

	// Interactions returns the post ids a user liked, favorited, commented
	// on and authored, each most recent first.
	Interactions(ctx context.Context, userID int64) (*models.Interactions, error)
}

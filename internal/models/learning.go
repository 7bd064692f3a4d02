// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package models

import (
	"time"
)

// Difficulty is the skill level an algorithm is aimed at.
type Difficulty string

// Difficulty levels, in the order learners are expected to progress.
const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// DifficultyLevels lists every difficulty from easiest to hardest.
var DifficultyLevels = []Difficulty{
	DifficultyBeginner,
	DifficultyIntermediate,
	DifficultyAdvanced,
}

// Valid reports whether d is one of the known levels.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	default:
		return false
	}
}

// Algorithm is a learnable algorithm page owned by the host application.
type Algorithm struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	ChineseName string     `json:"chinese_name,omitempty"`
	Description string     `json:"description,omitempty"`
	Difficulty  Difficulty `json:"difficulty,omitempty"`
	Tags        []string   `json:"tags"`
	Theory      string     `json:"theory,omitempty"`
	CodeExample string     `json:"code_example,omitempty"`
	Category    string     `json:"category,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Author identifies the user who wrote a post.
type Author struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Post is a community post owned by the host application.
type Post struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Author       Author    `json:"author"`
	Tags         []string  `json:"tags"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	IsFeatured   bool      `json:"is_featured"`
	CreatedAt    time.Time `json:"created_at"`
}

// Engagement returns likes plus comments.
func (p *Post) Engagement() int {
	return p.LikeCount + p.CommentCount
}

// LearningRecord is a user's progress on a single algorithm.
type LearningRecord struct {
	UserID       int64     `json:"user_id"`
	AlgorithmID  int64     `json:"algorithm_id"`
	Progress     float64   `json:"progress"` // 0-100
	Interests    []string  `json:"interests"`
	LastAccessed time.Time `json:"last_accessed"`
}

// Interactions holds the post ids a user has engaged with.
// Each slice is ordered most recent first.
type Interactions struct {
	Liked     []int64 `json:"liked"`
	Favorited []int64 `json:"favorited"`
	Commented []int64 `json:"commented"`
	Authored  []int64 `json:"authored"`
}

// Count returns the number of likes, favorites and comments.
// Authored posts are not interactions.
func (i *Interactions) Count() int {
	return len(i.Liked) + len(i.Favorited) + len(i.Commented)
}

// User is the minimal view of an account needed for profiling.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// TagOverlap counts distinct tags present in both a and b.
func TagOverlap(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	n := 0
	seen := make(map[string]struct{}, len(b))
	for _, t := range b {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := set[t]; ok {
			n++
		}
	}
	return n
}

// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/lodestar/internal/models"
)

// The write helpers below exist for standalone deployments and tests. In
// production the host application owns these tables.

// UpsertUser inserts or replaces u.
func (c *SQLCatalog) UpsertUser(ctx context.Context, u models.User) error {
	_, err := c.db.ExecContext(ctx, `INSERT OR REPLACE INTO users (id, username) VALUES (?, ?)`, u.ID, u.Username)
	if err != nil {
		return fmt.Errorf("upsert user %d: %w", u.ID, err)
	}
	return nil
}

// UpsertAlgorithm inserts or replaces a.
func (c *SQLCatalog) UpsertAlgorithm(ctx context.Context, a models.Algorithm) error {
	_, err := c.db.ExecContext(ctx, `INSERT OR REPLACE INTO algorithms (`+algorithmColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.ChineseName, a.Description, string(a.Difficulty), encodeStrings(a.Tags),
		a.Theory, a.CodeExample, a.Category, a.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("upsert algorithm %d: %w", a.ID, err)
	}
	return nil
}

// UpsertPost inserts or replaces p. The author's username is not stored on
// the post; use UpsertUser.
func (c *SQLCatalog) UpsertPost(ctx context.Context, p models.Post) error {
	_, err := c.db.ExecContext(ctx, `INSERT OR REPLACE INTO posts
		(id, title, content, author_id, tags, like_count, comment_count, is_featured, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Content, p.Author.ID, encodeStrings(p.Tags),
		p.LikeCount, p.CommentCount, p.IsFeatured, p.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("upsert post %d: %w", p.ID, err)
	}
	return nil
}

// UpsertLearningRecord inserts or replaces r.
func (c *SQLCatalog) UpsertLearningRecord(ctx context.Context, r models.LearningRecord) error {
	_, err := c.db.ExecContext(ctx, `INSERT OR REPLACE INTO learning_records
		(user_id, algorithm_id, progress, interests, last_accessed) VALUES (?, ?, ?, ?, ?)`,
		r.UserID, r.AlgorithmID, r.Progress, encodeStrings(r.Interests), r.LastAccessed.Unix())
	if err != nil {
		return fmt.Errorf("upsert learning record %d/%d: %w", r.UserID, r.AlgorithmID, err)
	}
	return nil
}

// AddInteraction records that userID performed kind on postID at t.
func (c *SQLCatalog) AddInteraction(ctx context.Context, userID, postID int64, kind string, t time.Time) error {
	switch kind {
	case KindLike, KindFavorite, KindComment:
	default:
		return fmt.Errorf("unknown interaction kind %q", kind)
	}
	_, err := c.db.ExecContext(ctx, `INSERT OR REPLACE INTO post_interactions
		(user_id, post_id, kind, created_at) VALUES (?, ?, ?, ?)`, userID, postID, kind, t.Unix())
	if err != nil {
		return fmt.Errorf("add interaction: %w", err)
	}
	return nil
}

// LinkPost associates a post with an algorithm.
func (c *SQLCatalog) LinkPost(ctx context.Context, algorithmID, postID int64) error {
	_, err := c.db.ExecContext(ctx, `INSERT OR REPLACE INTO algorithm_posts (algorithm_id, post_id) VALUES (?, ?)`,
		algorithmID, postID)
	if err != nil {
		return fmt.Errorf("link post: %w", err)
	}
	return nil
}

// ImportSnapshot writes every entity of snap. Interactions are timestamped
// one second apart in snapshot order so their recency is preserved.
func (c *SQLCatalog) ImportSnapshot(ctx context.Context, snap *Snapshot) error {
	for _, u := range snap.Users {
		if err := c.UpsertUser(ctx, u); err != nil {
			return err
		}
	}
	for _, a := range snap.Algorithms {
		if err := c.UpsertAlgorithm(ctx, a); err != nil {
			return err
		}
	}
	for _, p := range snap.Posts {
		if err := c.UpsertPost(ctx, p); err != nil {
			return err
		}
	}
	for _, r := range snap.LearningRecords {
		if err := c.UpsertLearningRecord(ctx, r); err != nil {
			return err
		}
	}
	base := time.Now().Add(-time.Duration(len(snap.Interactions)) * time.Second)
	for i, in := range snap.Interactions {
		if err := c.AddInteraction(ctx, in.UserID, in.PostID, in.Kind, base.Add(time.Duration(i)*time.Second)); err != nil {
			return err
		}
	}
	for _, l := range snap.Links {
		if err := c.LinkPost(ctx, l.AlgorithmID, l.PostID); err != nil {
			return err
		}
	}
	return nil
}

// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/lodestar/internal/embedding"
	"github.com/tomtom215/lodestar/internal/metrics"
	"github.com/tomtom215/lodestar/internal/models"
	"github.com/tomtom215/lodestar/internal/vectorstore"
)

// Metadata keys written alongside vectors.
const (
	metaID                = "id"
	metaName              = "name"
	metaTitle             = "title"
	metaDifficulty        = "difficulty"
	metaCategory          = "category"
	metaTags              = "tags"
	metaAuthorID          = "author_id"
	metaAuthorUsername    = "author_username"
	metaLikeCount         = "like_count"
	metaCommentCount      = "comment_count"
	metaIsFeatured        = "is_featured"
	metaCreatedAt         = "created_at"
	metaUpdatedAt         = "updated_at"
	metaUsername          = "username"
	metaTotalPosts        = "total_posts"
	metaTotalLikes        = "total_likes"
	metaTotalFavorites    = "total_favorites"
	metaLearnedAlgorithms = "learned_algorithms"
)

// Entity kinds accepted by IndexEntity and RemoveEntity.
const (
	EntityAlgorithm = "algorithm"
	EntityPost      = "post"
	EntityUser      = "user"
)

// IndexAlgorithm embeds a and replaces its record in the algorithms
// collection. Indexing the same algorithm twice is harmless.
func (e *Engine) IndexAlgorithm(ctx context.Context, a *models.Algorithm) error {
	start := time.Now()
	defer func() { metrics.RecordOperation("index_algorithm", time.Since(start)) }()

	vec, err := e.embedder.Embed(ctx, embedding.AlgorithmText(a))
	if err != nil {
		return fmt.Errorf("embed algorithm %d: %w", a.ID, err)
	}
	err = e.algorithms.Upsert(ctx, vectorstore.Record{
		ID:     a.ID,
		Vector: vec,
		Metadata: map[string]any{
			metaID:         a.ID,
			metaName:       a.Name,
			metaDifficulty: string(a.Difficulty),
			metaCategory:   a.Category,
			metaTags:       stringsOrEmpty(a.Tags),
			metaUpdatedAt:  e.now().UTC().Unix(),
		},
		Document: a.Description,
	})
	if err != nil {
		return fmt.Errorf("store algorithm %d: %w", a.ID, err)
	}
	e.logger.Debug().Int64("algorithm_id", a.ID).Msg("algorithm indexed")
	return nil
}

// IndexPost embeds p and replaces its record in the posts collection.
func (e *Engine) IndexPost(ctx context.Context, p *models.Post) error {
	start := time.Now()
	defer func() { metrics.RecordOperation("index_post", time.Since(start)) }()

	vec, err := e.embedder.Embed(ctx, embedding.PostText(p))
	if err != nil {
		return fmt.Errorf("embed post %d: %w", p.ID, err)
	}
	created := p.CreatedAt
	if created.IsZero() {
		created = e.now()
	}
	err = e.posts.Upsert(ctx, vectorstore.Record{
		ID:     p.ID,
		Vector: vec,
		Metadata: map[string]any{
			metaID:             p.ID,
			metaTitle:          p.Title,
			metaAuthorID:       p.Author.ID,
			metaAuthorUsername: p.Author.Username,
			metaTags:           stringsOrEmpty(p.Tags),
			metaLikeCount:      p.LikeCount,
			metaCommentCount:   p.CommentCount,
			metaIsFeatured:     p.IsFeatured,
			metaCreatedAt:      created.UTC().Unix(),
			metaUpdatedAt:      e.now().UTC().Unix(),
		},
		Document: embedding.PostDocument(p),
	})
	if err != nil {
		return fmt.Errorf("store post %d: %w", p.ID, err)
	}
	e.logger.Debug().Int64("post_id", p.ID).Msg("post indexed")
	return nil
}

// RemoveAlgorithm drops an algorithm's vector. Missing records are not an
// error.
func (e *Engine) RemoveAlgorithm(ctx context.Context, id int64) error {
	if err := e.algorithms.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete algorithm %d: %w", id, err)
	}
	return nil
}

// RemovePost drops a post's vector.
func (e *Engine) RemovePost(ctx context.Context, id int64) error {
	if err := e.posts.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete post %d: %w", id, err)
	}
	return nil
}

// IndexEntity loads an entity from the catalog and indexes it. An entity
// that no longer exists has its vector removed instead, so replaying a
// stale job converges on the catalog state.
func (e *Engine) IndexEntity(ctx context.Context, kind string, id int64) error {
	switch kind {
	case EntityAlgorithm:
		a, err := e.catalog.Algorithm(ctx, id)
		if isNotFound(err) {
			return e.RemoveAlgorithm(ctx, id)
		}
		if err != nil {
			return err
		}
		return e.IndexAlgorithm(ctx, a)
	case EntityPost:
		p, err := e.catalog.Post(ctx, id)
		if isNotFound(err) {
			return e.RemovePost(ctx, id)
		}
		if err != nil {
			return err
		}
		return e.IndexPost(ctx, p)
	case EntityUser:
		return e.RefreshUserProfile(ctx, id)
	default:
		return invalidArgument("unknown entity kind %q", kind)
	}
}

// RemoveEntity drops the vector of an entity.
func (e *Engine) RemoveEntity(ctx context.Context, kind string, id int64) error {
	switch kind {
	case EntityAlgorithm:
		return e.RemoveAlgorithm(ctx, id)
	case EntityPost:
		return e.RemovePost(ctx, id)
	case EntityUser:
		if err := e.users.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete user vector %d: %w", id, err)
		}
		return nil
	default:
		return invalidArgument("unknown entity kind %q", kind)
	}
}

// ReindexAlgorithms indexes every algorithm of the catalog and returns how
// many were written. Failures of single algorithms are logged and skipped.
func (e *Engine) ReindexAlgorithms(ctx context.Context) (int, error) {
	all, err := e.catalog.Algorithms(ctx)
	if err != nil {
		return 0, fmt.Errorf("list algorithms: %w", err)
	}
	n := 0
	for i := range all {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if err := e.IndexAlgorithm(ctx, &all[i]); err != nil {
			e.logger.Warn().Err(err).Int64("algorithm_id", all[i].ID).Msg("reindex algorithm failed")
			continue
		}
		n++
	}
	e.logger.Info().Int("indexed", n).Int("total", len(all)).Msg("algorithms reindexed")
	return n, nil
}

// ReindexPosts indexes every post of the catalog and returns how many were
// written. It rebuilds the posts collection after a reset or after lost
// vectorize jobs. Failures of single posts are logged and skipped.
func (e *Engine) ReindexPosts(ctx context.Context) (int, error) {
	all, err := e.catalog.Posts(ctx)
	if err != nil {
		return 0, fmt.Errorf("list posts: %w", err)
	}
	n := 0
	for i := range all {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if err := e.IndexPost(ctx, &all[i]); err != nil {
			e.logger.Warn().Err(err).Int64("post_id", all[i].ID).Msg("reindex post failed")
			continue
		}
		n++
	}
	e.logger.Info().Int("indexed", n).Int("total", len(all)).Msg("posts reindexed")
	return n, nil
}

// ResetCollection removes every record of the named collection.
func (e *Engine) ResetCollection(ctx context.Context, name string) error {
	c, err := e.store.Collection(name)
	if err != nil {
		return err
	}
	if err := c.Reset(ctx); err != nil {
		return fmt.Errorf("reset collection %s: %w", name, err)
	}
	metrics.SetCollectionSize(name, 0)
	e.logger.Info().Str("collection", name).Msg("collection reset")
	return nil
}

// CollectionStats counts the named collection.
func (e *Engine) CollectionStats(ctx context.Context, name string) (vectorstore.CollectionStats, error) {
	c, err := e.store.Collection(name)
	if err != nil {
		return vectorstore.CollectionStats{}, err
	}
	return vectorstore.Stats(ctx, c)
}

// HealthCheck counts every collection. The status is degraded when any
// collection cannot be counted and not_initialized when the store has no
// collections.
func (e *Engine) HealthCheck(ctx context.Context) Health {
	h := Health{
		Status:      HealthHealthy,
		Model:       e.embedder.Model(),
		Collections: make(map[string]CollectionHealth),
		Timestamp:   e.now().UTC(),
	}

	names := e.store.Names()
	if len(names) == 0 {
		h.Status = HealthNotInitialized
		return h
	}
	for _, name := range names {
		st, err := e.CollectionStats(ctx, name)
		if err != nil {
			h.Status = HealthDegraded
			h.Collections[name] = CollectionHealth{Collection: name, Error: err.Error()}
			continue
		}
		metrics.SetCollectionSize(name, st.TotalItems)
		h.Collections[name] = CollectionHealth{
			Collection:  st.Collection,
			TotalItems:  st.TotalItems,
			LastUpdated: st.LastUpdated,
		}
	}
	return h
}

func stringsOrEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

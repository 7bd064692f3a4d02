// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package recommend

import (
	"context"
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/tomtom215/lodestar/internal/embedding"
	"github.com/tomtom215/lodestar/internal/metrics"
	"github.com/tomtom215/lodestar/internal/models"
	"github.com/tomtom215/lodestar/internal/vectorstore"
)

// anonymousAuthor is shown for posts without a known author.
const anonymousAuthor = "Anonymous"

// relatedEntry is a related post before pagination.
type relatedEntry struct {
	post      models.Post
	relation  Relation
	relevance float64
	reason    string
}

// RelatedPosts lists posts related to an algorithm: posts explicitly linked
// to it first, then posts similar to the algorithm's vector, personalized
// by userID's progress on it. When the similarity path fails, tag and
// keyword matches are used instead. A zero userID means an anonymous
// viewer.
//
// page starts at 1; zero values select the first page and the default
// page size.
func (e *Engine) RelatedPosts(ctx context.Context, algorithmID, userID int64, page, perPage int) (*RelatedPostsPage, error) {
	start := time.Now()
	defer func() { metrics.RecordOperation("related_posts", time.Since(start)) }()

	cfg := e.config.Related
	if page == 0 {
		page = 1
	}
	if perPage == 0 {
		perPage = cfg.DefaultPerPage
	}
	if page < 1 {
		return nil, invalidArgument("page must be positive, got %d", page)
	}
	if perPage < 1 || perPage > cfg.MaxPerPage {
		return nil, invalidArgument("per_page must be in [1, %d], got %d", cfg.MaxPerPage, perPage)
	}

	alg, err := e.catalog.Algorithm(ctx, algorithmID)
	if err != nil {
		return nil, err
	}
	logger := e.logger.With().Int64("algorithm_id", algorithmID).Int64("user_id", userID).Logger()

	entries, err := e.directPosts(ctx, algorithmID)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{}, len(entries))
	for _, en := range entries {
		seen[en.post.ID] = struct{}{}
	}

	semantic, err := e.semanticPosts(ctx, alg, userID, seen)
	if err != nil {
		logger.Warn().Err(err).Msg("vector related posts failed, using tag match")
		metrics.RecordFallback("related_posts", string(RelationFallback))
		fallback, ferr := e.tagMatchedPosts(ctx, alg, seen)
		if ferr != nil {
			return nil, fmt.Errorf("related posts fallback: %w", ferr)
		}
		entries = append(entries, fallback...)
	} else {
		entries = append(entries, semantic...)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].relevance != entries[j].relevance {
			return entries[i].relevance > entries[j].relevance
		}
		if ri, rj := entries[i].relation.rank(), entries[j].relation.rank(); ri != rj {
			return ri < rj
		}
		return entries[i].post.ID < entries[j].post.ID
	})

	total := len(entries)
	from := (page - 1) * perPage
	to := from + perPage
	if from > total {
		from = total
	}
	if to > total {
		to = total
	}

	posts := make([]RelatedPost, 0, to-from)
	for _, en := range entries[from:to] {
		posts = append(posts, e.relatedPost(en))
	}

	tags := alg.Tags
	if tags == nil {
		tags = []string{}
	}
	return &RelatedPostsPage{
		Posts: posts,
		Pagination: Pagination{
			Page:    page,
			PerPage: perPage,
			Total:   total,
			Pages:   (total + perPage - 1) / perPage,
		},
		Algorithm: AlgorithmSummary{ID: alg.ID, Name: alg.Name, Tags: tags},
	}, nil
}

func (e *Engine) directPosts(ctx context.Context, algorithmID int64) ([]relatedEntry, error) {
	ids, err := e.catalog.LinkedPostIDs(ctx, algorithmID)
	if err != nil {
		return nil, fmt.Errorf("load linked posts: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	byID, err := e.catalog.PostsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load linked posts: %w", err)
	}
	out := make([]relatedEntry, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, relatedEntry{
				post:      p,
				relation:  RelationDirect,
				relevance: e.config.Related.DirectScore,
				reason:    ReasonOfficial,
			})
		}
	}
	return out, nil
}

// algorithmVector returns the stored vector of alg, embedding it when it
// has not been indexed yet.
func (e *Engine) algorithmVector(ctx context.Context, alg *models.Algorithm) ([]float32, error) {
	rec, ok, err := e.algorithms.Get(ctx, alg.ID)
	if err != nil {
		return nil, err
	}
	if ok {
		return rec.Vector, nil
	}
	return e.embedder.Embed(ctx, embedding.AlgorithmText(alg))
}

func (e *Engine) semanticPosts(ctx context.Context, alg *models.Algorithm, userID int64, seen map[int64]struct{}) ([]relatedEntry, error) {
	cfg := e.config.Related

	vec, err := e.algorithmVector(ctx, alg)
	if err != nil {
		return nil, err
	}
	matches, err := vectorstore.Search(ctx, e.posts, vec, vectorstore.SearchOptions{
		Limit:         cfg.FetchLimit,
		MinSimilarity: cfg.MinSimilarity,
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}

	var progress float64
	if userID != 0 {
		records, err := e.catalog.LearningRecords(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load learning records: %w", err)
		}
		for _, r := range records {
			if r.AlgorithmID == alg.ID {
				progress = r.Progress
				break
			}
		}
	}

	ids := make([]int64, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	byID, err := e.catalog.PostsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load similar posts: %w", err)
	}

	now := e.now()
	out := make([]relatedEntry, 0, len(matches))
	for _, m := range matches {
		p, ok := byID[m.ID]
		if !ok {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}

		b := e.scoreRelated(m.Similarity, &p, progress, now)
		out = append(out, relatedEntry{
			post:      p,
			relation:  RelationSemantic,
			relevance: round2(b.Total()),
			reason:    e.relatedReason(m.Similarity, b),
		})
	}
	return out, nil
}

// tagMatchedPosts finds posts sharing a tag with alg, then posts whose
// title or content mention one of the algorithm's keywords.
func (e *Engine) tagMatchedPosts(ctx context.Context, alg *models.Algorithm, seen map[int64]struct{}) ([]relatedEntry, error) {
	cfg := e.config.Related

	var found []models.Post
	if len(alg.Tags) > 0 {
		byTag, err := e.catalog.PostsByTags(ctx, alg.Tags, cfg.TagLimit)
		if err != nil {
			return nil, err
		}
		found = append(found, byTag...)
	}
	if keywords := e.config.keywordsFor(alg.Name); len(keywords) > 0 {
		byKeyword, err := e.catalog.PostsByKeywords(ctx, keywords, cfg.KeywordLimit)
		if err != nil {
			return nil, err
		}
		found = append(found, byKeyword...)
	}

	out := make([]relatedEntry, 0, len(found))
	local := make(map[int64]struct{}, len(found))
	for _, p := range found {
		if len(local) == cfg.FallbackLimit {
			break
		}
		if _, dup := local[p.ID]; dup {
			continue
		}
		local[p.ID] = struct{}{}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, relatedEntry{
			post:      p,
			relation:  RelationFallback,
			relevance: cfg.FallbackScore,
			reason:    ReasonTagMatch,
		})
	}
	return out, nil
}

func (e *Engine) relatedPost(en relatedEntry) RelatedPost {
	p := en.post
	author := p.Author.Username
	if author == "" {
		author = anonymousAuthor
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return RelatedPost{
		ID:             p.ID,
		Title:          p.Title,
		Content:        excerpt(p.Content, e.config.Related.ExcerptLength),
		Author:         author,
		CreatedAt:      p.CreatedAt,
		LikeCount:      p.LikeCount,
		CommentCount:   p.CommentCount,
		Tags:           tags,
		RelationType:   en.relation,
		RelevanceScore: en.relevance,
		Reason:         en.reason,
	}
}

// excerpt shortens s to n characters followed by "..." when longer.
func excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return embedding.Truncate(s, n) + "..."
}

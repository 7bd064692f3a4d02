// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package recommend

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/lodestar/internal/catalog"
	"github.com/tomtom215/lodestar/internal/embedding"
	"github.com/tomtom215/lodestar/internal/logging"
	"github.com/tomtom215/lodestar/internal/metrics"
	"github.com/tomtom215/lodestar/internal/models"
	"github.com/tomtom215/lodestar/internal/vecmath"
	"github.com/tomtom215/lodestar/internal/vectorstore"
)

// Engine orchestrates profile building, similarity search, score fusion
// and fallbacks. It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger

	catalog  catalog.Catalog
	embedder embedding.Embedder
	store    vectorstore.Store

	algorithms vectorstore.Collection
	posts      vectorstore.Collection
	users      vectorstore.Collection

	now func() time.Time

	requestCount  atomic.Int64
	fallbackCount atomic.Int64
	errorCount    atomic.Int64
}

// NewEngine creates a recommendation engine. The embedder dimension must
// match the store's collections.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, cat catalog.Catalog, emb embedding.Embedder, store vectorstore.Store, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cat == nil || emb == nil || store == nil {
		return nil, fmt.Errorf("catalog, embedder and store are required")
	}

	e := &Engine{
		config:   cfg,
		logger:   logger.With().Str("component", "recommend").Logger(),
		catalog:  cat,
		embedder: emb,
		store:    store,
		now:      time.Now,
	}

	colls := map[string]*vectorstore.Collection{
		vectorstore.CollectionAlgorithms: &e.algorithms,
		vectorstore.CollectionPosts:      &e.posts,
		vectorstore.CollectionUsers:      &e.users,
	}
	for name, dst := range colls {
		c, err := store.Collection(name)
		if err != nil {
			return nil, fmt.Errorf("open collection %s: %w", name, err)
		}
		if c.Dimension() != emb.Dimension() {
			return nil, &vectorstore.DimensionMismatchError{
				Collection: name,
				Expected:   c.Dimension(),
				Actual:     emb.Dimension(),
			}
		}
		*dst = c
	}

	return e, nil
}

// SetClock overrides the time source used for freshness bonuses.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Config returns the engine configuration. Callers must not modify it.
func (e *Engine) Config() *Config {
	return e.config
}

// Counters returns request, fallback and error totals since start.
func (e *Engine) Counters() (requests, fallbacks, failures int64) {
	return e.requestCount.Load(), e.fallbackCount.Load(), e.errorCount.Load()
}

// activity is everything the engine reads about one user.
type activity struct {
	userID       int64
	records      []models.LearningRecord
	interactions *models.Interactions

	// learned maps each learning record's algorithm id to the algorithm,
	// when it still exists.
	learned map[int64]*models.Algorithm
}

func (a *activity) progressFor(algorithmID int64) (float64, bool) {
	for _, r := range a.records {
		if r.AlgorithmID == algorithmID {
			return r.Progress, true
		}
	}
	return 0, false
}

// loadActivity reads a user's learning records, interactions and the
// algorithms behind the records.
func (e *Engine) loadActivity(ctx context.Context, userID int64) (*activity, error) {
	records, err := e.catalog.LearningRecords(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load learning records: %w", err)
	}
	interactions, err := e.catalog.Interactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load interactions: %w", err)
	}
	if interactions == nil {
		interactions = &models.Interactions{}
	}

	act := &activity{
		userID:       userID,
		records:      records,
		interactions: interactions,
		learned:      make(map[int64]*models.Algorithm, len(records)),
	}
	for _, r := range records {
		a, err := e.catalog.Algorithm(ctx, r.AlgorithmID)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("load learned algorithm %d: %w", r.AlgorithmID, err)
		}
		act.learned[r.AlgorithmID] = a
	}
	return act, nil
}

// Recommend returns algorithm and post recommendations for userID.
//
// Failures of the embedder or vector store are logged and answered from
// the fallback chain. An error is returned only when the catalog cannot be
// read at all.
func (e *Engine) Recommend(ctx context.Context, userID int64) (*Response, error) {
	start := time.Now()
	e.requestCount.Add(1)

	if e.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.RequestTimeout)
		defer cancel()
	}

	requestID := logging.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = logging.GenerateRequestID()
	}
	logger := e.logger.With().
		Str("request_id", requestID).
		Int64("user_id", userID).
		Logger()
	logger.Debug().Msg("processing recommendation request")

	act, err := e.loadActivity(ctx, userID)
	if err != nil {
		e.errorCount.Add(1)
		return nil, err
	}

	profile, err := e.profileVector(ctx, act)
	if err != nil {
		logger.Warn().Err(err).Msg("profile vector unavailable, using fallback")
		profile = nil
	}
	profileEmpty := profile == nil || vecmath.IsZero(profile)

	var (
		algs, posts     []ScoredCandidate
		algErr, postErr error
	)
	algStrat, postStr := StrategyVectorSimilarity, StrategyVectorSimilarity

	if !profileEmpty {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			algs, algErr = e.primaryAlgorithms(gctx, profile)
			return nil
		})
		g.Go(func() error {
			posts, postErr = e.primaryPosts(gctx, profile, act)
			return nil
		})
		_ = g.Wait()

		if algErr != nil {
			logger.Warn().Err(algErr).Msg("vector algorithm recommendation failed")
		}
		if postErr != nil {
			logger.Warn().Err(postErr).Msg("vector post recommendation failed")
		}
	}

	if len(algs) == 0 {
		algs, algStrat = e.fallbackAlgorithms(ctx, act, logger)
		e.fallbackCount.Add(1)
		metrics.RecordFallback(KindAlgorithm, string(algStrat))
	}
	if len(posts) == 0 {
		posts, postStr = e.fallbackPosts(ctx, act, logger)
		metrics.RecordFallback(KindPost, string(postStr))
	}

	stats := Stats{
		UserKnowledgeCount:   len(act.records),
		UserInteractions:     act.interactions.Count(),
		RecommendationMethod: algStrat,
		AlgorithmStrategy:    algStrat,
		PostStrategy:         postStr,
	}
	if n, err := e.catalog.CountAlgorithms(ctx); err == nil {
		stats.AlgorithmsAnalyzed = n
	} else {
		logger.Warn().Err(err).Msg("count algorithms failed")
	}
	if n, err := e.catalog.CountPosts(ctx); err == nil {
		stats.PostsAnalyzed = n
	} else {
		logger.Warn().Err(err).Msg("count posts failed")
	}

	if algs == nil {
		algs = []ScoredCandidate{}
	}
	if posts == nil {
		posts = []ScoredCandidate{}
	}

	latency := time.Since(start)
	metrics.RecordRecommendation(string(stats.RecommendationMethod), latency, len(algs), len(posts))

	logger.Debug().
		Str("algorithm_strategy", string(algStrat)).
		Str("post_strategy", string(postStr)).
		Int("algorithms", len(algs)).
		Int("posts", len(posts)).
		Dur("latency", latency).
		Msg("recommendation complete")

	return &Response{
		Algorithms: algs,
		Posts:      posts,
		Stats:      stats,
		Metadata: ResponseMetadata{
			RequestID:    requestID,
			UserID:       userID,
			ProfileEmpty: profileEmpty,
			LatencyMS:    latency.Milliseconds(),
			Timestamp:    e.now().UTC(),
		},
	}, nil
}

// primaryAlgorithms ranks algorithms by similarity to the profile.
func (e *Engine) primaryAlgorithms(ctx context.Context, profile []float32) ([]ScoredCandidate, error) {
	start := time.Now()
	defer func() { metrics.RecordOperation("search_algorithms", time.Since(start)) }()

	cfg := e.config.Algorithms
	matches, err := vectorstore.Search(ctx, e.algorithms, profile, vectorstore.SearchOptions{
		Limit:         cfg.FetchLimit,
		MinSimilarity: cfg.MinSimilarity,
	})
	if err != nil {
		return nil, err
	}

	out := make([]ScoredCandidate, 0, cfg.ResultLimit)
	for _, m := range matches {
		if len(out) == cfg.ResultLimit {
			break
		}
		a, err := e.catalog.Algorithm(ctx, m.ID)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}
		out = append(out, ScoredCandidate{
			ID:         a.ID,
			Kind:       KindAlgorithm,
			Title:      a.Name,
			Similarity: m.Similarity,
			FinalScore: round2(m.Similarity * 100),
			Reasons:    []string{ReasonInterestBased},
			Strategy:   StrategyVectorSimilarity,
			Algorithm:  a,
		})
	}
	return out, nil
}

// primaryPosts ranks posts not written by the user by fused score.
func (e *Engine) primaryPosts(ctx context.Context, profile []float32, act *activity) ([]ScoredCandidate, error) {
	start := time.Now()
	defer func() { metrics.RecordOperation("search_posts", time.Since(start)) }()

	cfg := e.config.Posts
	matches, err := vectorstore.Search(ctx, e.posts, profile, vectorstore.SearchOptions{
		Limit:         cfg.FetchLimit,
		MinSimilarity: cfg.MinSimilarity,
		Filter: vectorstore.Filter{
			Conditions: []vectorstore.Condition{vectorstore.Ne(metaAuthorID, act.userID)},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	byID, err := e.catalog.PostsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := e.now()
	out := make([]ScoredCandidate, 0, len(matches))
	for _, m := range matches {
		p, ok := byID[m.ID]
		if !ok || p.Author.ID == act.userID {
			continue
		}
		b := e.scorePost(m.Similarity, &p, act, now)
		out = append(out, ScoredCandidate{
			ID:         p.ID,
			Kind:       KindPost,
			Title:      p.Title,
			Similarity: m.Similarity,
			Bonuses:    &b,
			FinalScore: round2(b.Total()),
			Reasons:    e.postReasons(b),
			Strategy:   StrategyVectorSimilarity,
			Post:       &p,
		})
	}

	sortCandidates(out)
	if len(out) > cfg.ResultLimit {
		out = out[:cfg.ResultLimit]
	}
	return out, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lodestar/internal/models"
)

// fallbackAlgorithms runs the rule-based algorithm chain. When the chain
// fails it degrades to a system pick, and when that fails too it returns
// an empty list.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) fallbackAlgorithms(ctx context.Context, act *activity, logger zerolog.Logger) ([]ScoredCandidate, Strategy) {
	out, strategy, err := e.algorithmChain(ctx, act)
	if err == nil {
		return out, strategy
	}
	logger.Warn().Err(err).Msg("algorithm fallback chain failed, using system pick")

	out, err = e.systemPick(ctx)
	if err != nil {
		e.errorCount.Add(1)
		logger.Error().Err(err).Msg("system pick failed")
		return nil, StrategyNone
	}
	if len(out) == 0 {
		return nil, StrategyNone
	}
	return out, StrategySystemPick
}

// algorithmChain picks algorithms without similarity:
//
//  1. a user without learning records gets the newest algorithms;
//  2. one unlearned algorithm per difficulty level the user has not tried;
//  3. then unlearned algorithms not already picked, until the list is full;
//  4. a user who has learned everything gets the lowest-progress algorithm
//     for review.
func (e *Engine) algorithmChain(ctx context.Context, act *activity) ([]ScoredCandidate, Strategy, error) {
	cfg := e.config.Fallback

	all, err := e.catalog.Algorithms(ctx)
	if err != nil {
		return nil, StrategyNone, fmt.Errorf("list algorithms: %w", err)
	}

	if len(act.records) == 0 {
		newest := make([]models.Algorithm, len(all))
		copy(newest, all)
		sort.SliceStable(newest, func(i, j int) bool {
			if !newest[i].CreatedAt.Equal(newest[j].CreatedAt) {
				return newest[i].CreatedAt.After(newest[j].CreatedAt)
			}
			return newest[i].ID > newest[j].ID
		})
		if len(newest) > cfg.NewestLimit {
			newest = newest[:cfg.NewestLimit]
		}
		out := make([]ScoredCandidate, 0, len(newest))
		for i := range newest {
			out = append(out, fallbackCandidate(&newest[i], cfg.NewestScore, ReasonNewest, StrategyNewest))
		}
		if len(out) == 0 {
			return nil, StrategyNone, nil
		}
		return out, StrategyNewest, nil
	}

	learnedIDs := make(map[int64]struct{}, len(act.records))
	for _, r := range act.records {
		learnedIDs[r.AlgorithmID] = struct{}{}
	}
	var unlearned []models.Algorithm
	for _, a := range all {
		if _, ok := learnedIDs[a.ID]; !ok {
			unlearned = append(unlearned, a)
		}
	}

	out := make([]ScoredCandidate, 0, cfg.NewestLimit)
	picked := make(map[int64]struct{})

	tried := act.learnedDifficulties()
	for _, d := range models.DifficultyLevels {
		if len(out) >= cfg.DifficultyLimit {
			break
		}
		if _, ok := tried[d]; ok {
			continue
		}
		for i := range unlearned {
			if unlearned[i].Difficulty == d {
				out = append(out, fallbackCandidate(&unlearned[i], cfg.DifficultyScore, DifficultyReason(d), StrategyDifficultyGap))
				picked[unlearned[i].ID] = struct{}{}
				break
			}
		}
	}

	for i := range unlearned {
		if len(out) >= cfg.NewestLimit {
			break
		}
		if _, ok := picked[unlearned[i].ID]; ok {
			continue
		}
		out = append(out, fallbackCandidate(&unlearned[i], cfg.ExploreScore, ReasonExplore, StrategyDifficultyGap))
		picked[unlearned[i].ID] = struct{}{}
	}
	if len(out) > 0 {
		return out, StrategyDifficultyGap, nil
	}

	// Everything is learned: review the weakest one.
	byID := make(map[int64]*models.Algorithm, len(all))
	for i := range all {
		byID[all[i].ID] = &all[i]
	}
	var (
		weakest  *models.Algorithm
		progress float64
	)
	for _, r := range act.records {
		a, ok := byID[r.AlgorithmID]
		if !ok {
			continue
		}
		if weakest == nil || r.Progress < progress || (r.Progress == progress && a.ID < weakest.ID) {
			weakest, progress = a, r.Progress
		}
	}
	if weakest == nil {
		return nil, StrategyNone, nil
	}
	return []ScoredCandidate{fallbackCandidate(weakest, cfg.ReviewScore, ReasonReview, StrategyReview)}, StrategyReview, nil
}

// systemPick returns the first algorithms of the catalog.
func (e *Engine) systemPick(ctx context.Context) ([]ScoredCandidate, error) {
	cfg := e.config.Fallback
	all, err := e.catalog.Algorithms(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) > cfg.NewestLimit {
		all = all[:cfg.NewestLimit]
	}
	out := make([]ScoredCandidate, 0, len(all))
	for i := range all {
		out = append(out, fallbackCandidate(&all[i], cfg.SystemPickScore, ReasonSystemPick, StrategySystemPick))
	}
	return out, nil
}

// fallbackPosts returns the most liked posts not written by the user.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) fallbackPosts(ctx context.Context, act *activity, logger zerolog.Logger) ([]ScoredCandidate, Strategy) {
	cfg := e.config.Fallback
	posts, err := e.catalog.PopularPosts(ctx, act.userID, cfg.PostLimit)
	if err != nil {
		e.errorCount.Add(1)
		logger.Error().Err(err).Msg("popular post fallback failed")
		return nil, StrategyNone
	}
	if len(posts) == 0 {
		return nil, StrategyNone
	}

	out := make([]ScoredCandidate, 0, len(posts))
	for i := range posts {
		p := posts[i]
		out = append(out, ScoredCandidate{
			ID:         p.ID,
			Kind:       KindPost,
			Title:      p.Title,
			FinalScore: cfg.PostScore,
			Reasons:    []string{ReasonPopularContent},
			Strategy:   StrategyPopular,
			Post:       &p,
		})
	}
	return out, StrategyPopular
}

func fallbackCandidate(a *models.Algorithm, score float64, reason string, strategy Strategy) ScoredCandidate {
	alg := *a
	return ScoredCandidate{
		ID:         alg.ID,
		Kind:       KindAlgorithm,
		Title:      alg.Name,
		FinalScore: score,
		Reasons:    []string{reason},
		Strategy:   strategy,
		Algorithm:  &alg,
	}
}

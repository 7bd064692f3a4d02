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
	"github.com/tomtom215/lodestar/internal/vecmath"
	"github.com/tomtom215/lodestar/internal/vectorstore"
)

// BuildUserVector returns the profile vector of userID.
//
// A vector persisted in the users collection is returned unchanged.
// Otherwise the profile is built from the user's activity without being
// stored. A user without usable activity gets a zero vector, which callers
// must read as "no profile".
func (e *Engine) BuildUserVector(ctx context.Context, userID int64) ([]float32, error) {
	act, err := e.loadActivity(ctx, userID)
	if err != nil {
		return nil, err
	}
	return e.profileVector(ctx, act)
}

func (e *Engine) profileVector(ctx context.Context, act *activity) ([]float32, error) {
	start := time.Now()
	defer func() { metrics.RecordOperation("build_profile", time.Since(start)) }()

	rec, ok, err := e.users.Get(ctx, act.userID)
	switch {
	case err != nil:
		// The cache is optional; rebuild from activity.
		e.logger.Debug().Err(err).Int64("user_id", act.userID).Msg("user vector lookup failed")
	case ok && len(rec.Vector) == e.embedder.Dimension() && !vecmath.IsZero(rec.Vector):
		return rec.Vector, nil
	}

	text, err := e.profileText(ctx, act)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return vecmath.Zero(e.embedder.Dimension()), nil
	}
	return e.embedder.Embed(ctx, text)
}

// profileText renders the user's activity as one embedding input. It is
// empty when the user has nothing worth profiling.
func (e *Engine) profileText(ctx context.Context, act *activity) (string, error) {
	cfg := e.config.Profile
	var parts []string

	for _, r := range act.records {
		if r.Progress <= cfg.MinProgress {
			continue
		}
		a, ok := act.learned[r.AlgorithmID]
		if !ok {
			continue
		}
		parts = append(parts, embedding.LearningFragment(a.Name, r.Progress, r.Interests))
	}

	in := act.interactions
	liked := firstN(in.Liked, cfg.InteractionLimit)
	favorited := firstN(in.Favorited, cfg.InteractionLimit)
	commented := firstN(in.Commented, cfg.InteractionLimit)
	authored := firstN(in.Authored, cfg.AuthoredLimit)

	ids := make([]int64, 0, len(liked)+len(favorited)+len(commented)+len(authored))
	ids = append(ids, liked...)
	ids = append(ids, favorited...)
	ids = append(ids, commented...)
	ids = append(ids, authored...)
	if len(ids) > 0 {
		posts, err := e.catalog.PostsByIDs(ctx, ids)
		if err != nil {
			return "", fmt.Errorf("load profile posts: %w", err)
		}
		for _, group := range []struct {
			action string
			ids    []int64
		}{
			{embedding.ActionLiked, liked},
			{embedding.ActionFavorited, favorited},
			{embedding.ActionCommented, commented},
		} {
			for _, id := range group.ids {
				if p, ok := posts[id]; ok {
					parts = append(parts, embedding.InteractionFragment(group.action, p.Title, p.Tags))
				}
			}
		}
		for _, id := range authored {
			if p, ok := posts[id]; ok {
				parts = append(parts, embedding.AuthoredFragment(p.Title, p.Content, p.Tags))
			}
		}
	}

	return embedding.JoinFragments(parts), nil
}

// RefreshUserProfile rebuilds the profile vector of userID from its
// current activity and persists it in the users collection. A user without
// usable activity has any stored vector removed.
func (e *Engine) RefreshUserProfile(ctx context.Context, userID int64) error {
	start := time.Now()
	defer func() { metrics.RecordOperation("refresh_profile", time.Since(start)) }()

	act, err := e.loadActivity(ctx, userID)
	if err != nil {
		return err
	}
	text, err := e.profileText(ctx, act)
	if err != nil {
		return err
	}
	if text == "" {
		if err := e.users.Delete(ctx, userID); err != nil {
			return fmt.Errorf("delete user vector %d: %w", userID, err)
		}
		e.logger.Debug().Int64("user_id", userID).Msg("user has no profile, vector removed")
		return nil
	}

	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed user %d: %w", userID, err)
	}

	username := ""
	if u, err := e.catalog.User(ctx, userID); err == nil {
		username = u.Username
	} else if !isNotFound(err) {
		return fmt.Errorf("load user %d: %w", userID, err)
	}

	learned := make([]any, 0, len(act.records))
	for _, r := range act.records {
		learned = append(learned, r.AlgorithmID)
	}

	err = e.users.Upsert(ctx, vectorstore.Record{
		ID:     userID,
		Vector: vec,
		Metadata: map[string]any{
			metaID:                userID,
			metaUsername:          username,
			metaTotalPosts:        len(act.interactions.Authored),
			metaTotalLikes:        len(act.interactions.Liked),
			metaTotalFavorites:    len(act.interactions.Favorited),
			metaLearnedAlgorithms: learned,
			metaUpdatedAt:         e.now().UTC().Unix(),
		},
		Document: fmt.Sprintf("User %d interests", userID),
	})
	if err != nil {
		return fmt.Errorf("store user vector %d: %w", userID, err)
	}

	e.logger.Debug().Int64("user_id", userID).Msg("user profile refreshed")
	return nil
}

func firstN(ids []int64, n int) []int64 {
	if n <= 0 {
		return nil
	}
	if len(ids) > n {
		return ids[:n]
	}
	return ids
}

// learnedDifficulties returns the difficulties of the user's learned
// algorithms.
func (a *activity) learnedDifficulties() map[models.Difficulty]struct{} {
	out := make(map[models.Difficulty]struct{}, len(a.learned))
	for _, alg := range a.learned {
		out[alg.Difficulty] = struct{}{}
	}
	return out
}

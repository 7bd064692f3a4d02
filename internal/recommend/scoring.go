// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package recommend

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/lodestar/internal/models"
)

// daysSince returns whole days elapsed from t to now. A zero or future t
// counts as zero days.
func daysSince(now, t time.Time) float64 {
	if t.IsZero() || !now.After(t) {
		return 0
	}
	return math.Floor(now.Sub(t).Hours() / 24)
}

// communityBonus is engagement × weight, capped.
func communityBonus(p *models.Post, weight, limit float64) float64 {
	return math.Min(float64(p.Engagement())*weight, limit)
}

// scorePost fuses similarity with learning, community and freshness
// bonuses for the post recommendation list.
func (e *Engine) scorePost(similarity float64, p *models.Post, act *activity, now time.Time) Bonuses {
	cfg := e.config.Posts

	var learning float64
	for _, r := range act.records {
		a, ok := act.learned[r.AlgorithmID]
		if !ok {
			continue
		}
		if overlap := models.TagOverlap(a.Tags, p.Tags); overlap > 0 {
			learning += r.Progress * cfg.LearningWeight * float64(overlap)
		}
	}

	fresh := 0.0
	if !p.CreatedAt.IsZero() {
		fresh = math.Max(0, cfg.FreshnessDays-daysSince(now, p.CreatedAt))
	}

	return Bonuses{
		Base:      round2(similarity * 100),
		Learning:  round2(learning),
		Community: round2(communityBonus(p, cfg.CommunityWeight, cfg.CommunityCap)),
		Time:      round2(fresh),
	}
}

// postReasons labels a fused post score, in content, learning, community
// order.
func (e *Engine) postReasons(b Bonuses) []string {
	cfg := e.config.Posts
	reasons := make([]string, 0, 3)
	if b.Base > cfg.ContentReasonAbove {
		reasons = append(reasons, ReasonContent)
	}
	if b.Learning > cfg.LearningReasonAbove {
		reasons = append(reasons, ReasonLearning)
	}
	if b.Community > cfg.CommunityReasonAbove {
		reasons = append(reasons, ReasonCommunity)
	}
	return reasons
}

// scoreRelated scores a semantically related post for an algorithm page.
// progress is the user's progress on that algorithm, zero if none.
func (e *Engine) scoreRelated(similarity float64, p *models.Post, progress float64, now time.Time) Bonuses {
	cfg := e.config.Related

	var bonus float64
	switch {
	case progress > cfg.ExperiencedProgress && p.LikeCount > cfg.ExperiencedLikes:
		bonus = cfg.ExperiencedBonus
	case progress < cfg.NoviceProgress && p.LikeCount < cfg.NoviceLikes:
		bonus = cfg.NoviceBonus
	}

	fresh := 0.0
	if !p.CreatedAt.IsZero() {
		fresh = math.Max(0, cfg.FreshnessBase-daysSince(now, p.CreatedAt)*cfg.FreshnessDecay)
	}

	return Bonuses{
		Base:      similarity * 100,
		Progress:  bonus,
		Community: communityBonus(p, cfg.CommunityWeight, cfg.CommunityCap),
		Time:      fresh,
	}
}

// relatedReason explains a semantic related-post match.
func (e *Engine) relatedReason(similarity float64, b Bonuses) string {
	cfg := e.config.Related
	var reasons []string
	switch {
	case similarity > cfg.HighlyRelevantAbove:
		reasons = append(reasons, ReasonHighlyRelevant)
	case similarity > cfg.SimilarAbove:
		reasons = append(reasons, ReasonSimilar)
	}
	if b.Progress > cfg.ProgressReasonAbove {
		reasons = append(reasons, ReasonFitsProgress)
	}
	if b.Community > cfg.CommunityReasonAbove {
		reasons = append(reasons, ReasonCommunity)
	}
	if b.Time > cfg.FreshReasonAbove {
		reasons = append(reasons, ReasonLatest)
	}
	if len(reasons) == 0 {
		return ReasonRelated
	}
	return strings.Join(reasons, reasonSeparator)
}

// sortCandidates orders by final score, then similarity, descending, then
// ascending id.
func sortCandidates(c []ScoredCandidate) {
	sort.SliceStable(c, func(i, j int) bool {
		if c[i].FinalScore != c[j].FinalScore {
			return c[i].FinalScore > c[j].FinalScore
		}
		if c[i].Similarity != c[j].Similarity {
			return c[i].Similarity > c[j].Similarity
		}
		return c[i].ID < c[j].ID
	})
}

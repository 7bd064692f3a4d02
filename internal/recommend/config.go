// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package recommend

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/lodestar/internal/vectorstore"
)

// Config contains every tunable constant of the recommendation engine.
// Defaults reproduce the scoring behavior the engine was calibrated with.
type Config struct {
	// Algorithms tunes the primary algorithm path.
	Algorithms AlgorithmConfig `koanf:"algorithms" json:"algorithms"`

	// Posts tunes the primary post path.
	Posts PostConfig `koanf:"posts" json:"posts"`

	// Related tunes the algorithm detail "related posts" list.
	Related RelatedConfig `koanf:"related" json:"related"`

	// Profile controls which user activity feeds the profile vector.
	Profile ProfileConfig `koanf:"profile" json:"profile"`

	// Fallback tunes the rule-based chain used when similarity fails.
	Fallback FallbackConfig `koanf:"fallback" json:"fallback"`

	// Keywords maps a lowercased algorithm name to extra search terms used
	// by the related-posts keyword fallback.
	Keywords map[string][]string `koanf:"keywords" json:"keywords"`

	// RequestTimeout bounds one recommendation request. Zero disables it.
	RequestTimeout time.Duration `koanf:"request_timeout" json:"request_timeout"`
}

// AlgorithmConfig tunes algorithm recommendations.
type AlgorithmConfig struct {
	// FetchLimit is how many candidates the similarity search returns.
	FetchLimit int `koanf:"fetch_limit" json:"fetch_limit"`

	// ResultLimit is how many recommendations are returned.
	ResultLimit int `koanf:"result_limit" json:"result_limit"`

	// MinSimilarity drops weaker candidates. The default keeps every
	// match, negative similarities included.
	MinSimilarity float64 `koanf:"min_similarity" json:"min_similarity"`
}

// PostConfig tunes post recommendations.
type PostConfig struct {
	FetchLimit    int     `koanf:"fetch_limit" json:"fetch_limit"`
	ResultLimit   int     `koanf:"result_limit" json:"result_limit"`
	MinSimilarity float64 `koanf:"min_similarity" json:"min_similarity"`

	// LearningWeight multiplies progress × tag overlap per learning record.
	LearningWeight float64 `koanf:"learning_weight" json:"learning_weight"`

	// CommunityWeight multiplies likes + comments, capped at CommunityCap.
	CommunityWeight float64 `koanf:"community_weight" json:"community_weight"`
	CommunityCap    float64 `koanf:"community_cap" json:"community_cap"`

	// FreshnessDays is the age in days at which the time bonus reaches zero.
	// A post created today gets FreshnessDays points.
	FreshnessDays float64 `koanf:"freshness_days" json:"freshness_days"`

	// Reason thresholds.
	ContentReasonAbove   float64 `koanf:"content_reason_above" json:"content_reason_above"`
	LearningReasonAbove  float64 `koanf:"learning_reason_above" json:"learning_reason_above"`
	CommunityReasonAbove float64 `koanf:"community_reason_above" json:"community_reason_above"`
}

// RelatedConfig tunes related posts for an algorithm.
type RelatedConfig struct {
	FetchLimit    int     `koanf:"fetch_limit" json:"fetch_limit"`
	MinSimilarity float64 `koanf:"min_similarity" json:"min_similarity"`

	DirectScore   float64 `koanf:"direct_score" json:"direct_score"`
	FallbackScore float64 `koanf:"fallback_score" json:"fallback_score"`

	// Tag and keyword fallback limits.
	TagLimit      int `koanf:"tag_limit" json:"tag_limit"`
	KeywordLimit  int `koanf:"keyword_limit" json:"keyword_limit"`
	FallbackLimit int `koanf:"fallback_limit" json:"fallback_limit"`

	// Progress bonus: experienced users get ExperiencedBonus on posts with
	// more than ExperiencedLikes likes once their progress exceeds
	// ExperiencedProgress; novices below NoviceProgress get NoviceBonus on
	// posts with fewer than NoviceLikes likes.
	ExperiencedProgress float64 `koanf:"experienced_progress" json:"experienced_progress"`
	ExperiencedLikes    int     `koanf:"experienced_likes" json:"experienced_likes"`
	ExperiencedBonus    float64 `koanf:"experienced_bonus" json:"experienced_bonus"`
	NoviceProgress      float64 `koanf:"novice_progress" json:"novice_progress"`
	NoviceLikes         int     `koanf:"novice_likes" json:"novice_likes"`
	NoviceBonus         float64 `koanf:"novice_bonus" json:"novice_bonus"`

	CommunityWeight float64 `koanf:"community_weight" json:"community_weight"`
	CommunityCap    float64 `koanf:"community_cap" json:"community_cap"`

	// Time bonus is FreshnessBase - FreshnessDecay × days, floored at zero.
	FreshnessBase  float64 `koanf:"freshness_base" json:"freshness_base"`
	FreshnessDecay float64 `koanf:"freshness_decay" json:"freshness_decay"`

	// Reason thresholds.
	HighlyRelevantAbove  float64 `koanf:"highly_relevant_above" json:"highly_relevant_above"`
	SimilarAbove         float64 `koanf:"similar_above" json:"similar_above"`
	ProgressReasonAbove  float64 `koanf:"progress_reason_above" json:"progress_reason_above"`
	CommunityReasonAbove float64 `koanf:"community_reason_above" json:"community_reason_above"`
	FreshReasonAbove     float64 `koanf:"fresh_reason_above" json:"fresh_reason_above"`

	DefaultPerPage int `koanf:"default_per_page" json:"default_per_page"`
	MaxPerPage     int `koanf:"max_per_page" json:"max_per_page"`
	ExcerptLength  int `koanf:"excerpt_length" json:"excerpt_length"`
}

// ProfileConfig controls profile vector construction.
type ProfileConfig struct {
	// MinProgress excludes learning records at or below it.
	MinProgress float64 `koanf:"min_progress" json:"min_progress"`

	// InteractionLimit caps liked, favorited and commented posts each.
	InteractionLimit int `koanf:"interaction_limit" json:"interaction_limit"`

	// AuthoredLimit caps authored posts.
	AuthoredLimit int `koanf:"authored_limit" json:"authored_limit"`
}

// FallbackConfig tunes the fallback chain.
type FallbackConfig struct {
	NewestLimit     int     `koanf:"newest_limit" json:"newest_limit"`
	NewestScore     float64 `koanf:"newest_score" json:"newest_score"`
	DifficultyLimit int     `koanf:"difficulty_limit" json:"difficulty_limit"`
	DifficultyScore float64 `koanf:"difficulty_score" json:"difficulty_score"`
	ExploreScore    float64 `koanf:"explore_score" json:"explore_score"`
	ReviewScore     float64 `koanf:"review_score" json:"review_score"`
	SystemPickScore float64 `koanf:"system_pick_score" json:"system_pick_score"`
	PostLimit       int     `koanf:"post_limit" json:"post_limit"`
	PostScore       float64 `koanf:"post_score" json:"post_score"`
}

// DefaultKeywords returns the built-in keyword map for the related-posts
// fallback.
func DefaultKeywords() map[string][]string {
	return map[string][]string{
		"gradient descent": {
			"gradient", "descent", "optimization", "optimizer",
			"梯度下降", "优化算法", "梯度",
		},
		"k-means clustering": {
			"k-means", "kmeans", "clustering", "cluster",
			"k-means", "聚类", "k均值",
		},
		"logistic regression": {
			"logistic", "regression", "classification",
			"逻辑回归", "分类", "sigmoid",
		},
		"neural network": {
			"neural", "network", "deep learning", "neural network",
			"神经网络", "深度学习", "神经元",
		},
		"principal component analysis": {
			"pca", "principal component", "dimensionality reduction",
			"主成分分析", "pca", "降维",
		},
		"perceptron": {
			"perceptron", "single layer", "basic neural",
			"感知机", "单层神经网络",
		},
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Algorithms: AlgorithmConfig{
			FetchLimit:    15,
			ResultLimit:   8,
			MinSimilarity: vectorstore.NoFloor,
		},
		Posts: PostConfig{
			FetchLimit:           12,
			ResultLimit:          6,
			MinSimilarity:        0.3,
			LearningWeight:       0.1,
			CommunityWeight:      0.5,
			CommunityCap:         15,
			FreshnessDays:        10,
			ContentReasonAbove:   60,
			LearningReasonAbove:  5,
			CommunityReasonAbove: 5,
		},
		Related: RelatedConfig{
			FetchLimit:           20,
			MinSimilarity:        0.4,
			DirectScore:          100,
			FallbackScore:        50,
			TagLimit:             10,
			KeywordLimit:         10,
			FallbackLimit:        15,
			ExperiencedProgress:  50,
			ExperiencedLikes:     10,
			ExperiencedBonus:     10,
			NoviceProgress:       30,
			NoviceLikes:          5,
			NoviceBonus:          5,
			CommunityWeight:      0.5,
			CommunityCap:         15,
			FreshnessBase:        8,
			FreshnessDecay:       0.5,
			HighlyRelevantAbove:  0.7,
			SimilarAbove:         0.5,
			ProgressReasonAbove:  5,
			CommunityReasonAbove: 8,
			FreshReasonAbove:     5,
			DefaultPerPage:       5,
			MaxPerPage:           50,
			ExcerptLength:        200,
		},
		Profile: ProfileConfig{
			MinProgress:      50,
			InteractionLimit: 5,
			AuthoredLimit:    10,
		},
		Fallback: FallbackConfig{
			NewestLimit:     8,
			NewestScore:     60,
			DifficultyLimit: 4,
			DifficultyScore: 70,
			ExploreScore:    50,
			ReviewScore:     80,
			SystemPickScore: 40,
			PostLimit:       6,
			PostScore:       50,
		},
		Keywords:       DefaultKeywords(),
		RequestTimeout: 10 * time.Second,
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Algorithms.FetchLimit < 1 {
		return fmt.Errorf("algorithms.fetch_limit must be positive, got %d", c.Algorithms.FetchLimit)
	}
	if c.Algorithms.ResultLimit < 1 || c.Algorithms.ResultLimit > c.Algorithms.FetchLimit {
		return fmt.Errorf("algorithms.result_limit must be in [1, fetch_limit], got %d", c.Algorithms.ResultLimit)
	}
	if c.Posts.FetchLimit < 1 {
		return fmt.Errorf("posts.fetch_limit must be positive, got %d", c.Posts.FetchLimit)
	}
	if c.Posts.ResultLimit < 1 || c.Posts.ResultLimit > c.Posts.FetchLimit {
		return fmt.Errorf("posts.result_limit must be in [1, fetch_limit], got %d", c.Posts.ResultLimit)
	}
	if err := checkSimilarity("algorithms.min_similarity", c.Algorithms.MinSimilarity); err != nil {
		return err
	}
	if err := checkSimilarity("posts.min_similarity", c.Posts.MinSimilarity); err != nil {
		return err
	}
	if err := checkSimilarity("related.min_similarity", c.Related.MinSimilarity); err != nil {
		return err
	}
	if c.Posts.CommunityCap < 0 || c.Related.CommunityCap < 0 {
		return fmt.Errorf("community caps must be non-negative")
	}
	if c.Posts.FreshnessDays < 0 || c.Related.FreshnessBase < 0 || c.Related.FreshnessDecay < 0 {
		return fmt.Errorf("freshness settings must be non-negative")
	}

	if c.Related.FetchLimit < 1 {
		return fmt.Errorf("related.fetch_limit must be positive, got %d", c.Related.FetchLimit)
	}
	if c.Related.DefaultPerPage < 1 {
		return fmt.Errorf("related.default_per_page must be positive, got %d", c.Related.DefaultPerPage)
	}
	if c.Related.MaxPerPage < c.Related.DefaultPerPage {
		return fmt.Errorf("related.max_per_page must be >= related.default_per_page, got %d < %d",
			c.Related.MaxPerPage, c.Related.DefaultPerPage)
	}
	if c.Related.ExcerptLength < 1 {
		return fmt.Errorf("related.excerpt_length must be positive, got %d", c.Related.ExcerptLength)
	}

	if c.Profile.MinProgress < 0 || c.Profile.MinProgress > 100 {
		return fmt.Errorf("profile.min_progress must be in [0, 100], got %f", c.Profile.MinProgress)
	}
	if c.Profile.InteractionLimit < 0 || c.Profile.AuthoredLimit < 0 {
		return fmt.Errorf("profile limits must be non-negative")
	}

	if c.Fallback.NewestLimit < 1 {
		return fmt.Errorf("fallback.newest_limit must be positive, got %d", c.Fallback.NewestLimit)
	}
	if c.Fallback.PostLimit < 1 {
		return fmt.Errorf("fallback.post_limit must be positive, got %d", c.Fallback.PostLimit)
	}

	for name := range c.Keywords {
		if name != strings.ToLower(name) {
			return fmt.Errorf("keywords key %q must be lowercase", name)
		}
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must be non-negative, got %v", c.RequestTimeout)
	}
	return nil
}

func checkSimilarity(field string, v float64) error {
	if v < -1 || v > 1 {
		return fmt.Errorf("%s must be in [-1, 1], got %f", field, v)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	if c.Keywords != nil {
		out.Keywords = make(map[string][]string, len(c.Keywords))
		for k, v := range c.Keywords {
			out.Keywords[k] = append([]string(nil), v...)
		}
	}
	return &out
}

// keywordsFor returns the deduplicated keywords for an algorithm name.
func (c *Config) keywordsFor(name string) []string {
	words := c.Keywords[strings.ToLower(strings.TrimSpace(name))]
	if len(words) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package recommend

import (
	"time"

	"github.com/tomtom215/lodestar/internal/models"
)

// Strategy names which path produced a recommendation list.
type Strategy string

const (
	// StrategyVectorSimilarity is the primary similarity path.
	StrategyVectorSimilarity Strategy = "vector_similarity"

	// StrategyNewest serves the newest algorithms to users with no
	// learning records.
	StrategyNewest Strategy = "fallback_newest"

	// StrategyDifficultyGap serves untried difficulty levels, topped up
	// with unexplored algorithms.
	StrategyDifficultyGap Strategy = "fallback_difficulty_gap"

	// StrategyReview serves the algorithm with the lowest progress once
	// everything has been learned.
	StrategyReview Strategy = "fallback_review"

	// StrategySystemPick is the last resort when the chain itself fails.
	StrategySystemPick Strategy = "fallback_system_pick"

	// StrategyPopular serves the most liked posts.
	StrategyPopular Strategy = "fallback_popular"

	// StrategyNone marks a list that no path could fill.
	StrategyNone Strategy = "none"
)

// IsFallback reports whether s is a fallback strategy.
func (s Strategy) IsFallback() bool {
	return s != StrategyVectorSimilarity && s != StrategyNone && s != ""
}

// Candidate kinds.
const (
	KindAlgorithm = "algorithm"
	KindPost      = "post"
)

// Reason labels attached to recommendations.
const (
	ReasonInterestBased  = "interest-based"
	ReasonContent        = "content relevant"
	ReasonLearning       = "learning relevant"
	ReasonCommunity      = "community popular"
	ReasonNewest         = "newest"
	ReasonExplore        = "explore new"
	ReasonReview         = "recommended for review"
	ReasonSystemPick     = "system pick"
	ReasonPopularContent = "popular content"
	ReasonOfficial       = "official association"
	ReasonHighlyRelevant = "highly relevant"
	ReasonSimilar        = "similar content"
	ReasonFitsProgress   = "fits learning progress"
	ReasonLatest         = "latest content"
	ReasonRelated        = "related"
	ReasonTagMatch       = "tag match"
)

// reasonSeparator joins related-post reasons into one string.
const reasonSeparator = " · "

// DifficultyReason is the fallback reason for a difficulty-gap pick.
func DifficultyReason(d models.Difficulty) string {
	return "suited to " + string(d) + " learners"
}

// Bonuses breaks a post score into its additive parts.
type Bonuses struct {
	Base      float64 `json:"base"`
	Learning  float64 `json:"learning_bonus"`
	Progress  float64 `json:"progress_bonus,omitempty"`
	Community float64 `json:"community_bonus"`
	Time      float64 `json:"time_bonus"`
}

// Total returns the sum of all parts.
func (b Bonuses) Total() float64 {
	return b.Base + b.Learning + b.Progress + b.Community + b.Time
}

// ScoredCandidate is one recommended algorithm or post.
type ScoredCandidate struct {
	// ID is the entity id.
	ID int64 `json:"id"`

	// Kind is KindAlgorithm or KindPost.
	Kind string `json:"kind"`

	// Title is the algorithm name or post title.
	Title string `json:"title"`

	// Similarity is the cosine similarity that ranked the candidate, zero
	// for fallback picks.
	Similarity float64 `json:"similarity_score"`

	// Bonuses is set for similarity-ranked posts.
	Bonuses *Bonuses `json:"bonuses,omitempty"`

	// FinalScore is on a 0-100 display scale, rounded to two decimals.
	FinalScore float64 `json:"final_score"`

	// Reasons explain the recommendation, most important first.
	Reasons []string `json:"recommendation_reasons"`

	// Strategy is the path that produced the candidate.
	Strategy Strategy `json:"strategy"`

	// Algorithm or Post carries the entity itself.
	Algorithm *models.Algorithm `json:"algorithm,omitempty"`
	Post      *models.Post      `json:"post,omitempty"`
}

// Stats is the diagnostic block of a recommendation response.
type Stats struct {
	// AlgorithmsAnalyzed and PostsAnalyzed are corpus sizes.
	AlgorithmsAnalyzed int `json:"algorithms_analyzed"`
	PostsAnalyzed      int `json:"posts_analyzed"`

	// UserKnowledgeCount is the number of learning records.
	UserKnowledgeCount int `json:"user_knowledge_count"`

	// UserInteractions counts likes, favorites and comments.
	UserInteractions int `json:"user_interactions"`

	// RecommendationMethod is "vector_similarity" when the algorithm list
	// came from the primary path, otherwise the fallback that served it.
	RecommendationMethod Strategy `json:"recommendation_method"`

	AlgorithmStrategy Strategy `json:"algorithm_strategy"`
	PostStrategy      Strategy `json:"post_strategy"`
}

// Response is the result of Engine.Recommend.
type Response struct {
	Algorithms []ScoredCandidate `json:"algorithms"`
	Posts      []ScoredCandidate `json:"posts"`
	Stats      Stats             `json:"stats"`
	Metadata   ResponseMetadata  `json:"metadata"`
}

// ResponseMetadata contains timing and diagnostic information.
type ResponseMetadata struct {
	// RequestID is the unique request identifier.
	RequestID string `json:"request_id"`

	// UserID is the user the recommendations are for.
	UserID int64 `json:"user_id"`

	// ProfileEmpty is true when the user had no usable profile vector.
	ProfileEmpty bool `json:"profile_empty"`

	// LatencyMS is the total recommendation latency in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// Timestamp is when the response was generated.
	Timestamp time.Time `json:"timestamp"`
}

// Relation classifies how a related post relates to an algorithm.
type Relation string

// Relation types, in display precedence.
const (
	RelationDirect   Relation = "direct"
	RelationSemantic Relation = "semantic"
	RelationFallback Relation = "fallback"
)

func (r Relation) rank() int {
	switch r {
	case RelationDirect:
		return 0
	case RelationSemantic:
		return 1
	default:
		return 2
	}
}

// RelatedPost is one entry of a related-posts page.
type RelatedPost struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Author         string    `json:"author"`
	CreatedAt      time.Time `json:"created_at"`
	LikeCount      int       `json:"like_count"`
	CommentCount   int       `json:"comment_count"`
	Tags           []string  `json:"tags"`
	RelationType   Relation  `json:"relation_type"`
	RelevanceScore float64   `json:"relevance_score"`
	Reason         string    `json:"recommendation_reason"`
}

// Pagination describes one page of a list.
type Pagination struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
	Pages   int `json:"pages"`
}

// AlgorithmSummary identifies the algorithm a related-posts page is for.
type AlgorithmSummary struct {
	ID   int64    `json:"id"`
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// RelatedPostsPage is the result of Engine.RelatedPosts.
type RelatedPostsPage struct {
	Posts      []RelatedPost    `json:"posts"`
	Pagination Pagination       `json:"pagination"`
	Algorithm  AlgorithmSummary `json:"algorithm"`
}

// HealthStatus values.
const (
	HealthHealthy        = "healthy"
	HealthDegraded       = "degraded"
	HealthNotInitialized = "not_initialized"
)

// Health is the result of Engine.HealthCheck.
type Health struct {
	Status      string                      `json:"status"`
	Model       string                      `json:"model"`
	Collections map[string]CollectionHealth `json:"collections"`
	Timestamp   time.Time                   `json:"timestamp"`
}

// CollectionHealth is the per-collection part of Health. Error is set
// when the collection could not be counted.
type CollectionHealth struct {
	Collection  string    `json:"collection"`
	TotalItems  int       `json:"total_items"`
	LastUpdated time.Time `json:"last_updated"`
	Error       string    `json:"error,omitempty"`
}

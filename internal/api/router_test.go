// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/lodestar/internal/catalog"
	"github.com/tomtom215/lodestar/internal/embedding"
	"github.com/tomtom215/lodestar/internal/models"
	"github.com/tomtom215/lodestar/internal/recommend"
	"github.com/tomtom215/lodestar/internal/vectorstore"
)

// newEngineRouter serves a real engine over an in-memory catalog and store.
func newEngineRouter(t *testing.T) http.Handler {
	t.Helper()

	const dim = 64
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cat := catalog.NewMemoryCatalog()
	cat.AddUser(models.User{ID: 1, Username: "ada"})
	cat.AddUser(models.User{ID: 2, Username: "edsger"})
	algorithms := []models.Algorithm{
		{ID: 1, Name: "Dijkstra", Description: "Shortest paths in weighted graphs", Difficulty: models.DifficultyIntermediate, Tags: []string{"graph", "shortest-path"}, CreatedAt: now},
		{ID: 2, Name: "Quick Sort", Description: "Divide and conquer sorting", Difficulty: models.DifficultyBeginner, Tags: []string{"sorting"}, CreatedAt: now},
	}
	posts := []models.Post{
		{ID: 10, Title: "Dijkstra on road networks", Content: "Shortest path routing on weighted graphs", Author: models.Author{ID: 2}, Tags: []string{"graph"}, LikeCount: 4, CreatedAt: now},
		{ID: 11, Title: "Choosing a pivot", Content: "Quick sort pivot strategies", Author: models.Author{ID: 2}, Tags: []string{"sorting"}, CreatedAt: now},
	}
	for _, a := range algorithms {
		cat.AddAlgorithm(a)
	}
	for _, p := range posts {
		cat.AddPost(p)
	}
	cat.LinkPost(1, 10)

	emb, err := embedding.NewHashingEmbedder(dim)
	if err != nil {
		t.Fatal(err)
	}
	engine, err := recommend.NewEngine(recommend.DefaultConfig(), cat, emb, vectorstore.NewMemoryStore(dim), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	for i := range algorithms {
		if err := engine.IndexAlgorithm(ctx, &algorithms[i]); err != nil {
			t.Fatalf("IndexAlgorithm: %v", err)
		}
	}
	for i := range posts {
		if err := engine.IndexPost(ctx, &posts[i]); err != nil {
			t.Fatalf("IndexPost: %v", err)
		}
	}

	return newTestRouter(engine, &fakeQueue{})
}

func TestRouter_EngineEndToEnd(t *testing.T) {
	t.Parallel()

	h := newEngineRouter(t)

	rec, _ := doRequest(t, h, http.MethodGet, "/api/v1/users/1/recommendations")
	if rec.Code != http.StatusOK {
		t.Fatalf("recommendations status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/algorithms/1/related-posts?user_id=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("related-posts status = %d, body %s", rec.Code, rec.Body.String())
	}
	var page recommend.RelatedPostsPage
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatalf("decode related page: %v", err)
	}
	if page.Algorithm.ID != 1 {
		t.Errorf("related page algorithm = %+v", page.Algorithm)
	}
	var linked *recommend.RelatedPost
	for i := range page.Posts {
		if page.Posts[i].ID == 10 {
			linked = &page.Posts[i]
		}
	}
	if linked == nil {
		t.Fatalf("linked post 10 missing from %+v", page.Posts)
	}
	if linked.RelationType != recommend.RelationDirect {
		t.Errorf("linked post relation = %q, want direct", linked.RelationType)
	}

	rec, env = doRequest(t, h, http.MethodGet, "/api/v1/algorithms/999/related-posts")
	assertError(t, rec, env, http.StatusNotFound, codeNotFound)

	rec, _ = doRequest(t, h, http.MethodGet, "/api/v1/posts/search?q=shortest+path+graphs&min_similarity=-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec, env = doRequest(t, h, http.MethodGet, "/api/v1/vectors/collections/algorithms/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}
	var stats vectorstore.CollectionStats
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalItems != 2 {
		t.Errorf("algorithms total_items = %d, want 2", stats.TotalItems)
	}

	rec, _ = doRequest(t, h, http.MethodPost, "/api/v1/vectors/collections/posts/reset")
	if rec.Code != http.StatusOK {
		t.Fatalf("reset status = %d", rec.Code)
	}
	_, env = doRequest(t, h, http.MethodGet, "/api/v1/vectors/collections/posts/stats")
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalItems != 0 {
		t.Errorf("posts total_items after reset = %d, want 0", stats.TotalItems)
	}

	rec, _ = doRequest(t, h, http.MethodGet, "/api/v1/vectors/health")
	if rec.Code != http.StatusOK {
		t.Errorf("vector health status = %d, body %s", rec.Code, rec.Body.String())
	}
}

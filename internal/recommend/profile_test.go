// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package recommend

import (
	"context"
	"strings"
	"testing"

	"github.com/tomtom215/lodestar/internal/catalog"
	"github.com/tomtom215/lodestar/internal/models"
	"github.com/tomtom215/lodestar/internal/vecmath"
	"github.com/tomtom215/lodestar/internal/vectorstore"
)

func TestBuildUserVector_UsesStoredProfile(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.cat.AddAlgorithm(models.Algorithm{ID: 1, Name: "BFS"})
	f.cat.AddLearningRecord(models.LearningRecord{UserID: 1, AlgorithmID: 1, Progress: 90})
	f.setProfile(t, 1, e2)

	vec, err := f.engine.BuildUserVector(context.Background(), 1)
	if err != nil {
		t.Fatalf("BuildUserVector: %v", err)
	}
	if vecmath.Cosine(vec, e2) < 0.999 {
		t.Errorf("vector = %v, want stored profile", vec)
	}
	if len(f.emb.calls()) != 0 {
		t.Error("stored profile must not be re-embedded")
	}
}

func TestBuildUserVector_FromActivity(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.cat.AddAlgorithm(models.Algorithm{ID: 1, Name: "Binary Search"})
	f.cat.AddAlgorithm(models.Algorithm{ID: 2, Name: "Bubble Sort"})
	f.cat.AddLearningRecord(models.LearningRecord{UserID: 1, AlgorithmID: 1, Progress: 75, Interests: []string{"arrays"}})
	f.cat.AddLearningRecord(models.LearningRecord{UserID: 1, AlgorithmID: 2, Progress: 50})
	f.cat.AddPost(models.Post{ID: 10, Title: "Search tricks", Author: models.Author{ID: 2}, Tags: []string{"search"}})
	f.cat.AddPost(models.Post{ID: 11, Title: "My notes", Content: "notes body", Author: models.Author{ID: 1}})
	if err := f.cat.AddInteraction(1, 10, catalog.KindLike); err != nil {
		t.Fatal(err)
	}

	vec, err := f.engine.BuildUserVector(context.Background(), 1)
	if err != nil {
		t.Fatalf("BuildUserVector: %v", err)
	}
	if vecmath.IsZero(vec) {
		t.Fatal("profile with activity must not be zero")
	}

	calls := f.emb.calls()
	if len(calls) != 1 {
		t.Fatalf("embedder calls = %d, want 1", len(calls))
	}
	text := calls[0]
	for _, want := range []string{
		"studied algorithm Binary Search, progress 75%, interests arrays",
		"liked post: Search tricks, tags: search",
		"authored post: My notes notes body",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("profile text %q missing %q", text, want)
		}
	}
	if strings.Contains(text, "Bubble Sort") {
		t.Error("progress at the threshold must not contribute")
	}

	// Built profiles are not persisted.
	if _, ok, _ := f.coll(vectorstore.CollectionUsers).Get(context.Background(), 1); ok {
		t.Error("BuildUserVector stored a vector")
	}
}

func TestBuildUserVector_NoActivityIsZero(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	vec, err := f.engine.BuildUserVector(context.Background(), 42)
	if err != nil {
		t.Fatalf("BuildUserVector: %v", err)
	}
	if len(vec) != testDim || !vecmath.IsZero(vec) {
		t.Errorf("vector = %v, want zero of dimension %d", vec, testDim)
	}
	if len(f.emb.calls()) != 0 {
		t.Error("embedder must not be called without activity")
	}
}

func TestRefreshUserProfile(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	f.cat.AddUser(models.User{ID: 1, Username: "ada"})
	f.cat.AddAlgorithm(models.Algorithm{ID: 1, Name: "Binary Search"})
	f.cat.AddLearningRecord(models.LearningRecord{UserID: 1, AlgorithmID: 1, Progress: 90})
	f.cat.AddPost(models.Post{ID: 10, Title: "Search tricks", Author: models.Author{ID: 2}})
	f.cat.AddPost(models.Post{ID: 11, Title: "Mine", Author: models.Author{ID: 1}})
	if err := f.cat.AddInteraction(1, 10, catalog.KindFavorite); err != nil {
		t.Fatal(err)
	}

	if err := f.engine.RefreshUserProfile(ctx, 1); err != nil {
		t.Fatalf("RefreshUserProfile: %v", err)
	}
	rec, ok, err := f.coll(vectorstore.CollectionUsers).Get(ctx, 1)
	if err != nil || !ok {
		t.Fatalf("stored profile missing: ok=%v err=%v", ok, err)
	}
	if rec.Metadata[metaUsername] != "ada" {
		t.Errorf("username = %v", rec.Metadata[metaUsername])
	}
	if rec.Metadata[metaTotalPosts] != int64(1) || rec.Metadata[metaTotalFavorites] != int64(1) || rec.Metadata[metaTotalLikes] != int64(0) {
		t.Errorf("metadata = %v", rec.Metadata)
	}
	learned, _ := rec.Metadata[metaLearnedAlgorithms].([]any)
	if len(learned) != 1 || learned[0] != int64(1) {
		t.Errorf("learned_algorithms = %v", rec.Metadata[metaLearnedAlgorithms])
	}
	if rec.Metadata[metaUpdatedAt] != testNow.Unix() {
		t.Errorf("updated_at = %v", rec.Metadata[metaUpdatedAt])
	}
	if rec.Document != "User 1 interests" {
		t.Errorf("document = %q", rec.Document)
	}

	// The stored vector now short-circuits profile building.
	before := len(f.emb.calls())
	if _, err := f.engine.BuildUserVector(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if len(f.emb.calls()) != before {
		t.Error("stored profile was rebuilt")
	}
}

func TestRefreshUserProfile_RemovesVectorWithoutActivity(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.setProfile(t, 9, e1)

	if err := f.engine.RefreshUserProfile(ctx, 9); err != nil {
		t.Fatalf("RefreshUserProfile: %v", err)
	}
	if _, ok, _ := f.coll(vectorstore.CollectionUsers).Get(ctx, 9); ok {
		t.Error("vector of a user without activity was kept")
	}
}

// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lodestar/internal/catalog"
	"github.com/tomtom215/lodestar/internal/embedding"
	"github.com/tomtom215/lodestar/internal/models"
	"github.com/tomtom215/lodestar/internal/vectorstore"
)

const testDim = 4

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

var (
	e1 = []float32{1, 0, 0, 0}
	e2 = []float32{0, 1, 0, 0}
)

// unit returns a unit vector with cosine c against e1.
func unit(c float64) []float32 {
	return []float32{float32(c), float32(math.Sqrt(1 - c*c)), 0, 0}
}

// fakeEmbedder returns a fixed vector and records every input.
type fakeEmbedder struct {
	mu    sync.Mutex
	dim   int
	vec   []float32
	err   error
	texts []string
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{dim: testDim, vec: e1}
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]float32, len(f.vec))
	copy(out, f.vec)
	return out, nil
}

func (f *fakeEmbedder) Dimension() int { return f.dim }
func (f *fakeEmbedder) Model() string  { return "fake" }

func (f *fakeEmbedder) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

// spyCollection counts scans and can fail them.
type spyCollection struct {
	vectorstore.Collection
	scans     atomic.Int32
	failScan  error
	failCount error
}

func (c *spyCollection) GetAll(ctx context.Context, f vectorstore.Filter) ([]vectorstore.Record, error) {
	c.scans.Add(1)
	if c.failScan != nil {
		return nil, c.failScan
	}
	return c.Collection.GetAll(ctx, f)
}

func (c *spyCollection) Count(ctx context.Context) (int, error) {
	if c.failCount != nil {
		return 0, c.failCount
	}
	return c.Collection.Count(ctx)
}

type spyStore struct {
	*vectorstore.MemoryStore
	colls map[string]*spyCollection
}

func newSpyStore() *spyStore {
	mem := vectorstore.NewMemoryStore(testDim)
	s := &spyStore{MemoryStore: mem, colls: make(map[string]*spyCollection)}
	for _, name := range mem.Names() {
		c, _ := mem.Collection(name)
		s.colls[name] = &spyCollection{Collection: c}
	}
	return s
}

func (s *spyStore) Collection(name string) (vectorstore.Collection, error) {
	c, ok := s.colls[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", vectorstore.ErrUnknownCollection, name)
	}
	return c, nil
}

// flakyCatalog fails the next N Algorithms calls.
type flakyCatalog struct {
	catalog.Catalog
	mu                 sync.Mutex
	algorithmsFailures int
	popularErr         error
}

var errCatalogDown = errors.New("catalog down")

func (f *flakyCatalog) Algorithms(ctx context.Context) ([]models.Algorithm, error) {
	f.mu.Lock()
	if f.algorithmsFailures > 0 {
		f.algorithmsFailures--
		f.mu.Unlock()
		return nil, errCatalogDown
	}
	f.mu.Unlock()
	return f.Catalog.Algorithms(ctx)
}

func (f *flakyCatalog) PopularPosts(ctx context.Context, excludeAuthorID int64, limit int) ([]models.Post, error) {
	if f.popularErr != nil {
		return nil, f.popularErr
	}
	return f.Catalog.PopularPosts(ctx, excludeAuthorID, limit)
}

type fixture struct {
	engine *Engine
	cat    *catalog.MemoryCatalog
	flaky  *flakyCatalog
	store  *spyStore
	emb    *fakeEmbedder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		cat:   catalog.NewMemoryCatalog(),
		store: newSpyStore(),
		emb:   newFakeEmbedder(),
	}
	f.flaky = &flakyCatalog{Catalog: f.cat}
	e, err := NewEngine(DefaultConfig(), f.flaky, f.emb, f.store, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	e.SetClock(func() time.Time { return testNow })
	f.engine = e
	return f
}

func (f *fixture) coll(name string) *spyCollection {
	return f.store.colls[name]
}

func (f *fixture) upsert(t *testing.T, collection string, rec vectorstore.Record) {
	t.Helper()
	if err := f.coll(collection).Upsert(context.Background(), rec); err != nil {
		t.Fatalf("upsert %s/%d: %v", collection, rec.ID, err)
	}
}

func (f *fixture) indexPostVector(t *testing.T, id, authorID int64, vec []float32) {
	t.Helper()
	f.upsert(t, vectorstore.CollectionPosts, vectorstore.Record{
		ID:       id,
		Vector:   vec,
		Metadata: map[string]any{"id": id, "author_id": authorID},
	})
}

func (f *fixture) indexAlgorithmVector(t *testing.T, id int64, vec []float32) {
	t.Helper()
	f.upsert(t, vectorstore.CollectionAlgorithms, vectorstore.Record{ID: id, Vector: vec})
}

func (f *fixture) setProfile(t *testing.T, userID int64, vec []float32) {
	t.Helper()
	f.upsert(t, vectorstore.CollectionUsers, vectorstore.Record{ID: userID, Vector: vec})
}

func candidateIDs(c []ScoredCandidate) []int64 {
	out := make([]int64, len(c))
	for i := range c {
		out[i] = c[i].ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNewEngine_DimensionMismatch(t *testing.T) {
	t.Parallel()

	emb := newFakeEmbedder()
	emb.dim = 8
	_, err := NewEngine(nil, catalog.NewMemoryCatalog(), emb, vectorstore.NewMemoryStore(testDim), zerolog.Nop())
	if !errors.Is(err, vectorstore.ErrDimensionMismatch) {
		t.Fatalf("err = %v, want ErrDimensionMismatch", err)
	}
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Posts.FetchLimit = 0
	_, err := NewEngine(cfg, catalog.NewMemoryCatalog(), newFakeEmbedder(), vectorstore.NewMemoryStore(testDim), zerolog.Nop())
	if err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func TestRecommend_VectorPath(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	f.cat.AddUser(models.User{ID: 1, Username: "ada"})
	f.cat.AddUser(models.User{ID: 2, Username: "linus"})
	f.cat.AddAlgorithm(models.Algorithm{ID: 1, Name: "Binary Search", Difficulty: models.DifficultyBeginner, Tags: []string{"search"}})
	f.cat.AddAlgorithm(models.Algorithm{ID: 2, Name: "Dijkstra", Difficulty: models.DifficultyIntermediate})
	f.cat.AddAlgorithm(models.Algorithm{ID: 3, Name: "A*", Difficulty: models.DifficultyAdvanced})
	f.cat.AddLearningRecord(models.LearningRecord{UserID: 1, AlgorithmID: 1, Progress: 80})
	f.cat.AddPost(models.Post{
		ID: 10, Title: "Search tricks", Author: models.Author{ID: 2},
		Tags: []string{"search", "arrays"}, LikeCount: 4, CommentCount: 2,
		CreatedAt: testNow.Add(-48 * time.Hour),
	})
	f.cat.AddPost(models.Post{ID: 11, Title: "My own post", Author: models.Author{ID: 1}, CreatedAt: testNow})
	f.cat.AddPost(models.Post{ID: 12, Title: "Barely related", Author: models.Author{ID: 2}, CreatedAt: testNow})
	if err := f.cat.AddInteraction(1, 10, catalog.KindLike); err != nil {
		t.Fatal(err)
	}

	f.setProfile(t, 1, e1)
	f.indexAlgorithmVector(t, 1, e1)
	f.indexAlgorithmVector(t, 2, unit(0.6))
	f.indexAlgorithmVector(t, 3, e2)
	f.indexPostVector(t, 10, 2, e1)
	f.indexPostVector(t, 11, 1, e1)
	f.indexPostVector(t, 12, 2, unit(0.2))

	resp, err := f.engine.Recommend(ctx, 1)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if !equalIDs(candidateIDs(resp.Algorithms), []int64{1, 2, 3}) {
		t.Fatalf("algorithms = %v, want [1 2 3]", candidateIDs(resp.Algorithms))
	}
	wantScores := []float64{100, 60, 0}
	for i, c := range resp.Algorithms {
		if c.FinalScore != wantScores[i] {
			t.Errorf("algorithm %d score = %v, want %v", c.ID, c.FinalScore, wantScores[i])
		}
		if len(c.Reasons) != 1 || c.Reasons[0] != ReasonInterestBased {
			t.Errorf("algorithm %d reasons = %v", c.ID, c.Reasons)
		}
		if c.Algorithm == nil || c.Strategy != StrategyVectorSimilarity {
			t.Errorf("algorithm %d missing entity or strategy: %+v", c.ID, c)
		}
	}

	if !equalIDs(candidateIDs(resp.Posts), []int64{10}) {
		t.Fatalf("posts = %v, want [10]", candidateIDs(resp.Posts))
	}
	p := resp.Posts[0]
	want := Bonuses{Base: 100, Learning: 8, Community: 3, Time: 8}
	if *p.Bonuses != want {
		t.Errorf("bonuses = %+v, want %+v", *p.Bonuses, want)
	}
	if p.FinalScore != 119 {
		t.Errorf("post score = %v, want 119", p.FinalScore)
	}
	if len(p.Reasons) != 2 || p.Reasons[0] != ReasonContent || p.Reasons[1] != ReasonLearning {
		t.Errorf("post reasons = %v", p.Reasons)
	}

	s := resp.Stats
	if s.RecommendationMethod != StrategyVectorSimilarity || s.PostStrategy != StrategyVectorSimilarity {
		t.Errorf("strategies = %+v", s)
	}
	if s.AlgorithmsAnalyzed != 3 || s.PostsAnalyzed != 3 || s.UserKnowledgeCount != 1 || s.UserInteractions != 1 {
		t.Errorf("stats = %+v", s)
	}
	if resp.Metadata.ProfileEmpty || resp.Metadata.RequestID == "" || resp.Metadata.UserID != 1 {
		t.Errorf("metadata = %+v", resp.Metadata)
	}
	if calls := f.emb.calls(); len(calls) != 0 {
		t.Errorf("cached profile should not be re-embedded, got %d calls", len(calls))
	}
}

func TestRecommend_NegativeSimilarityStaysOnVectorPath(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.cat.AddUser(models.User{ID: 1, Username: "ada"})
	f.cat.AddAlgorithm(models.Algorithm{ID: 1, Name: "Heap Sort", CreatedAt: testNow.Add(-time.Hour)})
	f.cat.AddAlgorithm(models.Algorithm{ID: 2, Name: "Trie", CreatedAt: testNow})

	f.setProfile(t, 1, e1)
	f.indexAlgorithmVector(t, 1, unit(-0.2))
	f.indexAlgorithmVector(t, 2, unit(-0.5))

	resp, err := f.engine.Recommend(context.Background(), 1)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if resp.Stats.RecommendationMethod != StrategyVectorSimilarity {
		t.Fatalf("method = %q, want %q", resp.Stats.RecommendationMethod, StrategyVectorSimilarity)
	}
	if !equalIDs(candidateIDs(resp.Algorithms), []int64{1, 2}) {
		t.Fatalf("algorithms = %v, want [1 2]", candidateIDs(resp.Algorithms))
	}
	for _, c := range resp.Algorithms {
		if c.Similarity >= 0 || c.Strategy != StrategyVectorSimilarity {
			t.Errorf("algorithm %d = %+v, want negative similarity from the vector path", c.ID, c)
		}
	}
}

func TestRecommend_ZeroProfileBypassesVectorSearch(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	for i := int64(1); i <= 10; i++ {
		f.cat.AddAlgorithm(models.Algorithm{
			ID:        i,
			Name:      fmt.Sprintf("alg-%d", i),
			CreatedAt: testNow.Add(time.Duration(i) * time.Hour),
		})
		f.indexAlgorithmVector(t, i, e1)
	}
	f.cat.AddPost(models.Post{ID: 50, Title: "popular", Author: models.Author{ID: 9}, LikeCount: 30})
	f.cat.AddPost(models.Post{ID: 51, Title: "quiet", Author: models.Author{ID: 9}, LikeCount: 1})
	f.indexPostVector(t, 50, 9, e1)

	resp, err := f.engine.Recommend(context.Background(), 7)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if got := f.coll(vectorstore.CollectionAlgorithms).scans.Load(); got != 0 {
		t.Errorf("algorithms scanned %d times, want 0", got)
	}
	if got := f.coll(vectorstore.CollectionPosts).scans.Load(); got != 0 {
		t.Errorf("posts scanned %d times, want 0", got)
	}
	if len(f.emb.calls()) != 0 {
		t.Error("empty profile must not invoke the embedder")
	}

	if resp.Stats.RecommendationMethod != StrategyNewest {
		t.Errorf("method = %q, want %q", resp.Stats.RecommendationMethod, StrategyNewest)
	}
	if resp.Stats.RecommendationMethod == StrategyVectorSimilarity {
		t.Error("zero profile reported vector_similarity")
	}
	if !equalIDs(candidateIDs(resp.Algorithms), []int64{10, 9, 8, 7, 6, 5, 4, 3}) {
		t.Errorf("algorithms = %v, want 8 newest", candidateIDs(resp.Algorithms))
	}
	for _, c := range resp.Algorithms {
		if c.FinalScore != 60 || c.Reasons[0] != ReasonNewest {
			t.Errorf("candidate %d = %v %v", c.ID, c.FinalScore, c.Reasons)
		}
	}

	if resp.Stats.PostStrategy != StrategyPopular {
		t.Errorf("post strategy = %q", resp.Stats.PostStrategy)
	}
	if !equalIDs(candidateIDs(resp.Posts), []int64{50, 51}) {
		t.Errorf("posts = %v", candidateIDs(resp.Posts))
	}
	if !resp.Metadata.ProfileEmpty {
		t.Error("ProfileEmpty = false")
	}
}

func TestRecommend_SearchFailureFallsBack(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.cat.AddAlgorithm(models.Algorithm{ID: 1, Name: "a", Difficulty: models.DifficultyBeginner})
	f.cat.AddPost(models.Post{ID: 5, Title: "p", Author: models.Author{ID: 2}, LikeCount: 3})
	f.setProfile(t, 1, e1)
	f.coll(vectorstore.CollectionAlgorithms).failScan = vectorstore.ErrStoreUnavailable
	f.coll(vectorstore.CollectionPosts).failScan = &vectorstore.DimensionMismatchError{Collection: "posts", Expected: 4, Actual: 3}

	resp, err := f.engine.Recommend(context.Background(), 1)
	if err != nil {
		t.Fatalf("vector failures must not fail the request: %v", err)
	}
	if resp.Stats.AlgorithmStrategy != StrategyNewest {
		t.Errorf("algorithm strategy = %q", resp.Stats.AlgorithmStrategy)
	}
	if resp.Stats.PostStrategy != StrategyPopular || len(resp.Posts) != 1 {
		t.Errorf("posts = %v via %q", candidateIDs(resp.Posts), resp.Stats.PostStrategy)
	}
	if _, fallbacks, _ := f.engine.Counters(); fallbacks != 1 {
		t.Errorf("fallbacks = %d, want 1", fallbacks)
	}
}

func TestRecommend_EmbedderFailureUsesDifficultyGap(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.emb.err = embedding.ErrUnavailable

	f.cat.AddAlgorithm(models.Algorithm{ID: 1, Name: "Linear Search", Difficulty: models.DifficultyBeginner})
	f.cat.AddAlgorithm(models.Algorithm{ID: 2, Name: "Binary Search", Difficulty: models.DifficultyBeginner})
	f.cat.AddAlgorithm(models.Algorithm{ID: 3, Name: "Dijkstra", Difficulty: models.DifficultyIntermediate})
	f.cat.AddAlgorithm(models.Algorithm{ID: 4, Name: "Simplex", Difficulty: models.DifficultyAdvanced})
	f.cat.AddAlgorithm(models.Algorithm{ID: 5, Name: "Prim", Difficulty: models.DifficultyIntermediate})
	f.cat.AddLearningRecord(models.LearningRecord{UserID: 1, AlgorithmID: 1, Progress: 80})

	resp, err := f.engine.Recommend(context.Background(), 1)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(f.emb.calls()) != 1 {
		t.Errorf("embedder calls = %d, want 1", len(f.emb.calls()))
	}
	if resp.Stats.RecommendationMethod != StrategyDifficultyGap {
		t.Errorf("method = %q", resp.Stats.RecommendationMethod)
	}
	if !equalIDs(candidateIDs(resp.Algorithms), []int64{3, 4, 2, 5}) {
		t.Fatalf("algorithms = %v, want [3 4 2 5]", candidateIDs(resp.Algorithms))
	}
	wantReasons := []string{
		DifficultyReason(models.DifficultyIntermediate),
		DifficultyReason(models.DifficultyAdvanced),
		ReasonExplore,
		ReasonExplore,
	}
	wantScores := []float64{70, 70, 50, 50}
	for i, c := range resp.Algorithms {
		if c.Reasons[0] != wantReasons[i] || c.FinalScore != wantScores[i] {
			t.Errorf("candidate %d = %v %q", c.ID, c.FinalScore, c.Reasons[0])
		}
	}
}

func TestRecommend_EmptyCorpus(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.setProfile(t, 1, e1)

	resp, err := f.engine.Recommend(context.Background(), 1)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if resp.Algorithms == nil || resp.Posts == nil {
		t.Error("empty lists must be non-nil")
	}
	if len(resp.Algorithms) != 0 || len(resp.Posts) != 0 {
		t.Errorf("got %d algorithms, %d posts", len(resp.Algorithms), len(resp.Posts))
	}
	if resp.Stats.RecommendationMethod != StrategyNone || resp.Stats.PostStrategy != StrategyNone {
		t.Errorf("stats = %+v", resp.Stats)
	}
}

func TestRecommend_PostFallbackErrorYieldsEmptyList(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.flaky.popularErr = errCatalogDown
	f.cat.AddAlgorithm(models.Algorithm{ID: 1, Name: "a"})

	resp, err := f.engine.Recommend(context.Background(), 1)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(resp.Posts) != 0 || resp.Stats.PostStrategy != StrategyNone {
		t.Errorf("posts = %v via %q", candidateIDs(resp.Posts), resp.Stats.PostStrategy)
	}
	if len(resp.Algorithms) != 1 {
		t.Errorf("algorithms = %v", candidateIDs(resp.Algorithms))
	}
}

func TestRecommend_ConcurrentRequests(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.cat.AddAlgorithm(models.Algorithm{ID: 1, Name: "a"})
	f.indexAlgorithmVector(t, 1, e1)
	for u := int64(1); u <= 8; u++ {
		f.setProfile(t, u, e1)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for u := int64(1); u <= 8; u++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			resp, err := f.engine.Recommend(context.Background(), userID)
			if err != nil {
				errs <- err
				return
			}
			if len(resp.Algorithms) != 1 {
				errs <- fmt.Errorf("user %d got %d algorithms", userID, len(resp.Algorithms))
			}
		}(u)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	if requests, _, _ := f.engine.Counters(); requests != 8 {
		t.Errorf("requests = %d, want 8", requests)
	}
}

// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package vectorstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lodestar/internal/breaker"
)

// failingCollection fails every read with a backend error.
type failingCollection struct {
	Collection
	calls int
}

var errDisk = errors.New("disk on fire")

func (f *failingCollection) GetAll(context.Context, Filter) ([]Record, error) {
	f.calls++
	return nil, errDisk
}

func TestGuard_OpensAndFailsFast(t *testing.T) {
	t.Parallel()

	inner := &failingCollection{Collection: mustCollection(t, NewMemoryStore(testDim), CollectionPosts)}
	cfg := breaker.DefaultConfig("collection:guard-test")
	cfg.FailureThreshold = 2
	cfg.Timeout = time.Hour
	g := Guard(inner, breaker.New(cfg, zerolog.Nop()))

	for i := 0; i < 2; i++ {
		if _, err := g.GetAll(context.Background(), Filter{}); !errors.Is(err, errDisk) {
			t.Fatalf("err = %v, want disk error", err)
		}
	}

	_, err := g.GetAll(context.Background(), Filter{})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("err = %v, want ErrStoreUnavailable", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2", inner.calls)
	}

	// Search surfaces the same error so callers can fall back.
	_, err = Search(context.Background(), g, []float32{1, 0, 0, 0}, SearchOptions{})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Search err = %v, want ErrStoreUnavailable", err)
	}
}

func TestGuardStore_CallerErrorsDoNotTrip(t *testing.T) {
	t.Parallel()

	cfg := breaker.DefaultConfig("unused")
	cfg.FailureThreshold = 1
	s, err := GuardStore(NewMemoryStore(testDim), cfg, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	c := mustCollection(t, s, CollectionAlgorithms)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := c.Upsert(ctx, Record{ID: 1, Vector: []float32{1}}); !errors.Is(err, ErrDimensionMismatch) {
			t.Fatalf("err = %v, want ErrDimensionMismatch", err)
		}
	}
	if err := c.Upsert(ctx, Record{ID: 1, Vector: []float32{1, 0, 0, 0}}); err != nil {
		t.Errorf("valid upsert after caller errors: %v", err)
	}

	if _, err := s.Collection("nope"); !errors.Is(err, ErrUnknownCollection) {
		t.Errorf("err = %v, want ErrUnknownCollection", err)
	}
}

func TestOpen_Drivers(t *testing.T) {
	t.Parallel()

	s, err := Open(Config{Driver: DriverMemory, Dimension: testDim, Breaker: breaker.DefaultConfig("x")}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open memory: %v", err)
	}
	if len(s.Names()) != 3 {
		t.Errorf("names = %v", s.Names())
	}
	_ = s.Close()

	s, err = Open(Config{Driver: DriverBadger, Dir: t.TempDir(), Dimension: testDim, Breaker: breaker.DefaultConfig("x")}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open badger: %v", err)
	}
	_ = s.Close()

	if _, err := Open(Config{Driver: "chroma", Dimension: testDim}, zerolog.Nop()); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	c := mustCollection(t, NewMemoryStore(testDim), CollectionUsers)
	seedCollection(t, c, map[int64][]float32{1: {1, 0, 0, 0}, 2: {0, 1, 0, 0}})

	st, err := Stats(context.Background(), c)
	if err != nil {
		t.Fatal(err)
	}
	if st.Collection != CollectionUsers || st.TotalItems != 2 || st.LastUpdated.IsZero() {
		t.Errorf("stats = %+v", st)
	}
}

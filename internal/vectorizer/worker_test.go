// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package vectorizer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
)

var errIndex = errors.New("embedder down")

// fakeIndexer records calls and fails the first failures[key] attempts.
type fakeIndexer struct {
	mu       sync.Mutex
	calls    []string
	failures map[string]int
	notify   chan string
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{failures: map[string]int{}, notify: make(chan string, 64)}
}

func (f *fakeIndexer) record(op, kind string, id int64) error {
	key := fmt.Sprintf("%s %s/%d", op, kind, id)
	f.mu.Lock()
	f.calls = append(f.calls, key)
	fail := f.failures[key] > 0
	if fail {
		f.failures[key]--
	}
	f.mu.Unlock()
	f.notify <- key
	if fail {
		return errIndex
	}
	return nil
}

func (f *fakeIndexer) IndexEntity(ctx context.Context, kind string, id int64) error {
	return f.record("index", kind, id)
}

func (f *fakeIndexer) RemoveEntity(ctx context.Context, kind string, id int64) error {
	return f.record("remove", kind, id)
}

func (f *fakeIndexer) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == key {
			n++
		}
	}
	return n
}

func testWorkerConfig() WorkerConfig {
	cfg := DefaultWorkerConfig()
	cfg.PoisonTopic = ""
	cfg.RatePerSecond = 0
	cfg.RetryMaxRetries = 2
	cfg.RetryInitialInterval = time.Millisecond
	cfg.RetryMaxInterval = 5 * time.Millisecond
	cfg.CloseTimeout = time.Second
	return cfg
}

// startWorker runs a worker on an in-process transport until the test ends.
func startWorker(t *testing.T, idx Indexer) (*Worker, *Queue, *Transport) {
	t.Helper()
	tr := NewMemoryTransport(16, nil)

	w, err := NewWorker(testWorkerConfig(), tr.Subscriber, nil, idx, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Serve(ctx) }()

	select {
	case <-w.Running():
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("worker did not start")
	}

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve returned %v, want context.Canceled", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("worker did not stop")
		}
		_ = tr.Close()
	})
	return w, NewQueue(tr.Publisher, "", zerolog.Nop()), tr
}

func waitFor(t *testing.T, idx *fakeIndexer, want string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-idx.notify:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}

// eventually polls cond, since counters are bumped after the indexer returns.
func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWorker_AppliesJobs(t *testing.T) {
	t.Parallel()
	idx := newFakeIndexer()
	w, q, _ := startWorker(t, idx)
	ctx := context.Background()

	if err := q.Upsert(ctx, KindPost, 5); err != nil {
		t.Fatal(err)
	}
	waitFor(t, idx, "index post/5")

	if err := q.Delete(ctx, KindAlgorithm, 8); err != nil {
		t.Fatal(err)
	}
	waitFor(t, idx, "remove algorithm/8")

	if err := q.Upsert(ctx, KindUser, 3); err != nil {
		t.Fatal(err)
	}
	waitFor(t, idx, "index user/3")

	eventually(t, func() bool { return w.Stats().Processed == 3 })
	if st := w.Stats(); st.Failed != 0 {
		t.Errorf("stats = %+v", st)
	}
}

func TestWorker_RetriesTransientFailures(t *testing.T) {
	t.Parallel()
	idx := newFakeIndexer()
	idx.failures["index post/7"] = 2
	w, q, _ := startWorker(t, idx)

	if err := q.Upsert(context.Background(), KindPost, 7); err != nil {
		t.Fatal(err)
	}
	// Two failures, then success on the last retry.
	waitFor(t, idx, "index post/7")
	waitFor(t, idx, "index post/7")
	waitFor(t, idx, "index post/7")

	// A following job proves the first one was acked.
	if err := q.Upsert(context.Background(), KindPost, 8); err != nil {
		t.Fatal(err)
	}
	waitFor(t, idx, "index post/8")

	if n := idx.count("index post/7"); n != 3 {
		t.Errorf("attempts = %d, want 3", n)
	}
	eventually(t, func() bool { return w.Stats().Processed == 2 })
	if st := w.Stats(); st.Failed != 2 {
		t.Errorf("stats = %+v", st)
	}
}

func TestWorker_DropsJobAfterRetries(t *testing.T) {
	t.Parallel()
	idx := newFakeIndexer()
	idx.failures["index post/9"] = 100
	_, q, _ := startWorker(t, idx)

	if err := q.Upsert(context.Background(), KindPost, 9); err != nil {
		t.Fatal(err)
	}
	if err := q.Upsert(context.Background(), KindPost, 10); err != nil {
		t.Fatal(err)
	}
	waitFor(t, idx, "index post/10")

	// One attempt plus two retries, then the job is dropped.
	if n := idx.count("index post/9"); n != 3 {
		t.Errorf("attempts = %d, want 3", n)
	}
}

func TestWorker_AcksMalformedPayload(t *testing.T) {
	t.Parallel()
	idx := newFakeIndexer()
	w, q, tr := startWorker(t, idx)

	bad := message.NewMessage("bad-1", []byte(`{"kind":"comment"}`))
	if err := tr.Publisher.Publish(DefaultTopic, bad); err != nil {
		t.Fatal(err)
	}
	if err := q.Upsert(context.Background(), KindAlgorithm, 1); err != nil {
		t.Fatal(err)
	}
	waitFor(t, idx, "index algorithm/1")

	eventually(t, func() bool { return w.Stats().Processed == 1 })
	if st := w.Stats(); st.Dropped != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestNewWorker_RequiresDependencies(t *testing.T) {
	t.Parallel()
	if _, err := NewWorker(DefaultWorkerConfig(), nil, nil, newFakeIndexer(), zerolog.Nop()); err == nil {
		t.Error("nil subscriber accepted")
	}
	tr := NewMemoryTransport(1, nil)
	defer tr.Close()
	if _, err := NewWorker(DefaultWorkerConfig(), tr.Subscriber, nil, nil, zerolog.Nop()); err == nil {
		t.Error("nil indexer accepted")
	}
}

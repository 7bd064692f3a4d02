// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package services

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lodestar/internal/recommend"
)

// scriptedChecker returns the queued statuses in order, then the last one.
type scriptedChecker struct {
	mu       sync.Mutex
	statuses []string
	calls    int
}

func (c *scriptedChecker) HealthCheck(ctx context.Context) recommend.Health {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.calls
	if i >= len(c.statuses) {
		i = len(c.statuses) - 1
	}
	c.calls++
	return recommend.Health{Status: c.statuses[i]}
}

func (c *scriptedChecker) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestNewCollectionMonitor_Defaults(t *testing.T) {
	t.Parallel()

	m := NewCollectionMonitor(&scriptedChecker{statuses: []string{recommend.HealthHealthy}}, CollectionMonitorConfig{}, zerolog.Nop())
	if m.config.Interval != time.Minute {
		t.Errorf("Interval = %v, want 1m", m.config.Interval)
	}
	if m.config.DegradedThreshold != 3 {
		t.Errorf("DegradedThreshold = %d, want 3", m.config.DegradedThreshold)
	}
	if m.String() != "collection-monitor" {
		t.Errorf("String() = %q", m.String())
	}
}

func TestCollectionMonitor_CountsConsecutiveDegraded(t *testing.T) {
	t.Parallel()

	checker := &scriptedChecker{statuses: []string{
		recommend.HealthDegraded,
		recommend.HealthNotInitialized,
		recommend.HealthDegraded,
		recommend.HealthHealthy,
	}}
	m := NewCollectionMonitor(checker, CollectionMonitorConfig{Interval: time.Hour, DegradedThreshold: 2}, zerolog.Nop())

	ctx := context.Background()
	want := []int{1, 2, 3, 0}
	for i, w := range want {
		m.check(ctx)
		if got := m.ConsecutiveDegraded(); got != w {
			t.Errorf("after check %d: ConsecutiveDegraded = %d, want %d", i+1, got, w)
		}
	}
}

func TestCollectionMonitor_Serve(t *testing.T) {
	t.Parallel()

	checker := &scriptedChecker{statuses: []string{recommend.HealthHealthy}}
	m := NewCollectionMonitor(checker, CollectionMonitorConfig{Interval: 10 * time.Millisecond}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- m.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for checker.Calls() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if checker.Calls() < 3 {
		t.Errorf("checks = %d, want at least 3", checker.Calls())
	}
}

func TestFailingCollections(t *testing.T) {
	t.Parallel()

	h := recommend.Health{Collections: map[string]recommend.CollectionHealth{
		"posts":      {Collection: "posts", Error: "closed"},
		"algorithms": {Collection: "algorithms", Error: "closed"},
		"users":      {Collection: "users", TotalItems: 4},
	}}
	got := failingCollections(h)
	if want := []string{"algorithms", "posts"}; !reflect.DeepEqual(got, want) {
		t.Errorf("failingCollections = %v, want %v", got, want)
	}
}

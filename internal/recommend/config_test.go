// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package recommend

import (
	"testing"
	"time"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	t.Parallel()
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero algorithm fetch limit", func(c *Config) { c.Algorithms.FetchLimit = 0 }},
		{"result above fetch", func(c *Config) { c.Algorithms.ResultLimit = c.Algorithms.FetchLimit + 1 }},
		{"zero post result limit", func(c *Config) { c.Posts.ResultLimit = 0 }},
		{"similarity above one", func(c *Config) { c.Posts.MinSimilarity = 1.5 }},
		{"similarity below minus one", func(c *Config) { c.Related.MinSimilarity = -2 }},
		{"negative community cap", func(c *Config) { c.Posts.CommunityCap = -1 }},
		{"negative freshness decay", func(c *Config) { c.Related.FreshnessDecay = -0.5 }},
		{"max per page below default", func(c *Config) { c.Related.MaxPerPage = 2 }},
		{"zero excerpt", func(c *Config) { c.Related.ExcerptLength = 0 }},
		{"progress above 100", func(c *Config) { c.Profile.MinProgress = 101 }},
		{"negative interaction limit", func(c *Config) { c.Profile.InteractionLimit = -1 }},
		{"zero newest limit", func(c *Config) { c.Fallback.NewestLimit = 0 }},
		{"zero post limit", func(c *Config) { c.Fallback.PostLimit = 0 }},
		{"uppercase keyword key", func(c *Config) { c.Keywords["Quicksort"] = []string{"pivot"} }},
		{"negative timeout", func(c *Config) { c.RequestTimeout = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConfig_CloneIsDeep(t *testing.T) {
	t.Parallel()
	orig := DefaultConfig()
	c := orig.Clone()
	c.Keywords["gradient descent"][0] = "changed"
	c.Posts.FetchLimit = 99

	if orig.Keywords["gradient descent"][0] == "changed" {
		t.Error("Clone shares keyword slices")
	}
	if orig.Posts.FetchLimit == 99 {
		t.Error("Clone shares scalar sections")
	}
}

func TestConfig_KeywordsFor(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()

	got := cfg.keywordsFor("  K-Means Clustering ")
	want := []string{"k-means", "kmeans", "clustering", "cluster", "聚类", "k均值"}
	if len(got) != len(want) {
		t.Fatalf("keywords = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("keywords = %v, want %v", got, want)
		}
	}

	if kw := cfg.keywordsFor("Bogosort"); kw != nil {
		t.Errorf("unknown algorithm keywords = %v, want nil", kw)
	}
}

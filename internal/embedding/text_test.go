// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package embedding

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/tomtom215/lodestar/internal/models"
)

func TestAlgorithmText(t *testing.T) {
	t.Parallel()

	a := &models.Algorithm{
		Name:        "Quick Sort",
		ChineseName: "快速排序",
		Tags:        []string{"sorting", "divide-and-conquer"},
		Difficulty:  models.DifficultyIntermediate,
		Theory:      strings.Repeat("t", 800),
		CodeExample: strings.Repeat("c", 400),
	}

	got := AlgorithmText(a)

	want := "name: Quick Sort chinese name: 快速排序 tags: sorting divide-and-conquer difficulty: intermediate theory: " +
		strings.Repeat("t", TheoryLimit) + " code: " + strings.Repeat("c", CodeLimit)
	if got != want {
		t.Errorf("AlgorithmText mismatch\n got: %.120s...\nwant: %.120s...", got, want)
	}
	if strings.Contains(got, "description:") {
		t.Error("empty description must be omitted")
	}
}

func TestPostText(t *testing.T) {
	t.Parallel()

	p := &models.Post{
		Title:   "Notes on heaps",
		Content: strings.Repeat("x", 1500),
		Author:  models.Author{ID: 3, Username: "ada"},
	}

	got := PostText(p)
	if !strings.HasPrefix(got, "title: Notes on heaps content: ") {
		t.Errorf("unexpected prefix: %.60s", got)
	}
	if !strings.HasSuffix(got, " author: ada") {
		t.Errorf("unexpected suffix: %s", got[len(got)-20:])
	}
	if strings.Contains(got, "tags:") {
		t.Error("empty tags must be omitted")
	}
	if strings.Count(got, "x") != PostContentLimit {
		t.Errorf("content not truncated to %d chars", PostContentLimit)
	}
}

func TestTruncate_Runes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"动态规划", 2, "动态"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		got := Truncate(tt.in, tt.n)
		if got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("Truncate(%q, %d) produced invalid UTF-8", tt.in, tt.n)
		}
	}
}

func TestProfileFragments(t *testing.T) {
	t.Parallel()

	if got := LearningFragment("BFS", 75, []string{"graphs", "queues"}); got != "studied algorithm BFS, progress 75%, interests graphs queues" {
		t.Errorf("LearningFragment = %q", got)
	}
	if got := InteractionFragment(ActionLiked, "Tries", []string{"strings"}); got != "liked post: Tries, tags: strings" {
		t.Errorf("InteractionFragment = %q", got)
	}
	got := AuthoredFragment("My DP notes", strings.Repeat("d", 300), []string{"dp"})
	if strings.Count(got, "d") < ExcerptLimit || !strings.HasSuffix(got, ", tags: dp") {
		t.Errorf("AuthoredFragment = %q", got)
	}
	if strings.Count(got, "d") > ExcerptLimit+3 { // "dp" tag plus the "d" in "authored"
		t.Errorf("excerpt not truncated: %q", got)
	}
}

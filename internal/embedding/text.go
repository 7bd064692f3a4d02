// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package embedding

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tomtom215/lodestar/internal/models"
)

// Field truncation limits, in characters.
const (
	TheoryLimit      = 500
	CodeLimit        = 300
	PostContentLimit = 1000
	ExcerptLimit     = 200
	DocumentLimit    = 500
)

// Interaction actions used in profile fragments.
const (
	ActionLiked     = "liked"
	ActionFavorited = "favorited"
	ActionCommented = "commented"
)

// Truncate returns at most n characters of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// fragments collects labeled "field: value" pieces, skipping empty values.
type fragments []string

func (f *fragments) add(label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	*f = append(*f, label+": "+value)
}

func (f fragments) String() string {
	return strings.Join(f, " ")
}

// AlgorithmText builds the embedding input for an algorithm.
func AlgorithmText(a *models.Algorithm) string {
	var f fragments
	f.add("name", a.Name)
	f.add("chinese name", a.ChineseName)
	f.add("description", a.Description)
	f.add("tags", strings.Join(a.Tags, " "))
	f.add("difficulty", string(a.Difficulty))
	f.add("theory", Truncate(a.Theory, TheoryLimit))
	f.add("code", Truncate(a.CodeExample, CodeLimit))
	return f.String()
}

// PostText builds the embedding input for a post.
func PostText(p *models.Post) string {
	var f fragments
	f.add("title", p.Title)
	f.add("content", Truncate(p.Content, PostContentLimit))
	f.add("tags", strings.Join(p.Tags, " "))
	f.add("author", p.Author.Username)
	return f.String()
}

// PostDocument is the inspection snippet stored alongside a post vector.
func PostDocument(p *models.Post) string {
	return strings.TrimSpace(p.Title + " " + Truncate(p.Content, DocumentLimit))
}

// LearningFragment renders one learning record of a user profile.
func LearningFragment(algorithmName string, progress float64, interests []string) string {
	return "studied algorithm " + algorithmName +
		", progress " + strconv.FormatFloat(progress, 'f', -1, 64) + "%" +
		", interests " + strings.Join(interests, " ")
}

// InteractionFragment renders a liked, favorited or commented post.
func InteractionFragment(action, title string, tags []string) string {
	return action + " post: " + title + ", tags: " + strings.Join(tags, " ")
}

// AuthoredFragment renders a post the user wrote, with a short excerpt.
func AuthoredFragment(title, content string, tags []string) string {
	return "authored post: " + title + " " + Truncate(content, ExcerptLimit) +
		", tags: " + strings.Join(tags, " ")
}

// JoinFragments concatenates profile fragments with single spaces.
func JoinFragments(parts []string) string {
	return strings.Join(parts, " ")
}

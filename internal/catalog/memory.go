// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/lodestar/internal/models"
)

// Interaction kinds.
const (
	KindLike     = "like"
	KindFavorite = "favorite"
	KindComment  = "comment"
)

// MemoryCatalog holds entities in memory. Add methods replace entities with
// the same key.
type MemoryCatalog struct {
	mu         sync.RWMutex
	algorithms map[int64]models.Algorithm
	posts      map[int64]models.Post
	users      map[int64]models.User
	records    map[int64]map[int64]models.LearningRecord // user -> algorithm -> record
	links      map[int64]map[int64]struct{}              // algorithm -> posts
	// interactions[user][kind] holds post ids, most recent last.
	interactions map[int64]map[string][]int64
}

// NewMemoryCatalog creates an empty catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		algorithms:   make(map[int64]models.Algorithm),
		posts:        make(map[int64]models.Post),
		users:        make(map[int64]models.User),
		records:      make(map[int64]map[int64]models.LearningRecord),
		links:        make(map[int64]map[int64]struct{}),
		interactions: make(map[int64]map[string][]int64),
	}
}

// AddAlgorithm stores a.
func (m *MemoryCatalog) AddAlgorithm(a models.Algorithm) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.algorithms[a.ID] = a
}

// AddPost stores p.
func (m *MemoryCatalog) AddPost(p models.Post) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[p.ID] = p
}

// AddUser stores u.
func (m *MemoryCatalog) AddUser(u models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

// AddLearningRecord stores r.
func (m *MemoryCatalog) AddLearningRecord(r models.LearningRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records[r.UserID] == nil {
		m.records[r.UserID] = make(map[int64]models.LearningRecord)
	}
	m.records[r.UserID][r.AlgorithmID] = r
}

// AddInteraction records that userID performed kind on postID. Later calls
// are more recent. Repeating an interaction moves it to most recent.
func (m *MemoryCatalog) AddInteraction(userID, postID int64, kind string) error {
	switch kind {
	case KindLike, KindFavorite, KindComment:
	default:
		return fmt.Errorf("unknown interaction kind %q", kind)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.interactions[userID] == nil {
		m.interactions[userID] = make(map[string][]int64)
	}
	ids := m.interactions[userID][kind]
	for i, id := range ids {
		if id == postID {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	m.interactions[userID][kind] = append(ids, postID)
	return nil
}

// LinkPost associates a post with an algorithm.
func (m *MemoryCatalog) LinkPost(algorithmID, postID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.links[algorithmID] == nil {
		m.links[algorithmID] = make(map[int64]struct{})
	}
	m.links[algorithmID][postID] = struct{}{}
}

// Algorithm implements Catalog.
func (m *MemoryCatalog) Algorithm(ctx context.Context, id int64) (*models.Algorithm, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.algorithms[id]
	if !ok {
		return nil, fmt.Errorf("algorithm %d: %w", id, ErrNotFound)
	}
	return &a, nil
}

// Algorithms implements Catalog.
func (m *MemoryCatalog) Algorithms(ctx context.Context) ([]models.Algorithm, error) {
	m.mu.RLock()
	out := make([]models.Algorithm, 0, len(m.algorithms))
	for _, a := range m.algorithms {
		out = append(out, a)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CountAlgorithms implements Catalog.
func (m *MemoryCatalog) CountAlgorithms(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.algorithms), nil
}

// Post implements Catalog.
func (m *MemoryCatalog) Post(ctx context.Context, id int64) (*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %d: %w", id, ErrNotFound)
	}
	return m.withAuthor(p), nil
}

// withAuthor fills the author's username from users when missing.
// Must be called with the read lock held.
func (m *MemoryCatalog) withAuthor(p models.Post) *models.Post {
	if p.Author.Username == "" {
		if u, ok := m.users[p.Author.ID]; ok {
			p.Author.Username = u.Username
		}
	}
	return &p
}

// Posts implements Catalog.
func (m *MemoryCatalog) Posts(ctx context.Context) ([]models.Post, error) {
	return m.sortedPosts(func(*models.Post) bool { return true }), nil
}

// PostsByIDs implements Catalog.
func (m *MemoryCatalog) PostsByIDs(ctx context.Context, ids []int64) (map[int64]models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int64]models.Post, len(ids))
	for _, id := range ids {
		if p, ok := m.posts[id]; ok {
			out[id] = *m.withAuthor(p)
		}
	}
	return out, nil
}

// sortedPosts returns posts passing keep by ascending id.
func (m *MemoryCatalog) sortedPosts(keep func(*models.Post) bool) []models.Post {
	m.mu.RLock()
	out := make([]models.Post, 0, len(m.posts))
	for _, p := range m.posts {
		if keep(&p) {
			out = append(out, *m.withAuthor(p))
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func limitPosts(posts []models.Post, limit int) []models.Post {
	if limit > 0 && len(posts) > limit {
		return posts[:limit]
	}
	return posts
}

// PopularPosts implements Catalog.
func (m *MemoryCatalog) PopularPosts(ctx context.Context, excludeAuthorID int64, limit int) ([]models.Post, error) {
	out := m.sortedPosts(func(p *models.Post) bool { return p.Author.ID != excludeAuthorID })
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LikeCount != out[j].LikeCount {
			return out[i].LikeCount > out[j].LikeCount
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return limitPosts(out, limit), nil
}

// PostsByTags implements Catalog.
func (m *MemoryCatalog) PostsByTags(ctx context.Context, tags []string, limit int) ([]models.Post, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	out := m.sortedPosts(func(p *models.Post) bool { return models.TagOverlap(p.Tags, tags) > 0 })
	return limitPosts(out, limit), nil
}

// PostsByKeywords implements Catalog.
func (m *MemoryCatalog) PostsByKeywords(ctx context.Context, keywords []string, limit int) ([]models.Post, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}
	out := m.sortedPosts(func(p *models.Post) bool {
		title, content := strings.ToLower(p.Title), strings.ToLower(p.Content)
		for _, k := range lowered {
			if strings.Contains(title, k) || strings.Contains(content, k) {
				return true
			}
		}
		return false
	})
	return limitPosts(out, limit), nil
}

// CountPosts implements Catalog.
func (m *MemoryCatalog) CountPosts(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.posts), nil
}

// LinkedPostIDs implements Catalog.
func (m *MemoryCatalog) LinkedPostIDs(ctx context.Context, algorithmID int64) ([]int64, error) {
	m.mu.RLock()
	out := make([]int64, 0, len(m.links[algorithmID]))
	for id := range m.links[algorithmID] {
		out = append(out, id)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// User implements Catalog.
func (m *MemoryCatalog) User(ctx context.Context, id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return &u, nil
}

// LearningRecords implements Catalog.
func (m *MemoryCatalog) LearningRecords(ctx context.Context, userID int64) ([]models.LearningRecord, error) {
	m.mu.RLock()
	out := make([]models.LearningRecord, 0, len(m.records[userID]))
	for _, r := range m.records[userID] {
		out = append(out, r)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastAccessed.Equal(out[j].LastAccessed) {
			return out[i].LastAccessed.After(out[j].LastAccessed)
		}
		return out[i].AlgorithmID < out[j].AlgorithmID
	})
	return out, nil
}

// Interactions implements Catalog.
func (m *MemoryCatalog) Interactions(ctx context.Context, userID int64) (*models.Interactions, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byKind := m.interactions[userID]
	in := &models.Interactions{
		Liked:     reversed(byKind[KindLike]),
		Favorited: reversed(byKind[KindFavorite]),
		Commented: reversed(byKind[KindComment]),
	}

	var authored []models.Post
	for _, p := range m.posts {
		if p.Author.ID == userID {
			authored = append(authored, p)
		}
	}
	sort.Slice(authored, func(i, j int) bool {
		if !authored[i].CreatedAt.Equal(authored[j].CreatedAt) {
			return authored[i].CreatedAt.After(authored[j].CreatedAt)
		}
		return authored[i].ID > authored[j].ID
	})
	for _, p := range authored {
		in.Authored = append(in.Authored, p.ID)
	}
	return in, nil
}

func reversed(ids []int64) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}

// Snapshot is the JSON document accepted by LoadSnapshot.
type Snapshot struct {
	Users           []models.User           `json:"users"`
	Algorithms      []models.Algorithm      `json:"algorithms"`
	Posts           []models.Post           `json:"posts"`
	LearningRecords []models.LearningRecord `json:"learning_records"`
	Interactions    []SnapshotInteraction   `json:"interactions"`
	Links           []SnapshotLink          `json:"links"`
}

// SnapshotInteraction is one like, favorite or comment, oldest first.
type SnapshotInteraction struct {
	UserID int64  `json:"user_id"`
	PostID int64  `json:"post_id"`
	Kind   string `json:"kind"`
}

// SnapshotLink associates a post with an algorithm.
type SnapshotLink struct {
	AlgorithmID int64 `json:"algorithm_id"`
	PostID      int64 `json:"post_id"`
}

// LoadSnapshot decodes a Snapshot from r into m.
func (m *MemoryCatalog) LoadSnapshot(r io.Reader) error {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("decode catalog snapshot: %w", err)
	}
	for _, u := range snap.Users {
		m.AddUser(u)
	}
	for _, a := range snap.Algorithms {
		m.AddAlgorithm(a)
	}
	for _, p := range snap.Posts {
		m.AddPost(p)
	}
	for _, rec := range snap.LearningRecords {
		m.AddLearningRecord(rec)
	}
	for _, in := range snap.Interactions {
		if err := m.AddInteraction(in.UserID, in.PostID, in.Kind); err != nil {
			return err
		}
	}
	for _, l := range snap.Links {
		m.LinkPost(l.AlgorithmID, l.PostID)
	}
	return nil
}

// LoadSnapshotFile loads a snapshot from path.
func (m *MemoryCatalog) LoadSnapshotFile(path string) error {
	f, err := os.Open(path) //nolint:gosec // G304: path is trusted input from configuration
	if err != nil {
		return fmt.Errorf("open catalog snapshot: %w", err)
	}
	defer f.Close()
	return m.LoadSnapshot(f)
}

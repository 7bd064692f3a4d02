// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package vectorstore

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps collections in process memory.
type MemoryStore struct {
	collections map[string]*memoryCollection
	names       []string
}

// NewMemoryStore creates a store with the given collections, all of
// dimension dim. With no names the standard collections are created.
func NewMemoryStore(dim int, names ...string) *MemoryStore {
	if len(names) == 0 {
		names = CollectionNames
	}
	s := &MemoryStore{
		collections: make(map[string]*memoryCollection, len(names)),
		names:       append([]string(nil), names...),
	}
	for _, name := range names {
		s.collections[name] = &memoryCollection{
			name:    name,
			dim:     dim,
			records: make(map[int64]Record),
			now:     time.Now,
		}
	}
	return s
}

// Collection returns the named collection.
func (s *MemoryStore) Collection(name string) (Collection, error) {
	c, ok := s.collections[name]
	if !ok {
		return nil, unknownCollection(name)
	}
	return c, nil
}

// Names returns the collection names.
func (s *MemoryStore) Names() []string {
	return append([]string(nil), s.names...)
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

type memoryCollection struct {
	name string
	dim  int
	now  func() time.Time

	mu      sync.RWMutex
	records map[int64]Record
}

func (c *memoryCollection) Name() string   { return c.name }
func (c *memoryCollection) Dimension() int { return c.dim }

func (c *memoryCollection) Upsert(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkDimension(c.name, c.dim, rec.Vector); err != nil {
		return err
	}
	rec = rec.clone()
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = c.now().UTC()
	}

	c.mu.Lock()
	c.records[rec.ID] = rec
	c.mu.Unlock()
	return nil
}

func (c *memoryCollection) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.records, id)
	c.mu.Unlock()
	return nil
}

func (c *memoryCollection) Get(ctx context.Context, id int64) (Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, false, err
	}
	c.mu.RLock()
	rec, ok := c.records[id]
	c.mu.RUnlock()
	if !ok {
		return Record{}, false, nil
	}
	return rec.clone(), true, nil
}

func (c *memoryCollection) GetAll(ctx context.Context, f Filter) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := f.compile()
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	out := make([]Record, 0, len(c.records))
	for _, rec := range c.records {
		if m.match(&rec) {
			out = append(out, rec.clone())
		}
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *memoryCollection) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records), nil
}

func (c *memoryCollection) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.records = make(map[int64]Record)
	c.mu.Unlock()
	return nil
}

// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package vectorstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Key layout inside each collection database.
const (
	recordKeyPrefix = "rec:"
	dimensionKey    = "meta:dimension"
)

// BadgerStore persists each collection in its own BadgerDB at
// <dir>/<collection>.
type BadgerStore struct {
	dir         string
	collections map[string]*badgerCollection
	names       []string

	closeOnce sync.Once
	closeErr  error
}

// BadgerOptions configures OpenBadgerStore.
type BadgerOptions struct {
	Dir       string
	Dimension int
	Names     []string // defaults to CollectionNames
	InMemory  bool     // ignore Dir and keep data in memory (tests)
	SyncWrite bool
}

// OpenBadgerStore opens or creates every collection database.
// A collection persisted with a different dimension fails to open.
func OpenBadgerStore(opts BadgerOptions, logger zerolog.Logger) (*BadgerStore, error) {
	if opts.Dimension <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive, got %d", opts.Dimension)
	}
	names := opts.Names
	if len(names) == 0 {
		names = CollectionNames
	}
	if !opts.InMemory {
		if err := os.MkdirAll(opts.Dir, 0o750); err != nil {
			return nil, fmt.Errorf("create vector store directory: %w", err)
		}
	}

	s := &BadgerStore{
		dir:         opts.Dir,
		collections: make(map[string]*badgerCollection, len(names)),
		names:       append([]string(nil), names...),
	}

	for _, name := range names {
		bopts := badger.DefaultOptions(filepath.Join(opts.Dir, name))
		if opts.InMemory {
			bopts = badger.DefaultOptions("").WithInMemory(true)
		}
		bopts.Logger = nil // Suppress BadgerDB logs
		bopts.SyncWrites = opts.SyncWrite

		db, err := badger.Open(bopts)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("open collection %s: %w", name, err)
		}

		c := &badgerCollection{name: name, dim: opts.Dimension, db: db, now: time.Now}
		s.collections[name] = c
		if err := c.checkOrWriteDimension(); err != nil {
			_ = s.Close()
			return nil, err
		}

		logger.Debug().Str("collection", name).Msg("Vector collection opened")
	}

	logger.Info().
		Str("dir", opts.Dir).
		Int("dimension", opts.Dimension).
		Int("collections", len(names)).
		Msg("Badger vector store opened")

	return s, nil
}

// Collection returns the named collection.
func (s *BadgerStore) Collection(name string) (Collection, error) {
	c, ok := s.collections[name]
	if !ok {
		return nil, unknownCollection(name)
	}
	return c, nil
}

// Names returns the collection names.
func (s *BadgerStore) Names() []string {
	return append([]string(nil), s.names...)
}

// Close closes every collection database. It is safe to call more than once.
func (s *BadgerStore) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		for _, c := range s.collections {
			if err := c.db.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close collection %s: %w", c.name, err))
			}
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

type badgerCollection struct {
	name string
	dim  int
	db   *badger.DB
	now  func() time.Time

	// Serializes writers; badger transactions already give readers a
	// consistent snapshot.
	writeMu sync.Mutex
}

func (c *badgerCollection) Name() string   { return c.name }
func (c *badgerCollection) Dimension() int { return c.dim }

func recordKey(id int64) []byte {
	key := make([]byte, len(recordKeyPrefix)+8)
	copy(key, recordKeyPrefix)
	// Offset so negative ids sort before positive ones.
	binary.BigEndian.PutUint64(key[len(recordKeyPrefix):], uint64(id)^(1<<63))
	return key
}

func (c *badgerCollection) checkOrWriteDimension() error {
	var stored int
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(dimensionKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			n, err := strconv.Atoi(string(val))
			stored = n
			return err
		})
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return c.writeDimension()
	case err != nil:
		return fmt.Errorf("collection %s: read dimension: %w", c.name, err)
	case stored != c.dim:
		return &DimensionMismatchError{Collection: c.name, Expected: stored, Actual: c.dim}
	}
	return nil
}

func (c *badgerCollection) writeDimension() error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(dimensionKey), []byte(strconv.Itoa(c.dim)))
	})
}

func (c *badgerCollection) Upsert(ctx context.Context, rec Record) error {
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

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	// A single Set replaces the previous value atomically.
	if err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(rec.ID), data)
	}); err != nil {
		return c.unavailable("upsert", err)
	}
	return nil
}

func (c *badgerCollection) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	err := c.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(recordKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return c.unavailable("delete", err)
	}
	return nil
}

func (c *badgerCollection) Get(ctx context.Context, id int64) (Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, false, err
	}

	var rec Record
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, c.unavailable("get", err)
	}
	return rec.clone(), true, nil
}

func (c *badgerCollection) GetAll(ctx context.Context, f Filter) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := f.compile()
	if err != nil {
		return nil, err
	}

	var out []Record
	err = c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(recordKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			rec = rec.clone()
			if m.match(&rec) {
				out = append(out, rec)
			}
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, c.unavailable("get_all", err)
	}
	// Keys are ordered by id, so out already is.
	return out, nil
}

func (c *badgerCollection) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	n := 0
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(recordKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, c.unavailable("count", err)
	}
	return n, nil
}

func (c *badgerCollection) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.db.DropAll(); err != nil {
		return c.unavailable("reset", err)
	}
	if err := c.writeDimension(); err != nil {
		return c.unavailable("reset", err)
	}
	return nil
}

func (c *badgerCollection) unavailable(op string, err error) error {
	return fmt.Errorf("%w: collection %s %s: %w", ErrStoreUnavailable, c.name, op, err)
}

// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lodestar/internal/breaker"
	"github.com/tomtom215/lodestar/internal/metrics"
)

// IsCallerError reports whether err was caused by the request rather than
// the store: bad dimensions, bad filters, unknown collections or a
// cancelled context.
func IsCallerError(err error) bool {
	return errors.Is(err, ErrDimensionMismatch) ||
		errors.Is(err, ErrInvalidFilter) ||
		errors.Is(err, ErrUnknownCollection) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// guardedCollection routes every call through a circuit breaker. While the
// breaker is open calls fail fast with ErrStoreUnavailable.
type guardedCollection struct {
	Collection
	cb *breaker.Breaker
}

// Guard wraps c with cb.
func Guard(c Collection, cb *breaker.Breaker) Collection {
	return &guardedCollection{Collection: c, cb: cb}
}

func (g *guardedCollection) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if breaker.IsRejected(err) {
		metrics.RecordStoreError(g.Name(), op)
		return fmt.Errorf("%w: collection %s: %w", ErrStoreUnavailable, g.Name(), err)
	}
	if !IsCallerError(err) {
		metrics.RecordStoreError(g.Name(), op)
	}
	return err
}

func (g *guardedCollection) Upsert(ctx context.Context, rec Record) error {
	_, err := g.cb.Execute(func() (interface{}, error) {
		return nil, g.Collection.Upsert(ctx, rec)
	})
	return g.wrap("upsert", err)
}

func (g *guardedCollection) Delete(ctx context.Context, id int64) error {
	_, err := g.cb.Execute(func() (interface{}, error) {
		return nil, g.Collection.Delete(ctx, id)
	})
	return g.wrap("delete", err)
}

func (g *guardedCollection) Get(ctx context.Context, id int64) (Record, bool, error) {
	var (
		rec   Record
		found bool
	)
	_, err := g.cb.Execute(func() (interface{}, error) {
		var err error
		rec, found, err = g.Collection.Get(ctx, id)
		return nil, err
	})
	if err != nil {
		return Record{}, false, g.wrap("get", err)
	}
	return rec, found, nil
}

func (g *guardedCollection) GetAll(ctx context.Context, f Filter) ([]Record, error) {
	recs, err := breaker.Do(g.cb, func() ([]Record, error) {
		return g.Collection.GetAll(ctx, f)
	})
	return recs, g.wrap("get_all", err)
}

func (g *guardedCollection) Count(ctx context.Context) (int, error) {
	n, err := breaker.Do(g.cb, func() (int, error) {
		return g.Collection.Count(ctx)
	})
	return n, g.wrap("count", err)
}

func (g *guardedCollection) Reset(ctx context.Context) error {
	_, err := g.cb.Execute(func() (interface{}, error) {
		return nil, g.Collection.Reset(ctx)
	})
	return g.wrap("reset", err)
}

// guardedStore hands out guarded collections.
type guardedStore struct {
	Store
	collections map[string]Collection
}

// GuardStore wraps every collection of s with its own breaker named
// "collection:<name>". Settings other than the name come from cfg.
func GuardStore(s Store, cfg breaker.Config, logger zerolog.Logger) (Store, error) {
	gs := &guardedStore{Store: s, collections: make(map[string]Collection)}
	for _, name := range s.Names() {
		c, err := s.Collection(name)
		if err != nil {
			return nil, err
		}
		bc := cfg
		bc.Name = "collection:" + name
		bc.IsSuccessful = func(err error) bool { return err == nil || IsCallerError(err) }
		gs.collections[name] = Guard(c, breaker.New(bc, logger))
	}
	return gs, nil
}

func (g *guardedStore) Collection(name string) (Collection, error) {
	c, ok := g.collections[name]
	if !ok {
		return nil, unknownCollection(name)
	}
	return c, nil
}

// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package vectorstore

import (
	"github.com/google/cel-go/cel"
)

// Op is a metadata comparison operator.
type Op string

// Supported operators.
const (
	OpEq    Op = "eq"
	OpNe    Op = "ne"
	OpIn    Op = "in"
	OpNotIn Op = "not_in"
)

// Condition compares one metadata field against one or more values.
// Numbers compare by value regardless of their Go type.
type Condition struct {
	Field  string
	Op     Op
	Values []any
}

// Eq matches records whose field equals v.
func Eq(field string, v any) Condition { return Condition{Field: field, Op: OpEq, Values: []any{v}} }

// Ne matches records whose field is absent or differs from v.
func Ne(field string, v any) Condition { return Condition{Field: field, Op: OpNe, Values: []any{v}} }

// In matches records whose field equals any of vs.
func In(field string, vs ...any) Condition { return Condition{Field: field, Op: OpIn, Values: vs} }

// NotIn matches records whose field is absent or equals none of vs.
func NotIn(field string, vs ...any) Condition {
	return Condition{Field: field, Op: OpNotIn, Values: vs}
}

// Filter selects records for GetAll and Search. All parts are ANDed; the
// zero Filter matches everything.
type Filter struct {
	// IDs restricts results to these ids when non-empty.
	IDs []int64

	// ExcludeIDs drops these ids.
	ExcludeIDs []int64

	// Conditions on metadata fields.
	Conditions []Condition

	// Expr is an optional CEL boolean expression over `id` (int) and
	// `metadata` (map). Records for which evaluation fails, for example
	// because a referenced key is missing, do not match. Guard optional
	// keys with has(metadata.key).
	Expr string
}

// matcher is a Filter prepared for repeated evaluation.
type matcher struct {
	include map[int64]struct{}
	exclude map[int64]struct{}
	conds   []Condition
	prg     cel.Program
}

func (f Filter) compile() (*matcher, error) {
	m := &matcher{}
	if len(f.IDs) > 0 {
		m.include = make(map[int64]struct{}, len(f.IDs))
		for _, id := range f.IDs {
			m.include[id] = struct{}{}
		}
	}
	if len(f.ExcludeIDs) > 0 {
		m.exclude = make(map[int64]struct{}, len(f.ExcludeIDs))
		for _, id := range f.ExcludeIDs {
			m.exclude[id] = struct{}{}
		}
	}
	if len(f.Conditions) > 0 {
		m.conds = make([]Condition, len(f.Conditions))
		for i, c := range f.Conditions {
			vals := make([]any, len(c.Values))
			for j, v := range c.Values {
				vals[j] = normalizeValue(v)
			}
			m.conds[i] = Condition{Field: c.Field, Op: c.Op, Values: vals}
		}
	}
	if f.Expr != "" {
		prg, err := compileExpr(f.Expr)
		if err != nil {
			return nil, err
		}
		m.prg = prg
	}
	return m, nil
}

// match reports whether r passes. r.Metadata must already be normalized.
func (m *matcher) match(r *Record) bool {
	if m.include != nil {
		if _, ok := m.include[r.ID]; !ok {
			return false
		}
	}
	if m.exclude != nil {
		if _, ok := m.exclude[r.ID]; ok {
			return false
		}
	}
	for _, c := range m.conds {
		if !c.match(r.Metadata) {
			return false
		}
	}
	if m.prg != nil {
		return evalExpr(m.prg, r)
	}
	return true
}

func (c Condition) match(md map[string]any) bool {
	v, present := md[c.Field]
	switch c.Op {
	case OpEq, OpIn:
		return present && containsValue(c.Values, v)
	case OpNe, OpNotIn:
		return !present || !containsValue(c.Values, v)
	default:
		return false
	}
}

func containsValue(vals []any, v any) bool {
	for _, want := range vals {
		if scalarEqual(want, v) {
			return true
		}
	}
	return false
}

// scalarEqual compares normalized scalar values. Non-scalars never match.
func scalarEqual(a, b any) bool {
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case int64:
		switch y := b.(type) {
		case int64:
			return x == y
		case float64:
			return float64(x) == y
		}
	case float64:
		switch y := b.(type) {
		case float64:
			return x == y
		case int64:
			return x == float64(y)
		}
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	}
	return false
}

// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package vectorstore

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/tomtom215/lodestar/internal/cache"
)

var (
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once

	// Compiled programs are safe for concurrent use and reused across calls.
	programs = cache.NewLRU[string, cel.Program](256, 0)
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("id", cel.IntType),
			cel.Variable("metadata", cel.MapType(cel.StringType, cel.DynType)),
		)
	})
	return celEnv, celEnvErr
}

// compileExpr returns the cached program for expr, compiling it on first use.
func compileExpr(expr string) (cel.Program, error) {
	if prg, ok := programs.Get(expr); ok {
		return prg, nil
	}

	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}

	programs.Add(expr, prg)
	return prg, nil
}

// ValidateExpr reports whether expr compiles. Expressions that evaluate to a
// non-bool value match nothing.
func ValidateExpr(expr string) error {
	if expr == "" {
		return nil
	}
	_, err := compileExpr(expr)
	return err
}

func evalExpr(prg cel.Program, r *Record) bool {
	md := r.Metadata
	if md == nil {
		md = map[string]any{}
	}
	out, _, err := prg.Eval(map[string]any{
		"id":       r.ID,
		"metadata": md,
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}

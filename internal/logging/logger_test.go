// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Level != "info" {
		t.Errorf("default level = %q, want info", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("default format = %q, want json", cfg.Format)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamps on by default")
	}
	if cfg.Service != "lodestar" {
		t.Errorf("default service = %q, want lodestar", cfg.Service)
	}
}

// Tests below mutate the global logger and must not run in parallel.

func TestInit_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Timestamp: true, Output: &buf})
	defer Init(DefaultConfig())

	Info().Str("collection", "posts").Msg("collection reset")

	out := buf.String()
	if !strings.Contains(out, `"message":"collection reset"`) {
		t.Errorf("missing message: %s", out)
	}
	if !strings.Contains(out, `"collection":"posts"`) {
		t.Errorf("missing field: %s", out)
	}
}

func TestInit_ServiceField(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Service: "lodestar-test", Output: &buf})
	defer Init(DefaultConfig())

	Error().Msg("boom")
	if !strings.Contains(buf.String(), `"service":"lodestar-test"`) {
		t.Errorf("service field missing: %s", buf.String())
	}

	buf.Reset()
	Init(Config{Output: &buf})
	Error().Msg("boom")
	if strings.Contains(buf.String(), `"service"`) {
		t.Errorf("service field should be omitted: %s", buf.String())
	}
}

func TestInit_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Output: &buf})
	defer Init(DefaultConfig())

	Info().Msg("hidden")
	Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn should be written: %s", out)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	defer Init(DefaultConfig())

	l := WithComponent("embedding")
	l.Info().Msg("ready")

	if !strings.Contains(buf.String(), `"component":"embedding"`) {
		t.Errorf("component field missing: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{" Fatal ", zerolog.FatalLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidLevel(t *testing.T) {
	t.Parallel()

	if !ValidLevel("Warn") {
		t.Error("Warn should be valid")
	}
	if !ValidLevel("warning") {
		t.Error("warning should be valid")
	}
	for _, bad := range []string{"verbose", ""} {
		if ValidLevel(bad) {
			t.Errorf("%q should be invalid", bad)
		}
	}
}

// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

// Package logging provides the process-wide zerolog logger for Lodestar.
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Msg("server starting")
//	logging.Ctx(ctx).Info().Int64("user_id", id).Msg("recommendations served")
//
// Components take a zerolog.Logger by value at construction, usually from
// WithComponent, and the HTTP layer reaches for Ctx so request ids follow
// every line. Recommendation inputs are user content: log ids and lengths,
// never the text itself.
package logging

import (
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	Level     string    // trace, debug, info, warn, error, fatal, panic, disabled
	Format    string    // json or console
	Caller    bool      // add file:line
	Timestamp bool      // add the "time" field
	Service   string    // value of the "service" field; empty omits it
	Output    io.Writer // default os.Stderr
}

// DefaultConfig returns JSON at info level on stderr.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "json",
		Timestamp: true,
		Service:   "lodestar",
		Output:    os.Stderr,
	}
}

var global atomic.Pointer[zerolog.Logger]

//nolint:gochecknoinits // logging must work before Init is called
func init() {
	Init(DefaultConfig())
}

// Init builds the global logger from cfg. It may be called again, e.g.
// after configuration is loaded.
func Init(cfg Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFieldName = "time"
	zerolog.MessageFieldName = "message"
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	lc := zerolog.New(out).With()
	if cfg.Timestamp {
		lc = lc.Timestamp()
	}
	if cfg.Caller {
		lc = lc.Caller()
	}
	if cfg.Service != "" {
		lc = lc.Str("service", cfg.Service)
	}
	l := lc.Logger()
	global.Store(&l)
}

// parseLevel maps a level name to zerolog.Level. Unknown or empty names
// select info.
func parseLevel(level string) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		name = "warn"
	}
	if name == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// ValidLevel reports whether level names a known zerolog level.
func ValidLevel(level string) bool {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		return true
	}
	lvl, err := zerolog.ParseLevel(name)
	return err == nil && name != "" && lvl != zerolog.NoLevel
}

// Logger returns a copy of the global logger.
func Logger() zerolog.Logger {
	return *global.Load()
}

// SetLogger replaces the global logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func SetLogger(l zerolog.Logger) {
	global.Store(&l)
}

// WithComponent returns a child of the global logger tagged with component.
func WithComponent(component string) zerolog.Logger {
	return global.Load().With().Str("component", component).Logger()
}

// Debug starts a debug-level message on the global logger.
func Debug() *zerolog.Event { return global.Load().Debug() }

// Info starts an info-level message on the global logger.
func Info() *zerolog.Event { return global.Load().Info() }

// Warn starts a warn-level message on the global logger.
func Warn() *zerolog.Event { return global.Load().Warn() }

// Error starts an error-level message on the global logger.
func Error() *zerolog.Event { return global.Load().Error() }

// Fatal starts a fatal-level message; os.Exit(1) follows the write.
func Fatal() *zerolog.Event { return global.Load().Fatal() }

// NewTestLogger returns a JSON logger writing to w.
func NewTestLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

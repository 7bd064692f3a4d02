// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/lodestar/internal/config"
)

// LimitClass groups endpoints that share a per-IP request budget.
type LimitClass string

// Endpoint classes with their own budget. The general API budget comes
// from RateLimitRequests and RateLimitWindow.
const (
	LimitSearch LimitClass = "search" // embeds caller-supplied text
	LimitWrite  LimitClass = "write"  // enqueue and profile refresh
	LimitAdmin  LimitClass = "admin"  // collection reset
	LimitHealth LimitClass = "health" // probes and monitoring
)

// Limit is a request budget per client IP.
type Limit struct {
	Requests int
	Window   time.Duration
}

// DefaultLimits returns the per-class budgets.
func DefaultLimits() map[LimitClass]Limit {
	return map[LimitClass]Limit{
		LimitSearch: {Requests: 60, Window: time.Minute},
		LimitWrite:  {Requests: 30, Window: time.Minute},
		LimitAdmin:  {Requests: 5, Window: time.Minute},
		LimitHealth: {Requests: 1000, Window: time.Minute},
	}
}

// ChiMiddlewareConfig holds CORS and rate limit settings.
type ChiMiddlewareConfig struct {
	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSExposedHeaders   []string
	CORSAllowCredentials bool
	CORSMaxAge           int // seconds

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
	RateLimitKeyFunc  httprate.KeyFunc     // default httprate.KeyByIP
	Limits            map[LimitClass]Limit // default DefaultLimits()
}

// DefaultChiMiddlewareConfig allows no cross-origin callers until origins
// are configured.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{},
		CORSAllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		CORSAllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		CORSExposedHeaders: []string{"X-Request-ID", "ETag"},
		CORSMaxAge:         86400,
		RateLimitRequests:  100,
		RateLimitWindow:    time.Minute,
		Limits:             DefaultLimits(),
	}
}

// ChiMiddlewareConfigFromServer applies the server section over the defaults.
func ChiMiddlewareConfigFromServer(cfg *config.ServerConfig) *ChiMiddlewareConfig {
	out := DefaultChiMiddlewareConfig()
	out.CORSAllowedOrigins = cfg.CORSOrigins
	out.RateLimitRequests = cfg.RateLimitReqs
	out.RateLimitWindow = cfg.RateLimitWindow
	out.RateLimitDisabled = cfg.RateLimitDisabled
	return out
}

// ChiMiddleware builds the router's CORS and rate limit middleware.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewChiMiddleware creates the factory. A nil config selects the defaults.
func NewChiMiddleware(cfg *ChiMiddlewareConfig) *ChiMiddleware {
	if cfg == nil {
		cfg = DefaultChiMiddlewareConfig()
	}
	if cfg.RateLimitKeyFunc == nil {
		cfg.RateLimitKeyFunc = httprate.KeyByIP
	}
	if cfg.Limits == nil {
		cfg.Limits = DefaultLimits()
	}
	return &ChiMiddleware{
		config: cfg,
		cors: cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   cfg.CORSAllowedMethods,
			AllowedHeaders:   cfg.CORSAllowedHeaders,
			ExposedHeaders:   cfg.CORSExposedHeaders,
			AllowCredentials: cfg.CORSAllowCredentials,
			MaxAge:           cfg.CORSMaxAge,
		}),
	}
}

// CORS returns the go-chi/cors handler. It must run before routing so
// preflight requests are answered.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit applies the general API budget.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	return m.limiter(Limit{Requests: m.config.RateLimitRequests, Window: m.config.RateLimitWindow})
}

// RateLimitFor applies the budget of class. An unknown class gets the
// general budget.
func (m *ChiMiddleware) RateLimitFor(class LimitClass) func(http.Handler) http.Handler {
	l, ok := m.config.Limits[class]
	if !ok {
		return m.RateLimit()
	}
	return m.limiter(l)
}

// RateLimitSearch limits text search.
func (m *ChiMiddleware) RateLimitSearch() func(http.Handler) http.Handler {
	return m.RateLimitFor(LimitSearch)
}

// RateLimitWrite limits enqueue and refresh.
func (m *ChiMiddleware) RateLimitWrite() func(http.Handler) http.Handler {
	return m.RateLimitFor(LimitWrite)
}

// RateLimitAdmin limits collection resets.
func (m *ChiMiddleware) RateLimitAdmin() func(http.Handler) http.Handler {
	return m.RateLimitFor(LimitAdmin)
}

// RateLimitHealth limits health probes.
func (m *ChiMiddleware) RateLimitHealth() func(http.Handler) http.Handler {
	return m.RateLimitFor(LimitHealth)
}

func (m *ChiMiddleware) limiter(l Limit) func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled || l.Requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(l.Requests, l.Window,
		httprate.WithKeyFuncs(m.config.RateLimitKeyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, r, http.StatusTooManyRequests, codeRateLimited, "Too many requests", nil)
		}),
	)
}

var securityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
}

// APISecurityHeaders sets nosniff, frame denial and referrer policy on
// every response, and HSTS when the request came in over TLS directly or
// through a proxy that reports X-Forwarded-Proto: https.
func APISecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, kv := range securityHeaders {
				h.Set(kv[0], kv[1])
			}
			if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

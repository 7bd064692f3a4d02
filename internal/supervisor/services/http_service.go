// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// HTTPServer is the part of *http.Server the service drives.
type HTTPServer interface {
	Serve(ln net.Listener) error
	Shutdown(ctx context.Context) error
}

// HTTPServerConfig holds listener settings for HTTPServerService.
type HTTPServerConfig struct {
	// Addr is the TCP address to bind, e.g. "0.0.0.0:8420" or "127.0.0.1:0".
	Addr string

	// ShutdownTimeout bounds connection draining. Default: 10s
	ShutdownTimeout time.Duration
}

// HTTPServerService runs an HTTP server under suture.
//
// The listener is bound inside Serve, so a port conflict is a service
// failure that suture retries with backoff instead of a crash in main.
type HTTPServerService struct {
	server HTTPServer
	config HTTPServerConfig
	logger zerolog.Logger

	mu    sync.RWMutex
	bound net.Addr
}

// NewHTTPServerService creates a new HTTP server service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHTTPServerService(server HTTPServer, cfg HTTPServerConfig, logger zerolog.Logger) *HTTPServerService {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{
		server: server,
		config: cfg,
		logger: logger.With().Str("service", "http-server").Logger(),
	}
}

// Serve implements suture.Service.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", h.config.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", h.config.Addr, err)
	}
	h.setBound(ln.Addr())
	defer h.setBound(nil)

	h.logger.Info().Str("addr", ln.Addr().String()).Msg("http server listening")

	done := make(chan error, 1)
	go func() {
		done <- h.server.Serve(ln)
	}()

	select {
	case err := <-done:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return errors.New("http server stopped unexpectedly")
		}
		return fmt.Errorf("http server failed: %w", err)

	case <-ctx.Done():
		drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.config.ShutdownTimeout)
		defer cancel()

		h.logger.Info().Dur("timeout", h.config.ShutdownTimeout).Msg("http server draining")
		shutdownErr := h.server.Shutdown(drainCtx)
		<-done
		if shutdownErr != nil {
			return fmt.Errorf("http server shutdown: %w", shutdownErr)
		}
		return ctx.Err()
	}
}

// Addr returns the bound address while the server runs, nil otherwise.
func (h *HTTPServerService) Addr() net.Addr {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.bound
}

func (h *HTTPServerService) setBound(a net.Addr) {
	h.mu.Lock()
	h.bound = a
	h.mu.Unlock()
}

// String implements fmt.Stringer.
func (h *HTTPServerService) String() string {
	return "http-server"
}

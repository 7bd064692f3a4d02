// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/lodestar/internal/catalog"
	"github.com/tomtom215/lodestar/internal/embedding"
	"github.com/tomtom215/lodestar/internal/vectorizer"
	"github.com/tomtom215/lodestar/internal/vectorstore"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateLogging,
		c.validateEmbedding,
		c.validateVectorStore,
		c.validateCatalog,
		c.validateQueue,
		c.validateMonitor,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}

	if err := c.Recommend.Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	return nil
}

// validateServer validates server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must not be negative")
	}
	if err := c.validateCORS(); err != nil {
		return err
	}
	return c.validateRateLimits()
}

// validateCORS rejects wildcard origins in production.
func (c *Config) validateCORS() error {
	if c.IsProduction() && c.hasWildcardCORS() {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed in production. " +
			"Set specific origins: CORS_ORIGINS=https://learn.example.com " +
			"or use ENVIRONMENT=development for testing purposes")
	}
	return nil
}

// hasWildcardCORS checks if CORS is configured with wildcard origins
func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Server.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS returns true if the CORS configuration should be
// logged at startup
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.hasWildcardCORS()
}

// Rate limit constants
const (
	minRateLimitRequests = 1           // Minimum 1 request allowed
	maxRateLimitRequests = 100000      // Maximum 100K requests per window
	minRateLimitWindow   = time.Second // Minimum 1 second window
	maxRateLimitWindow   = time.Hour   // Maximum 1 hour window
)

// validateRateLimits validates rate limiting configuration bounds.
func (c *Config) validateRateLimits() error {
	if c.Server.RateLimitDisabled {
		return nil
	}
	if c.Server.RateLimitReqs < minRateLimitRequests || c.Server.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Server.RateLimitWindow < minRateLimitWindow || c.Server.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	return nil
}

// Embedding bounds
const (
	minEmbeddingDimension = 8
	maxEmbeddingDimension = 4096
)

// validateEmbedding validates the embedding model settings
func (c *Config) validateEmbedding() error {
	if c.Embedding.Model == "" {
		return fmt.Errorf("EMBEDDING_MODEL is required")
	}
	if c.Embedding.Dimension < minEmbeddingDimension || c.Embedding.Dimension > maxEmbeddingDimension {
		return fmt.Errorf("EMBEDDING_DIMENSION must be between %d and %d", minEmbeddingDimension, maxEmbeddingDimension)
	}
	if c.Embedding.CacheSize < 0 {
		return fmt.Errorf("EMBEDDING_CACHE_SIZE must not be negative")
	}
	if c.Embedding.Model == embedding.ModelHashing {
		return nil
	}
	if _, ok := embedding.IsOpenAIModel(c.Embedding.Model); !ok {
		return fmt.Errorf("EMBEDDING_MODEL must be %s or an OpenAI model, got %q", embedding.ModelHashing, c.Embedding.Model)
	}
	if strings.TrimSpace(c.Embedding.OpenAIAPIKey) == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when EMBEDDING_MODEL=%s", c.Embedding.Model)
	}
	if c.Embedding.OpenAITimeout <= 0 {
		return fmt.Errorf("OPENAI_TIMEOUT must be positive")
	}
	return nil
}

// validateVectorStore validates the vector store driver and directory
func (c *Config) validateVectorStore() error {
	switch c.VectorStore.Driver {
	case vectorstore.DriverMemory:
		return nil
	case vectorstore.DriverBadger:
		if c.VectorStore.Dir == "" {
			return fmt.Errorf("VECTOR_STORE_DIR is required when VECTOR_STORE_DRIVER=badger")
		}
		return nil
	default:
		return fmt.Errorf("VECTOR_STORE_DRIVER must be memory or badger, got %q", c.VectorStore.Driver)
	}
}

// validateCatalog validates the catalog driver and DSN
func (c *Config) validateCatalog() error {
	switch c.Catalog.Driver {
	case catalog.DriverMemory:
		return nil
	case catalog.DriverSQLite, catalog.DriverDuckDB:
		if c.Catalog.DSN == "" {
			return fmt.Errorf("CATALOG_DSN is required when CATALOG_DRIVER=%s", c.Catalog.Driver)
		}
		return nil
	default:
		return fmt.Errorf("CATALOG_DRIVER must be memory, sqlite or duckdb, got %q", c.Catalog.Driver)
	}
}

// validateQueue validates background vectorization settings
func (c *Config) validateQueue() error {
	switch c.Queue.Driver {
	case vectorizer.DriverMemory:
		if c.Queue.Buffer < 1 {
			return fmt.Errorf("QUEUE_BUFFER must be positive")
		}
	case vectorizer.DriverNATS:
		if c.Queue.NATS.URL == "" {
			return fmt.Errorf("NATS_URL is required when QUEUE_DRIVER=nats")
		}
		if err := validateNATSURL(c.Queue.NATS.URL); err != nil {
			return fmt.Errorf("NATS_URL: %w", err)
		}
	default:
		return fmt.Errorf("QUEUE_DRIVER must be memory or nats, got %q", c.Queue.Driver)
	}

	if c.Queue.Topic == "" {
		return fmt.Errorf("QUEUE_TOPIC is required")
	}
	if c.Queue.PoisonTopic != "" && c.Queue.PoisonTopic == c.Queue.Topic {
		return fmt.Errorf("QUEUE_POISON_TOPIC must differ from QUEUE_TOPIC")
	}
	if c.Queue.RatePerSecond < 0 {
		return fmt.Errorf("QUEUE_RATE_PER_SECOND must not be negative")
	}
	if c.Queue.RetryMaxRetries < 0 {
		return fmt.Errorf("QUEUE_RETRY_MAX_RETRIES must not be negative")
	}
	return nil
}

var natsSchemes = map[string]bool{"nats": true, "tls": true, "ws": true, "wss": true}

// validateNATSURL checks the scheme and host of a NATS server URL
func validateNATSURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	if !natsSchemes[parsed.Scheme] {
		return fmt.Errorf("scheme must be nats, tls, ws, or wss, got: %s", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("host is required (e.g., localhost:4222)")
	}
	return nil
}

// validateMonitor validates health check and re-index scheduling
func (c *Config) validateMonitor() error {
	if c.Monitor.HealthInterval < time.Second {
		return fmt.Errorf("HEALTH_CHECK_INTERVAL must be at least 1s")
	}
	if c.Monitor.DegradedThreshold < 1 {
		return fmt.Errorf("HEALTH_DEGRADED_CHECKS must be positive")
	}
	if c.Monitor.ReindexInterval < 0 {
		return fmt.Errorf("REINDEX_INTERVAL must not be negative")
	}
	if c.Monitor.ReindexInterval > 0 && c.Monitor.ReindexInterval < time.Minute {
		return fmt.Errorf("REINDEX_INTERVAL must be 0 (disabled) or at least 1m")
	}
	return nil
}

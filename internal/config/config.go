// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package config

import (
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/lodestar/internal/breaker"
	"github.com/tomtom215/lodestar/internal/catalog"
	"github.com/tomtom215/lodestar/internal/embedding"
	"github.com/tomtom215/lodestar/internal/logging"
	"github.com/tomtom215/lodestar/internal/recommend"
	"github.com/tomtom215/lodestar/internal/vectorizer"
	"github.com/tomtom215/lodestar/internal/vectorstore"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	Embedding   EmbeddingConfig   `koanf:"embedding"`
	VectorStore VectorStoreConfig `koanf:"vector_store"`
	Catalog     CatalogConfig     `koanf:"catalog"`
	Queue       QueueConfig       `koanf:"queue"`
	Breaker     BreakerConfig     `koanf:"breaker"`
	Monitor     MonitorConfig     `koanf:"monitor"`
	Recommend   recommend.Config  `koanf:"recommend"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error
	Format string `koanf:"format"` // json or console
	Caller bool   `koanf:"caller"`
}

// EmbeddingConfig selects the embedding model and its cache
type EmbeddingConfig struct {
	Model     string        `koanf:"model"` // hashing-v1, an OpenAI model, or openai:<name>
	Dimension int           `koanf:"dimension"`
	CacheSize int           `koanf:"cache_size"`
	CacheTTL  time.Duration `koanf:"cache_ttl"`

	// OpenAI embeddings API, used when Model names an OpenAI model
	OpenAIAPIKey  string        `koanf:"openai_api_key"`
	OpenAIBaseURL string        `koanf:"openai_base_url"`
	OpenAITimeout time.Duration `koanf:"openai_timeout"`
}

// VectorStoreConfig selects where vector collections live
type VectorStoreConfig struct {
	Driver    string `koanf:"driver"` // memory or badger
	Dir       string `koanf:"dir"`
	SyncWrite bool   `koanf:"sync_write"`
}

// CatalogConfig points at the database holding algorithms, posts and
// learning records
type CatalogConfig struct {
	Driver   string `koanf:"driver"` // memory, sqlite or duckdb
	DSN      string `koanf:"dsn"`
	Migrate  bool   `koanf:"migrate"`
	Snapshot string `koanf:"snapshot"`
}

// QueueConfig holds background vectorization settings
type QueueConfig struct {
	Driver string `koanf:"driver"` // memory or nats
	Topic  string `koanf:"topic"`
	Buffer int64  `koanf:"buffer"`

	PoisonTopic          string        `koanf:"poison_topic"`
	RatePerSecond        float64       `koanf:"rate_per_second"`
	Burst                int           `koanf:"burst"`
	JobTimeout           time.Duration `koanf:"job_timeout"`
	RetryMaxRetries      int           `koanf:"retry_max_retries"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `koanf:"retry_max_interval"`
	CloseTimeout         time.Duration `koanf:"close_timeout"`

	NATS QueueNATSConfig `koanf:"nats"`
}

// QueueNATSConfig holds JetStream settings used when the queue driver is nats
type QueueNATSConfig struct {
	URL            string        `koanf:"url"`
	StreamName     string        `koanf:"stream_name"`
	DurableName    string        `koanf:"durable_name"`
	QueueGroup     string        `koanf:"queue_group"`
	MaxReconnects  int           `koanf:"max_reconnects"`
	ReconnectWait  time.Duration `koanf:"reconnect_wait"`
	AckWaitTimeout time.Duration `koanf:"ack_wait_timeout"`
	MaxDeliver     int           `koanf:"max_deliver"`
}

// BreakerConfig tunes the circuit breakers around the embedder, each
// vector collection and the queue publisher
type BreakerConfig struct {
	FailureThreshold uint32        `koanf:"failure_threshold"`
	MaxRequests      uint32        `koanf:"max_requests"`
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout"`
}

// MonitorConfig controls the periodic collection health check and the
// scheduled algorithm re-index
type MonitorConfig struct {
	HealthInterval    time.Duration `koanf:"health_interval"`
	DegradedThreshold int           `koanf:"degraded_threshold"`
	ReindexInterval   time.Duration `koanf:"reindex_interval"` // 0 disables
	ReindexOnStartup  bool          `koanf:"reindex_on_startup"`
	ReindexTimeout    time.Duration `koanf:"reindex_timeout"`
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// LoggingOptions converts the logging section for logging.Init.
func (c *Config) LoggingOptions() logging.Config {
	out := logging.DefaultConfig()
	out.Level = c.Logging.Level
	out.Format = c.Logging.Format
	out.Caller = c.Logging.Caller
	return out
}

// BreakerFor returns breaker settings named for one dependency.
func (c *Config) BreakerFor(name string) breaker.Config {
	out := breaker.DefaultConfig(name)
	if c.Breaker.FailureThreshold > 0 {
		out.FailureThreshold = c.Breaker.FailureThreshold
	}
	if c.Breaker.MaxRequests > 0 {
		out.MaxRequests = c.Breaker.MaxRequests
	}
	if c.Breaker.Interval > 0 {
		out.Interval = c.Breaker.Interval
	}
	if c.Breaker.Timeout > 0 {
		out.Timeout = c.Breaker.Timeout
	}
	return out
}

// EmbeddingOptions converts the embedding section for embedding.New.
func (c *Config) EmbeddingOptions() embedding.Config {
	return embedding.Config{
		Model:     c.Embedding.Model,
		Dimension: c.Embedding.Dimension,
		CacheSize: c.Embedding.CacheSize,
		CacheTTL:  c.Embedding.CacheTTL,
		Breaker:   c.BreakerFor("embedder"),
		OpenAI: embedding.OpenAIConfig{
			APIKey:  c.Embedding.OpenAIAPIKey,
			BaseURL: c.Embedding.OpenAIBaseURL,
			Timeout: c.Embedding.OpenAITimeout,
		},
	}
}

// VectorStoreOptions converts the vector store section for vectorstore.Open.
// The store dimension always follows the embedder.
func (c *Config) VectorStoreOptions() vectorstore.Config {
	return vectorstore.Config{
		Driver:    c.VectorStore.Driver,
		Dir:       c.VectorStore.Dir,
		Dimension: c.Embedding.Dimension,
		SyncWrite: c.VectorStore.SyncWrite,
		Breaker:   c.BreakerFor("vectorstore"),
	}
}

// CatalogOptions converts the catalog section for catalog.Open.
func (c *Config) CatalogOptions() catalog.Config {
	return catalog.Config{
		Driver:   c.Catalog.Driver,
		DSN:      c.Catalog.DSN,
		Migrate:  c.Catalog.Migrate,
		Snapshot: c.Catalog.Snapshot,
	}
}

// TransportOptions converts the queue section for vectorizer.NewTransport.
func (c *Config) TransportOptions() vectorizer.TransportConfig {
	n := c.Queue.NATS
	return vectorizer.TransportConfig{
		Driver: c.Queue.Driver,
		Buffer: c.Queue.Buffer,
		NATS: vectorizer.NATSConfig{
			URL:            n.URL,
			StreamName:     n.StreamName,
			DurableName:    n.DurableName,
			QueueGroup:     n.QueueGroup,
			MaxReconnects:  n.MaxReconnects,
			ReconnectWait:  n.ReconnectWait,
			AckWaitTimeout: n.AckWaitTimeout,
			MaxDeliver:     n.MaxDeliver,
			CloseTimeout:   c.Queue.CloseTimeout,
		},
	}
}

// WorkerOptions converts the queue section for vectorizer.NewWorker.
func (c *Config) WorkerOptions() vectorizer.WorkerConfig {
	out := vectorizer.DefaultWorkerConfig()
	out.Topic = c.Queue.Topic
	out.PoisonTopic = c.Queue.PoisonTopic
	out.RatePerSecond = c.Queue.RatePerSecond
	out.Burst = c.Queue.Burst
	out.JobTimeout = c.Queue.JobTimeout
	out.RetryMaxRetries = c.Queue.RetryMaxRetries
	out.RetryInitialInterval = c.Queue.RetryInitialInterval
	out.RetryMaxInterval = c.Queue.RetryMaxInterval
	out.CloseTimeout = c.Queue.CloseTimeout
	return out
}

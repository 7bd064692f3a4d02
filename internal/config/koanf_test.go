// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// clearMappedEnv blanks every mapped variable so the host environment does
// not leak into a test.
func clearMappedEnv(t *testing.T) {
	t.Helper()
	t.Setenv(ConfigPathEnvVar, "")
	for key := range envMappings {
		name := strings.ToUpper(key)
		if _, ok := os.LookupEnv(name); ok {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
}

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8420 {
		t.Errorf("Server.Port = %d, want 8420", cfg.Server.Port)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "*" {
		t.Errorf("Server.CORSOrigins = %v, want [*]", cfg.Server.CORSOrigins)
	}
	if cfg.Embedding.Dimension != 384 {
		t.Errorf("Embedding.Dimension = %d, want 384", cfg.Embedding.Dimension)
	}
	if cfg.VectorStore.Driver != "badger" {
		t.Errorf("VectorStore.Driver = %q, want badger", cfg.VectorStore.Driver)
	}
	if cfg.Queue.Driver != "memory" || cfg.Queue.Topic != "vectorize.jobs" {
		t.Errorf("Queue = %+v", cfg.Queue)
	}
	if cfg.Monitor.ReindexInterval != 0 {
		t.Errorf("Monitor.ReindexInterval = %v, want disabled", cfg.Monitor.ReindexInterval)
	}

	// Scoring constants
	if cfg.Recommend.Posts.MinSimilarity != 0.3 {
		t.Errorf("Recommend.Posts.MinSimilarity = %v, want 0.3", cfg.Recommend.Posts.MinSimilarity)
	}
	if cfg.Recommend.Related.DefaultPerPage != 5 {
		t.Errorf("Recommend.Related.DefaultPerPage = %d, want 5", cfg.Recommend.Related.DefaultPerPage)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

// TestEnvTransformFunc verifies environment variable name transformations
func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"HTTP_PORT", "server.port"},
		{"CORS_ORIGINS", "server.cors_origins"},
		{"DISABLE_RATE_LIMIT", "server.rate_limit_disabled"},
		{"LOG_LEVEL", "logging.level"},
		{"EMBEDDING_DIMENSION", "embedding.dimension"},
		{"OPENAI_API_KEY", "embedding.openai_api_key"},
		{"VECTOR_STORE_DIR", "vector_store.dir"},
		{"CATALOG_DSN", "catalog.dsn"},
		{"QUEUE_RETRY_INTERVAL", "queue.retry_initial_interval"},
		{"NATS_URL", "queue.nats.url"},
		{"BREAKER_TIMEOUT", "breaker.timeout"},
		{"REINDEX_INTERVAL", "monitor.reindex_interval"},
		{"RECOMMEND_POST_MIN_SIMILARITY", "recommend.posts.min_similarity"},
		{"log_level", "logging.level"},

		// Unmapped variables are skipped
		{"PATH", ""},
		{"HOME", ""},
		{"RANDOM_VAR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := envTransformFunc(tt.input); got != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

// TestEnvMappingsTargetKnownKeys guards against typos in envMappings
func TestEnvMappingsTargetKnownKeys(t *testing.T) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	for env, path := range envMappings {
		if !k.Exists(path) {
			t.Errorf("%s maps to unknown key %s", strings.ToUpper(env), path)
		}
	}
}

func TestFindConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(origDir); err != nil {
			t.Errorf("Failed to restore working directory: %v", err)
		}
	})
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}

	t.Run("no config file exists", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "")
		if result := findConfigFile(); result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})

	t.Run("config.yaml exists", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "config.yaml")
		if err := os.WriteFile(configPath, []byte("server:\n  port: 1\n"), 0o600); err != nil {
			t.Fatalf("Failed to create config file: %v", err)
		}
		defer os.Remove(configPath)

		t.Setenv(ConfigPathEnvVar, "")
		if result := findConfigFile(); result != "config.yaml" {
			t.Errorf("findConfigFile() = %q, want config.yaml", result)
		}
	})

	t.Run("CONFIG_PATH env var takes precedence", func(t *testing.T) {
		customPath := filepath.Join(tmpDir, "custom.yaml")
		if err := os.WriteFile(customPath, []byte("server:\n  port: 1\n"), 0o600); err != nil {
			t.Fatalf("Failed to create custom config file: %v", err)
		}
		defer os.Remove(customPath)

		t.Setenv(ConfigPathEnvVar, customPath)
		if result := findConfigFile(); result != customPath {
			t.Errorf("findConfigFile() = %q, want %q", result, customPath)
		}
	})

	t.Run("CONFIG_PATH with non-existent file", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "/non/existent/config.yaml")
		if result := findConfigFile(); result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})
}

// TestLoadEnvVars tests loading configuration from environment variables
func TestLoadEnvVars(t *testing.T) {
	clearMappedEnv(t)

	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("EMBEDDING_DIMENSION", "256")
	t.Setenv("QUEUE_DRIVER", "nats")
	t.Setenv("NATS_URL", "nats://broker.internal:4222")
	t.Setenv("QUEUE_JOB_TIMEOUT", "45s")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("RECOMMEND_POST_MIN_SIMILARITY", "0.45")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Embedding.Dimension != 256 {
		t.Errorf("Embedding.Dimension = %d, want 256", cfg.Embedding.Dimension)
	}
	if cfg.Queue.Driver != "nats" || cfg.Queue.NATS.URL != "nats://broker.internal:4222" {
		t.Errorf("Queue = %+v", cfg.Queue)
	}
	if cfg.Queue.JobTimeout != 45*time.Second {
		t.Errorf("Queue.JobTimeout = %v, want 45s", cfg.Queue.JobTimeout)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example.com" {
		t.Errorf("Server.CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Recommend.Posts.MinSimilarity != 0.45 {
		t.Errorf("Recommend.Posts.MinSimilarity = %v, want 0.45", cfg.Recommend.Posts.MinSimilarity)
	}

	// Defaults still apply for unset values
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0 (default)", cfg.Server.Host)
	}
	if cfg.Recommend.Fallback.NewestScore != 60 {
		t.Errorf("Recommend.Fallback.NewestScore = %v, want 60 (default)", cfg.Recommend.Fallback.NewestScore)
	}
	if cfg.VectorStoreOptions().Dimension != 256 {
		t.Errorf("vector store dimension does not follow the embedder")
	}
}

// TestLoadOpenAIEmbedding verifies the OpenAI settings reach embedding.Config
func TestLoadOpenAIEmbedding(t *testing.T) {
	clearMappedEnv(t)

	t.Setenv("EMBEDDING_MODEL", "text-embedding-3-small")
	t.Setenv("EMBEDDING_DIMENSION", "512")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", "http://embeddings.internal/v1")
	t.Setenv("OPENAI_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	opts := cfg.EmbeddingOptions()
	if opts.Model != "text-embedding-3-small" || opts.Dimension != 512 {
		t.Errorf("model/dim = %q/%d", opts.Model, opts.Dimension)
	}
	if opts.OpenAI.APIKey != "sk-test" || opts.OpenAI.BaseURL != "http://embeddings.internal/v1" {
		t.Errorf("OpenAI = %+v", opts.OpenAI)
	}
	if opts.OpenAI.Timeout != 5*time.Second {
		t.Errorf("OpenAI.Timeout = %v, want 5s", opts.OpenAI.Timeout)
	}
}

// TestLoadConfigFile tests loading configuration from a YAML file
func TestLoadConfigFile(t *testing.T) {
	clearMappedEnv(t)

	configContent := `
server:
  port: 8888
  host: "127.0.0.1"

logging:
  level: "warn"

vector_store:
  driver: memory

catalog:
  driver: memory

recommend:
  posts:
    result_limit: 4
  keywords:
    dijkstra: ["shortest path", "graph"]
`
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8888 || cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server = %s", cfg.Addr())
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
	if cfg.VectorStore.Driver != "memory" || cfg.Catalog.Driver != "memory" {
		t.Errorf("drivers = %q/%q, want memory/memory", cfg.VectorStore.Driver, cfg.Catalog.Driver)
	}
	if cfg.Recommend.Posts.ResultLimit != 4 {
		t.Errorf("Recommend.Posts.ResultLimit = %d, want 4", cfg.Recommend.Posts.ResultLimit)
	}
	if cfg.Recommend.Posts.FetchLimit != 12 {
		t.Errorf("Recommend.Posts.FetchLimit = %d, want 12 (default)", cfg.Recommend.Posts.FetchLimit)
	}
	if got := cfg.Recommend.Keywords["dijkstra"]; len(got) != 2 {
		t.Errorf("Keywords[dijkstra] = %v", got)
	}
	if _, ok := cfg.Recommend.Keywords["perceptron"]; !ok {
		t.Error("default keywords lost when the file adds one")
	}
}

// TestLoadEnvOverridesFile tests that env vars override the config file
func TestLoadEnvOverridesFile(t *testing.T) {
	clearMappedEnv(t)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := "server:\n  port: 8888\nlogging:\n  level: warn\n"
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, configPath)
	t.Setenv("HTTP_PORT", "7777")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want 7777 (env override)", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn (from file)", cfg.Logging.Level)
	}
}

// TestLoadValidation verifies invalid layered values are rejected
func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"bad port", map[string]string{"HTTP_PORT": "70000"}, "HTTP_PORT"},
		{"unknown queue driver", map[string]string{"QUEUE_DRIVER": "kafka"}, "QUEUE_DRIVER"},
		{"production wildcard cors", map[string]string{"ENVIRONMENT": "production"}, "CORS_ORIGINS"},
		{"bad similarity", map[string]string{"RECOMMEND_POST_MIN_SIMILARITY": "1.5"}, "recommend"},
		{"unknown embedding model", map[string]string{"EMBEDDING_MODEL": "word2vec"}, "EMBEDDING_MODEL"},
		{"openai without key", map[string]string{"EMBEDDING_MODEL": "text-embedding-3-small"}, "OPENAI_API_KEY"},
		{"non-numeric port", map[string]string{"HTTP_PORT": "eighty"}, "unmarshal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearMappedEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatal("Load() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %s", err, tt.wantErr)
			}
		})
	}
}

func TestProcessSliceFields(t *testing.T) {
	k := koanf.New(".")
	_ = k.Set("server.cors_origins", " https://a.example.com ,, https://b.example.com")
	if err := processSliceFields(k); err != nil {
		t.Fatal(err)
	}
	got := k.Strings("server.cors_origins")
	if len(got) != 2 || got[0] != "https://a.example.com" {
		t.Errorf("cors_origins = %v", got)
	}
}

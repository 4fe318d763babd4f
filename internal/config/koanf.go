// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/herald/config.yaml",
	"/etc/herald/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			URL:             "",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			MaxConcurrent:   5,
			SeedSources:     true,
		},
		Redis: RedisConfig{
			URL:          "redis://localhost:6379/0",
			PoolSize:     10,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Tasks: TasksConfig{
			BrokerURL:      "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			StoreDir:       "/data/herald/jetstream",
			MaxMemory:      1 << 30,  // 1GB
			MaxStore:       10 << 30, // 10GB
			QueueGroup:     "herald-workers",
			DurableName:    "herald-tasks",
			WorkersCount:   4,
			SoftTimeLimit:  5 * time.Minute,
			HardTimeLimit:  10 * time.Minute,

			MaxRetries:           3,
			RetryInitialInterval: time.Second,
			RouterCloseTimeout:   30 * time.Second,

			BeatEnabled:   true,
			WorkerEnabled: true,
		},
		Collector: CollectorConfig{
			PollIntervalMinutes: 15,
			MaxArticlesPerFeed:  20,
			ConcurrentRequests:  10,
			ConnectTimeout:      20 * time.Second,
			RequestTimeout:      60 * time.Second,
			// Several publishers refuse non-browser identities outright,
			// so the default UA is a current desktop Chrome string.
			UserAgent:    "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			PerHostRPS:   1,
			PerHostBurst: 2,
		},
		Processing: ProcessingConfig{
			BatchSize: 100,
		},
		Dedupe: DedupeConfig{
			Enabled:               true,
			SimilarityWindowHours: 24,
		},
		Cache: CacheConfig{
			ArticleTTLSeconds:    86400,
			TopicTTLSeconds:      10800,
			RecencyTTLSeconds:    3600,
			SourcePerfTTLSeconds: 1800,
			DigestTTLSeconds:     7200,
			StatsTTLSeconds:      3600,
			MaxIDsPerKey:         200,
			WarmTopics:           []string{"politics", "business", "technology", "sports", "health"},
			WarmTimeBuckets:      []string{"1h", "6h", "24h"},
		},
		Server: ServerConfig{
			Port:        8420,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		API: APIConfig{
			DefaultPageSize:   50,
			MaxPageSize:       200,
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// Legacy environment variable names from the previous deployment
// (DATABASE_URL, CELERY_BROKER_URL, RSS_POLL_INTERVAL, ...) are mapped to
// their nested config paths so existing unit files keep working.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: optional config file
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as
// comma-separated slices when supplied via environment variables.
var sliceConfigPaths = []string{
	"api.cors_origins",
	"cache.warm_topics",
	"cache.warm_time_buckets",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML file or defaults), skip.
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config
// paths. Unmapped variables are skipped so random environment variables do
// not pollute the config.
//
// Examples:
//   - DATABASE_URL -> database.url
//   - RSS_POLL_INTERVAL -> collector.poll_interval_minutes
//   - CELERY_BROKER_URL -> tasks.broker_url
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Database mappings
		"database_url":               "database.url",
		"database_max_open_conns":    "database.max_open_conns",
		"database_max_idle_conns":    "database.max_idle_conns",
		"database_conn_max_lifetime": "database.conn_max_lifetime",
		"database_max_concurrent":    "database.max_concurrent",
		"seed_sources":               "database.seed_sources",

		// Redis mappings
		"redis_url":           "redis.url",
		"redis_pool_size":     "redis.pool_size",
		"redis_dial_timeout":  "redis.dial_timeout",
		"redis_read_timeout":  "redis.read_timeout",
		"redis_write_timeout": "redis.write_timeout",

		// Task broker mappings. CELERY_BROKER_URL is the legacy name kept
		// so existing deployments carry over unchanged.
		"celery_broker_url":          "tasks.broker_url",
		"tasks_broker_url":           "tasks.broker_url",
		"tasks_embedded":             "tasks.embedded_server",
		"tasks_store_dir":            "tasks.store_dir",
		"tasks_max_memory":           "tasks.max_memory",
		"tasks_max_store":            "tasks.max_store",
		"tasks_queue_group":          "tasks.queue_group",
		"tasks_durable_name":         "tasks.durable_name",
		"tasks_workers":              "tasks.workers_count",
		"tasks_soft_time_limit":      "tasks.soft_time_limit",
		"tasks_hard_time_limit":      "tasks.hard_time_limit",
		"tasks_max_retries":          "tasks.max_retries",
		"tasks_retry_interval":       "tasks.retry_initial_interval",
		"tasks_router_close_timeout": "tasks.router_close_timeout",
		"tasks_beat_enabled":         "tasks.beat_enabled",
		"tasks_worker_enabled":       "tasks.worker_enabled",

		// Collector mappings (legacy RSS_* names preserved)
		"rss_poll_interval":         "collector.poll_interval_minutes",
		"max_articles_per_feed":     "collector.max_articles_per_feed",
		"rss_concurrent_requests":   "collector.concurrent_requests",
		"collector_connect_timeout": "collector.connect_timeout",
		"collector_request_timeout": "collector.request_timeout",
		"collector_user_agent":      "collector.user_agent",
		"collector_per_host_rps":    "collector.per_host_rps",
		"collector_per_host_burst":  "collector.per_host_burst",

		// Processing mappings
		"processing_batch_size": "processing.batch_size",

		// Dedupe mappings
		"dedupe_enabled":           "dedupe.enabled",
		"dedupe_similarity_window": "dedupe.similarity_window_hours",

		// Cache mappings (legacy CONTENT_CACHE_TTL preserved)
		"content_cache_ttl":       "cache.article_ttl_seconds",
		"cache_topic_ttl":         "cache.topic_ttl_seconds",
		"cache_recency_ttl":       "cache.recency_ttl_seconds",
		"cache_source_perf_ttl":   "cache.source_perf_ttl_seconds",
		"cache_digest_ttl":        "cache.digest_ttl_seconds",
		"cache_stats_ttl":         "cache.stats_ttl_seconds",
		"cache_max_ids_per_key":   "cache.max_ids_per_key",
		"cache_warm_topics":       "cache.warm_topics",
		"cache_warm_time_buckets": "cache.warm_time_buckets",

		// Server mappings
		"http_port":    "server.port",
		"http_host":    "server.host",
		"http_timeout": "server.timeout",
		"environment":  "server.environment",

		// API mappings
		"api_default_page_size": "api.default_page_size",
		"api_max_page_size":     "api.max_page_size",
		"rate_limit_requests":   "api.rate_limit_reqs",
		"rate_limit_window":     "api.rate_limit_window",
		"disable_rate_limit":    "api.rate_limit_disabled",
		"cors_origins":          "api.cors_origins",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// Unmapped keys are skipped.
	return ""
}

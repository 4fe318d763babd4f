// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package config

import (
	"fmt"
	"strings"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateRedis(); err != nil {
		return err
	}

	if err := c.validateTasks(); err != nil {
		return err
	}

	if err := c.validateCollector(); err != nil {
		return err
	}

	if err := c.validateCache(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateAPI(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateDatabase() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if err := validatePostgresURL(c.Database.URL, "DATABASE_URL"); err != nil {
		return err
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database max_open_conns must be at least 1, got %d", c.Database.MaxOpenConns)
	}

	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database max_idle_conns must not be negative, got %d", c.Database.MaxIdleConns)
	}

	if c.Database.MaxConcurrent < 1 {
		return fmt.Errorf("database max_concurrent must be at least 1, got %d", c.Database.MaxConcurrent)
	}

	return nil
}

func (c *Config) validateRedis() error {
	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL must not be empty")
	}

	if err := validateRedisURL(c.Redis.URL, "REDIS_URL"); err != nil {
		return err
	}

	if c.Redis.PoolSize < 1 {
		return fmt.Errorf("redis pool_size must be at least 1, got %d", c.Redis.PoolSize)
	}

	return nil
}

func (c *Config) validateTasks() error {
	// The broker URL only matters when not running the embedded server.
	if !c.Tasks.EmbeddedServer {
		if c.Tasks.BrokerURL == "" {
			return fmt.Errorf("tasks broker_url is required when embedded_server=false")
		}
		if err := validateNATSURL(c.Tasks.BrokerURL, "CELERY_BROKER_URL"); err != nil {
			return err
		}
	}

	if c.Tasks.EmbeddedServer && c.Tasks.StoreDir == "" {
		return fmt.Errorf("tasks store_dir is required when embedded_server=true")
	}

	if c.Tasks.WorkersCount < 1 {
		return fmt.Errorf("tasks workers_count must be at least 1, got %d", c.Tasks.WorkersCount)
	}

	if c.Tasks.SoftTimeLimit <= 0 {
		return fmt.Errorf("tasks soft_time_limit must be positive, got %v", c.Tasks.SoftTimeLimit)
	}

	if c.Tasks.HardTimeLimit <= c.Tasks.SoftTimeLimit {
		return fmt.Errorf("tasks hard_time_limit (%v) must exceed soft_time_limit (%v)",
			c.Tasks.HardTimeLimit, c.Tasks.SoftTimeLimit)
	}

	if c.Tasks.MaxRetries < 0 {
		return fmt.Errorf("tasks max_retries must not be negative, got %d", c.Tasks.MaxRetries)
	}

	return nil
}

func (c *Config) validateCollector() error {
	if c.Collector.PollIntervalMinutes < 1 {
		return fmt.Errorf("RSS_POLL_INTERVAL must be at least 1 minute, got %d", c.Collector.PollIntervalMinutes)
	}

	if c.Collector.MaxArticlesPerFeed < 1 {
		return fmt.Errorf("MAX_ARTICLES_PER_FEED must be at least 1, got %d", c.Collector.MaxArticlesPerFeed)
	}

	if c.Collector.ConcurrentRequests < 1 {
		return fmt.Errorf("RSS_CONCURRENT_REQUESTS must be at least 1, got %d", c.Collector.ConcurrentRequests)
	}

	if c.Collector.ConnectTimeout <= 0 {
		return fmt.Errorf("collector connect_timeout must be positive, got %v", c.Collector.ConnectTimeout)
	}

	if c.Collector.RequestTimeout < c.Collector.ConnectTimeout {
		return fmt.Errorf("collector request_timeout (%v) must not be shorter than connect_timeout (%v)",
			c.Collector.RequestTimeout, c.Collector.ConnectTimeout)
	}

	if c.Collector.UserAgent == "" {
		return fmt.Errorf("collector user_agent must not be empty")
	}

	return nil
}

func (c *Config) validateCache() error {
	ttls := map[string]int{
		"CONTENT_CACHE_TTL":     c.Cache.ArticleTTLSeconds,
		"cache.topic_ttl":       c.Cache.TopicTTLSeconds,
		"cache.recency_ttl":     c.Cache.RecencyTTLSeconds,
		"cache.source_perf_ttl": c.Cache.SourcePerfTTLSeconds,
		"cache.digest_ttl":      c.Cache.DigestTTLSeconds,
		"cache.stats_ttl":       c.Cache.StatsTTLSeconds,
	}
	for name, ttl := range ttls {
		if ttl < 1 {
			return fmt.Errorf("%s must be at least 1 second, got %d", name, ttl)
		}
	}

	if c.Cache.MaxIDsPerKey < 1 {
		return fmt.Errorf("cache max_ids_per_key must be at least 1, got %d", c.Cache.MaxIDsPerKey)
	}

	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}

	env := strings.ToLower(c.Server.Environment)
	if env != "development" && env != "production" {
		return fmt.Errorf("ENVIRONMENT must be development or production, got %q", c.Server.Environment)
	}

	return nil
}

func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("api default_page_size must be at least 1, got %d", c.API.DefaultPageSize)
	}

	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("api max_page_size (%d) must not be smaller than default_page_size (%d)",
			c.API.MaxPageSize, c.API.DefaultPageSize)
	}

	if !c.API.RateLimitDisabled {
		if c.API.RateLimitReqs < 1 {
			return fmt.Errorf("api rate_limit_reqs must be at least 1, got %d", c.API.RateLimitReqs)
		}
		if c.API.RateLimitWindow <= 0 {
			return fmt.Errorf("api rate_limit_window must be positive, got %v", c.API.RateLimitWindow)
		}
	}

	return nil
}

func (c *Config) validateLogging() error {
	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "warning": true, "error": true,
		"fatal": true, "panic": true, "disabled": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, panic, disabled; got %q", c.Logging.Level)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}

	return nil
}

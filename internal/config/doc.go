// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

/*
Package config provides layered configuration management using Koanf v2.

Configuration is loaded from three sources in priority order, lowest first:

 1. Built-in defaults (defaultConfig)
 2. Optional YAML config file (config.yaml, /etc/herald/config.yaml, or CONFIG_PATH)
 3. Environment variables

# Environment Variables

Legacy variable names from the previous deployment are honored so existing
unit files and compose manifests keep working unchanged:

	DATABASE_URL             -> database.url
	REDIS_URL                -> redis.url
	CELERY_BROKER_URL        -> tasks.broker_url
	RSS_POLL_INTERVAL        -> collector.poll_interval_minutes
	MAX_ARTICLES_PER_FEED    -> collector.max_articles_per_feed
	RSS_CONCURRENT_REQUESTS  -> collector.concurrent_requests
	CONTENT_CACHE_TTL        -> cache.article_ttl_seconds
	LOG_LEVEL                -> logging.level

New settings use section-prefixed names (HTTP_PORT, TASKS_EMBEDDED,
CACHE_WARM_TOPICS, ...). Unrecognized environment variables are ignored.

# Example

	cfg, err := config.Load()
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	store, err := database.New(ctx, cfg.Database)

Validation runs as part of Load; a missing DATABASE_URL or an out-of-range
port fails startup with a descriptive error rather than misbehaving later.
*/
package config

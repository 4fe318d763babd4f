// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package cache

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tomtom215/herald/internal/config"
	"github.com/tomtom215/herald/internal/logging"
	"github.com/tomtom215/herald/internal/metrics"
)

// Adapter is the failure-opaque typed view over Redis.
//
// Every operation except Ping absorbs engine errors: it returns the neutral
// value for its type (empty string, zero, false, nil), logs a warning, and
// increments cache_errors_total. A missing key (redis.Nil) is a plain miss
// and is neither logged nor counted as an error. Callers can therefore treat
// the cache as always available but possibly cold.
type Adapter struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewAdapter connects to the Redis instance named by the configuration.
//
// The URL is parsed with redis.ParseURL, so redis:// and rediss:// forms
// with database numbers and credentials all work. A failed initial ping is
// logged but not fatal: the pipeline runs without a cache, it just runs
// colder.
func NewAdapter(cfg config.RedisConfig) (*Adapter, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.PoolSize > 0 {
		opt.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opt.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opt.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opt.WriteTimeout = cfg.WriteTimeout
	}

	a := &Adapter{
		client: redis.NewClient(opt),
		log:    logging.WithComponent("cache"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.client.Ping(ctx).Err(); err != nil {
		a.log.Warn().Err(err).Str("addr", opt.Addr).
			Msg("Redis unreachable at startup, cache operations will degrade to misses")
	} else {
		a.log.Info().Str("addr", opt.Addr).Int("db", opt.DB).Msg("Redis connected")
	}

	return a, nil
}

// NewAdapterWithClient wraps an existing client. Used by tests.
func NewAdapterWithClient(client *redis.Client) *Adapter {
	return &Adapter{
		client: client,
		log:    logging.WithComponent("cache"),
	}
}

// Ping reports whether the engine is reachable. This is the only adapter
// method that returns an error; it exists for health checks.
func (a *Adapter) Ping(ctx context.Context) error {
	return a.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (a *Adapter) Close() error {
	return a.client.Close()
}

// fail records one absorbed engine error.
func (a *Adapter) fail(op, key string, err error) {
	metrics.RecordCacheError(op)
	a.log.Warn().Err(err).Str("op", op).Str("key", key).Msg("Cache operation failed")
}

// Get returns the string value at key, or "" on miss or failure.
func (a *Adapter) Get(ctx context.Context, key string) string {
	val, err := a.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			a.fail("get", key, err)
		}
		return ""
	}
	return val
}

// Set stores a string value without an expiry.
func (a *Adapter) Set(ctx context.Context, key, value string) bool {
	if err := a.client.Set(ctx, key, value, 0).Err(); err != nil {
		a.fail("set", key, err)
		return false
	}
	return true
}

// SetEx stores a string value with a TTL.
func (a *Adapter) SetEx(ctx context.Context, key, value string, ttl time.Duration) bool {
	if err := a.client.Set(ctx, key, value, ttl).Err(); err != nil {
		a.fail("setex", key, err)
		return false
	}
	return true
}

// SetNX stores a value with a TTL only if the key is absent. Returns true
// when this call created the key. A held key and an engine failure both
// report false; callers that need to tell them apart can Ping.
func (a *Adapter) SetNX(ctx context.Context, key, value string, ttl time.Duration) bool {
	ok, err := a.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		a.fail("setnx", key, err)
		return false
	}
	return ok
}

// Delete removes keys and returns how many existed.
func (a *Adapter) Delete(ctx context.Context, keys ...string) int64 {
	if len(keys) == 0 {
		return 0
	}
	n, err := a.client.Del(ctx, keys...).Result()
	if err != nil {
		a.fail("delete", keys[0], err)
		return 0
	}
	return n
}

// Exists reports whether key is present.
func (a *Adapter) Exists(ctx context.Context, key string) bool {
	n, err := a.client.Exists(ctx, key).Result()
	if err != nil {
		a.fail("exists", key, err)
		return false
	}
	return n > 0
}

// Expire sets a TTL on an existing key.
func (a *Adapter) Expire(ctx context.Context, key string, ttl time.Duration) bool {
	ok, err := a.client.Expire(ctx, key, ttl).Result()
	if err != nil {
		a.fail("expire", key, err)
		return false
	}
	return ok
}

// TTL returns the remaining lifetime of key. Missing keys and engine
// failures both report a negative duration, matching the engine's -2 reply
// for absent keys.
func (a *Adapter) TTL(ctx context.Context, key string) time.Duration {
	d, err := a.client.TTL(ctx, key).Result()
	if err != nil {
		a.fail("ttl", key, err)
		return -2 * time.Second
	}
	return d
}

// GetJSON unmarshals the value at key into dest. Returns false on miss,
// engine failure, or malformed payload.
func (a *Adapter) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	raw, err := a.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			a.fail("get", key, err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		a.fail("get_json", key, err)
		return false
	}
	return true
}

// SetJSON marshals v and stores it at key with a TTL.
func (a *Adapter) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) bool {
	raw, err := json.Marshal(v)
	if err != nil {
		a.fail("set_json", key, err)
		return false
	}
	if err := a.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		a.fail("set", key, err)
		return false
	}
	return true
}

// LPush prepends values to a list and returns the new length.
func (a *Adapter) LPush(ctx context.Context, key string, values ...string) int64 {
	if len(values) == 0 {
		return 0
	}
	n, err := a.client.LPush(ctx, key, toAnySlice(values)...).Result()
	if err != nil {
		a.fail("lpush", key, err)
		return 0
	}
	return n
}

// RPush appends values to a list and returns the new length.
func (a *Adapter) RPush(ctx context.Context, key string, values ...string) int64 {
	if len(values) == 0 {
		return 0
	}
	n, err := a.client.RPush(ctx, key, toAnySlice(values)...).Result()
	if err != nil {
		a.fail("rpush", key, err)
		return 0
	}
	return n
}

// LPop removes and returns the head of a list, or "" when empty.
func (a *Adapter) LPop(ctx context.Context, key string) string {
	val, err := a.client.LPop(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			a.fail("lpop", key, err)
		}
		return ""
	}
	return val
}

// LRange returns the list elements in [start, stop].
func (a *Adapter) LRange(ctx context.Context, key string, start, stop int64) []string {
	vals, err := a.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		a.fail("lrange", key, err)
		return nil
	}
	return vals
}

// SAdd adds members to a set and returns how many were new.
func (a *Adapter) SAdd(ctx context.Context, key string, members ...string) int64 {
	if len(members) == 0 {
		return 0
	}
	n, err := a.client.SAdd(ctx, key, toAnySlice(members)...).Result()
	if err != nil {
		a.fail("sadd", key, err)
		return 0
	}
	return n
}

// SMembers returns all members of a set.
func (a *Adapter) SMembers(ctx context.Context, key string) []string {
	vals, err := a.client.SMembers(ctx, key).Result()
	if err != nil {
		a.fail("smembers", key, err)
		return nil
	}
	return vals
}

// HSet writes hash fields and reports success.
func (a *Adapter) HSet(ctx context.Context, key string, fields map[string]string) bool {
	if len(fields) == 0 {
		return true
	}
	args := make([]interface{}, 0, len(fields)*2)
	for f, v := range fields {
		args = append(args, f, v)
	}
	if err := a.client.HSet(ctx, key, args...).Err(); err != nil {
		a.fail("hset", key, err)
		return false
	}
	return true
}

// HGet returns one hash field, or "" when absent.
func (a *Adapter) HGet(ctx context.Context, key, field string) string {
	val, err := a.client.HGet(ctx, key, field).Result()
	if err != nil {
		if err != redis.Nil {
			a.fail("hget", key, err)
		}
		return ""
	}
	return val
}

// HGetAll returns every field of a hash. An absent key yields an empty map.
func (a *Adapter) HGetAll(ctx context.Context, key string) map[string]string {
	vals, err := a.client.HGetAll(ctx, key).Result()
	if err != nil {
		a.fail("hgetall", key, err)
		return map[string]string{}
	}
	return vals
}

// Keys returns all keys matching pattern. Used only on the small, bounded
// namespaces this package owns.
func (a *Adapter) Keys(ctx context.Context, pattern string) []string {
	keys, err := a.client.Keys(ctx, pattern).Result()
	if err != nil {
		a.fail("scan", pattern, err)
		return nil
	}
	return keys
}

// CacheIDList replaces the list at key with the given article ids and sets
// its TTL, preserving the input order so readers see ids exactly as ranked
// by the producing query (discovery time descending). An empty id slice
// clears the key and reports false, since nothing was cached.
func (a *Adapter) CacheIDList(ctx context.Context, key string, ids []int64, ttl time.Duration) bool {
	if len(ids) == 0 {
		a.Delete(ctx, key)
		return false
	}

	vals := make([]interface{}, len(ids))
	for i, id := range ids {
		vals[i] = strconv.FormatInt(id, 10)
	}

	pipe := a.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.RPush(ctx, key, vals...)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		a.fail("cache_id_list", key, err)
		return false
	}
	return true
}

// IDList reads back a cached id list, dropping anything that is not a plain
// decimal id. Garbage in a shared keyspace must not break readers.
func (a *Adapter) IDList(ctx context.Context, key string) []int64 {
	raw := a.LRange(ctx, key, 0, -1)
	if len(raw) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(raw))
	for _, s := range raw {
		if !isDigits(s) {
			continue
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func toAnySlice(vals []string) []interface{} {
	out := make([]interface{}, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

// EngineStats is the engine-level view fused into cache analytics: key
// counts per layer namespace plus server counters from INFO.
type EngineStats struct {
	Status                 string         `json:"status"`
	TotalKeys              int            `json:"total_keys"`
	KeyCountsByType        map[string]int `json:"key_counts_by_type"`
	MemoryUsage            string         `json:"memory_usage"`
	ConnectedClients       int64          `json:"connected_clients"`
	TotalCommandsProcessed int64          `json:"total_commands_processed"`
	CacheHitRate           float64        `json:"cache_hit_rate"`
}

// HealthReport is the shape returned by the cache health endpoint.
type HealthReport struct {
	Status           string  `json:"status"`
	ResponseTimeMS   float64 `json:"response_time_ms,omitempty"`
	ConnectedClients int64   `json:"connected_clients,omitempty"`
	MemoryUsed       string  `json:"used_memory_human,omitempty"`
	UptimeSeconds    int64   `json:"uptime_in_seconds,omitempty"`
	Error            string  `json:"error,omitempty"`
}

var keyPatterns = []struct {
	name    string
	pattern string
}{
	{"articles", "article:*"},
	{"topics", "topic:*"},
	{"recency", "recency:*"},
	{"source_perf", "source_perf:*"},
	{"digests", "digest:*"},
	{"rss_stats", "rss:stats:*"},
}

// EngineStats gathers per-namespace key counts and server counters. Partial
// results are fine: INFO fields the server does not report stay zero.
func (a *Adapter) EngineStats(ctx context.Context) EngineStats {
	stats := EngineStats{
		Status:          "connected",
		KeyCountsByType: make(map[string]int, len(keyPatterns)),
		MemoryUsage:     "unknown",
	}

	if err := a.client.Ping(ctx).Err(); err != nil {
		stats.Status = "unreachable"
		return stats
	}

	for _, p := range keyPatterns {
		n := len(a.Keys(ctx, p.pattern))
		stats.KeyCountsByType[p.name] = n
		stats.TotalKeys += n
	}

	info := a.serverInfo(ctx)
	if v, ok := info["used_memory_human"]; ok {
		stats.MemoryUsage = v
	}
	stats.ConnectedClients = parseInfoInt(info, "connected_clients")
	stats.TotalCommandsProcessed = parseInfoInt(info, "total_commands_processed")

	hits := parseInfoInt(info, "keyspace_hits")
	misses := parseInfoInt(info, "keyspace_misses")
	if total := hits + misses; total > 0 {
		stats.CacheHitRate = float64(hits) / float64(total) * 100
	}

	return stats
}

// Health pings the engine and reports latency plus basic server numbers.
func (a *Adapter) Health(ctx context.Context) HealthReport {
	start := time.Now()
	if err := a.client.Ping(ctx).Err(); err != nil {
		return HealthReport{Status: "unhealthy", Error: err.Error()}
	}

	report := HealthReport{
		Status:         "healthy",
		ResponseTimeMS: float64(time.Since(start).Microseconds()) / 1000,
	}

	info := a.serverInfo(ctx)
	report.ConnectedClients = parseInfoInt(info, "connected_clients")
	report.UptimeSeconds = parseInfoInt(info, "uptime_in_seconds")
	if v, ok := info["used_memory_human"]; ok {
		report.MemoryUsed = v
	}
	return report
}

// serverInfo fetches and parses INFO into a flat field map.
func (a *Adapter) serverInfo(ctx context.Context) map[string]string {
	raw, err := a.client.Info(ctx).Result()
	if err != nil {
		return map[string]string{}
	}
	return parseInfo(raw)
}

// parseInfo flattens the line-oriented INFO reply. Section headers ("# ...")
// and blank lines are skipped.
func parseInfo(raw string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fields[k] = v
	}
	return fields
}

func parseInfoInt(fields map[string]string, key string) int64 {
	v, ok := fields[key]
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

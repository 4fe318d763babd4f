// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestAdapter(t *testing.T) (*Adapter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewAdapterWithClient(client), mr
}

func TestAdapterSetExGet(t *testing.T) {
	a, mr := newTestAdapter(t)
	ctx := context.Background()

	if !a.SetEx(ctx, "k", "v", time.Minute) {
		t.Fatal("SetEx returned false")
	}
	if got := a.Get(ctx, "k"); got != "v" {
		t.Errorf("Get(k) = %q, want %q", got, "v")
	}
	if ttl := mr.TTL("k"); ttl != time.Minute {
		t.Errorf("server TTL = %v, want %v", ttl, time.Minute)
	}
}

func TestAdapterGetMissingKey(t *testing.T) {
	a, _ := newTestAdapter(t)

	if got := a.Get(context.Background(), "absent"); got != "" {
		t.Errorf("Get(absent) = %q, want empty", got)
	}
}

func TestAdapterSetWithoutExpiry(t *testing.T) {
	a, mr := newTestAdapter(t)
	ctx := context.Background()

	if !a.Set(ctx, "k", "v") {
		t.Fatal("Set returned false")
	}
	if ttl := a.TTL(ctx, "k"); ttl >= 0 {
		t.Errorf("TTL of non-expiring key = %v, want negative", ttl)
	}
	if !mr.Exists("k") {
		t.Error("key not written")
	}
}

func TestAdapterSetNX(t *testing.T) {
	a, mr := newTestAdapter(t)
	ctx := context.Background()

	if !a.SetNX(ctx, "lock", "owner-1", time.Minute) {
		t.Fatal("SetNX on absent key = false, want true")
	}
	if a.SetNX(ctx, "lock", "owner-2", time.Minute) {
		t.Error("SetNX on held key = true, want false")
	}
	if got := a.Get(ctx, "lock"); got != "owner-1" {
		t.Errorf("Get(lock) = %q, want %q", got, "owner-1")
	}
	if ttl := mr.TTL("lock"); ttl != time.Minute {
		t.Errorf("server TTL = %v, want %v", ttl, time.Minute)
	}

	mr.FastForward(2 * time.Minute)
	if !a.SetNX(ctx, "lock", "owner-2", time.Minute) {
		t.Error("SetNX after expiry = false, want true")
	}
}

func TestAdapterDeleteExists(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	a.Set(ctx, "a", "1")
	a.Set(ctx, "b", "2")

	if !a.Exists(ctx, "a") {
		t.Error("Exists(a) = false before delete")
	}
	if n := a.Delete(ctx, "a", "b", "missing"); n != 2 {
		t.Errorf("Delete = %d, want 2", n)
	}
	if a.Exists(ctx, "a") {
		t.Error("Exists(a) = true after delete")
	}
}

func TestAdapterExpireAndTTL(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	a.Set(ctx, "k", "v")
	if !a.Expire(ctx, "k", 30*time.Second) {
		t.Fatal("Expire returned false")
	}
	if ttl := a.TTL(ctx, "k"); ttl != 30*time.Second {
		t.Errorf("TTL = %v, want 30s", ttl)
	}
	if ttl := a.TTL(ctx, "missing"); ttl >= 0 {
		t.Errorf("TTL(missing) = %v, want negative", ttl)
	}
}

func TestAdapterJSONRoundTrip(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	if !a.SetJSON(ctx, "j", payload{Name: "herald", Count: 3}, time.Minute) {
		t.Fatal("SetJSON returned false")
	}

	var got payload
	if !a.GetJSON(ctx, "j", &got) {
		t.Fatal("GetJSON returned false")
	}
	if got.Name != "herald" || got.Count != 3 {
		t.Errorf("GetJSON = %+v, want {herald 3}", got)
	}
}

func TestAdapterGetJSONMalformed(t *testing.T) {
	a, mr := newTestAdapter(t)

	mr.Set("bad", "{not json")

	var dest map[string]interface{}
	if a.GetJSON(context.Background(), "bad", &dest) {
		t.Error("GetJSON on malformed payload = true, want false")
	}
}

func TestAdapterListOps(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	a.RPush(ctx, "l", "a", "b")
	a.LPush(ctx, "l", "z")

	if got := a.LRange(ctx, "l", 0, -1); len(got) != 3 || got[0] != "z" || got[2] != "b" {
		t.Errorf("LRange = %v, want [z a b]", got)
	}
	if got := a.LPop(ctx, "l"); got != "z" {
		t.Errorf("LPop = %q, want z", got)
	}
	if got := a.LPop(ctx, "empty"); got != "" {
		t.Errorf("LPop(empty) = %q, want empty", got)
	}
}

func TestAdapterSetOps(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	if n := a.SAdd(ctx, "s", "x", "y", "x"); n != 2 {
		t.Errorf("SAdd = %d new members, want 2", n)
	}
	members := a.SMembers(ctx, "s")
	if len(members) != 2 {
		t.Errorf("SMembers = %v, want 2 members", members)
	}
}

func TestAdapterHashOps(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	if !a.HSet(ctx, "h", map[string]string{"state": "started", "attempts": "1"}) {
		t.Fatal("HSet returned false")
	}
	if got := a.HGet(ctx, "h", "state"); got != "started" {
		t.Errorf("HGet(state) = %q, want started", got)
	}
	if got := a.HGet(ctx, "h", "missing"); got != "" {
		t.Errorf("HGet(missing) = %q, want empty", got)
	}

	all := a.HGetAll(ctx, "h")
	if len(all) != 2 || all["attempts"] != "1" {
		t.Errorf("HGetAll = %v, want both fields", all)
	}
	if all := a.HGetAll(ctx, "nohash"); len(all) != 0 {
		t.Errorf("HGetAll(nohash) = %v, want empty map", all)
	}
}

func TestCacheIDListReplacesAndPreservesOrder(t *testing.T) {
	a, mr := newTestAdapter(t)
	ctx := context.Background()

	// Stale content must not survive a rebuild.
	a.RPush(ctx, "topic:tech:articles", "999")

	if !a.CacheIDList(ctx, "topic:tech:articles", []int64{5, 3, 1}, time.Minute) {
		t.Fatal("CacheIDList returned false")
	}

	got := a.IDList(ctx, "topic:tech:articles")
	want := []int64{5, 3, 1}
	if len(got) != len(want) {
		t.Fatalf("IDList = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("IDList[%d] = %d, want %d", i, got[i], want[i])
		}
	}
	if ttl := mr.TTL("topic:tech:articles"); ttl != time.Minute {
		t.Errorf("list TTL = %v, want %v", ttl, time.Minute)
	}
}

func TestCacheIDListEmptyClearsKey(t *testing.T) {
	a, mr := newTestAdapter(t)
	ctx := context.Background()

	a.RPush(ctx, "recency:1h:articles", "4", "2")

	if a.CacheIDList(ctx, "recency:1h:articles", nil, time.Minute) {
		t.Error("CacheIDList(empty) = true, want false")
	}
	if mr.Exists("recency:1h:articles") {
		t.Error("stale list survived an empty rebuild")
	}
}

func TestIDListFiltersNonNumeric(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	a.RPush(ctx, "l", "12", "abc", "-5", "7x", "30")

	got := a.IDList(ctx, "l")
	if len(got) != 2 || got[0] != 12 || got[1] != 30 {
		t.Errorf("IDList = %v, want [12 30]", got)
	}
}

func TestAdapterFailureOpaque(t *testing.T) {
	a, mr := newTestAdapter(t)
	ctx := context.Background()

	a.SetEx(ctx, "k", "v", time.Minute)
	mr.Close()

	if got := a.Get(ctx, "k"); got != "" {
		t.Errorf("Get after engine loss = %q, want empty", got)
	}
	if a.SetEx(ctx, "k2", "v", time.Minute) {
		t.Error("SetEx after engine loss = true, want false")
	}
	if n := a.Delete(ctx, "k"); n != 0 {
		t.Errorf("Delete after engine loss = %d, want 0", n)
	}
	if a.Exists(ctx, "k") {
		t.Error("Exists after engine loss = true, want false")
	}
	if got := a.LRange(ctx, "k", 0, -1); got != nil {
		t.Errorf("LRange after engine loss = %v, want nil", got)
	}
	if got := a.IDList(ctx, "k"); got != nil {
		t.Errorf("IDList after engine loss = %v, want nil", got)
	}
	var dest map[string]interface{}
	if a.GetJSON(ctx, "k", &dest) {
		t.Error("GetJSON after engine loss = true, want false")
	}
	if ttl := a.TTL(ctx, "k"); ttl >= 0 {
		t.Errorf("TTL after engine loss = %v, want negative", ttl)
	}
	if err := a.Ping(ctx); err == nil {
		t.Error("Ping after engine loss = nil, want error")
	}
}

func TestEngineStatsCountsNamespaces(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	a.SetEx(ctx, "article:aaa", "{}", time.Minute)
	a.RPush(ctx, "topic:technology:articles", "1")
	a.RPush(ctx, "recency:1h:articles", "1")
	a.SetEx(ctx, "source_perf:4", "{}", time.Minute)
	a.SetEx(ctx, "digest:morning:20260314_10", "{}", time.Minute)
	a.SetEx(ctx, "rss:stats:20260314_10", "{}", time.Minute)
	a.SetEx(ctx, "unrelated:key", "x", time.Minute)

	stats := a.EngineStats(ctx)
	if stats.Status != "connected" {
		t.Fatalf("Status = %q, want connected", stats.Status)
	}
	if stats.TotalKeys != 6 {
		t.Errorf("TotalKeys = %d, want 6 (unrelated keys excluded)", stats.TotalKeys)
	}
	for _, name := range []string{"articles", "topics", "recency", "source_perf", "digests", "rss_stats"} {
		if stats.KeyCountsByType[name] != 1 {
			t.Errorf("KeyCountsByType[%s] = %d, want 1", name, stats.KeyCountsByType[name])
		}
	}
}

func TestEngineStatsUnreachable(t *testing.T) {
	a, mr := newTestAdapter(t)
	mr.Close()

	stats := a.EngineStats(context.Background())
	if stats.Status != "unreachable" {
		t.Errorf("Status = %q, want unreachable", stats.Status)
	}
}

func TestHealthReports(t *testing.T) {
	a, mr := newTestAdapter(t)
	ctx := context.Background()

	healthy := a.Health(ctx)
	if healthy.Status != "healthy" {
		t.Fatalf("Status = %q, want healthy", healthy.Status)
	}
	if healthy.ResponseTimeMS < 0 {
		t.Errorf("ResponseTimeMS = %v, want >= 0", healthy.ResponseTimeMS)
	}

	mr.Close()
	down := a.Health(ctx)
	if down.Status != "unhealthy" {
		t.Errorf("Status = %q, want unhealthy", down.Status)
	}
	if down.Error == "" {
		t.Error("Error is empty for unhealthy report")
	}
}

func TestParseInfo(t *testing.T) {
	raw := "# Server\r\nredis_version:7.2.0\r\nuptime_in_seconds:120\r\n\r\n# Clients\r\nconnected_clients:3\r\n"

	fields := parseInfo(raw)
	if fields["redis_version"] != "7.2.0" {
		t.Errorf("redis_version = %q, want 7.2.0", fields["redis_version"])
	}
	if got := parseInfoInt(fields, "connected_clients"); got != 3 {
		t.Errorf("connected_clients = %d, want 3", got)
	}
	if got := parseInfoInt(fields, "absent"); got != 0 {
		t.Errorf("absent field = %d, want 0", got)
	}
}

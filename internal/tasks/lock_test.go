// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/herald/internal/cache"
)

func TestKindLocksLocalExclusion(t *testing.T) {
	t.Parallel()

	locks := newKindLocks(nil, time.Minute)
	ctx := context.Background()

	release, ok := locks.acquire(ctx, KindCollectAll)
	if !ok {
		t.Fatal("first acquire = false, want true")
	}
	if _, ok := locks.acquire(ctx, KindCollectAll); ok {
		t.Error("second acquire of held kind = true, want false")
	}
	if rel, ok := locks.acquire(ctx, KindHealthCheck); !ok {
		t.Error("acquire of different kind = false, want true")
	} else {
		rel()
	}

	release()
	if rel, ok := locks.acquire(ctx, KindCollectAll); !ok {
		t.Error("acquire after release = false, want true")
	} else {
		rel()
	}
}

func TestKindLocksCrossProcess(t *testing.T) {
	t.Parallel()

	_, adapter, mr := newTestStatus(t)
	ctx := context.Background()

	a := newKindLocks(adapter, time.Minute)
	b := newKindLocks(adapter, time.Minute)

	releaseA, ok := a.acquire(ctx, KindCollectAll)
	if !ok {
		t.Fatal("replica A acquire = false, want true")
	}
	if _, ok := b.acquire(ctx, KindCollectAll); ok {
		t.Error("replica B acquire of held kind = true, want false")
	}
	if rel, ok := b.acquire(ctx, KindProcessContent); !ok {
		t.Error("replica B acquire of different kind = false, want true")
	} else {
		rel()
	}

	releaseA()
	if mr.Exists(lockKeyPrefix + KindCollectAll) {
		t.Error("lock key survived release")
	}
	if rel, ok := b.acquire(ctx, KindCollectAll); !ok {
		t.Error("replica B acquire after release = false, want true")
	} else {
		rel()
	}
}

func TestKindLocksReleaseSpareForeignKey(t *testing.T) {
	t.Parallel()

	_, adapter, mr := newTestStatus(t)
	ctx := context.Background()

	a := newKindLocks(adapter, time.Minute)
	b := newKindLocks(adapter, time.Minute)

	releaseA, ok := a.acquire(ctx, KindDedupe)
	if !ok {
		t.Fatal("replica A acquire = false, want true")
	}

	// A's TTL lapses while it is still running; B takes over the kind.
	mr.FastForward(2 * time.Minute)
	releaseB, ok := b.acquire(ctx, KindDedupe)
	if !ok {
		t.Fatal("replica B acquire after expiry = false, want true")
	}

	// A's late release must not evict B's claim.
	releaseA()
	got, err := mr.Get(lockKeyPrefix + KindDedupe)
	if err != nil {
		t.Fatalf("lock key gone after foreign release: %v", err)
	}
	if got != b.instanceID {
		t.Errorf("lock owner = %q, want replica B %q", got, b.instanceID)
	}
	releaseB()
}

func TestKindLocksDegradeWhenEngineDown(t *testing.T) {
	t.Parallel()

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })
	locks := newKindLocks(cache.NewAdapterWithClient(client), time.Minute)
	ctx := context.Background()

	release, ok := locks.acquire(ctx, KindWarmCache)
	if !ok {
		t.Fatal("acquire with engine down = false, want process-local true")
	}
	if _, ok := locks.acquire(ctx, KindWarmCache); ok {
		t.Error("local exclusion lost while degraded")
	}
	release()
	if rel, ok := locks.acquire(ctx, KindWarmCache); !ok {
		t.Error("reacquire after degraded release = false, want true")
	} else {
		rel()
	}
}

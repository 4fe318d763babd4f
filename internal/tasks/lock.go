// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/herald/internal/cache"
	"github.com/tomtom215/herald/internal/logging"
)

const lockKeyPrefix = "task:lock:"

// kindLocks enforces that at most one task of a given kind runs at a
// time. Local state covers workers inside this process; a Redis SETNX
// key extends the exclusion across replicas. The Redis key carries a
// TTL so a crashed holder cannot wedge a kind forever.
//
// When Redis is unreachable the lock degrades to process-local
// exclusion with a logged warning. Overlap across replicas is then
// possible but every job here is idempotent, so a rare double run
// wastes work without corrupting anything.
type kindLocks struct {
	redis      *cache.Adapter
	ttl        time.Duration
	instanceID string
	log        zerolog.Logger

	mu   sync.Mutex
	held map[string]bool
}

// newKindLocks builds the lock table. A nil adapter disables the
// cross-replica layer entirely.
func newKindLocks(redis *cache.Adapter, ttl time.Duration) *kindLocks {
	return &kindLocks{
		redis:      redis,
		ttl:        ttl,
		instanceID: uuid.NewString(),
		log:        logging.WithComponent("tasks"),
		held:       make(map[string]bool),
	}
}

// acquire claims the kind. On success it returns a release func the
// caller must invoke when the task finishes.
func (l *kindLocks) acquire(ctx context.Context, kind string) (func(), bool) {
	l.mu.Lock()
	if l.held[kind] {
		l.mu.Unlock()
		return nil, false
	}
	l.held[kind] = true
	l.mu.Unlock()

	releaseLocal := func() {
		l.mu.Lock()
		delete(l.held, kind)
		l.mu.Unlock()
	}

	if l.redis == nil {
		return releaseLocal, true
	}

	key := lockKeyPrefix + kind
	if l.redis.SetNX(ctx, key, l.instanceID, l.ttl) {
		return func() {
			l.releaseRemote(key)
			releaseLocal()
		}, true
	}

	// SetNX reports false for both a held lock and an unreachable
	// engine; a ping tells them apart.
	if err := l.redis.Ping(ctx); err != nil {
		l.log.Warn().Err(err).Str("kind", kind).
			Msg("Task lock engine unreachable, degrading to process-local exclusion")
		return releaseLocal, true
	}

	releaseLocal()
	return nil, false
}

// releaseRemote deletes the Redis key if this process still owns it.
// The task context may be canceled by the time a task finishes, so the
// delete runs on its own short deadline.
func (l *kindLocks) releaseRemote(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if l.redis.Get(ctx, key) == l.instanceID {
		l.redis.Delete(ctx, key)
	}
}

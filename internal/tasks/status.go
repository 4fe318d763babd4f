// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package tasks

import (
	"context"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/herald/internal/cache"
	"github.com/tomtom215/herald/internal/logging"
)

const (
	statusKeyPrefix = "task:"
	statusTTL       = 24 * time.Hour
)

// Status is the externally visible state of one task, as served by the
// status API.
type Status struct {
	ID         string          `json:"task_id"`
	Kind       string          `json:"kind,omitempty"`
	State      string          `json:"state"`
	Attempts   int             `json:"attempts,omitempty"`
	EnqueuedAt *time.Time      `json:"enqueued_at,omitempty"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
	Error      string          `json:"error,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
}

// StatusStore keeps per-task state in Redis hashes under task:<id>.
//
// Writes ride the failure-opaque cache adapter: if Redis is down, state
// transitions are lost but task execution continues. A status nobody
// ever wrote reads as pending, which also covers ids the store has
// expired after 24 hours.
type StatusStore struct {
	redis *cache.Adapter
	log   zerolog.Logger
	now   func() time.Time
}

// NewStatusStore wraps the shared cache adapter.
func NewStatusStore(redis *cache.Adapter) *StatusStore {
	return &StatusStore{
		redis: redis,
		log:   logging.WithComponent("tasks"),
		now:   time.Now,
	}
}

func statusKey(id string) string {
	return statusKeyPrefix + id
}

// write merges fields into the task hash and refreshes its TTL.
func (s *StatusStore) write(ctx context.Context, id string, fields map[string]string) {
	key := statusKey(id)
	if s.redis.HSet(ctx, key, fields) {
		s.redis.Expire(ctx, key, statusTTL)
	}
}

// MarkPending records a freshly enqueued task.
func (s *StatusStore) MarkPending(ctx context.Context, req *Request) {
	s.write(ctx, req.ID, map[string]string{
		"kind":        req.Kind,
		"state":       StatePending,
		"enqueued_at": req.EnqueuedAt.UTC().Format(time.RFC3339Nano),
	})
}

// MarkStarted transitions a task into execution and returns the attempt
// number, counting from 1 across retries.
func (s *StatusStore) MarkStarted(ctx context.Context, id, kind string) int {
	attempts := 1
	if prev := s.redis.HGet(ctx, statusKey(id), "attempts"); prev != "" {
		if n, err := strconv.Atoi(prev); err == nil {
			attempts = n + 1
		}
	}
	s.write(ctx, id, map[string]string{
		"kind":       kind,
		"state":      StateStarted,
		"attempts":   strconv.Itoa(attempts),
		"started_at": s.now().UTC().Format(time.RFC3339Nano),
	})
	return attempts
}

// MarkRetry records a failed attempt that will be retried.
func (s *StatusStore) MarkRetry(ctx context.Context, id, errMsg string) {
	s.write(ctx, id, map[string]string{
		"state": StateRetry,
		"error": errMsg,
	})
}

// MarkSkipped records a task dropped because its kind was already
// running.
func (s *StatusStore) MarkSkipped(ctx context.Context, id string) {
	s.write(ctx, id, map[string]string{
		"state":       StateSkipped,
		"finished_at": s.now().UTC().Format(time.RFC3339Nano),
	})
}

// MarkSuccess finalizes a task with its result payload.
func (s *StatusStore) MarkSuccess(ctx context.Context, id string, result interface{}) {
	fields := map[string]string{
		"state":       StateSuccess,
		"error":       "",
		"finished_at": s.now().UTC().Format(time.RFC3339Nano),
	}
	if result != nil {
		raw, err := json.Marshal(result)
		if err != nil {
			s.log.Warn().Err(err).Str("task_id", id).Msg("Task result not serializable, storing state only")
		} else {
			fields["result"] = string(raw)
		}
	}
	s.write(ctx, id, fields)
}

// MarkFailure finalizes a task as failed.
func (s *StatusStore) MarkFailure(ctx context.Context, id, errMsg string) {
	s.write(ctx, id, map[string]string{
		"state":       StateFailure,
		"error":       errMsg,
		"finished_at": s.now().UTC().Format(time.RFC3339Nano),
	})
}

// Get reads a task's status. Unknown and expired ids read as pending.
func (s *StatusStore) Get(ctx context.Context, id string) Status {
	fields := s.redis.HGetAll(ctx, statusKey(id))
	if len(fields) == 0 {
		return Status{ID: id, State: StatePending}
	}

	status := Status{
		ID:    id,
		Kind:  fields["kind"],
		State: fields["state"],
		Error: fields["error"],
	}
	if status.State == "" {
		status.State = StatePending
	}
	if n, err := strconv.Atoi(fields["attempts"]); err == nil {
		status.Attempts = n
	}
	status.EnqueuedAt = parseStatusTime(fields["enqueued_at"])
	status.StartedAt = parseStatusTime(fields["started_at"])
	status.FinishedAt = parseStatusTime(fields["finished_at"])
	if raw := fields["result"]; raw != "" {
		status.Result = json.RawMessage(raw)
	}
	return status
}

func parseStatusTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	return &t
}

// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tomtom215/herald/internal/logging"
	"github.com/tomtom215/herald/internal/metrics"
)

// Enqueuer publishes task requests onto the queue. The beat, the API
// trigger endpoints, and handlers scheduling follow-up work all go
// through here.
type Enqueuer struct {
	pub    message.Publisher
	status *StatusStore
	log    zerolog.Logger
	now    func() time.Time

	mu      sync.Mutex
	stopped bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewEnqueuer wraps a publisher and the status store.
func NewEnqueuer(pub message.Publisher, status *StatusStore) *Enqueuer {
	return &Enqueuer{
		pub:    pub,
		status: status,
		log:    logging.WithComponent("tasks"),
		now:    time.Now,
		stop:   make(chan struct{}),
	}
}

// Enqueue publishes one task and returns its id. The id doubles as the
// broker deduplication key, so a publish retried after an ambiguous
// failure cannot run the task twice.
func (e *Enqueuer) Enqueue(ctx context.Context, kind string, args Args) (string, error) {
	subject := SubjectFor(kind)
	if subject == "" {
		return "", fmt.Errorf("unknown task kind %q", kind)
	}

	req := &Request{
		ID:         uuid.NewString(),
		Kind:       kind,
		Args:       args,
		EnqueuedAt: e.now().UTC(),
	}
	payload, err := EncodeRequest(req)
	if err != nil {
		return "", err
	}

	msg := message.NewMessage(req.ID, payload)
	msg.Metadata.Set(natsgo.MsgIdHdr, req.ID)
	msg.Metadata.Set("kind", kind)

	if err := e.pub.Publish(subject, msg); err != nil {
		return "", fmt.Errorf("publish %s task: %w", kind, err)
	}

	e.status.MarkPending(ctx, req)
	metrics.RecordTaskPublished(kind)
	e.log.Debug().Str("task_id", req.ID).Str("kind", kind).Str("subject", subject).
		Msg("Task enqueued")
	return req.ID, nil
}

// EnqueueAfter publishes a task once the delay elapses. The timer is
// process-local: a restart before it fires drops the task, which is
// acceptable for follow-up work the next scheduled run repeats anyway.
func (e *Enqueuer) EnqueueAfter(delay time.Duration, kind string, args Args) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()

		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-e.stop:
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := e.Enqueue(ctx, kind, args); err != nil {
			e.log.Warn().Err(err).Str("kind", kind).Msg("Delayed task enqueue failed")
		}
	}()
}

// Close cancels pending delayed publishes and waits for their timers
// to unwind.
func (e *Enqueuer) Close() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stop)
	e.mu.Unlock()

	e.wg.Wait()
}

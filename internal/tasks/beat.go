// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/tomtom215/herald/internal/logging"
	"github.com/tomtom215/herald/internal/metrics"
)

// Beat schedules, all UTC. Collection leads processing by a quarter
// hour so each processing pass sees the freshest articles; the dedupe
// sweep runs in the quietest part of the night.
const (
	scheduleCollect = "*/15 * * * *"
	scheduleProcess = "*/30 * * * *"
	scheduleDedupe  = "0 2 * * *"
	scheduleHealth  = "0 * * * *"
)

// Beat emits the recurring pipeline jobs. It only publishes: execution,
// locking, and retries all live with the workers, so a beat tick that
// lands while the previous run is still going is skipped there, not
// here.
type Beat struct {
	cron          *cron.Cron
	enq           *Enqueuer
	dedupeEnabled bool
	log           zerolog.Logger
}

// NewBeat builds the scheduler. When dedupe is disabled its nightly
// entry is left off the schedule entirely.
func NewBeat(enq *Enqueuer, dedupeEnabled bool) *Beat {
	return &Beat{
		cron:          cron.New(cron.WithLocation(time.UTC)),
		enq:           enq,
		dedupeEnabled: dedupeEnabled,
		log:           logging.WithComponent("beat"),
	}
}

type beatJob struct {
	name string
	spec string
	kind string
}

// jobs returns the schedule for this configuration.
func (b *Beat) jobs() []beatJob {
	jobs := []beatJob{
		{"collect", scheduleCollect, KindCollectAll},
		{"process", scheduleProcess, KindProcessContent},
		{"health", scheduleHealth, KindHealthCheck},
	}
	if b.dedupeEnabled {
		jobs = append(jobs, beatJob{"dedupe", scheduleDedupe, KindDedupe})
	}
	return jobs
}

// Start registers the schedule and begins ticking.
func (b *Beat) Start() error {
	jobs := b.jobs()
	for _, job := range jobs {
		if _, err := b.cron.AddFunc(job.spec, func() { b.emit(job.name, job.kind) }); err != nil {
			return fmt.Errorf("register %s schedule: %w", job.name, err)
		}
	}

	b.cron.Start()
	b.log.Info().Int("jobs", len(jobs)).Bool("dedupe", b.dedupeEnabled).Msg("Beat schedule started")
	return nil
}

// Stop halts the ticker and waits for in-flight emissions to finish.
func (b *Beat) Stop() {
	ctx := b.cron.Stop()
	<-ctx.Done()
	b.log.Info().Msg("Beat schedule stopped")
}

// emit publishes one scheduled task.
func (b *Beat) emit(name, kind string) {
	metrics.RecordBeatTick(name)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	id, err := b.enq.Enqueue(ctx, kind, Args{})
	if err != nil {
		b.log.Error().Err(err).Str("job", name).Msg("Beat enqueue failed")
		return
	}
	b.log.Debug().Str("job", name).Str("task_id", id).Msg("Beat tick enqueued")
}

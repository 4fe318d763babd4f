// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package services

import (
	"context"
	"fmt"
)

// Scheduler interface matches the tasks.Beat lifecycle.
//
// This interface abstracts the beat's Start/Stop pattern, allowing the
// BeatService wrapper to adapt it to suture's Serve pattern without
// importing internal/tasks.
//
// The interface is satisfied by *tasks.Beat from internal/tasks/beat.go:
//   - Start() error - registers the cron schedule and begins ticking
//   - Stop() - halts the ticker and waits for in-flight emissions
type Scheduler interface {
	Start() error
	Stop()
}

// BeatService wraps the beat scheduler as a supervised service.
//
// It adapts the Start/Stop lifecycle pattern to suture's Serve pattern:
//  1. Calls Start() to begin the cron ticker
//  2. Waits for context cancellation
//  3. Calls Stop() for graceful shutdown
//
// The beat handles its own ticking internally via robfig/cron, so this
// wrapper simply orchestrates the lifecycle transitions.
type BeatService struct {
	scheduler Scheduler
	name      string
}

// NewBeatService creates a new beat service wrapper.
//
// Example usage:
//
//	beat := tasks.NewBeat(enqueuer, cfg.Processing.DedupeEnabled)
//	svc := services.NewBeatService(beat)
//	tree.AddMessagingService(svc)
func NewBeatService(scheduler Scheduler) *BeatService {
	return &BeatService{
		scheduler: scheduler,
		name:      "beat",
	}
}

// Serve implements suture.Service.
//
// This method:
//  1. Starts the beat (which spawns the cron goroutine)
//  2. Blocks until the context is canceled
//  3. Stops the beat (which waits for in-flight emissions to complete)
//
// If Start() fails, the error is returned immediately, causing suture to
// restart the service according to its backoff policy.
func (s *BeatService) Serve(ctx context.Context) error {
	// Start the beat - this spawns the cron goroutine but returns immediately
	if err := s.scheduler.Start(); err != nil {
		return fmt.Errorf("beat start failed: %w", err)
	}

	// Wait for shutdown signal
	<-ctx.Done()

	// Stop the beat - this blocks until in-flight emissions complete
	s.scheduler.Stop()

	return ctx.Err()
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *BeatService) String() string {
	return s.name
}

// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/herald/internal/config"
	"github.com/tomtom215/herald/internal/logging"
)

// Service assembles the task subsystem: broker, enqueuer, status store,
// and worker runner. It exposes the Start/Shutdown lifecycle the
// supervisor tree wraps, plus the enqueue and status surfaces the API
// layer calls. The beat is a sibling supervised service built over
// Enqueuer, not part of this lifecycle.
type Service struct {
	cfg    config.TasksConfig
	broker *Broker
	enq    *Enqueuer
	status *StatusStore
	runner *Runner
	log    zerolog.Logger

	mu      sync.Mutex
	running bool
}

// NewService builds everything but starts nothing. The worker router is
// left out entirely when its toggle is off, so an API-only replica
// still gets a working enqueuer and status reader.
func NewService(cfg *config.Config, deps Deps) (*Service, error) {
	log := logging.WithComponent("tasks")
	wmLog := newWatermillLogger(log)

	broker, err := NewBroker(cfg.Tasks, wmLog)
	if err != nil {
		return nil, err
	}

	status := NewStatusStore(deps.Redis)
	enq := NewEnqueuer(broker.Publisher(), status)

	if !cfg.Dedupe.Enabled {
		deps.Deduper = nil
	}
	windowDays := cfg.Dedupe.SimilarityWindowHours / 24
	if windowDays < 1 {
		windowDays = 1
	}
	handlers := NewHandlers(deps, enq, windowDays)

	s := &Service{
		cfg:    cfg.Tasks,
		broker: broker,
		enq:    enq,
		status: status,
		log:    log,
	}

	if cfg.Tasks.WorkerEnabled {
		locks := newKindLocks(deps.Redis, cfg.Tasks.HardTimeLimit+time.Minute)
		runner, err := NewRunner(cfg.Tasks, broker.Subscriber(), handlers, status, locks)
		if err != nil {
			broker.Close(context.Background())
			return nil, err
		}
		s.runner = runner
	}

	return s, nil
}

// Start launches the worker router. The context is the service
// lifetime: canceling it stops the router.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	if s.runner != nil {
		go func() {
			if err := s.runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.log.Error().Err(err).Msg("Task router stopped with error")
			}
		}()
		select {
		case <-s.runner.Running():
			s.log.Info().Int("workers", s.cfg.WorkersCount).Msg("Task workers started")
		case <-ctx.Done():
			return fmt.Errorf("context canceled while starting task workers: %w", ctx.Err())
		}
	} else {
		s.log.Info().Msg("Task workers disabled on this replica")
	}

	return nil
}

// Shutdown stops the subsystem in reverse dependency order: pending
// delayed publishes first, then the router, then the transport.
func (s *Service) Shutdown(ctx context.Context) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.enq.Close()
	if s.runner != nil {
		if err := s.runner.Close(); err != nil {
			s.log.Warn().Err(err).Msg("Task router close reported error")
		}
	}
	s.broker.Close(ctx)
	s.log.Info().Msg("Task service stopped")
}

// IsRunning reports whether Start has been called without a matching
// Shutdown.
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Healthy reports transport health for readiness checks.
func (s *Service) Healthy() bool {
	return s.broker.IsRunning()
}

// Enqueuer exposes the publish side for the beat and other in-process
// producers.
func (s *Service) Enqueuer() *Enqueuer {
	return s.enq
}

// Enqueue publishes an on-demand task and returns its id.
func (s *Service) Enqueue(ctx context.Context, kind string, args Args) (string, error) {
	return s.enq.Enqueue(ctx, kind, args)
}

// TaskStatus reads one task's state for the status API.
func (s *Service) TaskStatus(ctx context.Context, id string) Status {
	return s.status.Get(ctx, id)
}

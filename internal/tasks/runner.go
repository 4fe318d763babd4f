// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rs/zerolog"

	"github.com/tomtom215/herald/internal/config"
	"github.com/tomtom215/herald/internal/logging"
	"github.com/tomtom215/herald/internal/metrics"
)

// errHardDeadline marks an attempt abandoned at the hard time limit.
var errHardDeadline = errors.New("hard time limit exceeded")

// retryPolicy sets the redelivery backoff for one subject family.
// Collection retries back off exponentially from one minute; the
// longer-running processing and dedupe jobs retry on fixed intervals
// matched to their cadence.
type retryPolicy struct {
	initialInterval time.Duration
	multiplier      float64
}

func (p retryPolicy) maxInterval() time.Duration {
	if p.multiplier <= 1 {
		return p.initialInterval
	}
	// Three retries reach initial * multiplier^2; leave headroom for one more doubling.
	return p.initialInterval * 8
}

func retryPolicyFor(subject string) retryPolicy {
	switch subject {
	case SubjectProcess:
		return retryPolicy{initialInterval: 2 * time.Minute, multiplier: 1}
	case SubjectDedupe, SubjectMaintenance:
		return retryPolicy{initialInterval: 5 * time.Minute, multiplier: 1}
	default:
		return retryPolicy{initialInterval: time.Minute, multiplier: 2}
	}
}

// Runner consumes task subjects through a Watermill router and executes
// each delivery under the guard stack: panic recovery, per-kind lock,
// soft and hard time limits, per-subject retry, and terminal failure
// recording once retries are spent.
type Runner struct {
	router   *message.Router
	cfg      config.TasksConfig
	handlers *Handlers
	status   *StatusStore
	locks    *kindLocks
	log      zerolog.Logger
}

// NewRunner builds the router and registers one consumer handler per
// task subject. Graceful shutdown belongs to the supervisor, so no
// signal plugin is installed here.
func NewRunner(cfg config.TasksConfig, sub message.Subscriber, handlers *Handlers, status *StatusStore, locks *kindLocks) (*Runner, error) {
	log := logging.WithComponent("tasks")
	wmLog := newWatermillLogger(log)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.RouterCloseTimeout}, wmLog)
	if err != nil {
		return nil, fmt.Errorf("create task router: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer)

	r := &Runner{
		router:   router,
		cfg:      cfg,
		handlers: handlers,
		status:   status,
		locks:    locks,
		log:      log,
	}

	for _, subject := range Subjects {
		p := retryPolicyFor(subject)
		retry := middleware.Retry{
			MaxRetries:      cfg.MaxRetries,
			InitialInterval: p.initialInterval,
			MaxInterval:     p.maxInterval(),
			Multiplier:      p.multiplier,
			Logger:          wmLog,
		}
		h := router.AddConsumerHandler(handlerName(subject), subject, sub, r.dispatch)
		// recordExhausted must stay outside the retry middleware so it
		// only sees errors the retries could not clear.
		h.AddMiddleware(r.recordExhausted, retry.Middleware)
	}

	return r, nil
}

func handlerName(subject string) string {
	return strings.ReplaceAll(subject, ".", "-")
}

// Run starts consuming and blocks until the context is canceled or the
// router is closed.
func (r *Runner) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Running is closed once all handlers are consuming.
func (r *Runner) Running() <-chan struct{} {
	return r.router.Running()
}

// Close stops the router, waiting up to the configured close timeout
// for in-flight tasks.
func (r *Runner) Close() error {
	return r.router.Close()
}

// dispatch runs one delivery of a task message. A nil return acks the
// message; an error hands it to the retry middleware.
func (r *Runner) dispatch(msg *message.Message) error {
	req, err := DecodeRequest(msg.Payload)
	if err != nil {
		r.log.Error().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed task message")
		return nil
	}

	ctx := msg.Context()

	release, ok := r.locks.acquire(ctx, req.Kind)
	if !ok {
		r.status.MarkSkipped(ctx, req.ID)
		metrics.RecordTaskExecution(req.Kind, "skipped", 0)
		r.log.Info().Str("task_id", req.ID).Str("kind", req.Kind).
			Msg("Task skipped, a previous run of this kind is still active")
		return nil
	}
	defer release()

	attempt := r.status.MarkStarted(ctx, req.ID, req.Kind)
	metrics.TrackTaskInflight(req.Kind, true)
	defer metrics.TrackTaskInflight(req.Kind, false)

	start := time.Now()
	result, err := r.runGuarded(ctx, req)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		r.status.MarkSuccess(ctx, req.ID, result)
		metrics.RecordTaskExecution(req.Kind, "success", elapsed)
		r.log.Info().Str("task_id", req.ID).Str("kind", req.Kind).Int("attempt", attempt).
			Dur("elapsed", elapsed).Msg("Task completed")
		return nil

	case errors.Is(err, errHardDeadline):
		r.status.MarkFailure(ctx, req.ID, err.Error())
		metrics.RecordTaskExecution(req.Kind, "timeout", elapsed)
		r.log.Error().Str("task_id", req.ID).Str("kind", req.Kind).
			Dur("hard_limit", r.cfg.HardTimeLimit).Msg("Task abandoned at hard time limit")
		return nil

	default:
		r.status.MarkRetry(ctx, req.ID, err.Error())
		metrics.RecordTaskExecution(req.Kind, "failure", elapsed)
		r.log.Warn().Err(err).Str("task_id", req.ID).Str("kind", req.Kind).
			Int("attempt", attempt).Msg("Task attempt failed")
		return err
	}
}

// runGuarded executes the handler under the two time limits. The soft
// limit cancels the task context so the handler can wind down and still
// report; the hard limit abandons the handler goroutine outright. An
// abandoned goroutine holds a canceled context, so it unwinds on its
// own as soon as it next checks.
func (r *Runner) runGuarded(ctx context.Context, req *Request) (interface{}, error) {
	taskCtx, cancel := context.WithTimeout(ctx, r.cfg.SoftTimeLimit)
	defer cancel()

	softWarn := time.AfterFunc(r.cfg.SoftTimeLimit, func() {
		r.log.Warn().Str("task_id", req.ID).Str("kind", req.Kind).
			Dur("soft_limit", r.cfg.SoftTimeLimit).Msg("Task passed soft time limit, winding down")
	})
	defer softWarn.Stop()

	type outcome struct {
		result interface{}
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := r.handlers.Run(taskCtx, req)
		done <- outcome{result: result, err: err}
	}()

	hard := time.NewTimer(r.cfg.HardTimeLimit)
	defer hard.Stop()

	select {
	case out := <-done:
		return out.result, out.err
	case <-hard.C:
		return nil, errHardDeadline
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// recordExhausted finalizes a task whose retries are spent. It swallows
// the error so the broker does not redeliver what the retry middleware
// already gave up on.
func (r *Runner) recordExhausted(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		msgs, err := next(msg)
		if err == nil {
			return msgs, nil
		}

		req, decodeErr := DecodeRequest(msg.Payload)
		if decodeErr != nil {
			return nil, nil
		}

		r.status.MarkFailure(msg.Context(), req.ID, err.Error())
		r.log.Error().Err(err).Str("task_id", req.ID).Str("kind", req.Kind).
			Int("max_retries", r.cfg.MaxRetries).Msg("Task failed after exhausting retries")
		return nil, nil
	}
}

// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package services

import (
	"context"
	"fmt"
	"time"
)

// TaskRunner interface matches the tasks.Service lifecycle.
//
// This interface allows the TaskRunnerService to work with the task
// engine without importing internal/tasks, avoiding circular dependencies.
//
// Satisfied by *tasks.Service from internal/tasks/service.go:
//   - Start(ctx context.Context) error - starts broker, router, and beat wiring
//   - Shutdown(ctx context.Context) - drains workers and stops the broker
//   - IsRunning() bool - returns running state
type TaskRunner interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context)
	IsRunning() bool
}

// TaskRunnerService wraps the task engine as a supervised service.
//
// It adapts the Start/Shutdown lifecycle pattern to suture's Serve pattern:
//  1. Calls Start(ctx) to begin all task components
//  2. Waits for context cancellation
//  3. Calls Shutdown(ctx) for graceful cleanup
//
// The service manages the queue subsystems including:
//   - Embedded NATS server (if configured)
//   - JetStream connection and publisher
//   - Watermill router with the worker handlers
//   - Result store for task status lookups
//
// Example usage:
//
//	taskSvc, _ := tasks.NewService(cfg, deps)
//	svc := services.NewTaskRunnerService(taskSvc)
//	tree.AddMessagingService(svc)
type TaskRunnerService struct {
	runner          TaskRunner
	shutdownTimeout time.Duration
	name            string
}

// NewTaskRunnerService creates a new task runner service wrapper.
//
// Uses a default shutdown timeout of 10 seconds, matching the tree's
// default shutdown window.
func NewTaskRunnerService(runner TaskRunner) *TaskRunnerService {
	return &TaskRunnerService{
		runner:          runner,
		shutdownTimeout: 10 * time.Second,
		name:            "task-runner",
	}
}

// NewTaskRunnerServiceWithTimeout creates a task runner service with custom shutdown timeout.
func NewTaskRunnerServiceWithTimeout(runner TaskRunner, shutdownTimeout time.Duration) *TaskRunnerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &TaskRunnerService{
		runner:          runner,
		shutdownTimeout: shutdownTimeout,
		name:            "task-runner",
	}
}

// Serve implements suture.Service.
//
// This method:
//  1. Starts all task components (broker, router, workers)
//  2. Blocks until the context is canceled
//  3. Shuts down all components with the configured timeout
//
// If Start() fails, the error is returned immediately, causing suture to
// restart the service according to its backoff policy.
func (s *TaskRunnerService) Serve(ctx context.Context) error {
	// Start all task components
	if err := s.runner.Start(ctx); err != nil {
		return fmt.Errorf("task runner start failed: %w", err)
	}

	// Wait for shutdown signal
	<-ctx.Done()

	// Shutdown with timeout - use fresh context since original is canceled
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.runner.Shutdown(shutdownCtx)

	return ctx.Err()
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *TaskRunnerService) String() string {
	return s.name
}

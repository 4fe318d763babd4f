// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

/*
Package services provides suture.Service wrappers for Herald components.

This package adapts existing application components to the suture v4 supervision
model, translating various lifecycle patterns (Start/Stop, Start/Shutdown,
ListenAndServe) into suture's context-aware Serve pattern.

# Overview

Each wrapper implements the suture.Service interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

The wrappers handle:
  - Lifecycle translation (Start/Stop to Serve pattern)
  - Graceful shutdown via context cancellation
  - Error propagation for supervisor restart decisions
  - Service identification via fmt.Stringer

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts ListenAndServe pattern to Serve
  - Configurable shutdown timeout for draining connections

Task Runner (TaskRunnerService):
  - Wraps the task engine (broker, router, workers, result store)
  - Translates Start/Shutdown lifecycle to Serve
  - Drains in-flight tasks within the shutdown timeout

Beat (BeatService):
  - Wraps the cron-based task emitter
  - Translates Start/Stop lifecycle to Serve
  - Waits for in-flight emissions on shutdown

# Usage Example

Creating and registering services:

	import (
	    "net/http"
	    "time"

	    "github.com/tomtom215/herald/internal/supervisor"
	    "github.com/tomtom215/herald/internal/supervisor/services"
	)

	func setupSupervisor(server *http.Server, taskSvc *tasks.Service, beat *tasks.Beat) {
	    tree, _ := supervisor.NewSupervisorTree(logger, config)

	    // HTTP server with 10s shutdown timeout
	    httpSvc := services.NewHTTPServerService(server, 10*time.Second)
	    tree.AddAPIService(httpSvc)

	    // Task engine
	    runnerSvc := services.NewTaskRunnerService(taskSvc)
	    tree.AddMessagingService(runnerSvc)

	    // Beat scheduler
	    beatSvc := services.NewBeatService(beat)
	    tree.AddMessagingService(beatSvc)

	    // Start supervision
	    tree.Serve(ctx)
	}

# Lifecycle Patterns

The package handles three common lifecycle patterns:

Start/Stop Pattern:

	type Scheduler interface {
	    Start() error
	    Stop()
	}

	// Wrapped as:
	func (s *Service) Serve(ctx context.Context) error {
	    if err := s.component.Start(); err != nil {
	        return err
	    }
	    <-ctx.Done()
	    s.component.Stop()
	    return ctx.Err()
	}

Start/Shutdown Pattern:

	type TaskRunner interface {
	    Start(ctx context.Context) error
	    Shutdown(ctx context.Context)
	    IsRunning() bool
	}

	// Wrapped as:
	func (s *Service) Serve(ctx context.Context) error {
	    if err := s.runner.Start(ctx); err != nil {
	        return err
	    }
	    <-ctx.Done()
	    s.runner.Shutdown(shutdownCtx)
	    return ctx.Err()
	}

ListenAndServe Pattern:

	type Listener interface {
	    ListenAndServe() error
	    Shutdown(ctx context.Context) error
	}

	// Wrapped as:
	func (s *Service) Serve(ctx context.Context) error {
	    go s.server.ListenAndServe()
	    <-ctx.Done()
	    return s.server.Shutdown(shutdownCtx)
	}

# Error Handling

Return values determine supervisor behavior:

	nil         -> Service stopped cleanly, will not restart
	error       -> Service crashed, supervisor will restart
	ctx.Err()   -> Shutdown requested, normal termination

Example error handling:

	func (s *BeatService) Serve(ctx context.Context) error {
	    if err := s.scheduler.Start(); err != nil {
	        // Transient error - supervisor should restart
	        return fmt.Errorf("beat start failed: %w", err)
	    }

	    <-ctx.Done()
	    s.scheduler.Stop()

	    return ctx.Err()  // Normal shutdown
	}

# Service Identification

All services implement fmt.Stringer for logging:

	func (s *TaskRunnerService) String() string {
	    return "task-runner"
	}

Suture uses this for log messages:

	INFO task-runner: starting
	INFO task-runner: stopped
	ERROR task-runner: restarting after failure

# Testing

Services can be tested with mock components:

	type MockServer struct {
	    started  bool
	    shutdown bool
	}

	func (m *MockServer) ListenAndServe() error {
	    m.started = true
	    <-time.After(time.Hour) // Block until shutdown
	    return nil
	}

	func (m *MockServer) Shutdown(ctx context.Context) error {
	    m.shutdown = true
	    return nil
	}

	func TestHTTPService(t *testing.T) {
	    mock := &MockServer{}
	    svc := services.NewHTTPServerService(mock, time.Second)

	    ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	    defer cancel()

	    svc.Serve(ctx)

	    if !mock.started { t.Error("server not started") }
	    if !mock.shutdown { t.Error("server not shutdown") }
	}

# Thread Safety

All service wrappers are safe for concurrent use:
  - State is protected by the wrapped component where needed
  - Context cancellation is handled atomically
  - Multiple Serve calls are not supported (undefined behavior)

# See Also

  - internal/supervisor: SupervisorTree that manages these services
  - github.com/thejerf/suture/v4: Underlying supervision library
  - internal/tasks: Task engine and beat implementations
*/
package services

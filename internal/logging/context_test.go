// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestGenerateRequestID(t *testing.T) {
	t.Parallel()

	a := GenerateRequestID()
	b := GenerateRequestID()

	if a == "" || b == "" {
		t.Fatal("expected non-empty request IDs")
	}
	if a == b {
		t.Errorf("expected unique request IDs, got %q twice", a)
	}
	if len(a) != 36 {
		t.Errorf("expected UUID-length request ID, got %d chars", len(a))
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	if got := RequestIDFromContext(ctx); got != "" {
		t.Errorf("expected empty request ID from bare context, got %q", got)
	}

	ctx = ContextWithRequestID(ctx, "req-123")
	if got := RequestIDFromContext(ctx); got != "req-123" {
		t.Errorf("expected 'req-123', got %q", got)
	}
}

func TestTaskIDRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	if got := TaskIDFromContext(ctx); got != "" {
		t.Errorf("expected empty task ID from bare context, got %q", got)
	}

	ctx = ContextWithTaskID(ctx, "task-456")
	if got := TaskIDFromContext(ctx); got != "task-456" {
		t.Errorf("expected 'task-456', got %q", got)
	}
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer

	stored := zerolog.New(&buf).With().Str("scope", "stored").Logger()
	ctx := ContextWithLogger(context.Background(), stored)

	got := LoggerFromContext(ctx)
	got.Info().Msg("via context")

	if !strings.Contains(buf.String(), `"scope":"stored"`) {
		t.Errorf("expected stored logger to be used: %s", buf.String())
	}
}

func TestCtxAddsIDs(t *testing.T) {
	var buf bytes.Buffer

	base := zerolog.New(&buf)
	ctx := ContextWithLogger(context.Background(), base)
	ctx = ContextWithRequestID(ctx, "req-abc")
	ctx = ContextWithTaskID(ctx, "task-def")

	Ctx(ctx).Info().Msg("both IDs")

	output := buf.String()
	if !strings.Contains(output, `"request_id":"req-abc"`) {
		t.Errorf("expected request_id field: %s", output)
	}
	if !strings.Contains(output, `"task_id":"task-def"`) {
		t.Errorf("expected task_id field: %s", output)
	}
}

func TestCtxWithoutIDs(t *testing.T) {
	var buf bytes.Buffer

	base := zerolog.New(&buf)
	ctx := ContextWithLogger(context.Background(), base)

	Ctx(ctx).Info().Msg("no IDs")

	output := buf.String()
	if strings.Contains(output, "request_id") {
		t.Errorf("expected no request_id field: %s", output)
	}
	if strings.Contains(output, "task_id") {
		t.Errorf("expected no task_id field: %s", output)
	}
}

func TestCtxWith(t *testing.T) {
	var buf bytes.Buffer

	base := zerolog.New(&buf)
	ctx := ContextWithLogger(context.Background(), base)
	ctx = ContextWithTaskID(ctx, "task-xyz")

	log := CtxWith(ctx).Str("source", "example-feed").Logger()
	log.Info().Msg("extra fields")

	output := buf.String()
	if !strings.Contains(output, `"task_id":"task-xyz"`) {
		t.Errorf("expected task_id field: %s", output)
	}
	if !strings.Contains(output, `"source":"example-feed"`) {
		t.Errorf("expected source field: %s", output)
	}
}

func TestCtxErr(t *testing.T) {
	var buf bytes.Buffer

	base := zerolog.New(&buf)
	ctx := ContextWithLogger(context.Background(), base)
	ctx = ContextWithRequestID(ctx, "req-err")

	CtxErr(ctx, errors.New("boom")).Msg("handler failed")

	output := buf.String()
	if !strings.Contains(output, `"error":"boom"`) {
		t.Errorf("expected error field: %s", output)
	}
	if !strings.Contains(output, `"request_id":"req-err"`) {
		t.Errorf("expected request_id field: %s", output)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer

	SetLogger(zerolog.New(&buf))
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	log := WithComponent("scheduler")
	log.Info().Msg("tick")

	if !strings.Contains(buf.String(), `"component":"scheduler"`) {
		t.Errorf("expected component field: %s", buf.String())
	}
}

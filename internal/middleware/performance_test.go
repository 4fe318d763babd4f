// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/herald/internal/logging"
)

// Not parallel: these swap the process-global logger.

func TestSlowRequestsLogsOverThreshold(t *testing.T) {
	var buf bytes.Buffer
	old := logging.Logger()
	logging.SetLogger(logging.NewTestLogger(&buf))
	defer logging.SetLogger(old)

	handler := SlowRequests(time.Millisecond)(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(10 * time.Millisecond)
		w.WriteHeader(http.StatusBadGateway)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/articles", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}

	out := buf.String()
	if !strings.Contains(out, "Slow request detected") {
		t.Fatalf("expected slow request warning, got %q", out)
	}
	if !strings.Contains(out, "/api/v1/articles") {
		t.Errorf("log should carry the path, got %q", out)
	}
	if !strings.Contains(out, "502") {
		t.Errorf("log should carry the status, got %q", out)
	}
}

func TestSlowRequestsQuietUnderThreshold(t *testing.T) {
	var buf bytes.Buffer
	old := logging.Logger()
	logging.SetLogger(logging.NewTestLogger(&buf))
	defer logging.SetLogger(old)

	handler := SlowRequests(time.Minute)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if buf.Len() != 0 {
		t.Errorf("expected no log output for fast request, got %q", buf.String())
	}
}

func TestSlowRequestsZeroThresholdUsesDefault(t *testing.T) {
	var buf bytes.Buffer
	old := logging.Logger()
	logging.SetLogger(logging.NewTestLogger(&buf))
	defer logging.SetLogger(old)

	handler := SlowRequests(0)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	// Default is one second; an instant handler must not log.
	if buf.Len() != 0 {
		t.Errorf("expected no log output, got %q", buf.String())
	}
}

// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
)

func TestBeatScheduleTimes(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 8, 25, 10, 7, 0, 0, time.UTC)
	tests := []struct {
		name string
		spec string
		want time.Time
	}{
		{"collect", scheduleCollect, time.Date(2026, 8, 25, 10, 15, 0, 0, time.UTC)},
		{"process", scheduleProcess, time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC)},
		{"health", scheduleHealth, time.Date(2026, 8, 25, 11, 0, 0, 0, time.UTC)},
		{"dedupe", scheduleDedupe, time.Date(2026, 8, 26, 2, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		sched, err := cron.ParseStandard(tt.spec)
		if err != nil {
			t.Fatalf("ParseStandard(%q) error = %v", tt.spec, err)
		}
		if got := sched.Next(base); !got.Equal(tt.want) {
			t.Errorf("%s next tick after %v = %v, want %v", tt.name, base, got, tt.want)
		}
	}
}

func TestBeatJobs(t *testing.T) {
	t.Parallel()

	status, _, _ := newTestStatus(t)
	enq := NewEnqueuer(&fakePublisher{}, status)
	t.Cleanup(enq.Close)

	withDedupe := NewBeat(enq, true).jobs()
	if len(withDedupe) != 4 {
		t.Fatalf("jobs with dedupe = %d, want 4", len(withDedupe))
	}
	wantKinds := map[string]string{
		"collect": KindCollectAll,
		"process": KindProcessContent,
		"health":  KindHealthCheck,
		"dedupe":  KindDedupe,
	}
	for _, job := range withDedupe {
		if wantKinds[job.name] != job.kind {
			t.Errorf("job %q kind = %q, want %q", job.name, job.kind, wantKinds[job.name])
		}
	}

	withoutDedupe := NewBeat(enq, false).jobs()
	if len(withoutDedupe) != 3 {
		t.Fatalf("jobs without dedupe = %d, want 3", len(withoutDedupe))
	}
	for _, job := range withoutDedupe {
		if job.name == "dedupe" {
			t.Error("dedupe job scheduled while deduplication is disabled")
		}
	}
}

func TestBeatStartRegistersEntries(t *testing.T) {
	t.Parallel()

	status, _, _ := newTestStatus(t)
	enq := NewEnqueuer(&fakePublisher{}, status)
	t.Cleanup(enq.Close)

	b := NewBeat(enq, true)
	if err := b.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer b.Stop()

	if got := len(b.cron.Entries()); got != 4 {
		t.Errorf("cron entries = %d, want 4", got)
	}
}

func TestBeatEmit(t *testing.T) {
	t.Parallel()

	status, _, _ := newTestStatus(t)
	pub := &fakePublisher{}
	enq := NewEnqueuer(pub, status)
	t.Cleanup(enq.Close)

	b := NewBeat(enq, true)
	b.emit("collect", KindCollectAll)

	published := pub.all()
	if len(published) != 1 {
		t.Fatalf("emit published %d messages, want 1", len(published))
	}
	if published[0].topic != SubjectCollect {
		t.Errorf("emit subject = %q, want %q", published[0].topic, SubjectCollect)
	}

	st := status.Get(context.Background(), published[0].msg.UUID)
	if st.State != StatePending {
		t.Errorf("emitted task state = %q, want %q", st.State, StatePending)
	}
	if st.Kind != KindCollectAll {
		t.Errorf("emitted task kind = %q, want %q", st.Kind, KindCollectAll)
	}
}

func TestBeatEmitSurvivesPublishFailure(t *testing.T) {
	t.Parallel()

	status, _, _ := newTestStatus(t)
	pub := &fakePublisher{err: errors.New("broker unreachable")}
	enq := NewEnqueuer(pub, status)
	t.Cleanup(enq.Close)

	b := NewBeat(enq, true)
	b.emit("collect", KindCollectAll)

	if got := len(pub.all()); got != 0 {
		t.Errorf("failed emit recorded %d messages, want 0", got)
	}
}

// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package tasks

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Task kinds. The kind selects the handler and the subject a task is
// published on; it is also the unit of mutual exclusion.
const (
	KindCollectAll      = "collect_all"
	KindCollectSingle   = "collect_single"
	KindTriggerSources  = "trigger_sources"
	KindProcessContent  = "process_content"
	KindDedupe          = "dedupe_articles"
	KindHealthCheck     = "health_check"
	KindWarmCache       = "warm_cache"
	KindInvalidateTopic = "invalidate_topic"
)

// StreamName is the JetStream stream holding all task subjects.
const StreamName = "TASKS"

// SubjectWildcard matches every task subject for stream provisioning.
const SubjectWildcard = "tasks.>"

// Subjects, one consumer queue per job family.
const (
	SubjectCollect     = "tasks.collect"
	SubjectProcess     = "tasks.process"
	SubjectDedupe      = "tasks.dedupe"
	SubjectMaintenance = "tasks.maintenance"
)

// Task states as stored and reported by the status API.
const (
	StatePending = "pending"
	StateStarted = "started"
	StateRetry   = "retry"
	StateSuccess = "success"
	StateFailure = "failure"
	StateSkipped = "skipped"
)

// Subjects lists every task subject in routing order.
var Subjects = []string{SubjectCollect, SubjectProcess, SubjectDedupe, SubjectMaintenance}

// SubjectFor maps a task kind to its subject. Unknown kinds map to "".
func SubjectFor(kind string) string {
	switch kind {
	case KindCollectAll, KindCollectSingle, KindTriggerSources:
		return SubjectCollect
	case KindProcessContent:
		return SubjectProcess
	case KindDedupe:
		return SubjectDedupe
	case KindHealthCheck, KindWarmCache, KindInvalidateTopic:
		return SubjectMaintenance
	default:
		return ""
	}
}

// Args carries the kind-specific parameters of a task. Fields a kind
// does not use are simply zero.
type Args struct {
	// SourceID names the feed for collect_single.
	SourceID int64 `json:"source_id,omitempty"`

	// Names selects feeds by name for trigger_sources.
	Names []string `json:"names,omitempty"`

	// Layers restricts warm_cache to specific cache layers.
	Layers []string `json:"layers,omitempty"`

	// Topic is the topic to drop for invalidate_topic.
	Topic string `json:"topic,omitempty"`

	// BatchSize overrides the processing batch size; zero means the
	// configured default.
	BatchSize int `json:"batch_size,omitempty"`

	// WindowDays overrides the dedupe scan window; zero means the
	// configured default.
	WindowDays int `json:"window_days,omitempty"`
}

// Request is the wire envelope for one queued task. The ID doubles as
// the message UUID and the broker-level deduplication key.
type Request struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Args       Args      `json:"args"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// EncodeRequest serializes a task envelope for publishing.
func EncodeRequest(req *Request) ([]byte, error) {
	if req.ID == "" {
		return nil, fmt.Errorf("task request has no id")
	}
	if SubjectFor(req.Kind) == "" {
		return nil, fmt.Errorf("unknown task kind %q", req.Kind)
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal task request: %w", err)
	}
	return data, nil
}

// DecodeRequest parses and validates a task envelope from the wire.
func DecodeRequest(data []byte) (*Request, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty task payload")
	}
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("unmarshal task request: %w", err)
	}
	if req.ID == "" {
		return nil, fmt.Errorf("task request has no id")
	}
	if SubjectFor(req.Kind) == "" {
		return nil, fmt.Errorf("unknown task kind %q", req.Kind)
	}
	return &req, nil
}

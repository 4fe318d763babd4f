// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordStoreQuery(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		table     string
		duration  time.Duration
		err       error
	}{
		{
			name:      "successful select",
			operation: "select",
			table:     "articles",
			duration:  10 * time.Millisecond,
			err:       nil,
		},
		{
			name:      "successful insert",
			operation: "insert",
			table:     "articles",
			duration:  5 * time.Millisecond,
			err:       nil,
		},
		{
			name:      "failed query with short error",
			operation: "update",
			table:     "rss_sources",
			duration:  100 * time.Millisecond,
			err:       errors.New("connection refused"),
		},
		{
			name:      "failed query with long error truncated to 50 chars",
			operation: "delete",
			table:     "articles",
			duration:  50 * time.Millisecond,
			err:       errors.New("this is a very long error message that exceeds fifty characters and should be truncated"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordStoreQuery(tt.operation, tt.table, tt.duration, tt.err)
		})
	}
}

func TestRecordFeedFetch(t *testing.T) {
	before := testutil.ToFloat64(FeedFetchTotal.WithLabelValues("test-feed", "success"))

	RecordFeedFetch("test-feed", "success", 250*time.Millisecond)
	RecordFeedFetch("test-feed", "success", 100*time.Millisecond)

	after := testutil.ToFloat64(FeedFetchTotal.WithLabelValues("test-feed", "success"))
	if after-before != 2 {
		t.Errorf("expected counter delta 2, got %v", after-before)
	}
}

func TestRecordCollectionRun(t *testing.T) {
	discoveredBefore := testutil.ToFloat64(ArticlesDiscovered)
	insertedBefore := testutil.ToFloat64(ArticlesInserted)
	duplicateBefore := testutil.ToFloat64(ArticlesDuplicate)

	RecordCollectionRun(42*time.Second, 100, 60, 40)

	if delta := testutil.ToFloat64(ArticlesDiscovered) - discoveredBefore; delta != 100 {
		t.Errorf("expected discovered delta 100, got %v", delta)
	}
	if delta := testutil.ToFloat64(ArticlesInserted) - insertedBefore; delta != 60 {
		t.Errorf("expected inserted delta 60, got %v", delta)
	}
	if delta := testutil.ToFloat64(ArticlesDuplicate) - duplicateBefore; delta != 40 {
		t.Errorf("expected duplicate delta 40, got %v", delta)
	}
}

func TestSetSourceReliability(t *testing.T) {
	SetSourceReliability("reliability-test", 85)

	if got := testutil.ToFloat64(SourceReliability.WithLabelValues("reliability-test")); got != 85 {
		t.Errorf("expected gauge 85, got %v", got)
	}

	SetSourceReliability("reliability-test", 20)

	if got := testutil.ToFloat64(SourceReliability.WithLabelValues("reliability-test")); got != 20 {
		t.Errorf("expected gauge 20, got %v", got)
	}
}

func TestRecordProcessingBatch(t *testing.T) {
	enhancedBefore := testutil.ToFloat64(ArticlesProcessed.WithLabelValues("enhanced"))
	failedBefore := testutil.ToFloat64(ArticlesProcessed.WithLabelValues("failed"))

	RecordProcessingBatch(3*time.Second, 10, 2, 1)

	if delta := testutil.ToFloat64(ArticlesProcessed.WithLabelValues("enhanced")) - enhancedBefore; delta != 10 {
		t.Errorf("expected enhanced delta 10, got %v", delta)
	}
	if delta := testutil.ToFloat64(ArticlesProcessed.WithLabelValues("failed")) - failedBefore; delta != 1 {
		t.Errorf("expected failed delta 1, got %v", delta)
	}
}

func TestRecordDedupeScan(t *testing.T) {
	fpBefore := testutil.ToFloat64(DedupeDuplicatesRemoved.WithLabelValues("fingerprint"))
	urlBefore := testutil.ToFloat64(DedupeDuplicatesRemoved.WithLabelValues("url"))

	RecordDedupeScan(5*time.Second, map[string]int{
		"fingerprint": 7,
		"url":         3,
	})

	if delta := testutil.ToFloat64(DedupeDuplicatesRemoved.WithLabelValues("fingerprint")) - fpBefore; delta != 7 {
		t.Errorf("expected fingerprint delta 7, got %v", delta)
	}
	if delta := testutil.ToFloat64(DedupeDuplicatesRemoved.WithLabelValues("url")) - urlBefore; delta != 3 {
		t.Errorf("expected url delta 3, got %v", delta)
	}
}

func TestRecordCacheHitMiss(t *testing.T) {
	hitsBefore := testutil.ToFloat64(CacheHits.WithLabelValues("topic"))
	missesBefore := testutil.ToFloat64(CacheMisses.WithLabelValues("topic"))

	RecordCacheHit("topic")
	RecordCacheHit("topic")
	RecordCacheMiss("topic")

	if delta := testutil.ToFloat64(CacheHits.WithLabelValues("topic")) - hitsBefore; delta != 2 {
		t.Errorf("expected hits delta 2, got %v", delta)
	}
	if delta := testutil.ToFloat64(CacheMisses.WithLabelValues("topic")) - missesBefore; delta != 1 {
		t.Errorf("expected misses delta 1, got %v", delta)
	}
}

func TestRecordCacheWarm(t *testing.T) {
	topicBefore := testutil.ToFloat64(CacheWarmKeys.WithLabelValues("topic"))

	RecordCacheWarm(2*time.Second, map[string]int{"topic": 8, "recency": 3})

	if delta := testutil.ToFloat64(CacheWarmKeys.WithLabelValues("topic")) - topicBefore; delta != 8 {
		t.Errorf("expected topic warm keys delta 8, got %v", delta)
	}
}

func TestRecordTaskExecution(t *testing.T) {
	successBefore := testutil.ToFloat64(TasksExecuted.WithLabelValues("collect", "success"))
	timeoutBefore := testutil.ToFloat64(TasksExecuted.WithLabelValues("collect", "timeout"))

	RecordTaskExecution("collect", "success", 30*time.Second)
	RecordTaskExecution("collect", "timeout", 10*time.Minute)

	if delta := testutil.ToFloat64(TasksExecuted.WithLabelValues("collect", "success")) - successBefore; delta != 1 {
		t.Errorf("expected success delta 1, got %v", delta)
	}
	if delta := testutil.ToFloat64(TasksExecuted.WithLabelValues("collect", "timeout")) - timeoutBefore; delta != 1 {
		t.Errorf("expected timeout delta 1, got %v", delta)
	}
}

func TestTrackTaskInflight(t *testing.T) {
	base := testutil.ToFloat64(TasksInflight.WithLabelValues("dedupe"))

	TrackTaskInflight("dedupe", true)
	if got := testutil.ToFloat64(TasksInflight.WithLabelValues("dedupe")); got != base+1 {
		t.Errorf("expected gauge %v, got %v", base+1, got)
	}

	TrackTaskInflight("dedupe", false)
	if got := testutil.ToFloat64(TasksInflight.WithLabelValues("dedupe")); got != base {
		t.Errorf("expected gauge %v, got %v", base, got)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/articles", "200"))

	RecordAPIRequest("GET", "/api/v1/articles", "200", 15*time.Millisecond)

	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/articles", "200"))
	if after-before != 1 {
		t.Errorf("expected counter delta 1, got %v", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	base := testutil.ToFloat64(APIActiveRequests)

	TrackActiveRequest(true)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != base+2 {
		t.Errorf("expected gauge %v, got %v", base+2, got)
	}

	TrackActiveRequest(false)
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != base {
		t.Errorf("expected gauge %v, got %v", base, got)
	}
}

func TestConcurrentRecording(t *testing.T) {
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				RecordCacheHit("article")
				RecordFeedFetch("concurrent-feed", "success", time.Millisecond)
				RecordStoreQuery("select", "articles", time.Millisecond, nil)
			}
		}()
	}

	wg.Wait()
}

func TestMetricGathering(t *testing.T) {
	// All registered metrics must gather and pass the linter.
	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, p := range problems {
		t.Errorf("metric lint problem: %s: %s", p.Metric, p.Text)
	}
}

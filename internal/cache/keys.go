// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package cache

import (
	"strconv"
	"time"
)

// Layer names used for metrics labels and warming selection.
const (
	LayerArticle    = "article"
	LayerTopic      = "topic"
	LayerRecency    = "recency"
	LayerSourcePerf = "source_perf"
	LayerDigest     = "digest"
	LayerStats      = "stats"
)

// Recency bucket names. These are part of the key namespace and must not
// change between versions.
const (
	Bucket1h  = "1h"
	Bucket6h  = "6h"
	Bucket24h = "24h"
)

// Digest names served by the digest layer.
const (
	DigestMorning = "morning"
	DigestEvening = "evening"
)

// TimeBuckets lists the recency buckets in ascending window order.
var TimeBuckets = []string{Bucket1h, Bucket6h, Bucket24h}

var bucketWindows = map[string]time.Duration{
	Bucket1h:  time.Hour,
	Bucket6h:  6 * time.Hour,
	Bucket24h: 24 * time.Hour,
}

// BucketWindow returns the look-back window for a recency bucket name.
func BucketWindow(bucket string) (time.Duration, bool) {
	w, ok := bucketWindows[bucket]
	return w, ok
}

// ArticleKey returns the layer-1 key for an article fingerprint.
func ArticleKey(fingerprint string) string {
	return "article:" + fingerprint
}

// TopicKey returns the layer-2 key holding article ids for a topic.
func TopicKey(topic string) string {
	return "topic:" + topic + ":articles"
}

// RecencyKey returns the layer-3 key for a time bucket.
func RecencyKey(bucket string) string {
	return "recency:" + bucket + ":articles"
}

// SourcePerfKey returns the layer-4 key for a source id.
func SourcePerfKey(sourceID int64) string {
	return "source_perf:" + strconv.FormatInt(sourceID, 10)
}

// DigestKey returns the layer-5 key for a digest type at the hour of t.
func DigestKey(digestType string, t time.Time) string {
	return "digest:" + digestType + ":" + hourStamp(t)
}

// RunStatsKey returns the key holding the collection run summary for the
// hour of t.
func RunStatsKey(t time.Time) string {
	return "rss:stats:" + hourStamp(t)
}

// hourStamp renders t as the hour-granularity suffix shared by digest and
// run-stats keys. Always UTC so keys agree across processes and restarts.
func hourStamp(t time.Time) string {
	return t.UTC().Format("20060102_15")
}

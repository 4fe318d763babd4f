// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

/*
Package tasks runs Herald's background job system: a durable task queue
over NATS JetStream with a Watermill consumer router and a cron beat
that emits the recurring pipeline jobs.

# Architecture

Tasks travel as JSON envelopes ([Request]) on four subjects under one
JetStream stream:

	tasks.collect      collect_all, collect_single, trigger_sources
	tasks.process      process_content
	tasks.dedupe       dedupe_articles
	tasks.maintenance  health_check, warm_cache, invalidate_topic

Each subject gets a durable queue-group consumer, so multiple worker
replicas share the load and a replica restart resumes where the durable
left off. The [Beat] publishes the scheduled jobs on fixed UTC cadences:
collection every 15 minutes, content processing every 30, the duplicate
sweep nightly at 02:00, and the source health sweep hourly. On-demand
jobs enter through [Enqueuer.Enqueue], typically from an API trigger.

# Execution guarantees

The [Runner] wraps every execution in the same guard stack:

  - a per-kind lock so two runs of the same job never overlap, backed
    by Redis SETNX across replicas and degrading to process-local
    exclusion when Redis is unreachable
  - a soft time limit that cancels the task context so handlers wind
    down and report partial results
  - a hard time limit after which the attempt is abandoned and the
    task recorded as failed
  - per-subject retry with backoff; exhausted retries finalize the
    task as failed instead of letting the broker redeliver forever

Task state (pending, started, retry, success, failure, skipped) lives
in Redis hashes under task:<id> with a 24 hour TTL, readable through
[StatusStore.Get] for the status API. Status writes are best effort: a
cold cache loses visibility, never work.

# Deployment shapes

A single binary runs everything by default, including an embedded
JetStream server ([EmbeddedServer]) so no external broker is needed.
Worker-only and API-only replicas disable the beat or the consumers
through TASKS_BEAT_ENABLED and TASKS_WORKER_ENABLED.
*/
package tasks

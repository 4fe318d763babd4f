// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package collector

import (
	"errors"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/herald/internal/logging"
	"github.com/tomtom215/herald/internal/metrics"
)

// Breaker policy: a source that fails this many polls in a row is
// skipped for the cooldown, then granted a single trial poll.
const (
	breakerFailureLimit = 5
	breakerCooldown     = time.Hour
)

// breakers is the per-source circuit breaker registry. Breakers are
// created lazily on first contact with a source and live for the
// process; state is intentionally not persisted, because the durable
// escalation path is the source row's consecutive-failure counter.
type breakers struct {
	mu       sync.Mutex
	bySource map[int64]*gobreaker.CircuitBreaker[*pollOutcome]

	failureLimit uint32
	cooldown     time.Duration
}

func newBreakers(failureLimit uint32, cooldown time.Duration) *breakers {
	return &breakers{
		bySource:     make(map[int64]*gobreaker.CircuitBreaker[*pollOutcome]),
		failureLimit: failureLimit,
		cooldown:     cooldown,
	}
}

// forSource returns the breaker guarding one source, creating it on
// first use.
func (b *breakers) forSource(id int64, name string) *gobreaker.CircuitBreaker[*pollOutcome] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cb, ok := b.bySource[id]; ok {
		return cb
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[*pollOutcome](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1, // one trial poll while half-open
		Timeout:     b.cooldown,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= b.failureLimit
			if trip {
				logging.Warn().
					Str("source", name).
					Uint32("consecutive_failures", counts.ConsecutiveFailures).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return trip
		},

		OnStateChange: func(cbName string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().
				Str("source", cbName).
				Str("from", fromStr).
				Str("to", toStr).
				Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(cbName).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(cbName, fromStr, toStr).Inc()
		},
	})

	b.bySource[id] = cb
	return cb
}

// tripped reports whether a source's breaker is currently open. The
// state check also handles cooldown expiry, so an open breaker whose
// hour has passed reads as half-open here and the source is attempted.
func (b *breakers) tripped(id int64, name string) bool {
	return b.forSource(id, name).State() == gobreaker.StateOpen
}

// execute runs one poll through the source's breaker and classifies
// the result for metrics. A rejection means the breaker opened between
// the run's filter pass and this worker getting scheduled.
func (b *breakers) execute(id int64, name string, fn func() (*pollOutcome, error)) (*pollOutcome, error) {
	cb := b.forSource(id, name)

	result, err := cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(name, "rejected").Inc()
			logging.Warn().Err(err).Str("source", name).Msg("[CIRCUIT BREAKER] Poll rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(name, "failure").Inc()
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(name, "success").Inc()
	return result, nil
}

// rejected reports whether err is the breaker refusing to run a poll,
// as opposed to the poll itself failing.
func rejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

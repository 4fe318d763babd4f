// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package database

import (
	"database/sql"
	"errors"
	"io"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a lookup matches no rows.
var ErrNotFound = errors.New("database: not found")

// uniqueViolation is the PostgreSQL error code for unique constraint
// violations.
const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique-constraint violation.
// The batch insert path uses this to distinguish replayed feed content
// from genuine failures.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	return false
}

// notFound translates driver row-absence into ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// closeQuietly closes a resource and explicitly ignores any error.
// Use in cleanup paths where Close() errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

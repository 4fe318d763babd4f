// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package models

import (
	"database/sql/driver"
	"fmt"

	json "github.com/goccy/go-json"
)

// Headers is a set of extra HTTP request headers attached to a source,
// stored as a JSONB column. Some feeds refuse the default client
// identity and need a per-source override.
type Headers map[string]string

// Value implements driver.Valuer.
func (h Headers) Value() (driver.Value, error) {
	if len(h) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(h)
}

// Scan implements sql.Scanner.
func (h *Headers) Scan(src interface{}) error {
	if src == nil {
		*h = nil
		return nil
	}

	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("scanning headers: %T is not []byte", src)
	}

	if len(b) == 0 {
		*h = nil
		return nil
	}
	return json.Unmarshal(b, h)
}

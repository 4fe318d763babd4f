// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package textutil

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrUnparsableDate is returned when a timestamp matches none of the
// supported feed formats.
var ErrUnparsableDate = errors.New("unrecognized date format")

// Feed timestamp layouts, tried in order. Numeric-offset variants come
// first because known zone abbreviations are rewritten to offsets before
// matching; the named-zone layouts then read any surviving abbreviation
// as UTC, which is how feeds with exotic zones behave in practice.
var dateLayouts = []string{
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 MST",
	"02 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
	"02 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 MST",
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05-0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"01/02/2006 15:04:05",
	"02-01-2006 15:04:05",
	"January 2, 2006 3:04 PM",
	"January 2, 2006",
}

// Fixed offsets for zone abbreviations seen in real feeds. Feeds use
// these ambiguously; the catalog pins each to the region our sources
// publish from (IST is India, CST is China).
var zoneOffsets = map[string]string{
	"IST": "+0530",
	"PST": "-0800",
	"EST": "-0500",
	"GMT": "+0000",
	"UTC": "+0000",
	"BST": "+0100",
	"CET": "+0100",
	"JST": "+0900",
	"CST": "+0800",
	"MST": "-0700",
}

var (
	doubleZoneRe   = regexp.MustCompile(`\s+(GMT|UTC)\s*([+-]\d{4})`)
	trailingZoneRe = regexp.MustCompile(`\s+([A-Z]{2,4})\s*$`)
	rfc822Re       = regexp.MustCompile(`^(\w+),\s*(\d+)\s+(\w+)\s+(\d+)\s+(\d+):(\d+):(\d+)\s*([+-]\d{4}|\w+)?`)
	dateOnlyRe     = regexp.MustCompile(`(\d{4})[-/](\d{1,2})[-/](\d{1,2})`)
)

// ParseDate parses a feed timestamp into UTC. It tries the layout list,
// then a manual RFC 822 match, then settles for a bare date. A failure
// means the caller should fall back to the feed's structured time fields.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date string")
	}

	cleaned := cleanDateString(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t.UTC(), nil
		}
	}
	if t, ok := parseRFC822Manual(s); ok {
		return t.UTC(), nil
	}
	if t, ok := parseDateOnly(s); ok {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsableDate, s)
}

// cleanDateString normalizes spacing and rewrites known zone
// abbreviations to numeric offsets so the layout list can stay numeric.
func cleanDateString(s string) string {
	cleaned := whitespaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
	// "GMT+0530" style double zone indicators: the offset wins.
	cleaned = doubleZoneRe.ReplaceAllString(cleaned, " $2")
	if m := trailingZoneRe.FindStringSubmatch(cleaned); m != nil {
		if offset, ok := zoneOffsets[m[1]]; ok {
			cleaned = trailingZoneRe.ReplaceAllString(cleaned, " "+offset)
		}
	}
	return cleaned
}

var monthsByName = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// parseRFC822Manual handles RFC 822 timestamps the layout list rejected,
// typically because of a malformed day name or an unknown zone
// abbreviation. Unknown zones are read as UTC.
func parseRFC822Manual(s string) (time.Time, bool) {
	m := rfc822Re.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}

	monthName := strings.ToLower(m[3])
	if len(monthName) > 3 {
		monthName = monthName[:3]
	}
	month, ok := monthsByName[monthName]
	if !ok {
		month = time.January
	}

	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[4])
	hour, _ := strconv.Atoi(m[5])
	minute, _ := strconv.Atoi(m[6])
	second, _ := strconv.Atoi(m[7])
	if day < 1 || day > 31 || hour > 23 || minute > 59 || second > 60 {
		return time.Time{}, false
	}

	loc := time.UTC
	if zone := m[8]; zone != "" {
		switch {
		case zone[0] == '+' || zone[0] == '-':
			loc = fixedZoneFromOffset(zone)
		default:
			if offset, ok := zoneOffsets[strings.ToUpper(zone)]; ok {
				loc = fixedZoneFromOffset(offset)
			}
		}
	}
	return time.Date(year, month, day, hour, minute, second, 0, loc), true
}

// fixedZoneFromOffset converts "+0530" style offsets into a fixed
// time.Location.
func fixedZoneFromOffset(offset string) *time.Location {
	if len(offset) != 5 {
		return time.UTC
	}
	hours, err1 := strconv.Atoi(offset[1:3])
	minutes, err2 := strconv.Atoi(offset[3:5])
	if err1 != nil || err2 != nil {
		return time.UTC
	}
	seconds := hours*3600 + minutes*60
	if offset[0] == '-' {
		seconds = -seconds
	}
	return time.FixedZone(offset, seconds)
}

// parseDateOnly extracts a bare Y-M-D anywhere in the string, read as
// midnight UTC.
func parseDateOnly(s string) (time.Time, bool) {
	m := dateOnlyRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-1-2", m[1]+"-"+m[2]+"-"+m[3])
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

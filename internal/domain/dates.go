package domain

import (
	"fmt"
	"time"
)

// DateLayout is the ISO 8601 day format used as the key of every daily
// score row. Keys in this format sort lexically in chronological order.
const DateLayout = "2006-01-02"

// DateKey formats a time as an ISO 8601 date key.
func DateKey(t time.Time) string { return t.UTC().Format(DateLayout) }

// ParseDate parses an ISO 8601 date key back into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// DateRange returns every ISO date key from first to last, inclusive.
// Returns nil if either key is malformed or last precedes first.
func DateRange(first, last string) []string {
	start, err := ParseDate(first)
	if err != nil {
		return nil
	}
	end, err := ParseDate(last)
	if err != nil {
		return nil
	}
	var keys []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		keys = append(keys, DateKey(d))
	}
	return keys
}

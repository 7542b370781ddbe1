package model

import (
	"math"
	"time"
)

// Timestamp is an instant normalized to epoch milliseconds. Replay logs carry
// timestamps either as a numeric epoch or as an RFC3339 string; both normalize
// to this form before any ordering operation. An invalid timestamp (malformed
// or missing input) sorts after every valid one.
type Timestamp struct {
	Millis int64
	Valid  bool
}

// TimestampFromMillis builds a valid timestamp from epoch milliseconds.
func TimestampFromMillis(ms int64) Timestamp {
	return Timestamp{Millis: ms, Valid: true}
}

// TimestampFromTime builds a valid timestamp from a time.Time.
func TimestampFromTime(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{Millis: t.UnixMilli(), Valid: true}
}

// ParseTimestamp normalizes an RFC3339 (or RFC3339Nano) string. Anything
// unparseable yields an invalid timestamp rather than an error: the record is
// kept and sorts last.
func ParseTimestamp(value string) Timestamp {
	if value == "" {
		return Timestamp{}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return TimestampFromTime(t)
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return TimestampFromTime(t)
	}
	return Timestamp{}
}

// SortKey returns the comparable form. Invalid timestamps map to the maximum
// key so they order after all valid instants.
func (t Timestamp) SortKey() int64 {
	if !t.Valid {
		return math.MaxInt64
	}
	return t.Millis
}

// Before reports whether t orders strictly before other.
func (t Timestamp) Before(other Timestamp) bool {
	return t.SortKey() < other.SortKey()
}

// Time converts back to a time.Time. Invalid timestamps yield the zero time.
func (t Timestamp) Time() time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return time.UnixMilli(t.Millis).UTC()
}

// Format renders the timestamp as RFC3339, or "-" when invalid.
func (t Timestamp) Format() string {
	if !t.Valid {
		return "-"
	}
	return t.Time().Format(time.RFC3339)
}

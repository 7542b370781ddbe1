package model

import (
	"encoding/json"
	"strconv"
)

// MarshalJSON encodes a valid timestamp as epoch milliseconds and an invalid
// one as null.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(t.Millis, 10)), nil
}

// UnmarshalJSON accepts either a numeric epoch (milliseconds) or an RFC3339
// string. Malformed values normalize to an invalid timestamp, never an error.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*t = Timestamp{}
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		if ms, err := num.Int64(); err == nil {
			*t = TimestampFromMillis(ms)
			return nil
		}
		if f, err := num.Float64(); err == nil {
			*t = TimestampFromMillis(int64(f))
			return nil
		}
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*t = ParseTimestamp(str)
		return nil
	}

	*t = Timestamp{}
	return nil
}

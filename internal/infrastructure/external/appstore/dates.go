package appstore

import (
	"strconv"
	"time"
)

// parseEpochMS parses a millisecond-epoch string into a UTC instant.
// Absent, non-numeric and non-positive values all read as "no date": the
// store omits dates that do not apply, and a zero or negative timestamp
// never identifies a real purchase event.
func parseEpochMS(dateMS string) *time.Time {
	if dateMS == "" {
		return nil
	}
	ms, err := strconv.ParseInt(dateMS, 10, 64)
	if err != nil || ms <= 0 {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}

// purchaseDateUTC parses the purchase date, the one field the store
// guarantees on every entry. An unparseable value defaults to the epoch
// rather than failing the whole entry.
func purchaseDateUTC(dateMS string) time.Time {
	if t := parseEpochMS(dateMS); t != nil {
		return *t
	}
	return time.UnixMilli(0).UTC()
}

// epochMS converts a millisecond-epoch number, treating non-positive as
// absent. StoreKit v2 payloads carry dates as numbers, not strings.
func epochMS(ms int64) *time.Time {
	if ms <= 0 {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}

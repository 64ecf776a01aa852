package nutrition

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-day format used in URLs and JSON.
const DateLayout = "2006-01-02"

// NormalizeDate keys a timestamp to its calendar day: the wall-clock date in
// the timestamp's own offset, returned as midnight UTC. Every ledger key goes
// through here.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay accepts either YYYY-MM-DD or an RFC 3339 timestamp and returns
// the normalized calendar day.
func ParseDay(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return NormalizeDate(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD", s)
	}
	return NormalizeDate(t), nil
}

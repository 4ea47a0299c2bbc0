package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DayLayout is the wire format of a Day.
const DayLayout = "2006-01-02"

// Day is a calendar date without a time component.
// The embedded time is always midnight UTC.
type Day struct{ time.Time }

// NewDay returns the given calendar date.
func NewDay(year int, month time.Month, day int) Day {
	return Day{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf returns the calendar date of t in t's own location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return NewDay(y, m, d)
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("bad date %q: %w", s, err)
	}
	return Day{t}, nil
}

// String formats the day as YYYY-MM-DD.
func (d Day) String() string { return d.Format(DayLayout) }

// AddDays returns the day n days later (or earlier for negative n).
func (d Day) AddDays(n int) Day { return Day{d.AddDate(0, 0, n)} }

// After reports whether d is strictly later than o.
func (d Day) After(o Day) bool { return d.Time.After(o.Time) }

// Before reports whether d is strictly earlier than o.
func (d Day) Before(o Day) bool { return d.Time.Before(o.Time) }

// DaysUntil returns the number of days from d to o (negative if o is earlier).
func (d Day) DaysUntil(o Day) int {
	return int(o.Sub(d.Time).Hours() / 24)
}

// MarshalJSON encodes the day as "YYYY-MM-DD".
func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes "YYYY-MM-DD".
func (d *Day) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

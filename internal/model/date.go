package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// isoLayout is the only date layout written to outputs.
const isoLayout = "2006-01-02"

// Date is a calendar date without time of day. The zero value is "unset".
type Date struct {
	t time.Time
}

// NewDate returns the date for year/month/day, or false when the triple
// does not name a real calendar day (e.g. 31 April).
func NewDate(year, month, day int) (Date, bool) {
	if year < 1 || month < 1 || month > 12 || day < 1 || day > 31 {
		return Date{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return Date{}, false
	}
	return Date{t: t}, true
}

// ParseDate parses an ISO-8601 date. An empty string yields the unset date.
func ParseDate(s string) (Date, error) {
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(isoLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// IsSet reports whether the date carries a value.
func (d Date) IsSet() bool {
	return !d.t.IsZero()
}

// Year returns the Gregorian year, or 0 when unset.
func (d Date) Year() int {
	if !d.IsSet() {
		return 0
	}
	return d.t.Year()
}

// AddDays returns the date shifted by n days. Unset stays unset.
func (d Date) AddDays(n int) Date {
	if !d.IsSet() {
		return d
	}
	return Date{t: d.t.AddDate(0, 0, n)}
}

// Before reports whether d is strictly earlier than other.
// An unset date sorts after every set date.
func (d Date) Before(other Date) bool {
	switch {
	case !d.IsSet():
		return false
	case !other.IsSet():
		return true
	}
	return d.t.Before(other.t)
}

// Equal reports whether both dates name the same day (or are both unset).
func (d Date) Equal(other Date) bool {
	return d.t.Equal(other.t)
}

// String renders the date as YYYY-MM-DD, or "" when unset.
func (d Date) String() string {
	if !d.IsSet() {
		return ""
	}
	return d.t.Format(isoLayout)
}

// MarshalJSON encodes the date as an ISO string ("" when unset).
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes an ISO string.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

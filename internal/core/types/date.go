package types

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage layout of calendar dates.
const DateLayout = "2006-01-02"

// DateOf truncates t to a calendar date at UTC midnight.
// Expiration lots compare by calendar date only.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DatePtr normalizes an optional date.
func DatePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := DateOf(*t)
	return &v
}

// MustDate builds a date, for tests and constants.
func MustDate(s string) *time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return &t
}

// ParseDate parses an optional YYYY-MM-DD string; empty means no date.
func ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", s, err)
	}
	return &t, nil
}

// FormatDate renders an optional date; nil renders as empty string.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

// SameDate reports whether two optional dates denote the same lot.
func SameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return DateOf(*a).Equal(DateOf(*b))
}

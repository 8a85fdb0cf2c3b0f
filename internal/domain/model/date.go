// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage layout of a calendar date.
const DateLayout = "2006-01-02"

const hoursPerDay = 24

// Date is a calendar date without time-of-day. Two dates are the same day
// exactly when their strings are equal.
type Date string

// ParseDate validates s as a YYYY-MM-DD calendar date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", &FieldError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	return Date(t.Format(DateLayout)), nil
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// String implements fmt.Stringer.
func (d Date) String() string { return string(d) }

// Valid reports whether d parses as a calendar date.
func (d Date) Valid() bool {
	_, err := time.Parse(DateLayout, string(d))
	return err == nil
}

// Time returns midnight UTC of d.
func (d Date) Time() (time.Time, error) {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", string(d), err)
	}
	return t, nil
}

// AddDays returns the date n days after d. An invalid d is returned unchanged.
func (d Date) AddDays(n int) Date {
	t, err := d.Time()
	if err != nil {
		return d
	}
	return DateOf(t.AddDate(0, 0, n))
}

// Before reports whether d is strictly earlier than other. Canonical dates
// order lexically.
func (d Date) Before(other Date) bool { return d < other }

// DaysBetween returns the number of whole days from from to to; negative
// when to precedes from.
func DaysBetween(from, to Date) (int, error) {
	a, err := from.Time()
	if err != nil {
		return 0, err
	}
	b, err := to.Time()
	if err != nil {
		return 0, err
	}
	return int(b.Sub(a).Hours() / hoursPerDay), nil
}

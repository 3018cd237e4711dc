package calendar

import (
	"fmt"
	"time"
)

// Policy decides which dates a client may book: weekdays from today onward.
type Policy struct {
	loc *time.Location
	now func() time.Time
}

// NewPolicy builds a policy evaluated in loc. A nil clock uses time.Now.
func NewPolicy(loc *time.Location, clock func() time.Time) Policy {
	if loc == nil {
		loc = time.UTC
	}
	if clock == nil {
		clock = time.Now
	}
	return Policy{loc: loc, now: clock}
}

// Location returns the practice time zone.
func (p Policy) Location() *time.Location {
	if p.loc == nil {
		return time.UTC
	}
	return p.loc
}

// Today returns midnight of the current day in the practice time zone.
func (p Policy) Today() time.Time {
	now := time.Now
	if p.now != nil {
		now = p.now
	}
	return StartOfDay(now(), p.Location())
}

// IsAvailable reports whether date can be selected. Comparison is made at day
// granularity so every hour of today stays bookable.
func (p Policy) IsAvailable(date time.Time) bool {
	if date.IsZero() {
		return false
	}
	day := StartOfDay(date, p.Location())
	if day.Before(p.Today()) {
		return false
	}
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return true
}

// ParseDate reads a YYYY-MM-DD date as midnight in the practice time zone.
func (p Policy) ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, p.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("calendar: invalid date %q: %w", s, err)
	}
	return t, nil
}

// StartOfDay truncates t to midnight of its calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return StartOfDay(a, loc).Equal(StartOfDay(b, loc))
}

package common

import (
	"fmt"
	"time"

	_ "time/tzdata"
)

// DefaultTimezone is the region operators work in; "today" is computed there.
const DefaultTimezone = "America/Mexico_City"

// Clock reports wall time in the operators' region.
type Clock interface {
	Now() time.Time
	Today() time.Time
	Location() *time.Location
}

type regionalClock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock loads name (DefaultTimezone when empty).
func NewClock(name string) (Clock, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", name, err)
	}
	return &regionalClock{loc: loc, now: time.Now}, nil
}

// NewFixedClock always reports t; used by tests and report backfills.
func NewFixedClock(t time.Time) Clock {
	return &regionalClock{loc: t.Location(), now: func() time.Time { return t }}
}

func (c *regionalClock) Now() time.Time {
	return c.now().In(c.loc)
}

// Today is midnight of the current regional calendar day.
func (c *regionalClock) Today() time.Time {
	return DateOnly(c.Now())
}

func (c *regionalClock) Location() *time.Location {
	return c.loc
}

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

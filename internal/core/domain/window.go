package domain

import (
	"fmt"
	"time"
)

// DateLayout is the accepted form for window bounds.
const DateLayout = "2006-01-02"

// Window is an inclusive calendar-date range. Time-of-day is ignored when
// testing membership.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow parses two YYYY-MM-DD bounds and rejects a start after the end.
func NewWindow(start, end string) (Window, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return Window{}, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return Window{}, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	if s.After(e) {
		return Window{}, fmt.Errorf("start date %s is after end date %s", start, end)
	}
	return Window{Start: s, End: e}, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Contains reports whether t's calendar date falls inside the window.
func (w Window) Contains(t time.Time) bool {
	d := dateOnly(t)
	return !d.Before(w.Start) && !d.After(w.End)
}

// StartsAfter reports whether t's calendar date is strictly before the
// window start. With a newest-first source this is the scan stop signal:
// every message after this one is older still.
func (w Window) StartsAfter(t time.Time) bool {
	return dateOnly(t).Before(w.Start)
}

// EndsBefore reports whether t's calendar date is strictly after the window
// end (a message newer than the window; skipped, scan continues).
func (w Window) EndsBefore(t time.Time) bool {
	return dateOnly(t).After(w.End)
}

package domain

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Window is a closed time interval [Start, End]. Both ends are inclusive.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow validates and normalizes a window to UTC.
func NewWindow(start, end time.Time) (Window, error) {
	if start.IsZero() {
		return Window{}, NewValidationError("window.start", "required")
	}
	if end.IsZero() {
		return Window{}, NewValidationError("window.end", "required")
	}
	if start.After(end) {
		return Window{}, NewValidationError("window", "start must not be after end")
	}
	return Window{Start: start.UTC(), End: end.UTC()}, nil
}

// ParseWindow accepts RFC 3339 timestamps or plain dates. A plain end date
// covers the whole day.
func ParseWindow(start, end string) (Window, error) {
	s, err := parseInstant(start, false)
	if err != nil {
		return Window{}, NewValidationError("window.start", err.Error())
	}
	e, err := parseInstant(end, true)
	if err != nil {
		return Window{}, NewValidationError("window.end", err.Error())
	}
	return NewWindow(s, e)
}

func parseInstant(value string, endOfDay bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errRequired
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, errUnparsable
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Microsecond)
	}
	return t, nil
}

type parseError string

func (e parseError) Error() string { return string(e) }

const (
	errRequired   parseError = "required"
	errUnparsable parseError = "expected RFC 3339 timestamp or YYYY-MM-DD date"
)

// Valid reports whether a window loaded from storage is usable for
// overlap arithmetic.
func (w Window) Valid() bool {
	return !w.Start.IsZero() && !w.End.IsZero() && !w.Start.After(w.End)
}

func (w Window) Overlaps(other Window) bool {
	return !w.Start.After(other.End) && !w.End.Before(other.Start)
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

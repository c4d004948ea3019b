package model

import (
	"fmt"
	"time"
)

// DateRange is a closed interval [Start, End].
type DateRange struct {
	Start time.Time
	End   time.Time
}

// DayRange returns the range covering whole UTC days from start through end.
func DayRange(start, end time.Time) DateRange {
	return DateRange{Start: StartOfDay(start), End: EndOfDay(end)}
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last millisecond of t's UTC day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Millisecond)
}

// Validate checks that both bounds are set and ordered.
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("date range bounds must be set")
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("end date %s is before start date %s",
			r.End.Format(time.DateOnly), r.Start.Format(time.DateOnly))
	}
	return nil
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Pad widens the range by days on both sides.
func (r DateRange) Pad(days int) DateRange {
	return DateRange{Start: r.Start.AddDate(0, 0, -days), End: r.End.AddDate(0, 0, days)}
}

func (r DateRange) String() string {
	return r.Start.Format(time.DateOnly) + " → " + r.End.Format(time.DateOnly)
}

// CheckedDateRange is the single reviewed interval of a user's history.
// The zero value is the empty range.
type CheckedDateRange struct {
	Start time.Time
	End   time.Time
}

// IsEmpty reports whether nothing has been checked yet.
func (c CheckedDateRange) IsEmpty() bool {
	return c.Start.IsZero() && c.End.IsZero()
}

// Range returns the interval as a DateRange.
func (c CheckedDateRange) Range() DateRange {
	return DateRange{Start: c.Start, End: c.End}
}

// StartMillis returns the start as epoch milliseconds.
func (c CheckedDateRange) StartMillis() int64 {
	return c.Start.UnixMilli()
}

// EndMillis returns the end as epoch milliseconds.
func (c CheckedDateRange) EndMillis() int64 {
	return c.End.UnixMilli()
}

// CheckedRangeFromMillis rebuilds a range from its persisted form.
func CheckedRangeFromMillis(start, end int64) CheckedDateRange {
	return CheckedDateRange{
		Start: time.UnixMilli(start).UTC(),
		End:   time.UnixMilli(end).UTC(),
	}
}

func (c CheckedDateRange) String() string {
	if c.IsEmpty() {
		return "(nothing checked)"
	}
	return c.Range().String()
}

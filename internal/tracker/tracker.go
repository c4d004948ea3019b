// Package tracker maintains the checked date range: the single interval of a
// user's history that has been fully reviewed for transfers.
//
// The tracker is pure. Callers load the current range, ask the tracker for the
// next value, and persist it themselves. Extend must only be called once every
// candidate in the window has been resolved; the review engine enforces that.
package tracker

import (
	"time"

	"github.com/Veraticus/spice-transfers/internal/common"
	"github.com/Veraticus/spice-transfers/internal/model"
)

// DefaultWindowDays is the length of a recommended scan window.
const DefaultWindowDays = 30

// Tracker computes checked range transitions and scan recommendations.
type Tracker struct {
	now        func() time.Time
	windowDays int
}

// New creates a tracker recommending windows of windowDays days.
func New(windowDays int) *Tracker {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Tracker{windowDays: windowDays, now: time.Now}
}

// WithClock replaces the tracker's notion of "now".
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// WindowDays returns the configured recommendation length.
func (t *Tracker) WindowDays() int {
	return t.windowDays
}

// Extend returns the union of current and a fully resolved window.
// The result never shrinks: its start is the earlier of the two starts and its
// end the later of the two ends.
func (t *Tracker) Extend(current model.CheckedDateRange, window model.DateRange) (model.CheckedDateRange, error) {
	if err := window.Validate(); err != nil {
		return current, common.NewInputValidationError("window", "%v", err)
	}

	if current.IsEmpty() {
		return model.CheckedDateRange{Start: window.Start.UTC(), End: window.End.UTC()}, nil
	}

	merged := current
	if window.Start.Before(merged.Start) {
		merged.Start = window.Start.UTC()
	}
	if window.End.After(merged.End) {
		merged.End = window.End.UTC()
	}
	return merged, nil
}

// RecommendNext suggests the window to scan after current.
// With nothing checked it starts at the earliest transaction in data. It
// The window never reaches into the current UTC day: it ends at the last
// complete day, and nil is returned when there is no data or nothing before
// today is left unchecked.
func (t *Tracker) RecommendNext(current model.CheckedDateRange, data *model.DateRange) *model.DateRange {
	lastFullDay := model.StartOfDay(t.now()).Add(-time.Millisecond)

	var start time.Time
	if current.IsEmpty() {
		if data == nil || data.Start.IsZero() {
			return nil
		}
		start = model.StartOfDay(data.Start)
	} else {
		start = current.End.Add(time.Millisecond).UTC()
	}

	if start.After(lastFullDay) {
		return nil
	}

	end := start.AddDate(0, 0, t.windowDays).Add(-time.Millisecond)
	if end.After(lastFullDay) {
		end = lastFullDay
	}

	return &model.DateRange{Start: start, End: end}
}

// Reset returns the empty checked range. Any in-flight review window must be
// discarded before the result is persisted.
func (t *Tracker) Reset() model.CheckedDateRange {
	return model.CheckedDateRange{}
}

package model

import (
	"sort"
	"time"
)

// ReviewState is the position of a review window in its cycle.
type ReviewState string

// Review cycle states.
const (
	StateIdle      ReviewState = "IDLE"
	StateScanning  ReviewState = "SCANNING"
	StateReviewing ReviewState = "REVIEWING"
	StateResolved  ReviewState = "RESOLVED"
)

// ReviewWindow tracks the candidates of the window a user is reviewing.
// It lives only as long as the session and is never persisted.
type ReviewWindow struct {
	ScannedAt   time.Time
	Range       DateRange
	Pairs       map[PairKey]TransferCandidatePair
	Outstanding map[PairKey]struct{}
	Dismissed   map[PairKey]struct{}
	ID          string
	UserID      string
	State       ReviewState
}

// NewReviewWindow creates a window in the SCANNING state.
func NewReviewWindow(id, userID string, r DateRange) *ReviewWindow {
	return &ReviewWindow{
		ID:          id,
		UserID:      userID,
		Range:       r,
		State:       StateScanning,
		Pairs:       make(map[PairKey]TransferCandidatePair),
		Outstanding: make(map[PairKey]struct{}),
		Dismissed:   make(map[PairKey]struct{}),
	}
}

// Load records scan results and moves to REVIEWING, or RESOLVED when empty.
func (w *ReviewWindow) Load(pairs []TransferCandidatePair, at time.Time) {
	w.ScannedAt = at
	for _, p := range pairs {
		w.Pairs[p.Key()] = p
		w.Outstanding[p.Key()] = struct{}{}
	}
	w.settle()
}

// Has reports whether key was produced by this window's scan.
func (w *ReviewWindow) Has(key PairKey) bool {
	_, ok := w.Pairs[key]
	return ok
}

// IsOutstanding reports whether key still awaits a decision.
func (w *ReviewWindow) IsOutstanding(key PairKey) bool {
	_, ok := w.Outstanding[key]
	return ok
}

// Resolve removes key from the outstanding set.
func (w *ReviewWindow) Resolve(key PairKey) {
	delete(w.Outstanding, key)
	w.settle()
}

// Dismiss resolves key without persistence and remembers it for this session.
func (w *ReviewWindow) Dismiss(key PairKey) {
	w.Dismissed[key] = struct{}{}
	w.Resolve(key)
}

// IsResolved reports whether every candidate has been resolved.
func (w *ReviewWindow) IsResolved() bool {
	return len(w.Outstanding) == 0
}

// OutstandingPairs returns unresolved candidates in detection order.
func (w *ReviewWindow) OutstandingPairs() []TransferCandidatePair {
	pairs := make([]TransferCandidatePair, 0, len(w.Outstanding))
	for key := range w.Outstanding {
		pairs = append(pairs, w.Pairs[key])
	}
	SortPairs(pairs)
	return pairs
}

func (w *ReviewWindow) settle() {
	if w.State == StateScanning || w.State == StateReviewing {
		if len(w.Outstanding) == 0 {
			w.State = StateResolved
		} else {
			w.State = StateReviewing
		}
	}
}

// SortPairs orders candidates by date difference, then outgoing date, then ids.
func SortPairs(pairs []TransferCandidatePair) {
	sort.SliceStable(pairs, func(i, j int) bool {
		a, b := pairs[i], pairs[j]
		if a.DateDifference != b.DateDifference {
			return a.DateDifference < b.DateDifference
		}
		if !a.OutgoingDate.Equal(b.OutgoingDate) {
			return a.OutgoingDate.Before(b.OutgoingDate)
		}
		if a.OutgoingTransactionID != b.OutgoingTransactionID {
			return a.OutgoingTransactionID < b.OutgoingTransactionID
		}
		return a.IncomingTransactionID < b.IncomingTransactionID
	})
}

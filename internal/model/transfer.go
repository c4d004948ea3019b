// Package model defines the core domain models used throughout the application.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PairKey identifies a transfer candidate by its two legs, outgoing first.
type PairKey struct {
	OutgoingID string
	IncomingID string
}

// String renders the key as "<outgoing>:<incoming>".
func (k PairKey) String() string {
	return k.OutgoingID + ":" + k.IncomingID
}

// ParsePairKey parses the form produced by PairKey.String.
func ParsePairKey(s string) (PairKey, error) {
	out, in, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || out == "" || in == "" {
		return PairKey{}, fmt.Errorf("invalid pair key %q: expected <outgoing>:<incoming>", s)
	}
	if out == in {
		return PairKey{}, fmt.Errorf("invalid pair key %q: legs must differ", s)
	}
	return PairKey{OutgoingID: out, IncomingID: in}, nil
}

// TransferCandidatePair is a probable transfer between two accounts of one user.
// It is rebuilt on every scan and never stored.
type TransferCandidatePair struct {
	OutgoingDate          time.Time
	IncomingDate          time.Time
	Amount                decimal.Decimal
	OutgoingTransactionID string
	IncomingTransactionID string
	OutgoingAccountID     string
	IncomingAccountID     string
	Description           string
	DateDifference        int
}

// Key returns the pair's identity.
func (p TransferCandidatePair) Key() PairKey {
	return PairKey{OutgoingID: p.OutgoingTransactionID, IncomingID: p.IncomingTransactionID}
}

// ResolutionAction is the user's decision for a candidate.
type ResolutionAction string

const (
	// ActionConfirm marks both legs as a transfer.
	ActionConfirm ResolutionAction = "confirm"
	// ActionDismiss drops the candidate for the current session only.
	ActionDismiss ResolutionAction = "dismiss"
)

// Valid reports whether the action is known.
func (a ResolutionAction) Valid() bool {
	return a == ActionConfirm || a == ActionDismiss
}

// Decision pairs a candidate key with the user's action.
type Decision struct {
	Action ResolutionAction
	Key    PairKey
}

// PairFailure describes a candidate that could not be resolved.
type PairFailure struct {
	Err    error `json:"-" yaml:"-"`
	Key    PairKey
	Reason string
}

// BulkResult reports the per-pair outcome of a resolution batch.
type BulkResult struct {
	Successful []PairKey
	Failed     []PairFailure
}

// Merge appends another result's entries.
func (r *BulkResult) Merge(other BulkResult) {
	r.Successful = append(r.Successful, other.Successful...)
	r.Failed = append(r.Failed, other.Failed...)
}

// Package matcher pairs outgoing and incoming transactions into probable transfers.
package matcher

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-transfers/internal/common"
	"github.com/Veraticus/spice-transfers/internal/model"
)

// DefaultMaxDateDifference is the default matching window in days.
const DefaultMaxDateDifference = 3

// Options tune the matching policy.
type Options struct {
	// AmountTolerance is the largest allowed difference between the legs'
	// absolute amounts. Zero requires exact equality.
	AmountTolerance   decimal.Decimal
	MaxDateDifference int
}

// DefaultOptions returns the baseline exact-amount policy.
func DefaultOptions() Options {
	return Options{MaxDateDifference: DefaultMaxDateDifference}
}

// Validate rejects options that cannot describe a matching window.
func (o Options) Validate() error {
	if o.MaxDateDifference < 0 {
		return common.NewInputValidationError("max date difference", "must not be negative, got %d", o.MaxDateDifference)
	}
	if o.AmountTolerance.IsNegative() {
		return common.NewInputValidationError("amount tolerance", "must not be negative, got %s", o.AmountTolerance)
	}
	return nil
}

// edge is a possible assignment between outgoing[out] and incoming[in].
type edge struct {
	createdGap time.Duration
	out        int
	in         int
	days       int
}

// Detect returns a bijective set of transfer candidates between outgoing
// (negative) and incoming (positive) transactions. Each transaction appears in
// at most one pair. The result is deterministic for a given input.
func Detect(outgoing, incoming []model.Transaction, opts Options) ([]model.TransferCandidatePair, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := validateLegs(outgoing, incoming); err != nil {
		return nil, err
	}

	edges := candidateEdges(outgoing, incoming, opts)
	if len(edges) == 0 {
		return []model.TransferCandidatePair{}, nil
	}

	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.days != b.days {
			return a.days < b.days
		}
		if a.createdGap != b.createdGap {
			return a.createdGap < b.createdGap
		}
		ao, bo := outgoing[a.out], outgoing[b.out]
		if !ao.Date.Equal(bo.Date) {
			return ao.Date.Before(bo.Date)
		}
		if ao.ID != bo.ID {
			return ao.ID < bo.ID
		}
		return incoming[a.in].ID < incoming[b.in].ID
	})

	usedOut := make(map[int]bool, len(outgoing))
	usedIn := make(map[int]bool, len(incoming))
	pairs := make([]model.TransferCandidatePair, 0, min(len(outgoing), len(incoming)))

	for _, e := range edges {
		if usedOut[e.out] || usedIn[e.in] {
			continue
		}
		usedOut[e.out] = true
		usedIn[e.in] = true
		pairs = append(pairs, newPair(outgoing[e.out], incoming[e.in], e.days))
	}

	model.SortPairs(pairs)
	return pairs, nil
}

// Partition splits transactions into outgoing and incoming sets, dropping
// zero-amount entries.
func Partition(transactions []model.Transaction) (outgoing, incoming []model.Transaction) {
	for _, txn := range transactions {
		switch {
		case txn.IsOutgoing():
			outgoing = append(outgoing, txn)
		case txn.IsIncoming():
			incoming = append(incoming, txn)
		}
	}
	return outgoing, incoming
}

// DaysBetween returns the absolute number of UTC calendar days between a and b.
func DaysBetween(a, b time.Time) int {
	diff := model.StartOfDay(a).Sub(model.StartOfDay(b))
	if diff < 0 {
		diff = -diff
	}
	return int(diff / (24 * time.Hour))
}

func candidateEdges(outgoing, incoming []model.Transaction, opts Options) []edge {
	var edges []edge
	for i := range outgoing {
		out := &outgoing[i]
		for j := range incoming {
			in := &incoming[j]
			if !compatible(out, in) {
				continue
			}
			if out.Amount.Abs().Sub(in.Amount).Abs().GreaterThan(opts.AmountTolerance) {
				continue
			}
			days := DaysBetween(out.Date, in.Date)
			if days > opts.MaxDateDifference {
				continue
			}
			gap := out.CreatedAt.Sub(in.CreatedAt)
			if gap < 0 {
				gap = -gap
			}
			edges = append(edges, edge{out: i, in: j, days: days, createdGap: gap})
		}
	}
	return edges
}

func compatible(out, in *model.Transaction) bool {
	if out.AccountID == in.AccountID {
		return false
	}
	if out.UserID != "" && in.UserID != "" && out.UserID != in.UserID {
		return false
	}
	if out.Currency != "" && in.Currency != "" && !strings.EqualFold(out.Currency, in.Currency) {
		return false
	}
	return true
}

func validateLegs(outgoing, incoming []model.Transaction) error {
	seen := make(map[string]struct{}, len(outgoing)+len(incoming))
	for _, txn := range outgoing {
		if !txn.IsOutgoing() {
			return common.NewInputValidationError("outgoing transaction", "%s has non-negative amount %s", txn.ID, txn.Amount)
		}
		if _, dup := seen[txn.ID]; dup {
			return common.NewInputValidationError("outgoing transaction", "duplicate id %s", txn.ID)
		}
		seen[txn.ID] = struct{}{}
	}
	for _, txn := range incoming {
		if !txn.IsIncoming() {
			return common.NewInputValidationError("incoming transaction", "%s has non-positive amount %s", txn.ID, txn.Amount)
		}
		if _, dup := seen[txn.ID]; dup {
			return common.NewInputValidationError("incoming transaction", "id %s appears more than once", txn.ID)
		}
		seen[txn.ID] = struct{}{}
	}
	return nil
}

func newPair(out, in model.Transaction, days int) model.TransferCandidatePair {
	return model.TransferCandidatePair{
		OutgoingTransactionID: out.ID,
		IncomingTransactionID: in.ID,
		OutgoingAccountID:     out.AccountID,
		IncomingAccountID:     in.AccountID,
		OutgoingDate:          out.Date,
		IncomingDate:          in.Date,
		Amount:                out.Amount.Abs(),
		DateDifference:        days,
		Description:           fmt.Sprintf("%s → %s", out.Name, in.Name),
	}
}

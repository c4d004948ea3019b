package testutil

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-transfers/internal/model"
)

// Ledger builds transaction fixtures for a single user. IDs are assigned in
// insertion order (tx-1, tx-2, ...) and creation times follow the same order.
type Ledger struct {
	created time.Time
	userID  string
	txns    []model.Transaction
}

// NewLedger starts an empty ledger for userID.
func NewLedger(userID string) *Ledger {
	return &Ledger{
		userID:  userID,
		created: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Add appends a single transaction. Negative amounts are outgoing.
func (l *Ledger) Add(account, amount string, date time.Time, name string) *Ledger {
	id := fmt.Sprintf("tx-%d", len(l.txns)+1)
	l.created = l.created.Add(time.Minute)
	l.txns = append(l.txns, model.Transaction{
		ID:        id,
		UserID:    l.userID,
		AccountID: account,
		Name:      name,
		Amount:    decimal.RequireFromString(amount),
		Currency:  "USD",
		Date:      date,
		CreatedAt: l.created,
	})
	return l
}

// Transfer appends both legs of a transfer of amount from one account to another.
func (l *Ledger) Transfer(from, to, amount string, sent, received time.Time) *Ledger {
	abs := decimal.RequireFromString(amount).Abs()
	l.Add(from, abs.Neg().String(), sent, "Transfer to "+to)
	l.Add(to, abs.String(), received, "Transfer from "+from)
	return l
}

// LastID returns the ID of the most recently added transaction.
func (l *Ledger) LastID() string {
	return fmt.Sprintf("tx-%d", len(l.txns))
}

// Build returns a copy of the accumulated transactions.
func (l *Ledger) Build() []model.Transaction {
	out := make([]model.Transaction, len(l.txns))
	copy(out, l.txns)
	return out
}

// Day returns noon UTC on the given day of 2024.
func Day(month time.Month, day int) time.Time {
	return time.Date(2024, month, day, 12, 0, 0, 0, time.UTC)
}

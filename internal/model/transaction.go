package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a single financial transaction owned by a user.
type Transaction struct {
	Date           time.Time
	CreatedAt      time.Time // Creation order, used as a matching tie-breaker
	CategoryID     *int      // Nil while the transaction is uncategorized
	Amount         decimal.Decimal
	ID             string
	UserID         string
	AccountID      string
	Name           string // Raw transaction description
	Currency       string // ISO 4217 code, empty when unknown
	TransferPeerID string // Other leg once confirmed as a transfer
	Hash           string
}

// IsOutgoing reports whether money left the account.
func (t *Transaction) IsOutgoing() bool {
	return t.Amount.IsNegative()
}

// IsIncoming reports whether money entered the account.
func (t *Transaction) IsIncoming() bool {
	return t.Amount.IsPositive()
}

// IsUncategorized reports whether the transaction still needs review.
func (t *Transaction) IsUncategorized() bool {
	return t.CategoryID == nil && t.TransferPeerID == ""
}

// GenerateHash creates a hash for duplicate detection. The ID is part of it,
// so two same-day transfers of equal amount between the same accounts stay
// distinct when their source gave them different IDs.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s:%s:%s:%s",
		t.UserID,
		t.ID,
		t.Date.Format("2006-01-02"),
		t.Amount.StringFixed(2),
		t.Name,
		t.AccountID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// Package service defines the contracts between the review engine and its collaborators.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/spice-transfers/internal/model"
)

// TransactionStore is the transaction storage the engine reads candidates
// from and writes confirmations to.
type TransactionStore interface {
	// ListUncategorizedTransactionsInRange returns transactions that are neither
	// categorized nor linked as a transfer, ordered by date.
	ListUncategorizedTransactionsInRange(ctx context.Context, userID string, start, end time.Time) ([]model.Transaction, error)

	// MarkAsTransfer files one leg under the transfer category and links it to
	// peerID. Returns common.ErrNotFound or common.ErrConflict on failure.
	MarkAsTransfer(ctx context.Context, userID, transactionID, peerID string, categoryID int) error

	// EnsureTransferCategory returns the user's transfer category, creating it if absent.
	EnsureTransferCategory(ctx context.Context, userID string) (*model.Category, error)

	// GetTransactionDateRange returns the earliest and latest transaction dates,
	// or nil when the user has no transactions.
	GetTransactionDateRange(ctx context.Context, userID string) (*model.DateRange, error)
}

// PairMarker is implemented by stores that can update both legs of a
// transfer atomically.
type PairMarker interface {
	MarkTransferPair(ctx context.Context, userID string, pair model.TransferCandidatePair, categoryID int) error
}

// PreferencesStore persists the per-user checked date range.
type PreferencesStore interface {
	GetCheckedDateRange(ctx context.Context, userID string) (model.CheckedDateRange, error)
	SetCheckedDateRange(ctx context.Context, userID string, checked model.CheckedDateRange) error
	ClearCheckedDateRange(ctx context.Context, userID string) error
}

// Storage is the full persistence layer.
type Storage interface {
	TransactionStore
	PairMarker
	PreferencesStore

	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	GetTransactionByID(ctx context.Context, userID, id string) (*model.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id string) error
	CategorizeTransaction(ctx context.Context, userID, id string, categoryID int) error
	GetCategoryByName(ctx context.Context, userID, name string) (*model.Category, error)
	CreateCategory(ctx context.Context, userID, name string, categoryType model.CategoryType) (*model.Category, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Progress summarises how far a user's transfer review has advanced.
type Progress struct {
	RecommendedNext *model.DateRange
	Window          *WindowSummary
	CheckedRange    model.CheckedDateRange
}

// WindowSummary describes the review window currently held for a user.
type WindowSummary struct {
	Range       model.DateRange
	ID          string
	State       model.ReviewState
	Candidates  int
	Outstanding int
	Dismissed   int
}

// ResolveOutcome is the result of a resolve call.
type ResolveOutcome struct {
	model.BulkResult
	CheckedRange    model.CheckedDateRange
	RecommendedNext *model.DateRange
	Remaining       int
	Committed       bool
}

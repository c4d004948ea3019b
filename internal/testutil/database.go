// Package testutil provides shared test helpers: an isolated in-memory
// database and a fluent builder for transaction fixtures.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/spice-transfers/internal/model"
	"github.com/Veraticus/spice-transfers/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database seeded with txns.
// It automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t,
//		testutil.NewLedger("alice").
//			Transfer("checking", "savings", "250.00", testutil.Day(time.March, 3), testutil.Day(time.March, 4)).
//			Build(),
//	)
func SetupTestDB(t *testing.T, txns []model.Transaction) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	if len(txns) > 0 {
		if err := store.SaveTransactions(ctx, txns); err != nil {
			_ = store.Close()
			t.Fatalf("failed to seed transactions: %v", err)
		}
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// MustGet returns the stored transaction or fails the test.
func (db *TestDB) MustGet(userID, id string) *model.Transaction {
	db.t.Helper()
	txn, err := db.Storage.GetTransactionByID(context.Background(), userID, id)
	if err != nil {
		db.t.Fatalf("transaction %q not found: %v", id, err)
	}
	return txn
}

// Uncategorized lists every uncategorized transaction in r.
func (db *TestDB) Uncategorized(userID string, r model.DateRange) []model.Transaction {
	db.t.Helper()
	txns, err := db.Storage.ListUncategorizedTransactionsInRange(context.Background(), userID, r.Start, r.End)
	if err != nil {
		db.t.Fatalf("failed to list transactions: %v", err)
	}
	return txns
}

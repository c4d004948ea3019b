package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/spice-transfers/internal/common"
	"github.com/Veraticus/spice-transfers/internal/model"
)

const transactionColumns = `
	id, user_id, account_id, hash, date_ms, name, amount,
	currency, created_at_ms, category_id, transfer_peer_id`

// SaveTransactions saves multiple transactions to the database.
// Transactions already present (same id, or same user and hash) are ignored.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDBError("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now()
	for _, txn := range transactions {
		if txn.Hash == "" {
			txn.Hash = txn.GenerateHash()
		}
		if txn.CreatedAt.IsZero() {
			txn.CreatedAt = now
		}

		var peer sql.NullString
		if txn.TransferPeerID != "" {
			peer = sql.NullString{String: txn.TransferPeerID, Valid: true}
		}

		_, err = stmt.ExecContext(ctx,
			txn.ID,
			txn.UserID,
			txn.AccountID,
			txn.Hash,
			txn.Date.UnixMilli(),
			txn.Name,
			txn.Amount,
			txn.Currency,
			txn.CreatedAt.UnixMilli(),
			txn.CategoryID,
			peer,
		)
		if err != nil {
			return wrapDBError(fmt.Sprintf("failed to insert transaction %s", txn.ID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapDBError("failed to commit transactions", err)
	}

	slog.Debug("saved transactions", "count", len(transactions))
	return nil
}

// ListUncategorizedTransactionsInRange returns the user's transactions in
// [start, end] that are neither categorized nor linked as a transfer.
func (s *SQLiteStorage) ListUncategorizedTransactionsInRange(ctx context.Context, userID string, start, end time.Time) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date %v is before start date %v", ErrInvalidDateRange, end, start)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = ?
		  AND date_ms BETWEEN ? AND ?
		  AND category_id IS NULL
		  AND transfer_peer_id IS NULL
		ORDER BY date_ms ASC, id ASC
	`, userID, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, wrapDBError("failed to query transactions", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// GetTransactionByID retrieves a single transaction by ID.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, userID, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getTransactionByID(ctx, s.db, userID, id)
}

func getTransactionByID(ctx context.Context, q queryable, userID, id string) (*model.Transaction, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return nil, wrapDBError("failed to get transaction", err)
	}
	defer func() { _ = rows.Close() }()

	txns, err := scanTransactions(rows)
	if err != nil {
		return nil, err
	}
	if len(txns) == 0 {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	return &txns[0], nil
}

// DeleteTransaction removes a transaction.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, userID, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return wrapDBError("failed to delete transaction", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// CategorizeTransaction files an uncategorized transaction under categoryID.
func (s *SQLiteStorage) CategorizeTransaction(ctx context.Context, userID, id string, categoryID int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET category_id = ?
		WHERE id = ? AND user_id = ? AND transfer_peer_id IS NULL
	`, categoryID, id, userID)
	if err != nil {
		return wrapDBError("failed to categorize transaction", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// MarkAsTransfer files one leg under the transfer category and links it to
// peerID. Marking a leg that is already linked to the same peer succeeds.
func (s *SQLiteStorage) MarkAsTransfer(ctx context.Context, userID, transactionID, peerID string, categoryID int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return err
	}
	if err := validateString(peerID, "peerID"); err != nil {
		return err
	}
	return markLeg(ctx, s.db, userID, transactionID, peerID, categoryID)
}

// MarkTransferPair marks both legs of pair inside one database transaction:
// either both legs are linked or neither is.
func (s *SQLiteStorage) MarkTransferPair(ctx context.Context, userID string, pair model.TransferCandidatePair, categoryID int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDBError("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := markLeg(ctx, tx, userID, pair.OutgoingTransactionID, pair.IncomingTransactionID, categoryID); err != nil {
		return err
	}
	if err := markLeg(ctx, tx, userID, pair.IncomingTransactionID, pair.OutgoingTransactionID, categoryID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return wrapDBError("failed to commit transfer pair", err)
	}
	return nil
}

func markLeg(ctx context.Context, q queryable, userID, id, peerID string, categoryID int) error {
	var (
		currentCategory sql.NullInt64
		currentPeer     sql.NullString
	)
	err := q.QueryRowContext(ctx, `
		SELECT category_id, transfer_peer_id FROM transactions
		WHERE id = ? AND user_id = ?
	`, id, userID).Scan(&currentCategory, &currentPeer)
	if errors.Is(err, sql.ErrNoRows) {
		return legChanged(id, common.ErrNotFound)
	}
	if err != nil {
		return wrapDBError("failed to read transaction", err)
	}

	if currentPeer.Valid {
		if currentPeer.String == peerID && currentCategory.Valid && int(currentCategory.Int64) == categoryID {
			return nil
		}
		return legChanged(id, fmt.Errorf("already linked to %s: %w", currentPeer.String, common.ErrConflict))
	}
	if currentCategory.Valid {
		return legChanged(id, fmt.Errorf("already categorized as %d: %w", currentCategory.Int64, common.ErrConflict))
	}

	result, err := q.ExecContext(ctx, `
		UPDATE transactions SET category_id = ?, transfer_peer_id = ?
		WHERE id = ? AND user_id = ? AND category_id IS NULL AND transfer_peer_id IS NULL
	`, categoryID, peerID, id, userID)
	if err != nil {
		return wrapDBError("failed to mark transfer", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return legChanged(id, fmt.Errorf("changed while marking: %w", common.ErrConflict))
	}
	return nil
}

// legChanged reports a leg that no longer matches what the scan saw. The
// result still matches common.ErrNotFound or common.ErrConflict.
func legChanged(id string, cause error) error {
	return &common.ConcurrentModificationError{TransactionID: id, Err: cause}
}

// GetTransactionDateRange returns the span of the user's transactions, or nil
// when there are none.
func (s *SQLiteStorage) GetTransactionDateRange(ctx context.Context, userID string) (*model.DateRange, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var earliest, latest sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MIN(date_ms), MAX(date_ms) FROM transactions WHERE user_id = ?
	`, userID).Scan(&earliest, &latest)
	if err != nil {
		return nil, wrapDBError("failed to get transaction date range", err)
	}
	if !earliest.Valid || !latest.Valid {
		return nil, nil
	}

	return &model.DateRange{
		Start: time.UnixMilli(earliest.Int64).UTC(),
		End:   time.UnixMilli(latest.Int64).UTC(),
	}, nil
}

func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for rows.Next() {
		var (
			txn       model.Transaction
			dateMS    int64
			createdMS int64
			category  sql.NullInt64
			peer      sql.NullString
		)
		if err := rows.Scan(
			&txn.ID,
			&txn.UserID,
			&txn.AccountID,
			&txn.Hash,
			&dateMS,
			&txn.Name,
			&txn.Amount,
			&txn.Currency,
			&createdMS,
			&category,
			&peer,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		txn.Date = time.UnixMilli(dateMS).UTC()
		txn.CreatedAt = time.UnixMilli(createdMS).UTC()
		if category.Valid {
			id := int(category.Int64)
			txn.CategoryID = &id
		}
		if peer.Valid {
			txn.TransferPeerID = peer.String
		}

		transactions = append(transactions, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapDBError("error iterating transactions", err)
	}
	return transactions, nil
}

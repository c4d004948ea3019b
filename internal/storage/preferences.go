package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Veraticus/spice-transfers/internal/model"
)

// GetCheckedDateRange returns the user's checked range. A user with no
// preferences row, or a cleared one, gets the empty range.
func (s *SQLiteStorage) GetCheckedDateRange(ctx context.Context, userID string) (model.CheckedDateRange, error) {
	if err := validateContext(ctx); err != nil {
		return model.CheckedDateRange{}, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return model.CheckedDateRange{}, err
	}

	var start, end sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT checked_start_ms, checked_end_ms FROM user_preferences WHERE user_id = ?
	`, userID).Scan(&start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CheckedDateRange{}, nil
	}
	if err != nil {
		return model.CheckedDateRange{}, wrapDBError("failed to get checked date range", err)
	}
	if !start.Valid || !end.Valid {
		return model.CheckedDateRange{}, nil
	}

	return model.CheckedRangeFromMillis(start.Int64, end.Int64), nil
}

// SetCheckedDateRange replaces the user's checked range.
func (s *SQLiteStorage) SetCheckedDateRange(ctx context.Context, userID string, checked model.CheckedDateRange) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateCheckedRange(checked); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_preferences (user_id, checked_start_ms, checked_end_ms, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			checked_start_ms = excluded.checked_start_ms,
			checked_end_ms = excluded.checked_end_ms,
			updated_at = CURRENT_TIMESTAMP
	`, userID, checked.StartMillis(), checked.EndMillis())
	if err != nil {
		return wrapDBError("failed to set checked date range", err)
	}
	return nil
}

// ClearCheckedDateRange forgets the user's checked range.
func (s *SQLiteStorage) ClearCheckedDateRange(ctx context.Context, userID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE user_preferences
		SET checked_start_ms = NULL, checked_end_ms = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`, userID)
	if err != nil {
		return wrapDBError("failed to clear checked date range", err)
	}
	return nil
}

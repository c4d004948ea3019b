package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/spice-transfers/internal/common"
	"github.com/Veraticus/spice-transfers/internal/model"
)

// GetCategoryByName returns a user's category by name.
func (s *SQLiteStorage) GetCategoryByName(ctx context.Context, userID, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	return getCategoryByName(ctx, s.db, userID, name)
}

func getCategoryByName(ctx context.Context, q queryable, userID, name string) (*model.Category, error) {
	var (
		cat     model.Category
		catType string
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, user_id, name, type, created_at
		FROM categories
		WHERE user_id = ? AND name = ?
	`, userID, name).Scan(&cat.ID, &cat.UserID, &cat.Name, &catType, &cat.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, wrapDBError("failed to get category", err)
	}

	cat.Type = model.CategoryType(catType)
	return &cat, nil
}

// CreateCategory creates a new category for the user.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, userID, name string, categoryType model.CategoryType) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	if categoryType == "" {
		categoryType = model.CategoryTypeExpense
	}

	if _, err := getCategoryByName(ctx, s.db, userID, name); err == nil {
		return nil, fmt.Errorf("category %q: %w", name, common.ErrDuplicateEntry)
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (user_id, name, type) VALUES (?, ?, ?)
	`, userID, name, string(categoryType))
	if err != nil {
		return nil, wrapDBError("failed to create category", err)
	}

	return getCategoryByName(ctx, s.db, userID, name)
}

// EnsureTransferCategory returns the user's system transfer category,
// creating it on first use.
func (s *SQLiteStorage) EnsureTransferCategory(ctx context.Context, userID string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO categories (user_id, name, type) VALUES (?, ?, ?)
	`, userID, model.TransferCategoryName, string(model.CategoryTypeSystem))
	if err != nil {
		return nil, wrapDBError("failed to ensure transfer category", err)
	}
	if n, _ := result.RowsAffected(); n > 0 {
		slog.Info("Created transfer category", "user", userID)
	}

	cat, err := getCategoryByName(ctx, s.db, userID, model.TransferCategoryName)
	if err != nil {
		return nil, err
	}
	if cat.Type != model.CategoryTypeSystem {
		return nil, fmt.Errorf("category %q exists with type %s: %w", cat.Name, cat.Type, common.ErrConflict)
	}
	return cat, nil
}

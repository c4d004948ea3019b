package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-transfers/internal/common"
	"github.com/Veraticus/spice-transfers/internal/model"
)

func TestCreateCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to expense", func(t *testing.T) {
		store, cleanup := createTestStorage(t)
		defer cleanup()

		cat, err := store.CreateCategory(ctx, testUser, "Groceries", "")
		require.NoError(t, err)
		assert.Equal(t, model.CategoryTypeExpense, cat.Type)
		assert.Equal(t, testUser, cat.UserID)
		assert.NotZero(t, cat.ID)
	})

	t.Run("duplicate name", func(t *testing.T) {
		store, cleanup := createTestStorage(t)
		defer cleanup()

		_, err := store.CreateCategory(ctx, testUser, "Salary", model.CategoryTypeIncome)
		require.NoError(t, err)
		_, err = store.CreateCategory(ctx, testUser, "Salary", model.CategoryTypeIncome)
		assert.ErrorIs(t, err, common.ErrDuplicateEntry)

		// Same name for a different user is fine.
		_, err = store.CreateCategory(ctx, "bob", "Salary", model.CategoryTypeIncome)
		assert.NoError(t, err)
	})

	t.Run("missing category", func(t *testing.T) {
		store, cleanup := createTestStorage(t)
		defer cleanup()

		_, err := store.GetCategoryByName(ctx, testUser, "Nope")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestEnsureTransferCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("created once", func(t *testing.T) {
		store, cleanup := createTestStorage(t)
		defer cleanup()

		first, err := store.EnsureTransferCategory(ctx, testUser)
		require.NoError(t, err)
		assert.True(t, first.IsTransfer())

		second, err := store.EnsureTransferCategory(ctx, testUser)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("user category with the same name conflicts", func(t *testing.T) {
		store, cleanup := createTestStorage(t)
		defer cleanup()

		_, err := store.CreateCategory(ctx, testUser, model.TransferCategoryName, model.CategoryTypeExpense)
		require.NoError(t, err)

		_, err = store.EnsureTransferCategory(ctx, testUser)
		assert.ErrorIs(t, err, common.ErrConflict)
	})
}

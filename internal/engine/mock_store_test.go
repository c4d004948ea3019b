package engine

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Veraticus/spice-transfers/internal/model"
)

// mockStore is a Store without atomic pair marking.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) ListUncategorizedTransactionsInRange(ctx context.Context, userID string, start, end time.Time) ([]model.Transaction, error) {
	args := m.Called(ctx, userID, start, end)
	txns, _ := args.Get(0).([]model.Transaction)
	return txns, args.Error(1)
}

func (m *mockStore) MarkAsTransfer(ctx context.Context, userID, transactionID, peerID string, categoryID int) error {
	args := m.Called(ctx, userID, transactionID, peerID, categoryID)
	return args.Error(0)
}

func (m *mockStore) EnsureTransferCategory(ctx context.Context, userID string) (*model.Category, error) {
	args := m.Called(ctx, userID)
	cat, _ := args.Get(0).(*model.Category)
	return cat, args.Error(1)
}

func (m *mockStore) GetTransactionDateRange(ctx context.Context, userID string) (*model.DateRange, error) {
	args := m.Called(ctx, userID)
	r, _ := args.Get(0).(*model.DateRange)
	return r, args.Error(1)
}

func (m *mockStore) GetCheckedDateRange(ctx context.Context, userID string) (model.CheckedDateRange, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.CheckedDateRange), args.Error(1)
}

func (m *mockStore) SetCheckedDateRange(ctx context.Context, userID string, checked model.CheckedDateRange) error {
	args := m.Called(ctx, userID, checked)
	return args.Error(0)
}

func (m *mockStore) ClearCheckedDateRange(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// mockPairStore adds atomic pair marking.
type mockPairStore struct {
	mockStore
}

func (m *mockPairStore) MarkTransferPair(ctx context.Context, userID string, pair model.TransferCandidatePair, categoryID int) error {
	args := m.Called(ctx, userID, pair, categoryID)
	return args.Error(0)
}

// spyTracker records every Extend call together with what was outstanding in
// the engine at that moment.
type spyTracker struct {
	RangeTracker
	engine  *ReviewEngine
	userID  string
	extends []int
}

func (s *spyTracker) Extend(current model.CheckedDateRange, window model.DateRange) (model.CheckedDateRange, error) {
	outstanding := 0
	s.engine.mu.Lock()
	if w := s.engine.windows[s.userID]; w != nil {
		outstanding = len(w.Outstanding)
	}
	s.engine.mu.Unlock()
	s.extends = append(s.extends, outstanding)
	return s.RangeTracker.Extend(current, window)
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-transfers/internal/common"
	"github.com/Veraticus/spice-transfers/internal/model"
	"github.com/Veraticus/spice-transfers/internal/service"
	"github.com/Veraticus/spice-transfers/internal/testutil"
)

var fastRetry = common.RetryOptions{
	MaxAttempts:  3,
	InitialDelay: time.Millisecond,
	MaxDelay:     5 * time.Millisecond,
	Multiplier:   2,
}

var transferCategory = &model.Category{ID: 7, Name: model.TransferCategoryName, Type: model.CategoryTypeSystem}

func pairOf(out, in string) model.TransferCandidatePair {
	return model.TransferCandidatePair{
		OutgoingTransactionID: out,
		IncomingTransactionID: in,
		Amount:                decimal.NewFromInt(100),
	}
}

func TestApplier_PartialFailureIsolation(t *testing.T) {
	ctx := context.Background()

	ledger := testutil.NewLedger("alice")
	var pairs []model.TransferCandidatePair
	for i := 1; i <= 5; i++ {
		ledger.Transfer("checking", "savings", "100", testutil.Day(time.January, i), testutil.Day(time.January, i))
		pairs = append(pairs, pairOf(fmt.Sprintf("tx-%d", 2*i-1), ledger.LastID()))
	}
	db := testutil.SetupTestDB(t, ledger.Build())

	// Third pair loses its incoming leg between scan and resolve.
	require.NoError(t, db.Storage.DeleteTransaction(ctx, "alice", pairs[2].IncomingTransactionID))

	result, err := NewApplier(db.Storage, fastRetry).ApplyConfirmations(ctx, "alice", pairs)
	require.NoError(t, err)

	assert.Len(t, result.Successful, 4)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, pairs[2].Key(), result.Failed[0].Key)
	assert.ErrorIs(t, result.Failed[0].Err, common.ErrConcurrentChange)
	assert.ErrorIs(t, result.Failed[0].Err, common.ErrNotFound)
	assert.NotEmpty(t, result.Failed[0].Reason)

	for i, p := range pairs {
		if i == 2 {
			out := db.MustGet("alice", p.OutgoingTransactionID)
			assert.True(t, out.IsUncategorized(), "surviving leg of failed pair must stay untouched")
			continue
		}
		out := db.MustGet("alice", p.OutgoingTransactionID)
		in := db.MustGet("alice", p.IncomingTransactionID)
		assert.Equal(t, p.IncomingTransactionID, out.TransferPeerID)
		assert.Equal(t, p.OutgoingTransactionID, in.TransferPeerID)
	}
}

func TestApplier_IdempotentRetry(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t, testutil.NewLedger("alice").
		Transfer("checking", "savings", "42.00", testutil.Day(time.March, 1), testutil.Day(time.March, 2)).
		Build())

	applier := NewApplier(db.Storage, fastRetry)
	pairs := []model.TransferCandidatePair{pairOf("tx-1", "tx-2")}

	first, err := applier.ApplyConfirmations(ctx, "alice", pairs)
	require.NoError(t, err)
	second, err := applier.ApplyConfirmations(ctx, "alice", pairs)
	require.NoError(t, err)

	assert.Equal(t, first.Successful, second.Successful)
	assert.Empty(t, second.Failed)
}

// legByLegStore hides MarkTransferPair so the applier marks one leg at a time.
type legByLegStore struct {
	Store
}

func TestApplier_HalfMarkedPairSucceedsOnRetry(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t, testutil.NewLedger("alice").
		Transfer("checking", "savings", "42.00", testutil.Day(time.March, 1), testutil.Day(time.March, 2)).
		Build())

	// An earlier attempt marked the outgoing leg and then stopped.
	category, err := db.Storage.EnsureTransferCategory(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, db.Storage.MarkAsTransfer(ctx, "alice", "tx-1", "tx-2", category.ID))

	applier := NewApplier(legByLegStore{Store: db.Storage}, fastRetry)
	_, atomic := applier.store.(service.PairMarker)
	require.False(t, atomic)

	result, err := applier.ApplyConfirmations(ctx, "alice", []model.TransferCandidatePair{pairOf("tx-1", "tx-2")})
	require.NoError(t, err)
	assert.Equal(t, []model.PairKey{{OutgoingID: "tx-1", IncomingID: "tx-2"}}, result.Successful)
	assert.Empty(t, result.Failed)

	assert.Equal(t, "tx-2", db.MustGet("alice", "tx-1").TransferPeerID)
	assert.Equal(t, "tx-1", db.MustGet("alice", "tx-2").TransferPeerID)
}

func TestApplier_IgnoresCancellation(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.NewLedger("alice").
		Transfer("checking", "savings", "10", testutil.Day(time.March, 1), testutil.Day(time.March, 1)).
		Build())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewApplier(db.Storage, fastRetry).
		ApplyConfirmations(ctx, "alice", []model.TransferCandidatePair{pairOf("tx-1", "tx-2")})
	require.NoError(t, err)
	assert.Len(t, result.Successful, 1)
	assert.Equal(t, "tx-2", db.MustGet("alice", "tx-1").TransferPeerID)
}

func TestApplier_WithMockStore(t *testing.T) {
	busy := common.Retryable(errors.New("database is locked"))

	tests := []struct {
		setup       func(*mockStore)
		wantErrIs   error
		name        string
		pairs       []model.TransferCandidatePair
		wantSuccess int
		wantFailed  int
	}{
		{
			name:  "per leg marking",
			pairs: []model.TransferCandidatePair{pairOf("o1", "i1")},
			setup: func(ms *mockStore) {
				ms.On("MarkAsTransfer", mock.Anything, "alice", "o1", "i1", 7).Return(nil).Once()
				ms.On("MarkAsTransfer", mock.Anything, "alice", "i1", "o1", 7).Return(nil).Once()
			},
			wantSuccess: 1,
		},
		{
			name:  "busy database is retried",
			pairs: []model.TransferCandidatePair{pairOf("o1", "i1")},
			setup: func(ms *mockStore) {
				ms.On("MarkAsTransfer", mock.Anything, "alice", "o1", "i1", 7).Return(busy).Once()
				ms.On("MarkAsTransfer", mock.Anything, "alice", "o1", "i1", 7).Return(nil).Once()
				ms.On("MarkAsTransfer", mock.Anything, "alice", "i1", "o1", 7).Return(nil).Once()
			},
			wantSuccess: 1,
		},
		{
			name:  "retries exhausted fails the pair only",
			pairs: []model.TransferCandidatePair{pairOf("o1", "i1"), pairOf("o2", "i2")},
			setup: func(ms *mockStore) {
				ms.On("MarkAsTransfer", mock.Anything, "alice", "o1", "i1", 7).Return(busy).Times(3)
				ms.On("MarkAsTransfer", mock.Anything, "alice", "o2", "i2", 7).Return(nil).Once()
				ms.On("MarkAsTransfer", mock.Anything, "alice", "i2", "o2", 7).Return(nil).Once()
			},
			wantSuccess: 1,
			wantFailed:  1,
		},
		{
			name:  "conflicting leg is a concurrent modification",
			pairs: []model.TransferCandidatePair{pairOf("o1", "i1")},
			setup: func(ms *mockStore) {
				ms.On("MarkAsTransfer", mock.Anything, "alice", "o1", "i1", 7).Return(nil).Once()
				ms.On("MarkAsTransfer", mock.Anything, "alice", "i1", "o1", 7).Return(common.ErrConflict).Once()
			},
			wantFailed: 1,
		},
		{
			name:  "storage unavailable aborts with partial result",
			pairs: []model.TransferCandidatePair{pairOf("o1", "i1"), pairOf("o2", "i2"), pairOf("o3", "i3")},
			setup: func(ms *mockStore) {
				ms.On("MarkAsTransfer", mock.Anything, "alice", "o1", "i1", 7).Return(nil).Once()
				ms.On("MarkAsTransfer", mock.Anything, "alice", "i1", "o1", 7).Return(nil).Once()
				ms.On("MarkAsTransfer", mock.Anything, "alice", "o2", "i2", 7).Return(common.ErrStorageUnavailable).Once()
			},
			wantErrIs:   common.ErrStorageUnavailable,
			wantSuccess: 1,
			wantFailed:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := &mockStore{}
			ms.On("EnsureTransferCategory", mock.Anything, "alice").Return(transferCategory, nil)
			tt.setup(ms)

			result, err := NewApplier(ms, fastRetry).ApplyConfirmations(context.Background(), "alice", tt.pairs)
			if tt.wantErrIs != nil {
				assert.ErrorIs(t, err, tt.wantErrIs)
			} else {
				require.NoError(t, err)
			}
			assert.Len(t, result.Successful, tt.wantSuccess)
			assert.Len(t, result.Failed, tt.wantFailed)
			ms.AssertExpectations(t)
		})
	}
}

func TestApplier_ConflictNamesLeg(t *testing.T) {
	ms := &mockStore{}
	ms.On("EnsureTransferCategory", mock.Anything, "alice").Return(transferCategory, nil)
	ms.On("MarkAsTransfer", mock.Anything, "alice", "o1", "i1", 7).Return(common.ErrNotFound)

	result, err := NewApplier(ms, fastRetry).
		ApplyConfirmations(context.Background(), "alice", []model.TransferCandidatePair{pairOf("o1", "i1")})
	require.NoError(t, err)
	require.Len(t, result.Failed, 1)

	var cme *common.ConcurrentModificationError
	require.ErrorAs(t, result.Failed[0].Err, &cme)
	assert.Equal(t, "o1", cme.TransactionID)
}

func TestApplier_PrefersAtomicPairMarking(t *testing.T) {
	ms := &mockPairStore{}
	ms.On("EnsureTransferCategory", mock.Anything, "alice").Return(transferCategory, nil)
	ms.On("MarkTransferPair", mock.Anything, "alice", pairOf("o1", "i1"), 7).Return(nil).Once()

	result, err := NewApplier(ms, fastRetry).
		ApplyConfirmations(context.Background(), "alice", []model.TransferCandidatePair{pairOf("o1", "i1")})
	require.NoError(t, err)
	assert.Equal(t, []model.PairKey{{OutgoingID: "o1", IncomingID: "i1"}}, result.Successful)
	ms.AssertExpectations(t)
	ms.AssertNotCalled(t, "MarkAsTransfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestApplier_CategoryFailureIsSystemic(t *testing.T) {
	ms := &mockStore{}
	ms.On("EnsureTransferCategory", mock.Anything, "alice").Return(nil, common.ErrStorageUnavailable)

	result, err := NewApplier(ms, fastRetry).
		ApplyConfirmations(context.Background(), "alice", []model.TransferCandidatePair{pairOf("o1", "i1")})
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)
	assert.Empty(t, result.Successful)
	assert.Empty(t, result.Failed)
	ms.AssertNotCalled(t, "MarkAsTransfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestApplier_EmptyBatch(t *testing.T) {
	ms := &mockStore{}
	result, err := NewApplier(ms, fastRetry).ApplyConfirmations(context.Background(), "alice", nil)
	require.NoError(t, err)
	assert.Empty(t, result.Successful)
	ms.AssertNotCalled(t, "EnsureTransferCategory", mock.Anything, mock.Anything)
}

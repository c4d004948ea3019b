package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/spice-transfers/internal/common"
	"github.com/Veraticus/spice-transfers/internal/model"
	"github.com/Veraticus/spice-transfers/internal/service"
)

// DefaultRetryOptions returns the backoff used for busy databases.
func DefaultRetryOptions() common.RetryOptions {
	return common.RetryOptions{
		MaxAttempts:  4,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
	}
}

// Applier persists confirmed transfer pairs.
type Applier struct {
	store service.TransactionStore
	retry common.RetryOptions
}

// NewApplier creates an applier writing through store.
func NewApplier(store service.TransactionStore, retry common.RetryOptions) *Applier {
	return &Applier{store: store, retry: retry}
}

// ApplyConfirmations marks every pair as a transfer, each independently of the
// others. A pair that fails lands in Failed and the batch continues. The
// returned error is non-nil only for systemic failures; the result then holds
// whatever was applied before the batch stopped.
//
// Once called, the batch runs to completion even if ctx is cancelled.
func (a *Applier) ApplyConfirmations(ctx context.Context, userID string, pairs []model.TransferCandidatePair) (model.BulkResult, error) {
	result := model.BulkResult{
		Successful: []model.PairKey{},
		Failed:     []model.PairFailure{},
	}
	if len(pairs) == 0 {
		return result, nil
	}

	ctx = context.WithoutCancel(ctx)

	var category *model.Category
	err := common.WithRetry(ctx, func() error {
		var ensureErr error
		category, ensureErr = a.store.EnsureTransferCategory(ctx, userID)
		return ensureErr
	}, a.retry)
	if err != nil {
		return result, fmt.Errorf("failed to ensure transfer category: %w", err)
	}

	marker, atomic := a.store.(service.PairMarker)

	for _, pair := range pairs {
		key := pair.Key()

		err := common.WithRetry(ctx, func() error {
			if atomic {
				return marker.MarkTransferPair(ctx, userID, pair, category.ID)
			}
			return a.markLegs(ctx, userID, pair, category.ID)
		}, a.retry)

		if err == nil {
			result.Successful = append(result.Successful, key)
			slog.Debug("Confirmed transfer", "user_id", userID, "pair", key.String())
			continue
		}

		err = classifyPairError(err)
		result.Failed = append(result.Failed, model.PairFailure{Key: key, Reason: err.Error(), Err: err})

		if errors.Is(err, common.ErrStorageUnavailable) {
			slog.Error("Aborting confirmation batch",
				"user_id", userID,
				"applied", len(result.Successful),
				"remaining", len(pairs)-len(result.Successful)-len(result.Failed),
				"error", err)
			return result, err
		}

		slog.Warn("Failed to confirm transfer", "user_id", userID, "pair", key.String(), "error", err)
	}

	slog.Info("Applied transfer confirmations",
		"user_id", userID,
		"successful", len(result.Successful),
		"failed", len(result.Failed))

	return result, nil
}

// markLegs is the fallback for stores without atomic pair marking.
func (a *Applier) markLegs(ctx context.Context, userID string, pair model.TransferCandidatePair, categoryID int) error {
	if err := a.store.MarkAsTransfer(ctx, userID, pair.OutgoingTransactionID, pair.IncomingTransactionID, categoryID); err != nil {
		return withLeg(err, pair.OutgoingTransactionID)
	}
	if err := a.store.MarkAsTransfer(ctx, userID, pair.IncomingTransactionID, pair.OutgoingTransactionID, categoryID); err != nil {
		return withLeg(err, pair.IncomingTransactionID)
	}
	return nil
}

func withLeg(err error, id string) error {
	var cme *common.ConcurrentModificationError
	if errors.As(err, &cme) {
		return err
	}
	if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrConflict) {
		return &common.ConcurrentModificationError{TransactionID: id, Err: err}
	}
	return err
}

// classifyPairError makes sure a missing or re-categorized leg is reported as
// a concurrent modification.
func classifyPairError(err error) error {
	if errors.Is(err, common.ErrConcurrentChange) {
		return err
	}
	if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrConflict) {
		return &common.ConcurrentModificationError{Err: err}
	}
	return err
}

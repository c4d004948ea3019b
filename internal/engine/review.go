// Package engine runs the transfer review cycle: scan a window for candidate
// pairs, resolve them, and advance the checked range once nothing is left.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-transfers/internal/common"
	"github.com/Veraticus/spice-transfers/internal/matcher"
	"github.com/Veraticus/spice-transfers/internal/model"
	"github.com/Veraticus/spice-transfers/internal/service"
	"github.com/Veraticus/spice-transfers/internal/tracker"
)

// Config holds configuration options for the review engine.
type Config struct {
	Now               func() time.Time
	AmountTolerance   decimal.Decimal
	Retry             common.RetryOptions
	MaxDateDifference int
	WindowDays        int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxDateDifference: matcher.DefaultMaxDateDifference,
		WindowDays:        tracker.DefaultWindowDays,
		Retry:             DefaultRetryOptions(),
	}
}

// ReviewEngine owns the per-user review windows.
type ReviewEngine struct {
	store   Store
	tracker RangeTracker
	applier *Applier
	now     func() time.Time
	windows map[string]*model.ReviewWindow
	locks   map[string]*sync.Mutex
	opts    matcher.Options
	mu      sync.Mutex
}

// New creates a review engine with the default configuration.
func New(store Store) *ReviewEngine {
	return NewWithConfig(store, DefaultConfig())
}

// NewWithConfig creates a review engine with custom configuration.
func NewWithConfig(store Store, config Config) *ReviewEngine {
	now := config.Now
	if now == nil {
		now = time.Now
	}
	return &ReviewEngine{
		store:   store,
		tracker: tracker.New(config.WindowDays).WithClock(now),
		applier: NewApplier(store, config.Retry),
		now:     now,
		windows: make(map[string]*model.ReviewWindow),
		locks:   make(map[string]*sync.Mutex),
		opts: matcher.Options{
			MaxDateDifference: config.MaxDateDifference,
			AmountTolerance:   config.AmountTolerance,
		},
	}
}

// WithTracker replaces the range tracker.
func (e *ReviewEngine) WithTracker(t RangeTracker) *ReviewEngine {
	e.tracker = t
	return e
}

// userLock serializes operations for one user. Different users never block
// each other beyond the map lookup.
func (e *ReviewEngine) userLock(userID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[userID] = l
	}
	return l
}

func (e *ReviewEngine) window(userID string) *model.ReviewWindow {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.windows[userID]
}

func (e *ReviewEngine) setWindow(userID string, w *model.ReviewWindow) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if w == nil {
		delete(e.windows, userID)
		return
	}
	e.windows[userID] = w
}

// Scan detects transfer candidates in window and opens a review window for
// them, replacing any window the user already had. Scanning never changes the
// checked range.
func (e *ReviewEngine) Scan(ctx context.Context, userID string, window model.DateRange) ([]model.TransferCandidatePair, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, common.NewInputValidationError("user", "must not be empty")
	}
	if err := window.Validate(); err != nil {
		return nil, common.NewInputValidationError("window", "%v", err)
	}
	if err := e.opts.Validate(); err != nil {
		return nil, err
	}

	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	w := model.NewReviewWindow(uuid.NewString(), userID, window)
	e.setWindow(userID, w)

	slog.Info("Scanning for transfers",
		"user_id", userID,
		"window_id", w.ID,
		"window", window.String())

	query := window.Pad(e.opts.MaxDateDifference)
	txns, err := e.store.ListUncategorizedTransactionsInRange(ctx, userID, query.Start, query.End)
	if err != nil {
		return nil, common.Retryable(fmt.Errorf("failed to list transactions: %w", err))
	}

	outgoing, incoming := matcher.Partition(txns)
	detected, err := matcher.Detect(outgoing, incoming, e.opts)
	if err != nil {
		return nil, common.Retryable(fmt.Errorf("failed to detect transfers: %w", err))
	}

	pairs := make([]model.TransferCandidatePair, 0, len(detected))
	for _, p := range detected {
		if window.Contains(p.OutgoingDate) || window.Contains(p.IncomingDate) {
			pairs = append(pairs, p)
		}
	}

	w.Load(pairs, e.now())

	slog.Info("Scan complete",
		"user_id", userID,
		"window_id", w.ID,
		"transactions", len(txns),
		"count", len(pairs),
		"state", w.State)

	out := make([]model.TransferCandidatePair, len(pairs))
	copy(out, pairs)
	return out, nil
}

// Resolve applies decisions to the user's open window. Confirmations are
// persisted, dismissals only leave the outstanding set. When nothing remains
// outstanding the window is committed and the checked range extended.
//
// Decisions are validated as a whole before anything is applied.
func (e *ReviewEngine) Resolve(ctx context.Context, userID string, decisions []model.Decision) (service.ResolveOutcome, error) {
	outcome := service.ResolveOutcome{
		BulkResult: model.BulkResult{Successful: []model.PairKey{}, Failed: []model.PairFailure{}},
	}

	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	w := e.window(userID)
	if w == nil || w.State == model.StateScanning {
		return outcome, fmt.Errorf("%w: %w", common.ErrNoActiveWindow,
			common.NewInputValidationError("user", "%s has no window to resolve", userID))
	}

	if err := validateDecisions(w, decisions); err != nil {
		return outcome, err
	}

	var confirms []model.TransferCandidatePair
	queued := make(map[model.PairKey]struct{}, len(decisions))
	for _, d := range decisions {
		if _, dup := queued[d.Key]; dup {
			continue
		}
		queued[d.Key] = struct{}{}
		switch d.Action {
		case model.ActionConfirm:
			confirms = append(confirms, w.Pairs[d.Key])
		case model.ActionDismiss:
			w.Dismiss(d.Key)
		}
	}

	result, applyErr := e.applier.ApplyConfirmations(ctx, userID, confirms)
	for _, key := range result.Successful {
		w.Resolve(key)
	}
	outcome.BulkResult = result
	outcome.Remaining = len(w.Outstanding)

	if applyErr != nil {
		return outcome, applyErr
	}

	if !w.IsResolved() {
		slog.Info("Window still has outstanding candidates",
			"user_id", userID,
			"window_id", w.ID,
			"outstanding", outcome.Remaining)
		return outcome, nil
	}

	checked, next, err := e.commit(context.WithoutCancel(ctx), w)
	if err != nil {
		return outcome, err
	}
	outcome.Committed = true
	outcome.CheckedRange = checked
	outcome.RecommendedNext = next
	return outcome, nil
}

func validateDecisions(w *model.ReviewWindow, decisions []model.Decision) error {
	seen := make(map[model.PairKey]model.ResolutionAction, len(decisions))
	for _, d := range decisions {
		if !d.Action.Valid() {
			return common.NewInputValidationError("action", "unknown action %q for %s", d.Action, d.Key)
		}
		if !w.Has(d.Key) {
			return common.NewInputValidationError("pair", "%s is not a candidate in window %s", d.Key, w.Range)
		}
		if !w.IsOutstanding(d.Key) {
			return common.NewInputValidationError("pair", "%s is already resolved", d.Key)
		}
		if prev, dup := seen[d.Key]; dup && prev != d.Action {
			return common.NewInputValidationError("pair", "conflicting decisions for %s", d.Key)
		}
		seen[d.Key] = d.Action
	}
	return nil
}

// commit extends the checked range by a fully resolved window and discards
// the window. The window survives a failed write so the caller can retry.
func (e *ReviewEngine) commit(ctx context.Context, w *model.ReviewWindow) (model.CheckedDateRange, *model.DateRange, error) {
	if !w.IsResolved() {
		err := &common.PreconditionViolation{
			UserID:      w.UserID,
			WindowID:    w.ID,
			Outstanding: len(w.Outstanding),
		}
		slog.Error("Refusing to extend checked range",
			"user_id", w.UserID,
			"window_id", w.ID,
			"outstanding", len(w.Outstanding),
			"error", err)
		return model.CheckedDateRange{}, nil, err
	}

	current, err := e.store.GetCheckedDateRange(ctx, w.UserID)
	if err != nil {
		return model.CheckedDateRange{}, nil, fmt.Errorf("failed to load checked range: %w", err)
	}

	next, err := e.tracker.Extend(current, w.Range)
	if err != nil {
		return current, nil, err
	}

	if err := e.store.SetCheckedDateRange(ctx, w.UserID, next); err != nil {
		return current, nil, fmt.Errorf("failed to save checked range: %w", err)
	}

	w.State = model.StateIdle
	e.setWindow(w.UserID, nil)

	slog.Info("Checked range extended",
		"user_id", w.UserID,
		"window_id", w.ID,
		"dismissed", len(w.Dismissed),
		"checked", next.String())

	recommended, err := e.recommend(ctx, w.UserID, next)
	if err != nil {
		slog.Warn("Failed to compute next window", "user_id", w.UserID, "error", err)
	}
	return next, recommended, nil
}

func (e *ReviewEngine) recommend(ctx context.Context, userID string, checked model.CheckedDateRange) (*model.DateRange, error) {
	var data *model.DateRange
	if checked.IsEmpty() {
		var err error
		data, err = e.store.GetTransactionDateRange(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to get transaction date range: %w", err)
		}
	}
	return e.tracker.RecommendNext(checked, data), nil
}

// Abandon discards the user's review window without touching persisted
// state. It reports whether a window was open.
func (e *ReviewEngine) Abandon(userID string) bool {
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	w := e.window(userID)
	if w == nil {
		return false
	}
	e.setWindow(userID, nil)
	slog.Info("Review window abandoned",
		"user_id", userID,
		"window_id", w.ID,
		"outstanding", len(w.Outstanding))
	return true
}

// Window summarises the user's open review window, or returns nil.
func (e *ReviewEngine) Window(userID string) *service.WindowSummary {
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	return summarize(e.window(userID))
}

// Outstanding returns the unresolved candidates of the user's window in
// detection order.
func (e *ReviewEngine) Outstanding(userID string) []model.TransferCandidatePair {
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	w := e.window(userID)
	if w == nil {
		return nil
	}
	return w.OutstandingPairs()
}

func summarize(w *model.ReviewWindow) *service.WindowSummary {
	if w == nil {
		return nil
	}
	return &service.WindowSummary{
		ID:          w.ID,
		Range:       w.Range,
		State:       w.State,
		Candidates:  len(w.Pairs),
		Outstanding: len(w.Outstanding),
		Dismissed:   len(w.Dismissed),
	}
}

// GetProgress reports the checked range and the next window to scan.
func (e *ReviewEngine) GetProgress(ctx context.Context, userID string) (service.Progress, error) {
	if strings.TrimSpace(userID) == "" {
		return service.Progress{}, common.NewInputValidationError("user", "must not be empty")
	}

	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	checked, err := e.store.GetCheckedDateRange(ctx, userID)
	if err != nil {
		return service.Progress{}, fmt.Errorf("failed to load checked range: %w", err)
	}

	next, err := e.recommend(ctx, userID, checked)
	if err != nil {
		return service.Progress{}, err
	}

	return service.Progress{
		CheckedRange:    checked,
		RecommendedNext: next,
		Window:          summarize(e.window(userID)),
	}, nil
}

// ResetProgress forgets the user's checked range and any open window.
// Callers must obtain explicit confirmation first.
func (e *ReviewEngine) ResetProgress(ctx context.Context, userID string) (model.CheckedDateRange, error) {
	if strings.TrimSpace(userID) == "" {
		return model.CheckedDateRange{}, common.NewInputValidationError("user", "must not be empty")
	}

	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	e.setWindow(userID, nil)

	if err := e.store.ClearCheckedDateRange(ctx, userID); err != nil {
		return model.CheckedDateRange{}, fmt.Errorf("failed to clear checked range: %w", err)
	}

	slog.Warn("Transfer review progress reset", "user_id", userID)
	return e.tracker.Reset(), nil
}

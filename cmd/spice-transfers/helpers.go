package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-transfers/internal/engine"
	"github.com/Veraticus/spice-transfers/internal/model"
	"github.com/Veraticus/spice-transfers/internal/storage"
)

// initStorage opens the configured database and brings its schema up to date.
func (a *app) initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(a.cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// newEngine builds a review engine from the loaded configuration.
func (a *app) newEngine(store engine.Store) *engine.ReviewEngine {
	cfg := engine.DefaultConfig()
	cfg.MaxDateDifference = a.cfg.MaxDateDifference
	cfg.AmountTolerance = a.cfg.AmountTolerance
	cfg.WindowDays = a.cfg.WindowDays
	return engine.NewWithConfig(store, cfg)
}

// addWindowFlags registers --from and --to on cmd.
func addWindowFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "first day of the window (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "last day of the window (YYYY-MM-DD)")
}

// windowFromFlags parses --from/--to. ok is false when neither was given.
func windowFromFlags(cmd *cobra.Command) (window model.DateRange, ok bool, err error) {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	if from == "" && to == "" {
		return model.DateRange{}, false, nil
	}
	if from == "" || to == "" {
		return model.DateRange{}, false, fmt.Errorf("--from and --to must be given together")
	}

	start, err := time.Parse(time.DateOnly, from)
	if err != nil {
		return model.DateRange{}, false, fmt.Errorf("invalid --from date %q: %w", from, err)
	}
	end, err := time.Parse(time.DateOnly, to)
	if err != nil {
		return model.DateRange{}, false, fmt.Errorf("invalid --to date %q: %w", to, err)
	}

	window = model.DayRange(start, end)
	if err := window.Validate(); err != nil {
		return model.DateRange{}, false, err
	}
	return window, true, nil
}

// resolveWindow returns the window from flags, or the recommended next one.
// A nil window means the user is caught up.
func (a *app) resolveWindow(cmd *cobra.Command, eng *engine.ReviewEngine) (*model.DateRange, error) {
	window, ok, err := windowFromFlags(cmd)
	if err != nil {
		return nil, err
	}
	if ok {
		return &window, nil
	}

	progress, err := eng.GetProgress(cmd.Context(), a.cfg.User)
	if err != nil {
		return nil, err
	}
	return progress.RecommendedNext, nil
}

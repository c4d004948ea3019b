package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-transfers/internal/cli"
	"github.com/Veraticus/spice-transfers/internal/engine"
	"github.com/Veraticus/spice-transfers/internal/model"
	"github.com/Veraticus/spice-transfers/internal/service"
)

func reviewCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Interactively confirm or dismiss transfer candidates",
		Long: `Review scans a window and walks you through each candidate.

Confirmed pairs are linked as transfers. Dismissed pairs are dropped for this
session only. Skipped pairs stay open, so the window is not marked as checked
until every candidate has been confirmed or dismissed.

Without --from/--to the recommended next window is reviewed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runReview(cmd)
		},
	}
	addWindowFlags(cmd)
	return cmd
}

func (a *app) runReview(cmd *cobra.Command) error {
	handler := cli.NewInterruptHandler(a.out)
	ctx, stop := handler.HandleInterrupts(cmd.Context())
	defer stop()

	store, err := a.initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	eng := a.newEngine(store)
	window, err := a.resolveWindow(cmd, eng)
	if err != nil {
		return err
	}
	if window == nil {
		fmt.Fprintln(a.out, cli.FormatSuccess("All caught up. There is no window left to review."))
		return nil
	}

	prompter := cli.NewPrompter(a.in, a.out)
	err = reviewWindow(ctx, eng, prompter, a.out, a.cfg.User, *window)
	if handler.WasInterrupted() || errors.Is(err, context.Canceled) {
		eng.Abandon(a.cfg.User)
		return nil
	}
	return err
}

// reviewWindow runs one review cycle over window.
func reviewWindow(ctx context.Context, eng *engine.ReviewEngine, prompter *cli.Prompter, out io.Writer, userID string, window model.DateRange) error {
	pairs, err := eng.Scan(ctx, userID, window)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	fmt.Fprintln(out, cli.FormatTitle("Reviewing transfers "+window.String()))

	if len(pairs) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("No candidates found in this window."))
		outcome, err := eng.Resolve(ctx, userID, nil)
		if err != nil {
			return fmt.Errorf("failed to close window: %w", err)
		}
		return prompter.ShowOutcome(outcome)
	}

	var confirms, dismissals []model.Decision
prompt:
	for i, pair := range pairs {
		choice, err := prompter.ReviewPair(ctx, pair, i+1, len(pairs))
		if errors.Is(err, cli.ErrInputClosed) {
			break
		}
		if err != nil {
			return err
		}

		switch choice {
		case cli.ChoiceConfirm:
			confirms = append(confirms, model.Decision{Key: pair.Key(), Action: model.ActionConfirm})
		case cli.ChoiceDismiss:
			dismissals = append(dismissals, model.Decision{Key: pair.Key(), Action: model.ActionDismiss})
		case cli.ChoiceSkip:
			// stays outstanding
		case cli.ChoiceQuit:
			slog.Info("Review stopped early", "user_id", userID, "reviewed", i)
			break prompt
		}
	}

	if len(confirms) == 0 && len(dismissals) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("No decisions made. The window stays unchecked."))
		return nil
	}

	outcome, err := applyDecisions(ctx, eng, prompter, userID, confirms, dismissals)
	if showErr := prompter.ShowOutcome(outcome); showErr != nil {
		slog.Warn("Failed to show outcome", "error", showErr)
	}
	return err
}

// applyDecisions resolves every decision in one batch. The progress bar
// follows the confirmations the batch reports back.
func applyDecisions(ctx context.Context, eng *engine.ReviewEngine, prompter *cli.Prompter, userID string, confirms, dismissals []model.Decision) (service.ResolveOutcome, error) {
	decisions := make([]model.Decision, 0, len(confirms)+len(dismissals))
	decisions = append(decisions, confirms...)
	decisions = append(decisions, dismissals...)

	if len(confirms) > 0 {
		prompter.StartBatch(len(confirms))
		defer prompter.FinishBatch()
	}

	outcome, err := eng.Resolve(ctx, userID, decisions)
	prompter.Advance(len(outcome.Successful) + len(outcome.Failed))
	if err != nil {
		return outcome, fmt.Errorf("resolve failed: %w", err)
	}
	return outcome, nil
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-transfers/internal/cli"
	"github.com/Veraticus/spice-transfers/internal/common"
	"github.com/Veraticus/spice-transfers/internal/model"
)

func resolveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Confirm or dismiss candidates without prompting",
		Long: `Resolve re-scans the window and applies the given decisions in one batch.

Keys are printed by 'scan' in the form <outgoing-id>:<incoming-id>.
The window is marked as checked only when every candidate has a decision;
--dismiss-remaining dismisses whatever was not listed.`,
		Example: `  spice-transfers resolve --from 2024-01-01 --to 2024-01-31 \
    --confirm tx-1:tx-2 --dismiss tx-7:tx-9`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runResolve(cmd)
		},
	}
	addWindowFlags(cmd)
	cmd.Flags().StringSlice("confirm", nil, "candidate key to confirm as a transfer (repeatable)")
	cmd.Flags().StringSlice("dismiss", nil, "candidate key to dismiss (repeatable)")
	cmd.Flags().Bool("dismiss-remaining", false, "dismiss every candidate not explicitly confirmed or dismissed")
	return cmd
}

// parseDecisions turns flag values into decisions.
func parseDecisions(confirm, dismiss []string) ([]model.Decision, error) {
	decisions := make([]model.Decision, 0, len(confirm)+len(dismiss))
	for _, group := range []struct {
		action model.ResolutionAction
		keys   []string
	}{
		{model.ActionConfirm, confirm},
		{model.ActionDismiss, dismiss},
	} {
		for _, raw := range group.keys {
			key, err := model.ParsePairKey(raw)
			if err != nil {
				return nil, err
			}
			decisions = append(decisions, model.Decision{Key: key, Action: group.action})
		}
	}
	return decisions, nil
}

func (a *app) runResolve(cmd *cobra.Command) error {
	ctx := cmd.Context()

	window, ok, err := windowFromFlags(cmd)
	if err != nil {
		return err
	}
	if !ok {
		return common.NewUserError("resolve needs the window the keys came from", errors.New("pass --from and --to"))
	}

	confirm, _ := cmd.Flags().GetStringSlice("confirm")
	dismiss, _ := cmd.Flags().GetStringSlice("dismiss")
	dismissRemaining, _ := cmd.Flags().GetBool("dismiss-remaining")

	decisions, err := parseDecisions(confirm, dismiss)
	if err != nil {
		return err
	}

	store, err := a.initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	eng := a.newEngine(store)
	if _, err := eng.Scan(ctx, a.cfg.User, window); err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if dismissRemaining {
		listed := make(map[model.PairKey]struct{}, len(decisions))
		for _, d := range decisions {
			listed[d.Key] = struct{}{}
		}
		for _, p := range eng.Outstanding(a.cfg.User) {
			if _, ok := listed[p.Key()]; !ok {
				decisions = append(decisions, model.Decision{Key: p.Key(), Action: model.ActionDismiss})
			}
		}
	}

	outcome, err := eng.Resolve(ctx, a.cfg.User, decisions)
	prompter := cli.NewPrompter(a.in, a.out)
	if showErr := prompter.ShowOutcome(outcome); showErr != nil {
		return showErr
	}
	if errors.Is(err, common.ErrInvalidInput) {
		return common.NewUserError("Decisions rejected; nothing was changed. Run 'scan' with the same window to list valid keys", err)
	}
	if err != nil {
		return fmt.Errorf("resolve failed: %w", err)
	}
	if len(outcome.Failed) > 0 {
		return fmt.Errorf("%d of %d confirmation(s) failed", len(outcome.Failed), len(outcome.Failed)+len(outcome.Successful))
	}
	return nil
}

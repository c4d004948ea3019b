package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-transfers/internal/cli"
)

func resetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget which dates have been checked",
		Long: `Reset clears the checked date range so every window is offered for review
again. Transfers you already confirmed stay linked.

This cannot be undone.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runReset(cmd)
		},
	}
	cmd.Flags().BoolP("force", "f", false, "Skip confirmation prompt")
	return cmd
}

func (a *app) runReset(cmd *cobra.Command) error {
	ctx := cmd.Context()
	force, _ := cmd.Flags().GetBool("force")

	store, err := a.initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	eng := a.newEngine(store)
	progress, err := eng.GetProgress(ctx, a.cfg.User)
	if err != nil {
		return err
	}
	if progress.CheckedRange.IsEmpty() {
		fmt.Fprintln(a.out, cli.FormatInfo("Nothing has been checked yet. Nothing to reset."))
		return nil
	}

	// Confirm with user unless --force is used
	if !force {
		fmt.Fprintln(a.out, cli.FormatWarning("This will forget that "+progress.CheckedRange.String()+" was checked for transfers."))
		ok, err := cli.NewPrompter(a.in, a.out).Confirm(ctx, "Are you sure you want to continue?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "Reset canceled.")
			return nil
		}
	}

	if _, err := eng.ResetProgress(ctx, a.cfg.User); err != nil {
		return fmt.Errorf("failed to reset progress: %w", err)
	}

	fmt.Fprintln(a.out, cli.FormatSuccess("Checked range cleared. Run 'spice-transfers review' to start again."))
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-transfers/internal/cli"
)

func scanCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List transfer candidates in a date window",
		Long: `Scan looks for pairs of uncategorized transactions that move the same amount
between two of your accounts within a few days of each other.

Scanning is read-only. Nothing is marked and the checked range does not
move. Without --from/--to the recommended next window is scanned.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runScan(cmd)
		},
	}
	addWindowFlags(cmd)
	return cmd
}

func (a *app) runScan(cmd *cobra.Command) error {
	ctx := cmd.Context()

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
		fmt.Fprintln(a.out, cli.FormatSuccess("All caught up. There is no window left to scan."))
		return nil
	}

	pairs, err := eng.Scan(ctx, a.cfg.User, *window)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	fmt.Fprintln(a.out, cli.FormatTitle("Transfer candidates "+window.String()))
	if len(pairs) == 0 {
		fmt.Fprintln(a.out, cli.FormatInfo("No candidates found in this window."))
		return nil
	}
	if err := cli.WritePairTable(a.out, pairs); err != nil {
		return fmt.Errorf("failed to write candidates: %w", err)
	}
	fmt.Fprintln(a.out, cli.FormatInfo(fmt.Sprintf("%d candidate(s). Use 'review' or 'resolve' to act on them.", len(pairs))))
	return nil
}

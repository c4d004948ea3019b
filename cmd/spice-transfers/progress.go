package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/spice-transfers/internal/cli"
	"github.com/Veraticus/spice-transfers/internal/service"
)

func progressCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show which dates have been checked for transfers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runProgress(cmd)
		},
	}
	cmd.Flags().StringP("output", "o", "text", "output format (text, json, yaml)")
	return cmd
}

// progressReport is the machine-readable form of service.Progress.
type progressReport struct {
	CheckedStart *string `json:"checked_start" yaml:"checked_start"`
	CheckedEnd   *string `json:"checked_end" yaml:"checked_end"`
	NextStart    *string `json:"next_start" yaml:"next_start"`
	NextEnd      *string `json:"next_end" yaml:"next_end"`
	User         string  `json:"user" yaml:"user"`
	CaughtUp     bool    `json:"caught_up" yaml:"caught_up"`
}

func newProgressReport(user string, p service.Progress) progressReport {
	day := func(t time.Time) *string {
		s := t.Format(time.DateOnly)
		return &s
	}

	report := progressReport{User: user}
	if !p.CheckedRange.IsEmpty() {
		report.CheckedStart = day(p.CheckedRange.Start)
		report.CheckedEnd = day(p.CheckedRange.End)
	}
	if p.RecommendedNext != nil {
		report.NextStart = day(p.RecommendedNext.Start)
		report.NextEnd = day(p.RecommendedNext.End)
	} else {
		report.CaughtUp = !p.CheckedRange.IsEmpty()
	}
	return report
}

func (a *app) runProgress(cmd *cobra.Command) error {
	ctx := cmd.Context()
	output, _ := cmd.Flags().GetString("output")

	store, err := a.initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	progress, err := a.newEngine(store).GetProgress(ctx, a.cfg.User)
	if err != nil {
		return err
	}

	switch output {
	case "text":
		return cli.WriteProgress(a.out, progress)
	case "json":
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(newProgressReport(a.cfg.User, progress))
	case "yaml":
		enc := yaml.NewEncoder(a.out)
		defer func() { _ = enc.Close() }()
		return enc.Encode(newProgressReport(a.cfg.User, progress))
	default:
		return fmt.Errorf("unknown output format %q: use text, json, or yaml", output)
	}
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bracefix/internal/diag"
	"bracefix/internal/diagfmt"
	"bracefix/internal/driver"
	"bracefix/internal/fix"
)

var scanCmd = &cobra.Command{
	Use:   "scan [flags] [expr...]",
	Short: "Report the first bracket defect of each expression",
	Long: `Scan each expression for its leftmost bracket defect without consulting
a validator. Exit status is 1 when any expression has a defect.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().String("format", "pretty", "output format (pretty|short|json)")
	scanCmd.Flags().StringSlice("pairs", nil, "bracket pairs, e.g. --pairs '[]','()'")
	scanCmd.Flags().Bool("with-notes", true, "include diagnostic notes in output")
	scanCmd.Flags().Bool("suggest", true, "include candidate insertions in output")
	scanCmd.Flags().Bool("preview", false, "show each candidate applied to the expression")
	scanCmd.Flags().Bool("apply", false, "print the expression with the preferred insertion applied")
	scanCmd.Flags().String("id", "", "with --apply, apply the candidate with this identifier")
}

func runScan(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic(cmd)
	timer := newTimer(cmd)
	defer printTimings(cmd, timer)

	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format, err := parseFormat(formatStr, "pretty", "short", "json")
	if err != nil {
		return err
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	suggest, err := cmd.Flags().GetBool("suggest")
	if err != nil {
		return fmt.Errorf("failed to get suggest flag: %w", err)
	}
	preview, err := cmd.Flags().GetBool("preview")
	if err != nil {
		return fmt.Errorf("failed to get preview flag: %w", err)
	}
	apply, err := cmd.Flags().GetBool("apply")
	if err != nil {
		return fmt.Errorf("failed to get apply flag: %w", err)
	}
	targetID, err := cmd.Flags().GetString("id")
	if err != nil {
		return fmt.Errorf("failed to get id flag: %w", err)
	}
	if targetID != "" && !apply {
		return fmt.Errorf("--id requires --apply")
	}

	cfg, err := loadConfig(cmd, timer)
	if err != nil {
		return err
	}
	pairs, err := cfg.PairSet()
	if err != nil {
		return err
	}
	lines, err := expressions(cmd, args)
	if err != nil {
		return err
	}
	useColor, err := colorEnabled(cmd, os.Stdout)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	limit := maxDiagnostics(cmd)
	all := diag.NewBag(limit)
	var outputs []diagfmt.DiagnosticsOutput
	defects := 0

	idx := timer.Begin("scan")
	for _, line := range lines {
		bag := diag.NewBag(limit)
		defect := driver.Diagnose(line.Text, pairs, diag.BagReporter{Bag: bag, Origin: line.Loc})
		if defect.None() {
			if format == "pretty" && !quiet(cmd) {
				fmt.Fprintf(out, "%s: balanced\n", line.Text)
			}
		} else {
			defects++
		}

		switch format {
		case "pretty":
			if err := diagfmt.Pretty(out, line.Text, bag.Items(), diagfmt.PrettyOpts{
				Color:       useColor,
				ShowNotes:   withNotes,
				ShowFixes:   suggest,
				ShowPreview: preview,
			}); err != nil {
				return err
			}
		case "short":
			all.Merge(bag)
		case "json":
			outputs = append(outputs, diagfmt.BuildDiagnosticsOutput(line.Text, bag.Items(), diagfmt.JSONOpts{
				Max:             limit,
				IncludeNotes:    withNotes,
				IncludeFixes:    suggest,
				IncludePreviews: preview,
			}))
		}

		if apply && !defect.None() {
			mode := fix.ApplyModeOnce
			if targetID != "" {
				mode = fix.ApplyModeID
			}
			res, err := fix.ApplyAll(line.Text, bag.Items()[0].Fixes, fix.ApplyOptions{Mode: mode, TargetID: targetID})
			switch {
			case errors.Is(err, fix.ErrNoFixes):
				fmt.Fprintf(errOut, "%s: no applicable fix\n", line.Text)
			case err != nil:
				return err
			default:
				fmt.Fprintf(out, "%s -> %s\n", line.Text, res.Output)
			}
		}
	}
	timer.End(idx, fmt.Sprintf("%d defect(s)", defects))

	switch format {
	case "short":
		all.Sort()
		all.Dedup()
		if all.Len() > 0 {
			fmt.Fprintln(out, diag.FormatShortDiagnostics(all.Items(), withNotes))
		}
	case "json":
		var payload any = outputs
		if len(outputs) == 1 {
			payload = outputs[0]
		}
		if err := diagfmt.JSON(out, payload); err != nil {
			return err
		}
	}

	if defects > 0 {
		return &exitError{code: 1}
	}
	return nil
}

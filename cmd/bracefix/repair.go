package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"bracefix/internal/bracket"
	"bracefix/internal/diag"
	"bracefix/internal/diagfmt"
	"bracefix/internal/driver"
	"bracefix/internal/repair"
	"bracefix/internal/source"
	"bracefix/internal/trace"
)

var repairCmd = &cobra.Command{
	Use:   "repair [flags] [expr...]",
	Short: "Insert missing brackets so each expression validates",
	Long: `Repair each expression by inserting the fewest bracket characters that
make it balanced and acceptable to the configured validator. Expressions
are read from stdin, one per line, when none are given.

Exit status is 2 when some expression cannot be fixed within --max-depth.`,
	RunE: runRepair,
}

func init() {
	addRepairFlags(repairCmd)
	repairCmd.Flags().String("format", "text", "output format (text|json)")
	repairCmd.Flags().Bool("explain", false, "list inserted characters and search counters")
}

type repairRun struct {
	line   source.Line
	result *repair.Result
	cached bool
	err    error
}

func runRepair(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic(cmd)
	timer := newTimer(cmd)
	defer printTimings(cmd, timer)

	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format, err := parseFormat(formatStr, "text", "json")
	if err != nil {
		return err
	}
	explain, err := cmd.Flags().GetBool("explain")
	if err != nil {
		return fmt.Errorf("failed to get explain flag: %w", err)
	}

	cfg, err := loadConfig(cmd, timer)
	if err != nil {
		return err
	}
	c, err := openCache(cfg)
	if err != nil {
		return err
	}
	repairer, err := driver.RepairerFromConfig(cfg, c)
	if err != nil {
		return err
	}
	lines, err := expressions(cmd, args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeDriver, "repair-cmd", 0).
		WithExtra("oracle", cfg.Repair.Oracle)
	ctx = trace.WithSpan(ctx, span)

	idx := timer.Begin("repair")
	runs := make([]repairRun, 0, len(lines))
	failed := 0
	for _, line := range lines {
		outcome, err := repairer.Repair(ctx, line.Text)
		if err != nil && !errors.Is(err, repair.ErrUnrecoverable) {
			timer.End(idx, err.Error())
			span.End(err.Error())
			return err
		}
		run := repairRun{line: line, err: err}
		if outcome != nil {
			run.result = outcome.Result
			run.cached = outcome.Cached
		}
		if err != nil {
			failed++
		}
		runs = append(runs, run)
	}
	timer.End(idx, fmt.Sprintf("%d expression(s), %d failed", len(runs), failed))
	span.End(fmt.Sprintf("failed=%d", failed))

	idx = timer.Begin("render")
	if format == "json" {
		err = renderRepairJSON(cmd.OutOrStdout(), runs)
	} else {
		err = renderRepairText(cmd, runs, repairer.Pairs(), explain)
	}
	timer.End(idx, "")
	if err != nil {
		return err
	}
	if failed > 0 {
		return &exitError{code: 2}
	}
	return nil
}

func renderRepairJSON(w io.Writer, runs []repairRun) error {
	payloads := make([]diagfmt.RepairJSON, len(runs))
	for i, r := range runs {
		payloads[i] = diagfmt.BuildRepairOutput(r.line.Text, r.result, r.cached, r.err)
	}
	if len(payloads) == 1 {
		return diagfmt.JSON(w, payloads[0])
	}
	return diagfmt.JSON(w, payloads)
}

func renderRepairText(cmd *cobra.Command, runs []repairRun, pairs bracket.PairSet, explain bool) error {
	useColor, err := colorEnabled(cmd, os.Stdout)
	if err != nil {
		return err
	}
	errColor, err := colorEnabled(cmd, os.Stderr)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, r := range runs {
		if r.err != nil {
			if err := reportRepairFailure(cmd, r, pairs, errColor); err != nil {
				return err
			}
			continue
		}
		if explain {
			if err := diagfmt.Explain(out, r.result, useColor); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintln(out, diagfmt.Highlight(r.result, useColor)); err != nil {
			return err
		}
	}
	return nil
}

// reportRepairFailure prints why r failed together with the first defect
// of the input and the candidate insertions for it.
func reportRepairFailure(cmd *cobra.Command, r repairRun, pairs bracket.PairSet, useColor bool) error {
	bag := diag.NewBag(maxDiagnostics(cmd))
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: bag, Origin: r.line.Loc})
	driver.DiagnoseFailure(r.line.Text, pairs, r.err, reporter)
	driver.Diagnose(r.line.Text, pairs, reporter)

	errOut := cmd.ErrOrStderr()
	if quiet(cmd) {
		_, err := fmt.Fprintln(errOut, diag.FormatShortDiagnostics(bag.Items(), false))
		return err
	}
	return diagfmt.Pretty(errOut, r.line.Text, bag.Items(), diagfmt.PrettyOpts{
		Color:       useColor,
		ShowNotes:   true,
		ShowFixes:   true,
		ShowPreview: true,
		MaxFixes:    driver.MaxSuggestions,
	})
}

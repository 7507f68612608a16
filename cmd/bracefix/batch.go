package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"bracefix/internal/driver"
	"bracefix/internal/source"
	"bracefix/internal/trace"
)

var batchCmd = &cobra.Command{
	Use:   "batch [flags] <file...>",
	Short: "Repair every expression of one or more files",
	Long: `Repair files holding one expression per line ('-' reads stdin). Blank
lines and lines starting with '#' are skipped. Expressions are repaired
concurrently; the report keeps input order.

Exit status is 2 when some expression could not be fixed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	addRepairFlags(batchCmd)
	batchCmd.Flags().Int("jobs", 0, "max parallel repairs (0=auto)")
	batchCmd.Flags().String("format", "text", "report format (text|json|yaml)")
	batchCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	batchCmd.Flags().Bool("normalize", false, "NFC-normalize expressions before repairing")
	batchCmd.Flags().Bool("fullpath", false, "emit absolute file paths in the report")
}

func runBatch(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic(cmd)
	timer := newTimer(cmd)
	defer printTimings(cmd, timer)

	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format, err := driver.ParseReportFormat(formatStr)
	if err != nil {
		return err
	}
	uiStr, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiStr)
	if err != nil {
		return err
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}

	cfg, err := loadConfig(cmd, timer)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("jobs") {
		if cfg.Batch.Jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("normalize") {
		if cfg.Batch.Normalize, err = cmd.Flags().GetBool("normalize"); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
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

	idx := timer.Begin("read")
	items, err := readBatchItems(args, cfg.Batch.Normalize, fullPath)
	timer.End(idx, fmt.Sprintf("%d expression(s)", len(items)))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeDriver, "batch-cmd", 0)
	ctx = trace.WithSpan(ctx, span)

	opts := driver.BatchOptions{Jobs: cfg.Jobs()}
	idx = timer.Begin("repair")
	var report *driver.Report
	view := batchView{mode: mode, format: format, quiet: quiet(cmd), items: len(items)}
	if view.wantsProgressUI(isTerminal) {
		report, err = runBatchWithUI(ctx, "repairing", repairer, items, opts)
	} else {
		report, err = driver.RunBatch(ctx, repairer, items, opts)
	}
	timer.End(idx, "")
	if err != nil {
		span.End(err.Error())
		return err
	}
	span.End(fmt.Sprintf("fixed=%d failed=%d", report.Fixed, report.Failed))

	idx = timer.Begin("render")
	err = driver.WriteReport(cmd.OutOrStdout(), report, format)
	timer.End(idx, "")
	if err != nil {
		return err
	}
	if report.Failed > 0 {
		return &exitError{code: 2}
	}
	return nil
}

// readBatchItems reads every file in order. Paths are reported relative
// to the working directory unless fullPath is set.
func readBatchItems(paths []string, normalize, fullPath bool) ([]driver.Item, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	var items []driver.Item
	for _, path := range paths {
		lines, err := source.ReadFile(path, source.ReadOptions{Normalize: normalize})
		if err != nil {
			return nil, err
		}
		display := path
		if path != "-" {
			if fullPath {
				if abs, err := filepath.Abs(path); err == nil {
					display = abs
				}
			} else if rel, err := source.RelativePath(path, cwd); err == nil {
				display = rel
			}
		}
		for i := range lines {
			lines[i].Loc.Path = display
		}
		items = append(items, driver.ItemsFromLines(lines)...)
	}
	return items, nil
}

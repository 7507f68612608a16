package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"bracefix/internal/cache"
	"bracefix/internal/config"
	"bracefix/internal/diagfmt"
	"bracefix/internal/observ"
	"bracefix/internal/source"
)

// addRepairFlags registers the search flags shared by repair, batch and repl.
func addRepairFlags(cmd *cobra.Command) {
	cmd.Flags().String("oracle", "", "validator to consult (see `bracefix oracles`)")
	cmd.Flags().StringSlice("pairs", nil, "bracket pairs, e.g. --pairs '[]','()'")
	cmd.Flags().Int("max-depth", 0, "maximum number of inserted characters")
	cmd.Flags().Int("min-depth", 0, "skip the validator for fewer insertions than this")
	cmd.Flags().Bool("staged", true, "try depth budgets in increasing order")
	cmd.Flags().Bool("cache", false, "reuse cached repair results")
}

// loadConfig reads --config (or the nearest bracefix.toml) and applies the
// search flags the user set explicitly.
func loadConfig(cmd *cobra.Command, timer *observ.Timer) (config.Config, error) {
	idx := timer.Begin("load-config")
	defer timer.End(idx, "")

	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	var cfg config.Config
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadNearest(".")
	}
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("oracle") {
		if cfg.Repair.Oracle, err = flags.GetString("oracle"); err != nil {
			return cfg, err
		}
	}
	if flags.Changed("pairs") {
		if cfg.Repair.Pairs, err = flags.GetStringSlice("pairs"); err != nil {
			return cfg, err
		}
	}
	if flags.Changed("max-depth") {
		if cfg.Repair.MaxDepth, err = flags.GetInt("max-depth"); err != nil {
			return cfg, err
		}
	}
	if flags.Changed("min-depth") {
		if cfg.Repair.MinDepth, err = flags.GetInt("min-depth"); err != nil {
			return cfg, err
		}
	}
	if flags.Changed("staged") {
		if cfg.Repair.Staged, err = flags.GetBool("staged"); err != nil {
			return cfg, err
		}
	}
	if flags.Changed("cache") {
		if cfg.Cache.Enabled, err = flags.GetBool("cache"); err != nil {
			return cfg, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// openCache returns nil when caching is disabled.
func openCache(cfg config.Config) (*cache.DiskCache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	dir, err := cfg.CacheDir()
	if err != nil {
		return nil, err
	}
	return cache.Open(dir)
}

func colorEnabled(cmd *cobra.Command, f *os.File) (bool, error) {
	value, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	mode, err := diagfmt.ParseColorMode(value)
	if err != nil {
		return false, err
	}
	return mode.Enabled(f), nil
}

func quiet(cmd *cobra.Command) bool {
	q, err := cmd.Root().PersistentFlags().GetBool("quiet")
	return err == nil && q
}

func maxDiagnostics(cmd *cobra.Command) int {
	n, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil || n <= 0 {
		return 100
	}
	return n
}

// newTimer returns nil unless --timings is set; a nil timer records nothing.
func newTimer(cmd *cobra.Command) *observ.Timer {
	on, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil || !on {
		return nil
	}
	return observ.NewTimer()
}

func printTimings(cmd *cobra.Command, timer *observ.Timer) {
	if timer == nil {
		return
	}
	fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
}

// expressions returns args, or the non-comment lines of stdin when there
// are none. Arguments carry no location.
func expressions(cmd *cobra.Command, args []string) ([]source.Line, error) {
	if len(args) > 0 {
		lines := make([]source.Line, len(args))
		for i, a := range args {
			lines[i] = source.Line{Text: a}
		}
		return lines, nil
	}
	lines, err := source.ReadLines(cmd.InOrStdin(), "<stdin>", source.ReadOptions{})
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("no expressions given")
	}
	return lines, nil
}

func parseFormat(value string, allowed ...string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}
	return "", fmt.Errorf("unsupported format %q (must be %s)", value, strings.Join(allowed, " or "))
}

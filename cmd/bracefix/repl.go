package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"bracefix/internal/cache"
	"bracefix/internal/config"
	"bracefix/internal/diag"
	"bracefix/internal/diagfmt"
	"bracefix/internal/driver"
	"bracefix/internal/oracle"
	"bracefix/internal/repair"
	"bracefix/internal/version"
)

const replHelp = `enter an expression to repair it, or a command:
  :scan <expr>     show the first defect without repairing
  :explain <expr>  repair and list the inserted characters
  :depth <n>       set the maximum number of insertions
  :oracle <name>   switch validator (` + "`:oracles`" + ` lists them)
  :oracles         list validators
  :config          show the active settings
  :help            show this text
  :quit            leave`

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Repair expressions interactively",
	Args:  cobra.NoArgs,
	RunE:  runREPL,
}

func init() {
	addRepairFlags(replCmd)
}

// replSession holds the mutable state of an interactive session.
type replSession struct {
	cfg      config.Config
	cache    *cache.DiskCache
	repairer *driver.Repairer
	out      io.Writer
	color    bool
}

func newREPLSession(cfg config.Config, c *cache.DiskCache, out io.Writer, useColor bool) (*replSession, error) {
	s := &replSession{cfg: cfg, cache: c, out: out, color: useColor}
	if err := s.rebuild(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *replSession) rebuild() error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	r, err := driver.RepairerFromConfig(s.cfg, s.cache)
	if err != nil {
		return err
	}
	s.repairer = r
	return nil
}

// handle executes one input line. It reports quit when the session should
// end; errors are printed by the caller and do not end the session.
func (s *replSession) handle(ctx context.Context, line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	if !strings.HasPrefix(line, ":") {
		return false, s.repair(ctx, line, false)
	}
	name, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "q", "quit", "exit":
		return true, nil
	case "help", "h", "?":
		_, err = fmt.Fprintln(s.out, replHelp)
	case "scan":
		err = s.scan(arg)
	case "explain":
		err = s.repair(ctx, arg, true)
	case "depth":
		err = s.setDepth(arg)
	case "oracle":
		err = s.setOracle(arg)
	case "oracles":
		err = writeOracleList(s.out)
	case "config":
		rc := s.cfg.Repair
		_, err = fmt.Fprintf(s.out, "oracle=%s pairs=%s min_depth=%d max_depth=%d staged=%t\n",
			rc.Oracle, strings.Join(rc.Pairs, ","), rc.MinDepth, rc.MaxDepth, rc.Staged)
	default:
		err = fmt.Errorf("unknown command :%s (try :help)", name)
	}
	return false, err
}

func (s *replSession) repair(ctx context.Context, expr string, explain bool) error {
	if expr == "" {
		return errors.New("missing expression")
	}
	outcome, err := s.repairer.Repair(ctx, expr)
	if err != nil {
		if !errors.Is(err, repair.ErrUnrecoverable) {
			return err
		}
		bag := diag.NewBag(8)
		reporter := diag.BagReporter{Bag: bag}
		driver.DiagnoseFailure(expr, s.repairer.Pairs(), err, reporter)
		driver.Diagnose(expr, s.repairer.Pairs(), reporter)
		return diagfmt.Pretty(s.out, expr, bag.Items(), diagfmt.PrettyOpts{
			Color:     s.color,
			ShowNotes: true,
			ShowFixes: true,
			MaxFixes:  driver.MaxSuggestions,
		})
	}
	if explain {
		return diagfmt.Explain(s.out, outcome.Result, s.color)
	}
	suffix := ""
	if outcome.Cached {
		suffix = "  (cached)"
	}
	_, err = fmt.Fprintf(s.out, "%s%s\n", diagfmt.Highlight(outcome.Result, s.color), suffix)
	return err
}

func (s *replSession) scan(expr string) error {
	if expr == "" {
		return errors.New("missing expression")
	}
	bag := diag.NewBag(8)
	defect := driver.Diagnose(expr, s.repairer.Pairs(), diag.BagReporter{Bag: bag})
	if defect.None() {
		_, err := fmt.Fprintln(s.out, "balanced")
		return err
	}
	return diagfmt.Pretty(s.out, expr, bag.Items(), diagfmt.PrettyOpts{
		Color:       s.color,
		ShowNotes:   true,
		ShowFixes:   true,
		ShowPreview: true,
	})
}

func (s *replSession) setDepth(arg string) error {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 {
		return fmt.Errorf("depth must be a non-negative integer, got %q", arg)
	}
	prev := s.cfg
	s.cfg.Repair.MaxDepth = n
	if s.cfg.Repair.MinDepth > n {
		s.cfg.Repair.MinDepth = n
	}
	if err := s.rebuild(); err != nil {
		s.cfg = prev
		return err
	}
	_, err = fmt.Fprintf(s.out, "max depth = %d\n", n)
	return err
}

func (s *replSession) setOracle(name string) error {
	if name == "" {
		return errors.New("missing oracle name")
	}
	prev := s.cfg
	s.cfg.Repair.Oracle = name
	if err := s.rebuild(); err != nil {
		s.cfg = prev
		return err
	}
	_, err := fmt.Fprintf(s.out, "oracle = %s\n", name)
	return err
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".bracefix_history")
}

func runREPL(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	c, err := openCache(cfg)
	if err != nil {
		return err
	}
	useColor, err := colorEnabled(cmd, os.Stdout)
	if err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "bracefix> ",
		HistoryFile:     historyPath(),
		HistoryLimit:    1000,
		AutoComplete:    replCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to start line editor: %w", err)
	}
	defer rl.Close()

	session, err := newREPLSession(cfg, c, rl.Stdout(), useColor)
	if err != nil {
		return err
	}
	if !quiet(cmd) {
		fmt.Fprintf(rl.Stdout(), "bracefix %s, oracle %s; :help for commands\n", version.Version, cfg.Repair.Oracle)
	}

	ctx := cmd.Context()
	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				// Ctrl+C на пустой строке завершает сессию
				if len(line) == 0 {
					return nil
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		quit, err := session.handle(ctx, line)
		if err != nil {
			fmt.Fprintf(rl.Stderr(), "error: %v\n", err)
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		if quit {
			return nil
		}
	}
}

func replCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(":scan"),
		readline.PcItem(":explain"),
		readline.PcItem(":depth"),
		readline.PcItem(":oracle", readline.PcItemDynamic(func(string) []string { return oracle.Names() })),
		readline.PcItem(":oracles"),
		readline.PcItem(":config"),
		readline.PcItem(":help"),
		readline.PcItem(":quit"),
	)
}

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"bracefix/internal/config"
	"bracefix/internal/driver"
	"bracefix/internal/version"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{errors.New("boom"), 1},
		{&exitError{code: 2}, 2},
		{&exitError{code: 1}, 1},
	}
	for _, tc := range cases {
		if got := exitCode(tc.err); got != tc.want {
			t.Fatalf("exitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func newTestCommand(t *testing.T, configPath string) *cobra.Command {
	t.Helper()
	root := &cobra.Command{Use: "bracefix"}
	root.PersistentFlags().String("config", configPath, "")
	child := &cobra.Command{Use: "repair"}
	addRepairFlags(child)
	root.AddCommand(child)
	return child
}

func TestLoadConfig_FlagsOverrideOnlyWhenSet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)
	body := "[repair]\noracle = \"balanced\"\nmax_depth = 2\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := newTestCommand(t, path)
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Repair.MaxDepth != 2 || cfg.Repair.Oracle != "balanced" {
		t.Fatalf("unexpected config from file: %+v", cfg.Repair)
	}

	cmd = newTestCommand(t, path)
	if err := cmd.Flags().Set("max-depth", "5"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	if err := cmd.Flags().Set("pairs", "[],<>"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	cfg, err = loadConfig(cmd, nil)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Repair.MaxDepth != 5 {
		t.Fatalf("max-depth flag ignored: %d", cfg.Repair.MaxDepth)
	}
	if strings.Join(cfg.Repair.Pairs, " ") != "[] <>" {
		t.Fatalf("pairs flag ignored: %v", cfg.Repair.Pairs)
	}
	if cfg.Repair.Oracle != "balanced" {
		t.Fatalf("unset flag overrode file value: %q", cfg.Repair.Oracle)
	}
}

func TestLoadConfig_RejectsInvalidOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.FileName)
	if err := os.WriteFile(path, []byte("[repair]\nmax_depth = 2\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cmd := newTestCommand(t, path)
	if err := cmd.Flags().Set("min-depth", "4"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	if _, err := loadConfig(cmd, nil); !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestExpressions_FromStdin(t *testing.T) {
	cmd := &cobra.Command{Use: "scan"}
	cmd.SetIn(strings.NewReader("# header\na]b\n\n(c\n"))
	lines, err := expressions(cmd, nil)
	if err != nil {
		t.Fatalf("expressions: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 expressions, got %d", len(lines))
	}
	if lines[1].Text != "(c" || lines[1].Loc.Line != 4 {
		t.Fatalf("unexpected second line: %+v", lines[1])
	}

	cmd.SetIn(strings.NewReader("\n# only comments\n"))
	if _, err := expressions(cmd, nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestReadBatchItems(t *testing.T) {
	items, err := readBatchItems([]string{filepath.Join("testdata", "xpath.txt")}, false, false)
	if err != nil {
		t.Fatalf("readBatchItems: %v", err)
	}
	if len(items) != 6 {
		t.Fatalf("expected 6 items, got %d", len(items))
	}
	if items[0].Loc.Path != "testdata/xpath.txt" || items[0].Loc.Line != 2 {
		t.Fatalf("unexpected location: %s", items[0].Loc)
	}
	if !strings.HasPrefix(items[5].Expr, "(.//*") {
		t.Fatalf("unexpected last item: %q", items[5].Expr)
	}
}

func TestReadUIMode(t *testing.T) {
	for in, want := range map[string]uiMode{"": uiModeAuto, "AUTO": uiModeAuto, "on": uiModeOn, " off ": uiModeOff} {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Fatalf("readUIMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := readUIMode("maybe"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestBatchView_WantsProgressUI(t *testing.T) {
	tty := func(*os.File) bool { return true }
	pipe := func(*os.File) bool { return false }
	base := batchView{mode: uiModeAuto, format: driver.ReportText, items: 3}

	cases := []struct {
		name string
		view batchView
		tty  func(*os.File) bool
		want bool
	}{
		{"auto on a terminal", base, tty, true},
		{"auto in a pipe", base, pipe, false},
		{"forced on in a pipe", batchView{mode: uiModeOn, format: driver.ReportText, items: 3}, pipe, true},
		{"forced off on a terminal", batchView{mode: uiModeOff, format: driver.ReportText, items: 3}, tty, false},
		{"json report", batchView{mode: uiModeOn, format: driver.ReportJSON, items: 3}, tty, false},
		{"quiet", batchView{mode: uiModeOn, format: driver.ReportText, quiet: true, items: 3}, tty, false},
		{"nothing to repair", batchView{mode: uiModeOn, format: driver.ReportText}, tty, false},
	}
	for _, tc := range cases {
		if got := tc.view.wantsProgressUI(tc.tty); got != tc.want {
			t.Errorf("%s: wantsProgressUI = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if got, err := parseFormat(" JSON ", "text", "json"); err != nil || got != "json" {
		t.Fatalf("parseFormat = %q, %v", got, err)
	}
	if _, err := parseFormat("sarif", "text", "json"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestRenderVersion(t *testing.T) {
	info := version.Info{Version: "1.2.3", GitCommit: "abc123"}

	var buf bytes.Buffer
	renderVersionPretty(&buf, info, versionOptions{showHash: true, showDate: true})
	out := buf.String()
	for _, want := range []string{"bracefix 1.2.3", "commit:  abc123", "built:   unknown"} {
		if !strings.Contains(out, want) {
			t.Fatalf("pretty output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := renderVersionJSON(&buf, info, versionOptions{showHash: true}); err != nil {
		t.Fatalf("renderVersionJSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"git_commit": "abc123"`) || strings.Contains(buf.String(), "build_date") {
		t.Fatalf("unexpected json: %s", buf.String())
	}
}

func TestWriteOracleList(t *testing.T) {
	var buf bytes.Buffer
	if err := writeOracleList(&buf); err != nil {
		t.Fatalf("writeOracleList: %v", err)
	}
	out := buf.String()
	for _, name := range []string{"balanced", "json", "regexp", "xpath"} {
		if !strings.Contains(out, name) {
			t.Fatalf("missing oracle %q in:\n%s", name, out)
		}
	}
	if !strings.Contains(out, "(default)") {
		t.Fatalf("default oracle not marked:\n%s", out)
	}
}

func TestRenderRepairJSON(t *testing.T) {
	session := newTestSession(t)
	outcome, err := session.repairer.Repair(context.Background(), "a]b")
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	var buf bytes.Buffer
	runs := []repairRun{{result: outcome.Result}}
	runs[0].line.Text = "a]b"
	if err := renderRepairJSON(&buf, runs); err != nil {
		t.Fatalf("renderRepairJSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"output": "[a]b"`) {
		t.Fatalf("unexpected json: %s", buf.String())
	}
}

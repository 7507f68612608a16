package repair

import (
	"context"
	"errors"
	"strings"
	"testing"

	"bracefix/internal/bracket"
	"bracefix/internal/trace"
)

// acceptAll stands in for a grammar that only cares about balance.
var acceptAll = ValidatorFunc(func(string) error { return nil })

// noEmptyGroups rejects "[]", "()" and "{}", like most query grammars do.
var noEmptyGroups = Predicate(func(expr string) bool {
	return !strings.Contains(expr, "[]") &&
		!strings.Contains(expr, "()") &&
		!strings.Contains(expr, "{}")
})

var rejectAll = Predicate(func(string) bool { return false })

func TestRepair_Staged(t *testing.T) {
	tests := []struct {
		name      string
		expr      string
		validator Validator
		want      string
		depth     int
	}{
		{name: "already valid", expr: "((()))", validator: acceptAll, want: "((()))", depth: 0},
		{name: "no brackets", expr: "abc", validator: acceptAll, want: "abc", depth: 0},
		{name: "unopened closer", expr: "a]b", validator: acceptAll, want: "[a]b", depth: 1},
		{name: "trailing opener, balance only", expr: "[a][b", validator: acceptAll, want: "[a][]b", depth: 1},
		{name: "trailing opener, no empty groups", expr: "[a][b", validator: noEmptyGroups, want: "[a][b]", depth: 1},
		{name: "mismatch, balance only", expr: "a[b)c", validator: acceptAll, want: "(a[]b)c", depth: 2},
		{name: "mismatch, no empty groups", expr: "a[b)c", validator: noEmptyGroups, want: "(a[b])c", depth: 2},
		{name: "inner paren, balance only", expr: "[a(b]", validator: acceptAll, want: "[a()b]", depth: 1},
		{name: "inner paren, no empty groups", expr: "[a(b]", validator: noEmptyGroups, want: "[a(b)]", depth: 1},
		{name: "closer before opener", expr: ")(", validator: acceptAll, want: "()()", depth: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Repair(context.Background(), tt.expr, DefaultConfig(tt.validator))
			if err != nil {
				t.Fatalf("Repair(%q) error: %v", tt.expr, err)
			}
			if res.Output != tt.want {
				t.Errorf("Repair(%q) = %q, want %q", tt.expr, res.Output, tt.want)
			}
			if res.Depth != tt.depth {
				t.Errorf("Repair(%q) depth = %d, want %d", tt.expr, res.Depth, tt.depth)
			}
			if res.Input != tt.expr {
				t.Errorf("Input = %q, want original %q", res.Input, tt.expr)
			}
		})
	}
}

func TestRepair_ValidInputUnchanged(t *testing.T) {
	res, err := Repair(context.Background(), "f(x[1]{y})", DefaultConfig(acceptAll))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Changed() || len(res.Insertions) != 0 {
		t.Fatalf("expected no insertions, got %+v", res.Insertions)
	}
	want := Stats{Nodes: 1, OracleCalls: 1, Budgets: 1}
	if res.Stats != want {
		t.Fatalf("Stats = %+v, want %+v", res.Stats, want)
	}
}

func TestRepair_InvalidUTF8KeepsBytes(t *testing.T) {
	tests := []struct {
		name  string
		expr  string
		want  string
		depth int
	}{
		{name: "valid input", expr: "a\xffb", want: "a\xffb", depth: 0},
		{name: "repaired input", expr: "a]\xff", want: "[a]\xff", depth: 1},
		{name: "truncated sequence", expr: "(\xe6\x97", want: "()\xe6\x97", depth: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen []string
			v := ValidatorFunc(func(expr string) error {
				seen = append(seen, expr)
				return nil
			})
			res, err := Repair(context.Background(), tt.expr, DefaultConfig(v))
			if err != nil {
				t.Fatalf("Repair(%q) error: %v", tt.expr, err)
			}
			if res.Output != tt.want || res.Depth != tt.depth {
				t.Fatalf("Repair(%q) = %q (depth %d), want %q (depth %d)", tt.expr, res.Output, res.Depth, tt.want, tt.depth)
			}
			if len(seen) == 0 || seen[len(seen)-1] != tt.want {
				t.Fatalf("validator saw %q, want last candidate %q", seen, tt.want)
			}
			if got := stripInsertions(res); got != string([]rune(tt.expr)) {
				t.Fatalf("removing insertions from %q gives %q", res.Output, got)
			}
		})
	}
}

func TestRepair_StagedMinDepth(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		minDepth int
		want     string
		depth    int
	}{
		{name: "first budget finds it", expr: "a]b", minDepth: 1, want: "[a]b", depth: 1},
		{name: "two insertions", expr: ")(", minDepth: 2, want: "()()", depth: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(acceptAll)
			cfg.MinDepth = tt.minDepth
			res, err := Repair(context.Background(), tt.expr, cfg)
			if err != nil {
				t.Fatalf("Repair(%q) error: %v", tt.expr, err)
			}
			if res.Output != tt.want || res.Depth != tt.depth {
				t.Fatalf("Repair(%q) = %q (depth %d), want %q (depth %d)", tt.expr, res.Output, res.Depth, tt.want, tt.depth)
			}
			// budgets below MinDepth are never run
			if res.Stats.Budgets != 1 {
				t.Fatalf("Budgets = %d, want 1", res.Stats.Budgets)
			}
		})
	}

	// a one-insertion fix is not accepted when two are required
	cfg := DefaultConfig(acceptAll)
	cfg.MinDepth = 2
	if res, err := Repair(context.Background(), "a]b", cfg); !errors.Is(err, ErrUnrecoverable) {
		t.Fatalf("expected ErrUnrecoverable, got %+v, %v", res, err)
	}
	// valid input is not returned as is under a positive MinDepth
	cfg.MinDepth = 1
	if res, err := Repair(context.Background(), "((()))", cfg); !errors.Is(err, ErrUnrecoverable) {
		t.Fatalf("expected ErrUnrecoverable, got %+v, %v", res, err)
	}
}

func TestRepair_Insertions(t *testing.T) {
	res, err := Repair(context.Background(), "a[b)c", DefaultConfig(acceptAll))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Insertion{
		{Offset: 0, Source: 0, Char: '('},
		{Offset: 3, Source: 2, Char: ']'},
	}
	if len(res.Insertions) != len(want) {
		t.Fatalf("Insertions = %+v, want %+v", res.Insertions, want)
	}
	for i := range want {
		if res.Insertions[i] != want[i] {
			t.Errorf("Insertions[%d] = %+v, want %+v", i, res.Insertions[i], want[i])
		}
	}
}

func TestRepair_NotStagedTakesFirstLeaf(t *testing.T) {
	cfg := DefaultConfig(acceptAll)
	cfg.Staged = false
	res, err := Repair(context.Background(), "[a][b", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// depth-first order reaches a three-insertion leaf before the
	// one-insertion fix that staging would find
	if res.Output != "[[a]][]b" || res.Depth != 3 {
		t.Fatalf("got %q (depth %d), want %q (depth 3)", res.Output, res.Depth, "[[a]][]b")
	}
	if res.Stats.Budgets != 1 {
		t.Fatalf("expected a single budget, got %d", res.Stats.Budgets)
	}
}

func TestRepair_MinDepthSkipsShallowLeaves(t *testing.T) {
	cfg := DefaultConfig(acceptAll)
	cfg.Staged = false
	cfg.MinDepth = 1
	_, err := Repair(context.Background(), "((()))", cfg)
	if !errors.Is(err, ErrUnrecoverable) {
		t.Fatalf("expected ErrUnrecoverable, got %v", err)
	}
}

func TestRepair_Unrecoverable(t *testing.T) {
	tests := []struct {
		name      string
		expr      string
		maxDepth  int
		validator Validator
	}{
		{name: "budget too small", expr: ")(", maxDepth: 1, validator: acceptAll},
		{name: "zero budget with defect", expr: "a]b", maxDepth: 0, validator: acceptAll},
		{name: "oracle rejects everything", expr: "a]b", maxDepth: 3, validator: rejectAll},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(tt.validator)
			cfg.MaxDepth = tt.maxDepth
			res, err := Repair(context.Background(), tt.expr, cfg)
			if res != nil {
				t.Fatalf("expected nil result, got %+v", res)
			}
			if !errors.Is(err, ErrUnrecoverable) {
				t.Fatalf("expected ErrUnrecoverable, got %v", err)
			}
			var unrecoverable *SyntaxUnrecoverableError
			if !errors.As(err, &unrecoverable) {
				t.Fatalf("expected *SyntaxUnrecoverableError, got %T", err)
			}
			if unrecoverable.Input != tt.expr {
				t.Errorf("Input = %q, want %q", unrecoverable.Input, tt.expr)
			}
			if unrecoverable.MaxDepth != tt.maxDepth {
				t.Errorf("MaxDepth = %d, want %d", unrecoverable.MaxDepth, tt.maxDepth)
			}
			if !strings.Contains(err.Error(), "could not fix `"+tt.expr+"`") {
				t.Errorf("unexpected message %q", err.Error())
			}
		})
	}
}

func TestRepair_MonotonicFailure(t *testing.T) {
	for _, expr := range []string{")(", "a[b)c", "((a", "]]"} {
		succeededAt := -1
		for depth := 0; depth <= 3; depth++ {
			cfg := DefaultConfig(noEmptyGroups)
			cfg.MaxDepth = depth
			_, err := Repair(context.Background(), expr, cfg)
			if err == nil {
				if succeededAt < 0 {
					succeededAt = depth
				}
				continue
			}
			if succeededAt >= 0 {
				t.Fatalf("%q: failed at depth %d after succeeding at %d", expr, depth, succeededAt)
			}
		}
	}
}

func TestRepair_Properties(t *testing.T) {
	inputs := []string{
		"", "a", "[", "]", "(]", "{[}", "a[b)c", "[a][b", "x(y{z]",
		"((((", "f(a, g(b)", "{\"k\": [1, 2}", "a]b)c}",
	}
	pairs := bracket.DefaultPairs()
	for _, in := range inputs {
		for _, v := range []Validator{acceptAll, noEmptyGroups} {
			res, err := Repair(context.Background(), in, DefaultConfig(v))
			if err != nil {
				if !errors.Is(err, ErrUnrecoverable) {
					t.Fatalf("%q: unexpected error %v", in, err)
				}
				continue
			}
			if d := bracket.ScanString(res.Output, pairs); !d.None() {
				t.Errorf("%q -> %q still has defect %v", in, res.Output, d)
			}
			if got := stripInsertions(res); got != in {
				t.Errorf("%q -> %q: removing insertions gives %q", in, res.Output, got)
			}
			if n := len([]rune(res.Output)) - len([]rune(in)); n != res.Depth {
				t.Errorf("%q -> %q: depth %d but %d runes added", in, res.Output, res.Depth, n)
			}
			if res.Depth > 0 {
				cfg := DefaultConfig(v)
				cfg.MaxDepth = res.Depth - 1
				if smaller, err := Repair(context.Background(), in, cfg); err == nil {
					t.Errorf("%q: found %q with fewer insertions than %q", in, smaller.Output, res.Output)
				}
			}
		}
	}
}

func stripInsertions(res *Result) string {
	out := []rune(res.Output)
	for i := len(res.Insertions) - 1; i >= 0; i-- {
		at := res.Insertions[i].Offset
		if out[at] != res.Insertions[i].Char {
			return "<insertion offset mismatch>"
		}
		out = append(out[:at], out[at+1:]...)
	}
	return string(out)
}

func TestRepair_CustomPairs(t *testing.T) {
	pairs, err := bracket.ParsePairs("<>")
	if err != nil {
		t.Fatalf("ParsePairs: %v", err)
	}
	cfg := DefaultConfig(Predicate(func(s string) bool { return !strings.Contains(s, "<>") }))
	cfg.Pairs = pairs
	res, err := Repair(context.Background(), "<a", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Output != "<a>" {
		t.Fatalf("got %q, want %q", res.Output, "<a>")
	}

	// square brackets are ordinary characters under this set
	res, err = Repair(context.Background(), "[<a", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Output != "[<a>" {
		t.Fatalf("got %q, want %q", res.Output, "[<a>")
	}
}

func TestRepair_ZeroPairsUseDefaults(t *testing.T) {
	cfg := Config{MaxDepth: 1, Staged: true, Validator: acceptAll}
	res, err := Repair(context.Background(), "a]b", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Output != "[a]b" {
		t.Fatalf("got %q", res.Output)
	}
}

func TestRepair_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{name: "nil validator", cfg: Config{MaxDepth: 3}, want: ErrNilValidator},
		{name: "negative max", cfg: Config{MaxDepth: -1, Validator: acceptAll}, want: ErrInvalidDepth},
		{name: "negative min", cfg: Config{MinDepth: -1, MaxDepth: 2, Validator: acceptAll}, want: ErrInvalidDepth},
		{name: "min above max", cfg: Config{MinDepth: 3, MaxDepth: 2, Validator: acceptAll}, want: ErrInvalidDepth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Repair(context.Background(), "a]b", tt.cfg)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRepair_ValidatorFailureAborts(t *testing.T) {
	boom := errors.New("oracle crashed")
	calls := 0
	v := ValidatorFunc(func(string) error {
		calls++
		return boom
	})
	_, err := Repair(context.Background(), "[a][b", DefaultConfig(v))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped oracle error, got %v", err)
	}
	if errors.Is(err, ErrUnrecoverable) {
		t.Fatal("oracle failure must not look unrecoverable")
	}
	if calls != 1 {
		t.Fatalf("search should stop at the first failure, got %d calls", calls)
	}
}

func TestRepair_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Repair(ctx, "a]b", DefaultConfig(acceptAll))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRepair_Traces(t *testing.T) {
	ring := trace.NewRingTracer(256, trace.LevelDebug)
	ctx := trace.WithTracer(context.Background(), ring)
	if _, err := Repair(ctx, "a]b", DefaultConfig(acceptAll)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var budgets, nodes, accepts int
	for _, ev := range ring.Snapshot() {
		switch {
		case ev.Scope == trace.ScopeBudget && ev.Kind == trace.KindSpanEnd:
			budgets++
		case ev.Scope == trace.ScopeNode:
			nodes++
		case ev.Scope == trace.ScopeOracle && ev.Name == "accept":
			accepts++
		}
	}
	if budgets != 2 {
		t.Errorf("expected 2 budget spans, got %d", budgets)
	}
	if nodes == 0 {
		t.Error("expected node events at debug level")
	}
	if accepts != 1 {
		t.Errorf("expected 1 accept event, got %d", accepts)
	}
}

func TestFix(t *testing.T) {
	got, err := Fix("[a(b]", noEmptyGroups)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "[a(b)]" {
		t.Fatalf("Fix = %q", got)
	}
	if _, err := Fix("a]b", rejectAll); !errors.Is(err, ErrUnrecoverable) {
		t.Fatalf("expected ErrUnrecoverable, got %v", err)
	}
}

func TestRejectf(t *testing.T) {
	err := Rejectf("bad token at %d", 4)
	if !errors.Is(err, ErrSyntax) {
		t.Fatal("Rejectf must wrap ErrSyntax")
	}
	if !strings.Contains(err.Error(), "bad token at 4") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func BenchmarkRepair(b *testing.B) {
	cfg := DefaultConfig(noEmptyGroups)
	for i := 0; i < b.N; i++ {
		_, _ = Repair(context.Background(), ".//*[contains(text(), 'xyz')//span[@value = '123'/b", cfg)
	}
}

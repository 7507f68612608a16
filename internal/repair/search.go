package repair

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"bracefix/internal/bracket"
	"bracefix/internal/source"
	"bracefix/internal/trace"
)

// Insertion is one character added by a repair.
type Insertion struct {
	Offset int  // rune offset in Result.Output
	Source int  // rune offset in Result.Input the character precedes
	Char   rune // inserted character
}

// Stats counts the work done by one Repair call.
type Stats struct {
	Nodes       int `json:"nodes"`        // search nodes scanned
	OracleCalls int `json:"oracle_calls"` // validator invocations
	Rejections  int `json:"rejections"`   // validator rejections
	Budgets     int `json:"budgets"`      // depth budgets attempted
	Pruned      int `json:"pruned"`       // nodes cut off by the depth budget
}

// Result is a successful repair.
type Result struct {
	Input      string
	Output     string
	Insertions []Insertion
	Depth      int
	Stats      Stats
}

// Changed reports whether anything was inserted.
func (r *Result) Changed() bool { return r != nil && r.Depth > 0 }

type step struct {
	at   int
	char rune
}

type searcher struct {
	ctx     context.Context
	cfg     Config
	tracer  trace.Tracer
	input   []string // input pieces, one per rune offset
	parent  uint64   // caller's span
	spanID  uint64   // current budget span
	budget  int      // deepest node that may be visited
	minLeaf int      // shallowest leaf the validator sees
	path    []step
	stats   Stats
}

// Repair searches for the smallest-first (when staged) set of bracket
// insertions that makes expr balanced and acceptable to cfg.Validator.
// ctx carries the tracer and is checked for cancellation at every node.
func Repair(ctx context.Context, expr string, cfg Config) (*Result, error) {
	cfg, err := cfg.normalized()
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s := &searcher{
		ctx:    ctx,
		cfg:    cfg,
		tracer: trace.FromContext(ctx),
		parent: trace.CurrentSpan(ctx).SpanID,
	}
	s.input = source.SplitRunes(expr)
	runes := []rune(expr)

	lo, hi := cfg.MaxDepth, cfg.MaxDepth
	if cfg.Staged {
		lo = cfg.MinDepth
	}
	for budget := lo; budget <= hi; budget++ {
		s.budget = budget
		s.minLeaf = cfg.MinDepth
		if cfg.Staged {
			// shallower leaves were judged by an earlier budget
			s.minLeaf = budget
		}
		out, ok, err := s.runBudget(runes)
		if err != nil {
			return nil, err
		}
		if ok {
			return s.result(expr, out), nil
		}
	}
	return nil, &SyntaxUnrecoverableError{Input: expr, MaxDepth: cfg.MaxDepth}
}

// Fix repairs expr with DefaultConfig(v) and returns the repaired string.
func Fix(expr string, v Validator) (string, error) {
	res, err := Repair(context.Background(), expr, DefaultConfig(v))
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

func (s *searcher) runBudget(runes []rune) (string, bool, error) {
	s.stats.Budgets++
	s.path = s.path[:0]
	span := trace.Begin(s.tracer, trace.ScopeBudget, "budget", s.parent).
		WithExtra("max", strconv.Itoa(s.budget)).
		WithExtra("min_leaf", strconv.Itoa(s.minLeaf))
	s.spanID = span.ID()
	out, ok, err := s.search(runes, 0)
	detail := "exhausted"
	switch {
	case err != nil:
		detail = err.Error()
	case ok:
		detail = "accepted"
	}
	span.WithExtra("nodes", strconv.Itoa(s.stats.Nodes)).End(detail)
	return out, ok, err
}

// search returns ok=false for an infeasible branch; err is reserved for
// cancellation and validator failures, which end the whole search.
// expr only drives the scanner; the validator sees the input bytes with
// the path spliced in.
func (s *searcher) search(expr []rune, depth int) (string, bool, error) {
	if err := s.ctx.Err(); err != nil {
		return "", false, err
	}
	s.stats.Nodes++

	defect := bracket.Scan(expr, s.cfg.Pairs)
	if trace.Wants(s.tracer, trace.ScopeNode) {
		trace.Point(s.tracer, trace.ScopeNode, "node", s.spanID,
			fmt.Sprintf("depth=%d %q %s", depth, string(expr), defect))
	}

	if defect.None() {
		if depth < s.minLeaf {
			return "", false, nil
		}
		candidate := splice(s.input, placeInsertions(s.path))
		ok, err := s.consult(candidate)
		if !ok || err != nil {
			return "", false, err
		}
		return candidate, true, nil
	}

	if depth >= s.budget {
		s.stats.Pruned++
		return "", false, nil
	}

	for at := defect.Start; at < defect.Stop; at++ {
		s.path = append(s.path, step{at: at, char: defect.Missing})
		out, ok, err := s.search(insertAt(expr, at, defect.Missing), depth+1)
		if err != nil || ok {
			return out, ok, err
		}
		s.path = s.path[:len(s.path)-1]
	}
	return "", false, nil
}

func (s *searcher) consult(candidate string) (bool, error) {
	s.stats.OracleCalls++
	err := s.cfg.Validator.Validate(candidate)
	if err == nil {
		trace.Point(s.tracer, trace.ScopeOracle, "accept", s.spanID, candidate)
		return true, nil
	}
	if errors.Is(err, ErrSyntax) {
		s.stats.Rejections++
		if trace.Wants(s.tracer, trace.ScopeOracle) {
			trace.Point(s.tracer, trace.ScopeOracle, "reject", s.spanID, candidate+": "+err.Error())
		}
		return false, nil
	}
	return false, fmt.Errorf("repair: validator failed on %q: %w", candidate, err)
}

func (s *searcher) result(input, out string) *Result {
	return &Result{
		Input:      input,
		Output:     out,
		Insertions: placeInsertions(s.path),
		Depth:      len(s.path),
		Stats:      s.stats,
	}
}

// placeInsertions maps the insertion path onto offsets of the final
// output and of the original input.
func placeInsertions(path []step) []Insertion {
	out := make([]Insertion, len(path))
	for i, st := range path {
		pos := st.at
		for _, later := range path[i+1:] {
			if later.at <= pos {
				pos++
			}
		}
		out[i] = Insertion{Offset: pos, Char: st.char}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	for i := range out {
		// every earlier entry is an inserted rune, the rest are originals
		out[i].Source = out[i].Offset - i
	}
	return out
}

// splice writes the inserted runes between the input pieces. Insertions
// must be ordered by Offset.
func splice(input []string, ins []Insertion) string {
	var b strings.Builder
	next := 0
	for i := 0; i <= len(input); i++ {
		for next < len(ins) && ins[next].Source == i {
			b.WriteRune(ins[next].Char)
			next++
		}
		if i < len(input) {
			b.WriteString(input[i])
		}
	}
	return b.String()
}

func insertAt(expr []rune, at int, r rune) []rune {
	out := make([]rune, len(expr)+1)
	copy(out, expr[:at])
	out[at] = r
	copy(out[at+1:], expr[at:])
	return out
}

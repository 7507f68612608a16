package fix

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"bracefix/internal/diag"
	"bracefix/internal/source"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// ApplyMode determines selection strategy for fixes.
type ApplyMode uint8

const (
	ApplyModeOnce ApplyMode = iota
	ApplyModeAll
	ApplyModeID
)

// ApplyOptions configures how fixes are selected.
type ApplyOptions struct {
	Mode     ApplyMode
	TargetID string
}

// AppliedFix records a successfully applied fix.
type AppliedFix struct {
	ID            string
	Title         string
	Applicability diag.FixApplicability
	EditCount     int
}

// SkippedFix captures a skipped or failed fix with a reason.
type SkippedFix struct {
	ID     string
	Title  string
	Reason string
}

// ApplyResult aggregates applied fixes, skipped ones and the edited expression.
type ApplyResult struct {
	Output  string
	Applied []AppliedFix
	Skipped []SkippedFix
}

type candidate struct {
	fix   diag.Fix
	order int
}

// Apply replays a single fix onto expr. Edit spans are rune offsets into expr.
func Apply(expr string, f diag.Fix) (string, error) {
	res, err := ApplyAll(expr, []diag.Fix{f}, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		if len(res.Skipped) > 0 {
			return expr, fmt.Errorf("fix %q: %s: %w", f.Title, res.Skipped[0].Reason, err)
		}
		return expr, err
	}
	return res.Output, nil
}

// ApplyAll selects a subset of fixes according to opts and applies them to
// expr in order. Fixes that overlap already applied edits are skipped.
func ApplyAll(expr string, fixes []diag.Fix, opts ApplyOptions) (*ApplyResult, error) {
	result := &ApplyResult{
		Output:  expr,
		Applied: make([]AppliedFix, 0),
		Skipped: make([]SkippedFix, 0),
	}

	candidates, buildSkips := gatherCandidates(fixes)
	result.Skipped = append(result.Skipped, buildSkips...)
	if len(candidates) == 0 {
		return result, ErrNoFixes
	}

	sortCandidates(candidates)

	selected, selectionSkips := selectCandidates(candidates, opts)
	result.Skipped = append(result.Skipped, selectionSkips...)
	if len(selected) == 0 {
		return result, ErrNoFixes
	}

	out, applied, skipped := applyCandidates(source.SplitRunes(expr), selected)
	result.Output = strings.Join(out, "")
	result.Applied = append(result.Applied, applied...)
	result.Skipped = append(result.Skipped, skipped...)

	if len(result.Applied) == 0 {
		return result, ErrNoFixes
	}
	return result, nil
}

// gatherCandidates drops fixes without edits or with a duplicate ID and
// synthesizes IDs for the rest. Each candidate keeps its input position
// for stable ordering.
func gatherCandidates(fixes []diag.Fix) ([]candidate, []SkippedFix) {
	cands := make([]candidate, 0, len(fixes))
	skips := make([]SkippedFix, 0)
	seen := make(map[string]struct{}, len(fixes))

	for idx, f := range fixes {
		if len(f.Edits) == 0 {
			skips = append(skips, SkippedFix{
				ID:     f.ID,
				Title:  f.Title,
				Reason: "fix has no edits",
			})
			continue
		}
		if f.ID == "" {
			f.ID = fmt.Sprintf("fix-%d-%d", f.Edits[0].Span.Start, idx)
		}
		if _, dup := seen[f.ID]; dup {
			skips = append(skips, SkippedFix{
				ID:     f.ID,
				Title:  f.Title,
				Reason: "duplicate fix id",
			})
			continue
		}
		seen[f.ID] = struct{}{}
		cands = append(cands, candidate{fix: f, order: idx})
	}
	return cands, skips
}

// sortCandidates orders candidates: preferred first, then by applicability,
// then by input order.
func sortCandidates(candidates []candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		fi, fj := candidates[i].fix, candidates[j].fix
		if fi.IsPreferred != fj.IsPreferred {
			return fi.IsPreferred && !fj.IsPreferred
		}
		if fi.Applicability != fj.Applicability {
			return fi.Applicability < fj.Applicability
		}
		return candidates[i].order < candidates[j].order
	})
}

func selectCandidates(candidates []candidate, opts ApplyOptions) ([]candidate, []SkippedFix) {
	switch opts.Mode {
	case ApplyModeID:
		for _, cand := range candidates {
			if cand.fix.ID == opts.TargetID {
				return []candidate{cand}, nil
			}
		}
		return nil, []SkippedFix{{
			ID:     opts.TargetID,
			Reason: "fix id not found",
		}}
	case ApplyModeAll:
		return candidates, nil
	case ApplyModeOnce:
		return candidates[:1], nil
	default:
		return nil, nil
	}
}

// applyCandidates edits working, which holds one piece of the expression
// per rune offset, so bytes outside the edits survive as they were.
func applyCandidates(working []string, selected []candidate) ([]string, []AppliedFix, []SkippedFix) {
	applied := make([]AppliedFix, 0, len(selected))
	skipped := make([]SkippedFix, 0)
	var appliedEdits []diag.TextEdit

	for _, cand := range selected {
		edits := make([]diag.TextEdit, len(cand.fix.Edits))
		copy(edits, cand.fix.Edits)

		if conflictsWithExisting(appliedEdits, edits) {
			skipped = append(skipped, SkippedFix{
				ID:     cand.fix.ID,
				Title:  cand.fix.Title,
				Reason: "conflicts with previously applied edits",
			})
			continue
		}

		// с конца, чтобы смещения ещё не применённых правок не менялись;
		// вставки в одну точку сохраняют исходный порядок
		slices.Reverse(edits)
		sort.SliceStable(edits, func(i, j int) bool {
			if edits[i].Span.Start == edits[j].Span.Start {
				return edits[i].Span.End > edits[j].Span.End
			}
			return edits[i].Span.Start > edits[j].Span.Start
		})

		staged := append([]string(nil), working...)
		stagedApplied := append([]diag.TextEdit(nil), appliedEdits...)
		skipReason := ""
		for _, edit := range edits {
			start := int(edit.Span.Start) + cumulativeDelta(appliedEdits, int(edit.Span.Start))
			end := int(edit.Span.End) + cumulativeDelta(appliedEdits, int(edit.Span.End))
			if start < 0 || end < start || end > len(staged) {
				skipReason = "edit span out of range"
				break
			}
			if edit.OldText != "" && strings.Join(staged[start:end], "") != edit.OldText {
				skipReason = "existing text does not match expected content"
				break
			}
			suffix := append([]string(nil), staged[end:]...)
			staged = append(append(staged[:start], source.SplitRunes(edit.NewText)...), suffix...)
			stagedApplied = insertEditSorted(stagedApplied, edit)
		}
		if skipReason != "" {
			skipped = append(skipped, SkippedFix{
				ID:     cand.fix.ID,
				Title:  cand.fix.Title,
				Reason: skipReason,
			})
			continue
		}

		working = staged
		appliedEdits = stagedApplied
		applied = append(applied, AppliedFix{
			ID:            cand.fix.ID,
			Title:         cand.fix.Title,
			Applicability: cand.fix.Applicability,
			EditCount:     len(edits),
		})
	}
	return working, applied, skipped
}

func conflictsWithExisting(existing []diag.TextEdit, edits []diag.TextEdit) bool {
	for _, prev := range existing {
		for _, cand := range edits {
			if spansConflict(prev, cand) {
				return true
			}
		}
	}
	return false
}

// spansConflict reports whether two text edits' spans overlap.
// Spans are treated as half-open intervals [Start, End). Two zero-length edits
// (Start == End) never conflict. A zero-length edit conflicts with a non-zero
// span if its position is within that span (Start <= pos < End). For two
// non-zero spans, any overlap yields a conflict.
func spansConflict(a, b diag.TextEdit) bool {
	aStart, aEnd := a.Span.Start, a.Span.End
	bStart, bEnd := b.Span.Start, b.Span.End

	if aStart == aEnd && bStart == bEnd {
		return false
	}
	if aStart == aEnd {
		return bStart <= aStart && aStart < bEnd
	}
	if bStart == bEnd {
		return aStart <= bStart && bStart < aEnd
	}
	return aStart < bEnd && bStart < aEnd
}

// cumulativeDelta returns how far pos in the original expression has moved
// after the already applied edits. Insertions at pos itself count, so later
// insertions at the same offset land after earlier ones.
func cumulativeDelta(edits []diag.TextEdit, pos int) int {
	delta := 0
	for _, e := range edits {
		eStart := int(e.Span.Start)
		if eStart > pos {
			break
		}
		eEnd := int(e.Span.End)
		length := eEnd - eStart
		change := len([]rune(e.NewText)) - length
		if eEnd <= pos {
			delta += change
		}
	}
	return delta
}

func insertEditSorted(edits []diag.TextEdit, edit diag.TextEdit) []diag.TextEdit {
	insertIdx := sort.Search(len(edits), func(i int) bool {
		if edits[i].Span.Start == edit.Span.Start {
			return edits[i].Span.End >= edit.Span.End
		}
		return edits[i].Span.Start > edit.Span.Start
	})
	edits = append(edits, diag.TextEdit{})
	copy(edits[insertIdx+1:], edits[insertIdx:])
	edits[insertIdx] = edit
	return edits
}

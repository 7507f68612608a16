package fix

import (
	"fmt"

	"bracefix/internal/bracket"
	"bracefix/internal/diag"
	"bracefix/internal/repair"
	"bracefix/internal/source"
)

// Option mutates fix during construction.
type Option func(*diag.Fix)

// WithApplicability overrides applicability metadata.
func WithApplicability(app diag.FixApplicability) Option {
	return func(f *diag.Fix) {
		f.Applicability = app
	}
}

// WithKind overrides fix classification.
func WithKind(kind diag.FixKind) Option {
	return func(f *diag.Fix) {
		f.Kind = kind
	}
}

// Preferred marks fix as preferred suggestion.
func Preferred() Option {
	return func(f *diag.Fix) {
		f.IsPreferred = true
	}
}

// WithID sets stable identifier for fix.
func WithID(id string) Option {
	return func(f *diag.Fix) {
		f.ID = id
	}
}

func applyOptions(f diag.Fix, opts []Option) diag.Fix {
	for _, opt := range opts {
		if opt != nil {
			opt(&f)
		}
	}
	return f
}

// InsertText creates fix that inserts text at span (Span.Start == Span.End).
func InsertText(title string, at source.Span, text string, guard string, opts ...Option) diag.Fix {
	edit := diag.TextEdit{
		Span:    at,
		NewText: text,
		OldText: guard,
	}
	fix := diag.Fix{
		Title:         title,
		Kind:          diag.FixKindQuickFix,
		Applicability: diag.FixApplicabilityAlwaysSafe,
		Edits:         []diag.TextEdit{edit},
	}
	return applyOptions(fix, opts)
}

// WrapWith surrounds span with prefix and suffix insertions.
func WrapWith(title string, span source.Span, prefix, suffix string, opts ...Option) diag.Fix {
	edits := []diag.TextEdit{
		{
			Span:    source.Span{Start: span.Start, End: span.Start},
			NewText: prefix,
		},
		{
			Span:    source.Span{Start: span.End, End: span.End},
			NewText: suffix,
		},
	}
	fix := diag.Fix{
		Title:         title,
		Kind:          diag.FixKindRewrite,
		Applicability: diag.FixApplicabilitySafeWithHeuristics,
		Edits:         edits,
	}
	return applyOptions(fix, opts)
}

// Suggestions returns one insertion fix per candidate offset of defect,
// at most max of them (max <= 0 means all). The offset closest to the rune
// that exposed the defect is preferred. Suggestions only restore local
// balance; nothing has been validated.
func Suggestions(defect bracket.Defect, max int) []diag.Fix {
	if defect.None() {
		return nil
	}
	preferred := preferredOffset(defect)
	order := make([]int, 0, defect.Candidates())
	order = append(order, preferred)
	// ближайшие к месту обнаружения сначала, левый сосед раньше правого
	for dist := 1; len(order) < defect.Candidates(); dist++ {
		if at := preferred - dist; at >= defect.Start {
			order = append(order, at)
		}
		if at := preferred + dist; at < defect.Stop {
			order = append(order, at)
		}
	}
	if max > 0 && len(order) > max {
		order = order[:max]
	}

	fixes := make([]diag.Fix, 0, len(order))
	for _, at := range order {
		span, err := source.At(at)
		if err != nil {
			continue
		}
		opts := []Option{
			WithID(fmt.Sprintf("insert-%d", at)),
			WithApplicability(diag.FixApplicabilitySafeWithHeuristics),
		}
		if at == preferred {
			opts = append(opts, Preferred())
		}
		fixes = append(fixes, InsertText(
			fmt.Sprintf("insert %q at %d", defect.Missing, at),
			span, string(defect.Missing), "", opts...))
	}
	return fixes
}

// preferredOffset picks the most natural insertion point: the start of
// input for an unopened closer, the end of input for an unclosed opener,
// and just before the offending closer for a mismatch.
func preferredOffset(d bracket.Defect) int {
	switch d.Kind {
	case bracket.DefectUnclosedOpener:
		return d.Stop - 1
	case bracket.DefectUnopenedCloser:
		return d.Start
	default:
		return d.At
	}
}

// FromResult turns a validated repair into one fix whose edits are the
// inserted characters, positioned in the original input.
func FromResult(res *repair.Result) (diag.Fix, bool) {
	if !res.Changed() {
		return diag.Fix{}, false
	}
	edits := make([]diag.TextEdit, 0, len(res.Insertions))
	for _, ins := range res.Insertions {
		span, err := source.At(ins.Source)
		if err != nil {
			return diag.Fix{}, false
		}
		edits = append(edits, diag.TextEdit{Span: span, NewText: string(ins.Char)})
	}
	fix := diag.Fix{
		ID:            "repair",
		Title:         fmt.Sprintf("insert %d bracket(s)", len(edits)),
		Kind:          diag.FixKindQuickFix,
		Applicability: diag.FixApplicabilityAlwaysSafe,
		IsPreferred:   true,
		Edits:         edits,
	}
	return fix, true
}

package diag

import (
	"bracefix/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

// TextEdit replaces the runes covered by Span with NewText. OldText, when
// set, must match the current content before the edit is applied.
type TextEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

// FixKind classifies a fix for listings.
type FixKind uint8

const (
	FixKindQuickFix FixKind = iota
	FixKindRewrite
)

func (k FixKind) String() string {
	switch k {
	case FixKindQuickFix:
		return "quickfix"
	case FixKindRewrite:
		return "rewrite"
	}
	return "unknown"
}

// FixApplicability says how much a fix can be trusted.
type FixApplicability uint8

const (
	// FixApplicabilityAlwaysSafe fixes were accepted by the validator.
	FixApplicabilityAlwaysSafe FixApplicability = iota
	// FixApplicabilitySafeWithHeuristics fixes only restore balance locally.
	FixApplicabilitySafeWithHeuristics
	FixApplicabilityManualReview
)

func (a FixApplicability) String() string {
	switch a {
	case FixApplicabilityAlwaysSafe:
		return "always-safe"
	case FixApplicabilitySafeWithHeuristics:
		return "safe-with-heuristics"
	case FixApplicabilityManualReview:
		return "manual-review"
	}
	return "unknown"
}

type Fix struct {
	ID            string
	Title         string
	Kind          FixKind
	Applicability FixApplicability
	IsPreferred   bool
	Edits         []TextEdit
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	// Origin is the input line the expression was read from, if any.
	Origin  source.Location
	Primary source.Span
	Notes   []Note
	Fixes   []Fix
}

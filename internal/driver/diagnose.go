package driver

import (
	"errors"
	"fmt"

	"bracefix/internal/bracket"
	"bracefix/internal/diag"
	"bracefix/internal/fix"
	"bracefix/internal/repair"
	"bracefix/internal/source"
)

// MaxSuggestions caps the insertion fixes attached to a defect diagnostic.
const MaxSuggestions = 3

// Diagnose scans expr and reports its leftmost bracket defect to r,
// with insertion suggestions. It returns the defect; a balanced
// expression reports nothing.
func Diagnose(expr string, pairs bracket.PairSet, r diag.Reporter) bracket.Defect {
	if pairs.Len() == 0 {
		pairs = bracket.DefaultPairs()
	}
	runes := []rune(expr)
	defect := bracket.Scan(runes, pairs)
	if defect.None() {
		return defect
	}

	primary, err := source.SpanOf(defect.At, min(defect.At+1, len(runes)))
	if err != nil {
		return defect
	}
	window, err := source.SpanOf(defect.Start, min(defect.Stop, len(runes)))
	if err != nil {
		return defect
	}

	var b *diag.ReportBuilder
	switch defect.Kind {
	case bracket.DefectUnopenedCloser:
		b = diag.ReportError(r, diag.BrkUnopenedCloser, primary,
			fmt.Sprintf("%q closes nothing; %q is missing", runes[defect.At], defect.Missing)).
			WithNote(window, fmt.Sprintf("insert %q somewhere here", defect.Missing))
	case bracket.DefectMismatch:
		opener := runes[defect.Start]
		openSpan, _ := source.SpanOf(defect.Start, defect.Start+1)
		b = diag.ReportError(r, diag.BrkMismatch, primary,
			fmt.Sprintf("expected %q to close %q, found %q", defect.Missing, opener, runes[defect.At])).
			WithNote(openSpan, fmt.Sprintf("%q opened here", opener))
	case bracket.DefectUnclosedOpener:
		b = diag.ReportError(r, diag.BrkUnclosedOpener, primary,
			fmt.Sprintf("%q is never closed", runes[defect.At])).
			WithNote(window, fmt.Sprintf("insert %q before the end", defect.Missing))
	default:
		return defect
	}
	for _, f := range fix.Suggestions(defect, MaxSuggestions) {
		b.WithFixSuggestion(f)
	}
	b.Emit()
	return defect
}

// DiagnoseFailure reports why a repair of expr failed. A balanced input
// that the validator never accepted gets BRK010; anything else BRK020.
func DiagnoseFailure(expr string, pairs bracket.PairSet, err error, r diag.Reporter) {
	if err == nil {
		return
	}
	if pairs.Len() == 0 {
		pairs = bracket.DefaultPairs()
	}
	whole, spanErr := source.SpanOf(0, len([]rune(expr)))
	if spanErr != nil {
		return
	}
	var unrec *repair.SyntaxUnrecoverableError
	if !errors.As(err, &unrec) {
		diag.ReportError(r, diag.UnknownCode, whole, err.Error()).Emit()
		return
	}
	if bracket.Balanced(expr, pairs) {
		diag.ReportError(r, diag.BrkOracleRejected, whole,
			fmt.Sprintf("validator rejects the expression and no fix exists within %d insertion(s)", unrec.MaxDepth)).Emit()
		return
	}
	diag.ReportError(r, diag.BrkUnrecoverable, whole, unrec.Error()).Emit()
}

// Package diag defines the diagnostic model for bracket defects.
//
// # Purpose
//
//   - Provide deterministic, serialisable records for findings produced by
//     the scanner, the validator and the repair search.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to concrete storage or formatting layers.
//   - Model fix suggestions as structured edits that the driver or CLI can
//     apply to an expression.
//
// # Scope
//
// Package diag does not perform any formatting or IO. Rendering lives in
// internal/diagfmt; building and applying fixes lives in internal/fix and
// the driver layer.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable BRKnnn form.
//   - Message – human oriented text; keep it short and actionable.
//   - Origin – input file and line for batch runs; zero for a single expression.
//   - Primary span – rune range of the expression the finding points at.
//   - Notes – optional secondary spans/messages for additional context.
//   - Fixes – optional Fix records describing how to address the problem.
//
// # Fix suggestions
//
// Fix carries a Title, a Kind, an Applicability level and the TextEdits to
// apply. Fixes produced from a validated repair are AlwaysSafe; single
// insertions suggested straight from a scanner defect only restore local
// balance and are SafeWithHeuristics.
//
// TextEdit spans are rune offsets into the unmodified expression; OldText
// acts as an optional guard that the fix engine checks before applying.
//
// # Emitting diagnostics
//
// Producers construct a ReportBuilder via NewReportBuilder (or
// ReportError/ReportWarning/ReportInfo) and chain WithNote /
// WithFixSuggestion before calling Emit. BagReporter aggregates into a Bag,
// which supports sorting, deduplication and merging.
package diag

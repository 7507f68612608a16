package diagfmt

import (
	"encoding/json"
	"io"
	"sort"

	"bracefix/internal/diag"
	"bracefix/internal/fix"
	"bracefix/internal/repair"
)

// LocationJSON представляет местоположение в выражении для JSON
type LocationJSON struct {
	Origin string `json:"origin,omitempty"`
	Start  uint32 `json:"start"`
	End    uint32 `json:"end"`
}

// NoteJSON представляет дополнительную заметку для JSON
type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

// FixEditJSON представляет одно редактирование для JSON
type FixEditJSON struct {
	Location LocationJSON `json:"location"`
	NewText  string       `json:"new_text"`
	OldText  string       `json:"old_text,omitempty"`
}

// FixJSON представляет предложение по исправлению для JSON
type FixJSON struct {
	ID            string        `json:"id,omitempty"`
	Title         string        `json:"title"`
	Kind          string        `json:"kind"`
	Applicability string        `json:"applicability"`
	IsPreferred   bool          `json:"is_preferred,omitempty"`
	Edits         []FixEditJSON `json:"edits,omitempty"`
	Preview       string        `json:"preview,omitempty"`
}

// DiagnosticJSON представляет диагностику в JSON формате
type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
	Fixes    []FixJSON    `json:"fixes,omitempty"`
}

// DiagnosticsOutput представляет корневую структуру JSON вывода
type DiagnosticsOutput struct {
	Expression  string           `json:"expression"`
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

func makeLocation(d diag.Diagnostic, start, end uint32) LocationJSON {
	loc := LocationJSON{Start: start, End: end}
	if d.Origin.Path != "" || d.Origin.Line != 0 {
		loc.Origin = d.Origin.String()
	}
	return loc
}

// BuildDiagnosticsOutput формирует структуру JSON-вывода без сериализации.
func BuildDiagnosticsOutput(expr string, items []diag.Diagnostic, opts JSONOpts) DiagnosticsOutput {
	maxItems := len(items)
	if opts.Max > 0 && opts.Max < maxItems {
		maxItems = opts.Max
	}
	diagnostics := make([]DiagnosticJSON, 0, maxItems)

	for i := range maxItems {
		d := items[i]

		diagJSON := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Message:  d.Message,
			Location: makeLocation(d, d.Primary.Start, d.Primary.End),
		}

		if opts.IncludeNotes && len(d.Notes) > 0 {
			diagJSON.Notes = make([]NoteJSON, len(d.Notes))
			for j, note := range d.Notes {
				diagJSON.Notes[j] = NoteJSON{
					Message:  note.Msg,
					Location: makeLocation(d, note.Span.Start, note.Span.End),
				}
			}
		}

		if opts.IncludeFixes && len(d.Fixes) > 0 {
			fixes := append([]diag.Fix(nil), d.Fixes...)
			sort.SliceStable(fixes, func(i, j int) bool {
				fi, fj := fixes[i], fixes[j]
				if fi.IsPreferred != fj.IsPreferred {
					return fi.IsPreferred && !fj.IsPreferred
				}
				return fi.Applicability < fj.Applicability
			})

			diagJSON.Fixes = make([]FixJSON, 0, len(fixes))
			for _, f := range fixes {
				fixJSON := FixJSON{
					ID:            f.ID,
					Title:         f.Title,
					Kind:          f.Kind.String(),
					Applicability: f.Applicability.String(),
					IsPreferred:   f.IsPreferred,
					Edits:         make([]FixEditJSON, len(f.Edits)),
				}
				for k, edit := range f.Edits {
					fixJSON.Edits[k] = FixEditJSON{
						Location: makeLocation(d, edit.Span.Start, edit.Span.End),
						NewText:  edit.NewText,
						OldText:  edit.OldText,
					}
				}
				if opts.IncludePreviews {
					if after, err := fix.Apply(expr, f); err == nil {
						fixJSON.Preview = after
					}
				}
				diagJSON.Fixes = append(diagJSON.Fixes, fixJSON)
			}
		}

		diagnostics = append(diagnostics, diagJSON)
	}

	return DiagnosticsOutput{
		Expression:  expr,
		Diagnostics: diagnostics,
		Count:       len(diagnostics),
	}
}

// InsertionJSON is one inserted character.
type InsertionJSON struct {
	Offset int    `json:"offset"`
	Source int    `json:"source"`
	Char   string `json:"char"`
}

// RepairJSON is the machine-readable result of one repair.
type RepairJSON struct {
	Input      string          `json:"input"`
	Output     string          `json:"output,omitempty"`
	Fixed      bool            `json:"fixed"`
	Depth      int             `json:"depth"`
	Insertions []InsertionJSON `json:"insertions,omitempty"`
	Stats      *repair.Stats   `json:"stats,omitempty"`
	Cached     bool            `json:"cached,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// BuildRepairOutput converts a repair outcome. res may be nil when err
// is set.
func BuildRepairOutput(input string, res *repair.Result, cached bool, err error) RepairJSON {
	out := RepairJSON{Input: input, Cached: cached}
	if err != nil {
		out.Error = err.Error()
		return out
	}
	if res == nil {
		return out
	}
	out.Output = res.Output
	out.Fixed = true
	out.Depth = res.Depth
	if !cached {
		stats := res.Stats
		out.Stats = &stats
	}
	for _, ins := range res.Insertions {
		out.Insertions = append(out.Insertions, InsertionJSON{Offset: ins.Offset, Source: ins.Source, Char: string(ins.Char)})
	}
	return out
}

// JSON пишет payload в w с отступами.
func JSON(w io.Writer, payload any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

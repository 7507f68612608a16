package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"bracefix/internal/diag"
	"bracefix/internal/fix"
	"bracefix/internal/source"
)

type palette struct {
	err     *color.Color
	warn    *color.Color
	info    *color.Color
	note    *color.Color
	gutter  *color.Color
	caret   *color.Color
	insert  *color.Color
	message *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:     color.New(color.FgRed, color.Bold),
		warn:    color.New(color.FgYellow, color.Bold),
		info:    color.New(color.FgCyan, color.Bold),
		note:    color.New(color.FgBlue),
		gutter:  color.New(color.FgBlue, color.Bold),
		caret:   color.New(color.FgRed, color.Bold),
		insert:  color.New(color.FgGreen, color.Bold),
		message: color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.gutter, p.caret, p.insert, p.message} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики одного выражения в человекочитаемый вид.
// Для каждой диагностики печатает:
// <severity>[<CODE>]: <Message>
// затем выражение с подчёркиванием ^^^ по Span, затем Notes и Fixes.
// Ширина подчёркивания считается в колонках терминала, а не в рунах.
func Pretty(w io.Writer, expr string, diags []diag.Diagnostic, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	runes := []rune(expr)
	var b strings.Builder
	for i, d := range diags {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s%s %s\n",
			p.severity(d.Severity).Sprintf("%s[%s]", d.Severity.Label(), d.Code.ID()),
			p.message.Sprint(":"),
			p.message.Sprint(d.Message))
		if d.Origin.Path != "" || d.Origin.Line != 0 {
			fmt.Fprintf(&b, "  %s %s:%d\n", p.gutter.Sprint("-->"), d.Origin, d.Primary.Start+1)
		}
		bar := p.gutter.Sprint("|")
		fmt.Fprintf(&b, "   %s\n", bar)
		fmt.Fprintf(&b, "   %s %s\n", bar, expr)
		fmt.Fprintf(&b, "   %s %s\n", bar, p.caret.Sprint(underline(runes, d.Primary, '^')))
		if opts.ShowNotes {
			for _, note := range d.Notes {
				fmt.Fprintf(&b, "   %s %s %s\n", bar,
					p.note.Sprint(underline(runes, note.Span, '-')), p.note.Sprint(note.Msg))
			}
		}
		if opts.ShowFixes {
			writeFixes(&b, p, expr, d.Fixes, opts)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeFixes(b *strings.Builder, p palette, expr string, fixes []diag.Fix, opts PrettyOpts) {
	for i, f := range fixes {
		if opts.MaxFixes > 0 && i >= opts.MaxFixes {
			fmt.Fprintf(b, "   %s ... %d more\n", p.gutter.Sprint("="), len(fixes)-i)
			return
		}
		marker := ""
		if f.IsPreferred {
			marker = " (preferred)"
		}
		fmt.Fprintf(b, "   %s fix: %s [%s]%s\n", p.gutter.Sprint("="), f.Title, f.Applicability, marker)
		if !opts.ShowPreview {
			continue
		}
		after, err := fix.Apply(expr, f)
		if err != nil {
			continue
		}
		fmt.Fprintf(b, "   %s      %s\n", p.gutter.Sprint(" "), highlightEdits(p, after, f.Edits))
	}
}

// underline builds a marker line whose columns line up with span in runes,
// accounting for wide characters. Empty spans get one marker.
func underline(runes []rune, span source.Span, mark rune) string {
	start := min(int(span.Start), len(runes))
	end := min(int(span.End), len(runes))
	pad := runewidth.StringWidth(string(runes[:start]))
	width := 1
	if end > start {
		width = max(1, runewidth.StringWidth(string(runes[start:end])))
	}
	return strings.Repeat(" ", pad) + strings.Repeat(string(mark), width)
}

// highlightEdits colours the text inserted by edits in after, the result
// of applying them. Edit spans are offsets before the edits.
func highlightEdits(p palette, after string, edits []diag.TextEdit) string {
	inserted := make(map[int]bool)
	shift := 0
	sorted := append([]diag.TextEdit(nil), edits...)
	sortEdits(sorted)
	for _, e := range sorted {
		n := len([]rune(e.NewText))
		start := int(e.Span.Start) + shift
		for k := range n {
			inserted[start+k] = true
		}
		shift += n - int(e.Span.End-e.Span.Start)
	}
	return paint(p, []rune(after), inserted)
}

func paint(p palette, runes []rune, inserted map[int]bool) string {
	var b strings.Builder
	for i, r := range runes {
		if inserted[i] {
			b.WriteString(p.insert.Sprint(string(r)))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

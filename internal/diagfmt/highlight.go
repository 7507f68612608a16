package diagfmt

import (
	"fmt"
	"io"
	"sort"

	"bracefix/internal/diag"
	"bracefix/internal/repair"
)

func sortEdits(edits []diag.TextEdit) {
	sort.SliceStable(edits, func(i, j int) bool {
		return edits[i].Span.Start < edits[j].Span.Start
	})
}

// Highlight returns the repaired expression with inserted characters
// coloured when useColor is set.
func Highlight(res *repair.Result, useColor bool) string {
	if res == nil {
		return ""
	}
	if !useColor || !res.Changed() {
		return res.Output
	}
	inserted := make(map[int]bool, len(res.Insertions))
	for _, ins := range res.Insertions {
		inserted[ins.Offset] = true
	}
	return paint(newPalette(true), []rune(res.Output), inserted)
}

// Explain writes the insertion list and search counters of res.
func Explain(w io.Writer, res *repair.Result, useColor bool) error {
	p := newPalette(useColor)
	if _, err := fmt.Fprintf(w, "%s %s\n%s %s\n",
		p.message.Sprint("input: "), res.Input,
		p.message.Sprint("output:"), Highlight(res, useColor)); err != nil {
		return err
	}
	for _, ins := range res.Insertions {
		if _, err := fmt.Fprintf(w, "  + %s at %d (before input offset %d)\n",
			p.insert.Sprintf("%q", ins.Char), ins.Offset, ins.Source); err != nil {
			return err
		}
	}
	s := res.Stats
	_, err := fmt.Fprintf(w, "  depth=%d nodes=%d oracle_calls=%d rejections=%d budgets=%d pruned=%d\n",
		res.Depth, s.Nodes, s.OracleCalls, s.Rejections, s.Budgets, s.Pruned)
	return err
}

package bracket

import "fmt"

// DefectKind classifies the first structural problem found by Scan.
type DefectKind uint8

const (
	DefectNone DefectKind = iota
	// DefectUnopenedCloser is a closer met with an empty stack.
	DefectUnopenedCloser
	// DefectMismatch is a closer that does not match the innermost opener.
	DefectMismatch
	// DefectUnclosedOpener is an opener still open at end of input.
	DefectUnclosedOpener
)

func (k DefectKind) String() string {
	switch k {
	case DefectNone:
		return "none"
	case DefectUnopenedCloser:
		return "unopened-closer"
	case DefectMismatch:
		return "mismatch"
	case DefectUnclosedOpener:
		return "unclosed-opener"
	default:
		return "unknown"
	}
}

// Defect describes the leftmost bracket defect of an expression.
//
// Inserting Missing at any rune offset in [Start, Stop) is worth trying.
// Stop may equal len(expr)+1, in which case appending is a candidate.
// At is the offset of the rune that exposed the defect.
type Defect struct {
	Kind    DefectKind
	Missing rune
	Start   int
	Stop    int
	At      int
}

// None reports whether the scanned expression was balanced.
func (d Defect) None() bool { return d.Kind == DefectNone }

// Candidates returns the number of insertion offsets in the range.
func (d Defect) Candidates() int {
	if d.None() || d.Stop <= d.Start {
		return 0
	}
	return d.Stop - d.Start
}

func (d Defect) String() string {
	if d.None() {
		return "none"
	}
	return fmt.Sprintf("%s at %d: missing %q in [%d, %d)", d.Kind, d.At, d.Missing, d.Start, d.Stop)
}

type frame struct {
	pos  int
	open rune
}

// Scan makes one left-to-right pass over expr and reports the first defect.
func Scan(expr []rune, pairs PairSet) Defect {
	var stack []frame
	for i, r := range expr {
		if open, ok := pairs.OpenerFor(r); ok {
			if len(stack) == 0 {
				return Defect{Kind: DefectUnopenedCloser, Missing: open, Start: 0, Stop: i + 1, At: i}
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			want, _ := pairs.CloserFor(top.open)
			if want != r {
				return Defect{Kind: DefectMismatch, Missing: want, Start: top.pos, Stop: i + 1, At: i}
			}
			continue
		}
		if pairs.IsOpener(r) {
			stack = append(stack, frame{pos: i, open: r})
		}
	}
	if len(stack) > 0 {
		top := stack[len(stack)-1]
		want, _ := pairs.CloserFor(top.open)
		return Defect{Kind: DefectUnclosedOpener, Missing: want, Start: top.pos, Stop: len(expr) + 1, At: top.pos}
	}
	return Defect{}
}

// ScanString is Scan over the runes of s.
func ScanString(s string, pairs PairSet) Defect {
	return Scan([]rune(s), pairs)
}

// Balanced reports whether s has no bracket defect under pairs.
func Balanced(s string, pairs PairSet) bool {
	return ScanString(s, pairs).None()
}

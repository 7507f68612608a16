package source

import (
	"fmt"

	"fortio.org/safecast"
)

// Span is a half-open rune range within one expression.
type Span struct {
	Start uint32 // в рунах включительно
	End   uint32 // в рунах не включительно
}

// SpanOf converts int offsets, rejecting negative or inverted ranges.
func SpanOf(start, end int) (Span, error) {
	s, err := safecast.Conv[uint32](start)
	if err != nil {
		return Span{}, fmt.Errorf("span start %d: %w", start, err)
	}
	e, err := safecast.Conv[uint32](end)
	if err != nil {
		return Span{}, fmt.Errorf("span end %d: %w", end, err)
	}
	if e < s {
		return Span{}, fmt.Errorf("span end %d before start %d", end, start)
	}
	return Span{Start: s, End: e}, nil
}

// At returns the empty span at offset, i.e. an insertion point.
func At(offset int) (Span, error) {
	return SpanOf(offset, offset)
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

func (s Span) Cover(other Span) Span {
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

// ShiftRight moves the span n runes to the right.
func (s Span) ShiftRight(n uint32) Span {
	return Span{
		Start: s.Start + n,
		End:   s.End + n,
	}
}

// Contains reports whether offset lies inside the span.
func (s Span) Contains(offset uint32) bool {
	return s.Start <= offset && offset < s.End
}

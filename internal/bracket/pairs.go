package bracket

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPairs is returned when a pair set violates its invariants.
var ErrInvalidPairs = errors.New("invalid bracket pairs")

// Pair is an opener/closer couple, e.g. '[' and ']'.
type Pair struct {
	Open  rune
	Close rune
}

func (p Pair) String() string {
	return string([]rune{p.Open, p.Close})
}

// PairSet is an ordered, immutable set of bracket pairs.
// The zero value is an empty set; scanning with it never reports a defect.
type PairSet struct {
	pairs   []Pair
	closers map[rune]rune // opener -> closer
	openers map[rune]rune // closer -> opener
}

// NewPairSet validates pairs and builds a set. No rune may be used twice,
// neither within a pair nor across pairs.
func NewPairSet(pairs ...Pair) (PairSet, error) {
	set := PairSet{
		pairs:   make([]Pair, 0, len(pairs)),
		closers: make(map[rune]rune, len(pairs)),
		openers: make(map[rune]rune, len(pairs)),
	}
	seen := make(map[rune]struct{}, len(pairs)*2)
	for _, p := range pairs {
		if p.Open == p.Close {
			return PairSet{}, fmt.Errorf("%w: pair %q uses the same rune for both sides", ErrInvalidPairs, p.String())
		}
		for _, r := range [...]rune{p.Open, p.Close} {
			if _, dup := seen[r]; dup {
				return PairSet{}, fmt.Errorf("%w: rune %q appears more than once", ErrInvalidPairs, r)
			}
			seen[r] = struct{}{}
		}
		set.pairs = append(set.pairs, p)
		set.closers[p.Open] = p.Close
		set.openers[p.Close] = p.Open
	}
	return set, nil
}

// ParsePairs builds a set from two-rune strings such as "[]" or "()".
func ParsePairs(specs ...string) (PairSet, error) {
	pairs := make([]Pair, 0, len(specs))
	for _, spec := range specs {
		runes := []rune(strings.TrimSpace(spec))
		if len(runes) != 2 {
			return PairSet{}, fmt.Errorf("%w: %q must be exactly two characters", ErrInvalidPairs, spec)
		}
		pairs = append(pairs, Pair{Open: runes[0], Close: runes[1]})
	}
	return NewPairSet(pairs...)
}

// DefaultPairs returns a fresh set of the standard pairs: [] () {}.
func DefaultPairs() PairSet {
	set, err := NewPairSet(
		Pair{Open: '[', Close: ']'},
		Pair{Open: '(', Close: ')'},
		Pair{Open: '{', Close: '}'},
	)
	if err != nil {
		panic(err)
	}
	return set
}

// Len returns the number of pairs.
func (s PairSet) Len() int { return len(s.pairs) }

// Pairs returns a copy of the pairs in declaration order.
func (s PairSet) Pairs() []Pair {
	return append([]Pair(nil), s.pairs...)
}

func (s PairSet) IsOpener(r rune) bool {
	_, ok := s.closers[r]
	return ok
}

func (s PairSet) IsCloser(r rune) bool {
	_, ok := s.openers[r]
	return ok
}

// CloserFor returns the closer matching open.
func (s PairSet) CloserFor(open rune) (rune, bool) {
	c, ok := s.closers[open]
	return c, ok
}

// OpenerFor returns the opener matching closer.
func (s PairSet) OpenerFor(closer rune) (rune, bool) {
	o, ok := s.openers[closer]
	return o, ok
}

// Specs renders the set as two-rune strings, the inverse of ParsePairs.
func (s PairSet) Specs() []string {
	out := make([]string, len(s.pairs))
	for i, p := range s.pairs {
		out[i] = p.String()
	}
	return out
}

func (s PairSet) String() string {
	return strings.Join(s.Specs(), " ")
}

package repair

import (
	"fmt"

	"bracefix/internal/bracket"
)

// DefaultMaxDepth bounds the number of inserted characters.
const DefaultMaxDepth = 3

// Validator is the external oracle. Validate returns nil to accept expr.
// A rejection must wrap ErrSyntax; any other error aborts the search.
type Validator interface {
	Validate(expr string) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(expr string) error

func (f ValidatorFunc) Validate(expr string) error { return f(expr) }

// Predicate adapts an accept/reject function to Validator.
func Predicate(accept func(expr string) bool) Validator {
	return ValidatorFunc(func(expr string) error {
		if accept(expr) {
			return nil
		}
		return Rejectf("rejected %q", expr)
	})
}

// Config controls one Repair call. Values are copied; nothing is shared
// between calls.
type Config struct {
	// Pairs is the bracket set. The zero value means bracket.DefaultPairs().
	Pairs bracket.PairSet
	// MaxDepth is the most characters that may be inserted.
	MaxDepth int
	// MinDepth skips the validator for leaves shallower than this.
	MinDepth int
	// Staged runs one search per budget MinDepth..MaxDepth so the
	// fewest insertions win.
	Staged bool
	// Validator decides whether a balanced candidate is acceptable.
	Validator Validator
}

// DefaultConfig returns the standard pairs, MaxDepth 3 and staging on.
func DefaultConfig(v Validator) Config {
	return Config{
		Pairs:     bracket.DefaultPairs(),
		MaxDepth:  DefaultMaxDepth,
		Staged:    true,
		Validator: v,
	}
}

func (c Config) normalized() (Config, error) {
	if c.Validator == nil {
		return c, ErrNilValidator
	}
	if c.MaxDepth < 0 || c.MinDepth < 0 {
		return c, fmt.Errorf("%w: min=%d max=%d", ErrInvalidDepth, c.MinDepth, c.MaxDepth)
	}
	if c.MinDepth > c.MaxDepth {
		return c, fmt.Errorf("%w: min depth %d exceeds max depth %d", ErrInvalidDepth, c.MinDepth, c.MaxDepth)
	}
	if c.Pairs.Len() == 0 {
		c.Pairs = bracket.DefaultPairs()
	}
	return c, nil
}

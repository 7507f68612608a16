// Package oracle holds the built-in validators the CLI can plug into the
// repair search. Each one rejects with an error wrapping repair.ErrSyntax.
package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/antchfx/xpath"

	"bracefix/internal/bracket"
	"bracefix/internal/repair"
)

// ErrUnknownOracle is returned by Lookup for unregistered names.
var ErrUnknownOracle = errors.New("unknown oracle")

// Default is the oracle used when none is configured.
const Default = "xpath"

type entry struct {
	description string
	build       func(pairs bracket.PairSet) repair.Validator
}

var registry = map[string]entry{
	"balanced": {
		description: "accepts any bracket-balanced expression",
		build:       newBalanced,
	},
	"xpath": {
		description: "XPath 1.0 expressions (github.com/antchfx/xpath)",
		build:       func(bracket.PairSet) repair.Validator { return XPath{} },
	},
	"regexp": {
		description: "Go RE2 regular expressions",
		build:       func(bracket.PairSet) repair.Validator { return Regexp{} },
	},
	"json": {
		description: "JSON documents",
		build:       func(bracket.PairSet) repair.Validator { return JSON{} },
	},
}

// Lookup returns the validator registered under name.
func Lookup(name string, pairs bracket.PairSet) (repair.Validator, error) {
	e, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownOracle, name, strings.Join(Names(), ", "))
	}
	return e.build(pairs), nil
}

// Names lists registered oracles in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns the one-line description of an oracle.
func Describe(name string) (string, bool) {
	e, ok := registry[name]
	return e.description, ok
}

// Balanced accepts whatever the scanner considers balanced.
type Balanced struct {
	Pairs bracket.PairSet
}

func newBalanced(pairs bracket.PairSet) repair.Validator {
	return Balanced{Pairs: pairs}
}

func (b Balanced) Validate(expr string) error {
	pairs := b.Pairs
	if pairs.Len() == 0 {
		pairs = bracket.DefaultPairs()
	}
	if d := bracket.ScanString(expr, pairs); !d.None() {
		return repair.Rejectf("%s", d)
	}
	return nil
}

// XPath compiles the candidate as an XPath expression.
type XPath struct{}

func (XPath) Validate(expr string) error {
	if _, err := xpath.Compile(expr); err != nil {
		return fmt.Errorf("%w: xpath: %v", repair.ErrSyntax, err)
	}
	return nil
}

// Regexp compiles the candidate with the standard RE2 engine.
type Regexp struct{}

func (Regexp) Validate(expr string) error {
	if _, err := regexp.Compile(expr); err != nil {
		return fmt.Errorf("%w: regexp: %v", repair.ErrSyntax, err)
	}
	return nil
}

// JSON checks that the candidate is a single well-formed JSON value.
type JSON struct{}

func (JSON) Validate(expr string) error {
	if !json.Valid([]byte(expr)) {
		var v any
		err := json.Unmarshal([]byte(expr), &v)
		if err == nil {
			err = errors.New("invalid JSON")
		}
		return fmt.Errorf("%w: json: %v", repair.ErrSyntax, err)
	}
	return nil
}

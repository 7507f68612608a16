package source

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// Location names where an expression came from.
type Location struct {
	Path string // "-" for stdin
	Line int    // 1-based
}

func (l Location) String() string {
	if l.Path == "" {
		return fmt.Sprintf("%d", l.Line)
	}
	return fmt.Sprintf("%s:%d", l.Path, l.Line)
}

// Line is one expression read from an input file.
type Line struct {
	Loc  Location
	Text string
}

// ReadOptions controls ReadLines.
type ReadOptions struct {
	// Normalize applies NFC normalisation to every expression.
	Normalize bool
	// KeepComments keeps lines starting with '#'.
	KeepComments bool
}

// ReadLines reads one expression per line. Blank lines and, unless
// KeepComments is set, '#' comment lines are skipped; line numbers still
// count them. A UTF-8 BOM and CRLF endings are tolerated.
func ReadLines(r io.Reader, path string, opts ReadOptions) ([]Line, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	content, _ = removeBOM(content)
	content, _ = normalizeCRLF(content)

	var out []Line
	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	n := 0
	for sc.Scan() {
		n++
		text := strings.TrimRight(sc.Text(), " \t\r")
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			continue
		}
		if !opts.KeepComments && strings.HasPrefix(trimmed, "#") {
			continue
		}
		if opts.Normalize {
			text = Normalize(text)
		}
		out = append(out, Line{Loc: Location{Path: path, Line: n}, Text: text})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}

// ReadFile reads expressions from path; "-" means stdin.
func ReadFile(path string, opts ReadOptions) ([]Line, error) {
	if path == "-" {
		return ReadLines(os.Stdin, path, opts)
	}
	// #nosec G304 -- path is supplied by the user on the command line
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadLines(f, path, opts)
}

package fuzztests

import (
	"bufio"
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bracefix/internal/source"
)

const (
	maxSeedRunes = 256 // длинные строки в поиске бесполезны
)

var builtinSeeds = []string{
	"",
	"a]b",
	"a[b)c",
	"[a][b",
	")(",
	"(((",
	"}}}",
	"[(])",
	"{\"a\":[1,2}",
	"héllo(wörld]",
	"日本[語",
	"a\xffb",
	"a]\xff",
	"(\xe6\x97",
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range builtinSeeds {
		f.Add(s)
	}
	addTestdataSeeds(f)
}

// addTestdataSeeds adds every expression of the CLI fixtures.
func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "cmd", "bracefix", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".txt" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		sc := bufio.NewScanner(bytes.NewReader(data))
		for sc.Scan() {
			line := sc.Text()
			if line == "" || line[0] == '#' {
				continue
			}
			f.Add(clampSeed(line))
		}
		return nil
	})
}

func clampSeed(s string) string {
	return clampRunes(s, maxSeedRunes)
}

// clampRunes cuts s to n rune offsets without touching invalid bytes.
func clampRunes(s string, n int) string {
	pieces := source.SplitRunes(s)
	if len(pieces) <= n {
		return s
	}
	return strings.Join(pieces[:n], "")
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bracefix/internal/repair"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"[]", "()", "{}"}, cfg.Repair.Pairs)
	assert.Equal(t, repair.DefaultMaxDepth, cfg.Repair.MaxDepth)
	assert.True(t, cfg.Repair.Staged)
	assert.Equal(t, "xpath", cfg.Repair.Oracle)
	assert.Positive(t, cfg.Jobs())
}

func TestLoad_OverridesOnlyDefinedKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
[repair]
pairs = ["<>", "()"]
max_depth = 5

[batch]
jobs = 4

[cache]
enabled = true
dir = "cache"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, []string{"<>", "()"}, cfg.Repair.Pairs)
	assert.Equal(t, 5, cfg.Repair.MaxDepth)
	assert.Equal(t, 0, cfg.Repair.MinDepth)
	assert.True(t, cfg.Repair.Staged, "staged keeps its default")
	assert.Equal(t, "xpath", cfg.Repair.Oracle)
	assert.Equal(t, 4, cfg.Jobs())
	assert.True(t, cfg.Cache.Enabled)

	cacheDir, err := cfg.CacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cache"), cacheDir)

	rc, err := cfg.RepairConfig(repair.Predicate(func(string) bool { return true }))
	require.NoError(t, err)
	assert.Equal(t, 2, rc.Pairs.Len())
	assert.Equal(t, 5, rc.MaxDepth)
	assert.True(t, rc.Staged)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "syntax", body: "[repair\nmax_depth = 1"},
		{name: "unknown key", body: "[repair]\ndepth = 2"},
		{name: "empty pairs", body: "[repair]\npairs = []"},
		{name: "empty oracle", body: "[repair]\noracle = \"  \""},
		{name: "bad pair", body: "[repair]\npairs = [\"[\"]"},
		{name: "inverted depths", body: "[repair]\nmin_depth = 4\nmax_depth = 2"},
		{name: "negative jobs", body: "[batch]\njobs = -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.body)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), path)
		})
	}
}

func TestLoad_ValidationErrorsWrapErrInvalid(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[repair]\nmin_depth = 4\nmax_depth = 2")
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestFindAndLoadNearest(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg, err := LoadNearest(nested)
	require.NoError(t, err)
	assert.Empty(t, cfg.Path, "defaults when no file exists")

	path := writeConfig(t, root, "[repair]\noracle = \"json\"\n")

	found, ok, err := Find(nested)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, path, found)

	cfg, err = LoadNearest(nested)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Repair.Oracle)
}

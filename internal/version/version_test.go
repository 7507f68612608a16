package version

import (
	"strings"
	"testing"
)

func TestVersion_DefaultValues(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
	if got := Current().Version; got != strings.TrimSpace(Version) {
		t.Errorf("Current().Version = %q", got)
	}
}

func TestCurrent_TrimsAndDefaults(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	defer func() { Version, GitCommit = origVersion, origCommit }()

	Version = "  "
	GitCommit = " abc123 \n"
	info := Current()
	if info.Version != "dev" {
		t.Errorf("empty version should become dev, got %q", info.Version)
	}
	if info.GitCommit != "abc123" {
		t.Errorf("GitCommit = %q", info.GitCommit)
	}
}

func TestColored(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.2.3", "1.2.3"},
		{"0.1.0-dev", "0.1.0-dev"},
		{"1.2.3-rc.1+build.123", "1.2.3-rc.1+build.123"},
		{"dev", "dev"},
	}
	for _, tt := range tests {
		if got := Colored(tt.in, false); got != tt.want {
			t.Errorf("Colored(%q, false) = %q, want %q", tt.in, got, tt.want)
		}
	}

	colored := Colored("1.2.3", true)
	if !strings.Contains(colored, "\x1b[") {
		t.Errorf("expected ANSI escapes, got %q", colored)
	}
}

// BenchmarkColored benchmarks rendering of the version string
func BenchmarkColored(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = Colored("1.2.3-dev", true)
	}
}

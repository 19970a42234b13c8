package cli

import (
	"io"
	"strings"
	"testing"
)

func TestSetVersion(t *testing.T) {
	// Test that SetVersion updates the package-level variables
	SetVersion("1.0.0", "abc123", "2024-01-01")

	if version != "1.0.0" {
		t.Errorf("version = %q, want %q", version, "1.0.0")
	}
	if commit != "abc123" {
		t.Errorf("commit = %q, want %q", commit, "abc123")
	}
	if date != "2024-01-01" {
		t.Errorf("date = %q, want %q", date, "2024-01-01")
	}
}

func TestSetVersionEmptyKeepsVersion(t *testing.T) {
	SetVersion("1.0.0", "abc123", "2024-01-01")
	SetVersion("", "", "")

	// An empty version string must not wipe the previous value
	if version != "1.0.0" {
		t.Errorf("version = %q, want %q", version, "1.0.0")
	}
	if commit != "" {
		t.Errorf("commit should be empty, got %q", commit)
	}
	if date != "" {
		t.Errorf("date should be empty, got %q", date)
	}
}

func TestVersionTemplate(t *testing.T) {
	SetVersion("1.2.3", "deadbeef", "2024-06-01")

	got := versionTemplate()
	for _, want := range []string{appName, "1.2.3", "deadbeef", "2024-06-01"} {
		if !strings.Contains(got, want) {
			t.Errorf("versionTemplate() = %q, missing %q", got, want)
		}
	}
}

func TestRootCommandSubcommands(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	want := []string{
		"gen", "build", "layout", "export", "view",
		"serve", "cache", "snapshot", "completion",
	}

	have := make(map[string]bool)
	for _, sub := range root.Commands() {
		have[sub.Name()] = true
	}

	for _, name := range want {
		if !have[name] {
			t.Errorf("RootCommand() missing subcommand %q", name)
		}
	}
}

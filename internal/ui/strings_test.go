package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/stagehand/internal/results"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"Boot telemetry", 0, "Boot telemetry"},
		{"Boot telemetry", 20, "Boot telemetry"},
		{"Boot telemetry", 8, "Boot ..."},
		{"Boot telemetry", 3, "Boo"},
		{"  padded  ", 10, "padded"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.limit); got != tt.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestClipKeepsIndent(t *testing.T) {
	if got := clip("  stderr tail", 8); got != "  stderr" {
		t.Fatalf("clip = %q, want %q", got, "  stderr")
	}
}

func TestTitleCase(t *testing.T) {
	tests := map[string]string{
		"stage-a":       "Stage A",
		"exit_review":   "Exit Review",
		"":              "",
		"--readiness--": "Readiness",
	}
	for in, want := range tests {
		if got := titleCase(in); got != want {
			t.Fatalf("titleCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{850 * time.Millisecond, "850ms"},
		{4200 * time.Millisecond, "4.2s"},
		{3*time.Minute + 7*time.Second, "3m07s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Fatalf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestWrapChipsRespectsWidth(t *testing.T) {
	chips := []string{"aaaa", "bbbb", "cccc", "dddd"}
	lines := wrapChips("pre ", chips, 14)
	if len(lines) != 2 {
		t.Fatalf("wrapChips lines = %q, want 2 lines", lines)
	}
	for _, l := range lines {
		if w := lipgloss.Width(l); w > 14 {
			t.Fatalf("line %q width = %d, want <= 14", l, w)
		}
	}
	if !strings.HasPrefix(lines[1], "    ") {
		t.Fatalf("continuation line %q not indented under prefix", lines[1])
	}
}

func TestThemeCycle(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames() returned %d names, want 3", len(names))
	}
	cur := names[0]
	for range names {
		cur = NextTheme(cur)
	}
	if cur != names[0] {
		t.Fatalf("cycling %d times ended at %q, want %q", len(names), cur, names[0])
	}
	if got := NextTheme("unknown"); got != names[0] {
		t.Fatalf("NextTheme(unknown) = %q, want %q", got, names[0])
	}
	if got := GetTheme("unknown").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(unknown) = %q, want Nightfox", got)
	}
}

func TestEveryThemeColorsEveryStatus(t *testing.T) {
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, s := range []results.Status{results.StatusIdle, results.StatusRunning, results.StatusSuccess, results.StatusError} {
			if th.StatusColors[s] == "" {
				t.Fatalf("theme %s has no color for %q", name, s)
			}
		}
	}
}

package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	// Create a temporary log file
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "operator.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "read all (0)",
			maxLines: 0,
			expected: expectedAll,
		},
		{
			name:     "read all (negative)",
			maxLines: -1,
			expected: expectedAll,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != nil {
		t.Fatalf("Read() = %v, want nil", got)
	}
}

func TestFailures(t *testing.T) {
	lines := []string{
		"[2025-03-14T09:26:53.000Z] ▶ Boot telemetry",
		"[2025-03-14T09:26:54.000Z] ✅ Boot telemetry",
		"run: 42",
		"[2025-03-14T09:26:55.000Z] ▶ Crown replays",
		"[2025-03-14T09:26:56.000Z] ❌ Crown replays",
		"error: HTTP 500",
		"stderr tail:",
		"  [tool] exited with code 2",
		"plain banner line",
		"[2025-03-14T09:26:57.000Z] │ Ignition │ warming up",
	}

	want := []string{
		"[2025-03-14T09:26:56.000Z] ❌ Crown replays",
		"error: HTTP 500",
		"stderr tail:",
		"  [tool] exited with code 2",
		"plain banner line",
	}
	if got := Failures(lines); !reflect.DeepEqual(got, want) {
		t.Fatalf("Failures() = %q, want %q", got, want)
	}
}

func TestFailuresEmpty(t *testing.T) {
	if got := Failures(nil); got != nil {
		t.Fatalf("Failures(nil) = %v, want nil", got)
	}
}

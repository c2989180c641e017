package logtail

import (
	"bufio"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file is not an error.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "open log")
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, errors.Wrap(err, "read log")
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read log")
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

const failureGlyph = "❌"

// Failures keeps only failure blocks: a timestamped line carrying the failure
// glyph plus the untimestamped detail lines that follow it.
func Failures(lines []string) []string {
	var out []string
	inBlock := false
	for _, line := range lines {
		if isEntryStart(line) {
			inBlock = strings.Contains(line, "] "+failureGlyph+" ")
		}
		if inBlock {
			out = append(out, line)
		}
	}
	return out
}

// isEntryStart reports whether line opens a timestamped operator log entry.
func isEntryStart(line string) bool {
	if !strings.HasPrefix(line, "[") {
		return false
	}
	end := strings.Index(line, "] ")
	return end > 1 && strings.Contains(line[:end], "T")
}

package command

import (
	"strconv"
	"strings"

	"github.com/termfolio/termfolio/internal/metrics"
	"github.com/termfolio/termfolio/internal/output"
)

const defaultFilterCount = 10

// ApplyFilter runs one pipe stage over lines. Problems become a single
// Error line, which later stages still see.
func ApplyFilter(name string, args []string, lines []output.Line) []output.Line {
	metrics.RecordFilter(name)

	switch name {
	case "grep":
		if len(args) == 0 {
			return []output.Line{output.Error("grep: missing pattern")}
		}
		return grep(strings.ToLower(args[0]), lines)
	case "head":
		n := filterCount(args)
		if n < len(lines) {
			return lines[:n]
		}
		return lines
	case "tail":
		n := filterCount(args)
		if n < len(lines) {
			return lines[len(lines)-n:]
		}
		return lines
	case "wc":
		count := 0
		for _, l := range lines {
			if l.Kind != output.KindEmpty {
				count++
			}
		}
		return []output.Line{output.Text(strconv.Itoa(count))}
	}
	return []output.Line{output.Errorf("Pipe: unknown filter '%s'. Supported: grep, head, tail, wc", name)}
}

func grep(pattern string, lines []output.Line) []output.Line {
	var out []output.Line
	for _, l := range lines {
		text, ok := l.Content()
		if ok && strings.Contains(strings.ToLower(text), pattern) {
			out = append(out, l)
		}
	}
	return out
}

// filterCount reads the line count of head and tail. "-5" and "5" are
// the same; anything unparsable means the default.
func filterCount(args []string) int {
	if len(args) == 0 {
		return defaultFilterCount
	}
	n, err := strconv.Atoi(strings.TrimLeft(args[0], "-"))
	if err != nil || n < 0 {
		return defaultFilterCount
	}
	return n
}

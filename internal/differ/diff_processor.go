package differ

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	prefixDeleted = "-"
	prefixAdded   = "+"
)

// DiffProcessor turns two texts into a context-free line diff.
type DiffProcessor struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// NewDiffProcessor creates a new diff processor
func NewDiffProcessor() *DiffProcessor {
	dmp := diffmatchpatch.New()
	// a timeout would make large diffs depend on machine speed
	dmp.DiffTimeout = 0
	return &DiffProcessor{dmp: dmp}
}

// Diff returns "-line" for every line only in old and "+line" for every line
// only in new, in document order. Identical inputs yield no lines.
func Diff(old, new string) []string {
	return NewDiffProcessor().Lines(old, new)
}

// Lines computes the line diff of old and new.
func (dp *DiffProcessor) Lines(old, new string) []string {
	oldText, newText := canonicalLines(old), canonicalLines(new)
	if oldText == newText {
		return nil
	}

	chars1, chars2, lineArray := dp.dmp.DiffLinesToChars(oldText, newText)
	diffs := dp.dmp.DiffMain(chars1, chars2, false)
	diffs = dp.dmp.DiffCharsToLines(diffs, lineArray)

	var out []string
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = prefixDeleted
		case diffmatchpatch.DiffInsert:
			prefix = prefixAdded
		default:
			continue
		}
		for _, line := range splitLines(d.Text) {
			out = append(out, prefix+line)
		}
	}
	return out
}

// DiffStatistics holds diff calculation results
type DiffStatistics struct {
	LinesAdded   int
	LinesDeleted int
}

// CalculateStats counts added and removed lines of a diff.
func CalculateStats(lines []string) DiffStatistics {
	var stats DiffStatistics
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, prefixAdded):
			stats.LinesAdded++
		case strings.HasPrefix(line, prefixDeleted):
			stats.LinesDeleted++
		}
	}
	return stats
}

// canonicalLines normalizes line endings and terminates every line with "\n",
// so "a" and "a\n" compare equal.
func canonicalLines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	if s == "" {
		return ""
	}
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	return s
}

func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

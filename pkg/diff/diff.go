// Package diff renders the minimal line diff between a file's content before
// and after an edit, for the audit trail and verbose reporting.
package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	maxDiffLines    = 10000
	truncateMessage = "... (diff truncated, exceeds 10,000 lines) ..."
)

// Unified compares before and after content and renders changed lines with
// -/+ prefixes under a header naming the file. Identical content yields the
// empty string.
func Unified(before, after, label string) string {
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()
	src, dst, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(src, dst, false), lineArray)

	var b strings.Builder
	fmt.Fprintf(&b, "--- %s\n+++ %s\n", label, label)

	emitted := 0
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		default:
			continue
		}
		for _, line := range splitDiffLines(d.Text) {
			if emitted >= maxDiffLines {
				b.WriteString(truncateMessage + "\n")
				return b.String()
			}
			b.WriteString(prefix)
			b.WriteString(line)
			b.WriteString("\n")
			emitted++
		}
	}
	return b.String()
}

func splitDiffLines(text string) []string {
	trimmed := strings.TrimSuffix(text, "\n")
	if trimmed == "" {
		return []string{""}
	}
	return strings.Split(trimmed, "\n")
}

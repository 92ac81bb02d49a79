package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/lipgloss"

	"github.com/TilmanGriesel/graphite-theme-patcher/internal/atomicfile"
)

var (
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// printReport writes the outcome summary for a completed batch. Styling is
// applied only when stdout is a terminal.
func printReport(w io.Writer, subject string, report *atomicfile.Report, verbose, styled bool) {
	headline := fmt.Sprintf("%s applied: %d file(s) changed, %d unchanged", subject, report.FilesChanged, report.FilesUnchanged)
	if styled {
		headline = successStyle.Render(headline)
	}
	fmt.Fprintln(w, headline)

	if !verbose || len(report.Diffs) == 0 {
		return
	}

	paths := make([]string, 0, len(report.Diffs))
	for path := range report.Diffs {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		diff := report.Diffs[path]
		if styled {
			diff = mutedStyle.Render(diff)
		}
		fmt.Fprintln(w, diff)
	}
}

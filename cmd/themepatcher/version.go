package main

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/TilmanGriesel/graphite-theme-patcher/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version and changelog",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Graphite Theme Patcher %s\nauthor: %s\n\nChangelog:\n", version.Version, version.Author)
			for _, release := range sortedReleases() {
				fmt.Fprintf(out, "  %-6s %s\n", release, version.Changelog[release])
			}
			return nil
		},
	}
}

// sortedReleases orders changelog keys newest first.
func sortedReleases() []string {
	releases := make([]string, 0, len(version.Changelog))
	for release := range version.Changelog {
		releases = append(releases, release)
	}
	sort.Slice(releases, func(i, j int) bool {
		vi, errI := semver.NewVersion(releases[i])
		vj, errJ := semver.NewVersion(releases[j])
		if errI != nil || errJ != nil {
			return releases[i] > releases[j]
		}
		return vi.GreaterThan(vj)
	})
	return releases
}

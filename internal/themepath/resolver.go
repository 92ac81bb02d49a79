// Package themepath resolves where theme files live. Auto-detection of the
// Home Assistant configuration root happens exactly once, producing an
// immutable ResolvedPaths that the rest of the engine receives explicitly, so
// tests can substitute synthetic roots.
package themepath

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/TilmanGriesel/graphite-theme-patcher/internal/security"
	patcherrors "github.com/TilmanGriesel/graphite-theme-patcher/pkg/errors"
)

// FallbackThemesDir is used when no probe location qualifies.
const FallbackThemesDir = "/config/themes"

// ResolvedPaths is the outcome of configuration resolution: the themes
// directory every file operation is rooted in and the directory the audit log
// is written to.
type ResolvedPaths struct {
	ThemesDir string
	LogDir    string
}

// DefaultProbes returns the candidate configuration roots in search order:
// the OS-managed config root, the root-installation default, the user-home
// default, and the executable's parent directory.
func DefaultProbes() []string {
	probes := []string{
		"/config",
		"/root/.homeassistant",
	}
	if home, err := os.UserHomeDir(); err == nil {
		probes = append(probes, filepath.Join(home, ".homeassistant"))
	}
	if exe, err := os.Executable(); err == nil {
		probes = append(probes, filepath.Dir(filepath.Dir(exe)))
	}
	return probes
}

// Detect walks the probe list and returns the first root containing a themes
// directory, falling back to FallbackThemesDir.
func Detect(probes []string) string {
	for _, root := range probes {
		themes := filepath.Join(root, "themes")
		if isDir(root) && isDir(themes) {
			return themes
		}
	}
	return FallbackThemesDir
}

// Resolve builds the ResolvedPaths for an invocation. An explicit base path
// wins over auto-detection; an empty logDir places the audit log beside the
// themes directory.
func Resolve(explicitBase, logDir string, probes []string) (ResolvedPaths, error) {
	base := strings.TrimSpace(explicitBase)
	if base == "" {
		base = Detect(probes)
	}

	info, err := os.Stat(base)
	if err != nil {
		return ResolvedPaths{}, patcherrors.NewSecurityError("path", fmt.Sprintf("themes directory not found: %s", base), err)
	}
	if !info.IsDir() {
		return ResolvedPaths{}, patcherrors.NewSecurityError("path", fmt.Sprintf("not a directory: %s", base), nil)
	}

	if strings.TrimSpace(logDir) == "" {
		logDir = filepath.Join(base, "logs")
	}

	return ResolvedPaths{ThemesDir: base, LogDir: logDir}, nil
}

// ThemeFiles enumerates the YAML files belonging to a theme. A theme is
// either a directory of .yaml files under the themes directory or a single
// <theme>.yaml file beside it. Files whose canonical path escapes the themes
// directory are skipped; the batch cap applies to the result.
func (p ResolvedPaths) ThemeFiles(theme string) ([]string, error) {
	if strings.TrimSpace(theme) == "" {
		return nil, patcherrors.NewSecurityError("theme", "theme name must be non-empty", nil)
	}
	if strings.ContainsAny(theme, "/\\") || strings.Contains(theme, "..") {
		return nil, patcherrors.NewSecurityError("theme", fmt.Sprintf("theme name %q must not contain path separators", theme), nil)
	}

	themeDir := filepath.Join(p.ThemesDir, theme)
	singleFile := filepath.Join(p.ThemesDir, theme+".yaml")

	if isDir(themeDir) {
		var files []string
		walkErr := filepath.WalkDir(themeDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), ".yaml") {
				return nil
			}
			canonical, pathErr := security.ValidatePath(p.ThemesDir, path)
			if pathErr != nil {
				// Broken or escaping symlinks are skipped, not fatal.
				return nil
			}
			files = append(files, canonical)
			return nil
		})
		if walkErr != nil {
			return nil, patcherrors.NewSecurityError("path", fmt.Sprintf("error scanning theme directory %s", themeDir), walkErr)
		}
		if len(files) == 0 {
			return nil, patcherrors.NewSecurityError("theme", fmt.Sprintf("no YAML files found in %s", themeDir), nil)
		}
		if err := security.CheckBatchSize(len(files)); err != nil {
			return nil, err
		}
		sort.Strings(files)
		return files, nil
	}

	if info, err := os.Stat(singleFile); err == nil && !info.IsDir() {
		canonical, pathErr := security.ValidatePath(p.ThemesDir, singleFile)
		if pathErr != nil {
			return nil, pathErr
		}
		return []string{canonical}, nil
	}

	return nil, patcherrors.NewSecurityError("theme", fmt.Sprintf("theme not found: neither %s nor %s exists", themeDir, singleFile), nil)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Package security holds the fixed input policies every operation is checked
// against before any file is touched: token name rules, path containment,
// and resource ceilings. All checks are pure apart from filesystem stat and
// symlink resolution.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	patcherrors "github.com/TilmanGriesel/graphite-theme-patcher/pkg/errors"
)

const (
	// MaxFilesPerOperation caps the number of theme files a single batch may
	// touch.
	MaxFilesPerOperation = 50
	// MaxFileSizeBytes caps the size of any theme file the patcher will read.
	MaxFileSizeBytes = 10 << 20
	// MaxLinesPerFile caps line counts to keep the line-indexed edit model
	// bounded.
	MaxLinesPerFile = 10000
	// MaxFetchBytes caps the body size of a remote recipe fetch.
	MaxFetchBytes = 5 << 20
	// FetchTimeout bounds a remote recipe fetch end to end.
	FetchTimeout = 30 * time.Second
	// MaxTokenNameLength bounds token identifiers.
	MaxTokenNameLength = 100
)

var (
	tokenNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

	// Characters that would break out of a YAML scalar or inject structure.
	dangerousChars = []string{"\n", "\r", "\t", "#", ":", `"`, "'", `\`, "`"}

	// YAML indicator characters a key must not start with.
	yamlIndicators = "-!&*|>%@"
)

// ValidateTokenName checks a token identifier against the naming policy:
// non-empty, at most MaxTokenNameLength characters, alphanumeric with hyphens
// and underscores, no YAML control characters.
func ValidateTokenName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return patcherrors.NewSecurityError("token", "name must be a non-empty string", nil)
	}

	for _, ch := range dangerousChars {
		if strings.Contains(trimmed, ch) {
			return patcherrors.NewSecurityError("token", fmt.Sprintf("name %q contains invalid characters", trimmed), nil)
		}
	}

	if strings.ContainsAny(trimmed[:1], yamlIndicators) {
		return patcherrors.NewSecurityError("token", fmt.Sprintf("name %q cannot start with a YAML special character", trimmed), nil)
	}

	if len(trimmed) > MaxTokenNameLength {
		return patcherrors.NewSecurityError("token", fmt.Sprintf("name too long (%d > %d characters)", len(trimmed), MaxTokenNameLength), nil)
	}

	if !tokenNamePattern.MatchString(trimmed) {
		return patcherrors.NewSecurityError("token", fmt.Sprintf("name %q must be alphanumeric with hyphens/underscores", trimmed), nil)
	}

	return nil
}

// ValidatePath resolves candidate (following symlinks) and verifies it stays
// inside baseDir. It returns the canonical path.
func ValidatePath(baseDir, candidate string) (string, error) {
	canonicalBase, err := filepath.EvalSymlinks(baseDir)
	if err != nil {
		return "", patcherrors.NewSecurityError("path", fmt.Sprintf("cannot resolve base directory %s", baseDir), err)
	}

	canonical, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		return "", patcherrors.NewSecurityError("path", fmt.Sprintf("cannot resolve %s", candidate), err)
	}

	rel, err := filepath.Rel(canonicalBase, canonical)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", patcherrors.NewSecurityError("path", fmt.Sprintf("%s escapes the themes directory %s", candidate, baseDir), nil)
	}

	return canonical, nil
}

// CheckFileSize rejects files above the hard size ceiling.
func CheckFileSize(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return patcherrors.NewSecurityError("path", fmt.Sprintf("cannot access %s", path), err)
	}
	if info.Size() > MaxFileSizeBytes {
		return patcherrors.NewSecurityError("path", fmt.Sprintf("%s too large (%d > %d bytes)", path, info.Size(), MaxFileSizeBytes), nil)
	}
	return nil
}

// CheckLineCount rejects files above the line-count ceiling.
func CheckLineCount(path string, lines int) error {
	if lines > MaxLinesPerFile {
		return patcherrors.NewSecurityError("path", fmt.Sprintf("%s has too many lines (%d > %d)", path, lines, MaxLinesPerFile), nil)
	}
	return nil
}

// CheckBatchSize rejects operations touching more than MaxFilesPerOperation
// candidate files.
func CheckBatchSize(files int) error {
	if files > MaxFilesPerOperation {
		return patcherrors.NewSecurityError("batch", fmt.Sprintf("too many theme files (%d > %d)", files, MaxFilesPerOperation), nil)
	}
	return nil
}

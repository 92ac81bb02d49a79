// Package structure classifies theme files into known shapes and locates the
// section a token declaration belongs to. It deliberately works on raw lines
// instead of a YAML document tree: theme files are hand-edited and
// comment-heavy, and every line the patcher does not touch must survive
// byte-for-byte.
package structure

import (
	"os"
	"strings"
)

// Kind classifies the shape of a theme file.
type Kind int

const (
	// KindFlat is a plain token list. Both directory-style multi-file themes
	// and single-file themes analyze as flat; the distinction only affects
	// how the caller enumerates files.
	KindFlat Kind = iota
	// KindDualMode is an auto theme with a modes: mapping holding light and
	// dark sections.
	KindDualMode
)

func (k Kind) String() string {
	if k == KindDualMode {
		return "dual-mode"
	}
	return "flat"
}

// Mode selects which part of a dual-mode theme an operation targets.
type Mode string

const (
	ModeLight Mode = "light"
	ModeDark  Mode = "dark"
	ModeAll   Mode = "all"
)

// ParseMode validates a mode flag value.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeLight:
		return ModeLight, true
	case ModeDark:
		return ModeDark, true
	case ModeAll, "":
		return ModeAll, true
	}
	return "", false
}

// Matches reports whether a declaration in section mode `other` is in scope
// for this target mode.
func (m Mode) Matches(other Mode) bool {
	return m == ModeAll || m == other
}

// Section is a contiguous line range [Start, End) inside a dual-mode theme
// holding one mode's token declarations. KeyLine/KeyIndent describe the
// `light:`/`dark:` line that opens the section.
type Section struct {
	Mode      Mode
	KeyLine   int
	KeyIndent int
	Start     int
	End       int
}

// Contains reports whether line index i falls inside the section body.
func (s *Section) Contains(i int) bool {
	return s != nil && i >= s.Start && i < s.End
}

// ThemeFile is one physical theme file loaded for a patch operation: raw
// lines, derived section boundaries, and the metadata needed to write it
// back exactly as it was read.
type ThemeFile struct {
	Path            string
	Kind            Kind
	Lines           []string
	TrailingNewline bool
	Permissions     os.FileMode
	Encoding        string

	Light *Section
	Dark  *Section

	Indent   IndentSpec
	Warnings []string
}

// Sections returns the sections in scope for the given target mode, in file
// order. Flat files have no sections and return nil.
func (tf *ThemeFile) Sections(mode Mode) []*Section {
	if tf.Kind != KindDualMode {
		return nil
	}
	var out []*Section
	if tf.Light != nil && mode.Matches(ModeLight) {
		out = append(out, tf.Light)
	}
	if tf.Dark != nil && mode.Matches(ModeDark) {
		out = append(out, tf.Dark)
	}
	return out
}

// SectionAt returns the section containing line i, or nil for prelude/root
// lines.
func (tf *ThemeFile) SectionAt(i int) *Section {
	if tf.Light.Contains(i) {
		return tf.Light
	}
	if tf.Dark.Contains(i) {
		return tf.Dark
	}
	return nil
}

// SplitLines breaks content into lines, recording whether a trailing newline
// was present so the file can be reassembled byte-for-byte.
func SplitLines(content string) ([]string, bool) {
	if content == "" {
		return []string{}, false
	}
	trailing := strings.HasSuffix(content, "\n")
	trimmed := content
	if trailing {
		trimmed = strings.TrimSuffix(content, "\n")
	}
	if trimmed == "" {
		if trailing {
			return []string{}, true
		}
		return []string{""}, false
	}
	return strings.Split(trimmed, "\n"), trailing
}

// JoinLines is the inverse of SplitLines.
func JoinLines(lines []string, trailing bool) string {
	if len(lines) == 0 {
		if trailing {
			return "\n"
		}
		return ""
	}
	joined := strings.Join(lines, "\n")
	if trailing {
		return joined + "\n"
	}
	return joined
}

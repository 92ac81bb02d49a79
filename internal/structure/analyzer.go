package structure

import (
	"strings"

	patcherrors "github.com/TilmanGriesel/graphite-theme-patcher/pkg/errors"
)

// Analyze scans the file's lines once and classifies it as flat or
// dual-mode, recording section boundaries and the detected indentation
// style. Malformed mode blocks are reported as a StructureError rather than
// guessed at.
func Analyze(path string, lines []string, trailing bool) (*ThemeFile, error) {
	tf := &ThemeFile{
		Path:            path,
		Kind:            KindFlat,
		Lines:           lines,
		TrailingNewline: trailing,
	}

	modesLine := -1
	modesIndent := 0
	for i, line := range lines {
		key, _, ok := SplitKey(line)
		if !ok {
			continue
		}
		if key == "modes" {
			modesLine = i
			modesIndent = indentOf(line)
			break
		}
	}

	spec, warnings := detectIndent(lines)
	tf.Indent = spec
	tf.Warnings = warnings

	if modesLine == -1 {
		return tf, nil
	}

	tf.Kind = KindDualMode

	var open *Section
	closeOpen := func(end int) {
		if open != nil {
			open.End = end
			open = nil
		}
	}

	for i := modesLine + 1; i < len(lines); i++ {
		line := lines[i]
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, "#") {
			continue
		}
		indent := indentOf(line)

		if indent <= modesIndent {
			closeOpen(i)
			break
		}

		key, _, ok := SplitKey(line)
		if ok && (key == string(ModeLight) || key == string(ModeDark)) && (open == nil || indent <= open.KeyIndent) {
			closeOpen(i)
			mode := Mode(key)
			section := &Section{Mode: mode, KeyLine: i, KeyIndent: indent, Start: i + 1, End: len(lines)}
			switch mode {
			case ModeLight:
				if tf.Light != nil {
					return nil, patcherrors.NewStructureError(path, i+1, "duplicate light: mode key")
				}
				tf.Light = section
			case ModeDark:
				if tf.Dark != nil {
					return nil, patcherrors.NewStructureError(path, i+1, "duplicate dark: mode key")
				}
				tf.Dark = section
			}
			open = section
		}
	}
	closeOpen(len(lines))

	if tf.Light == nil || tf.Dark == nil {
		return nil, patcherrors.NewStructureError(path, modesLine+1, "unterminated mode block: modes: must declare both light and dark sections")
	}

	return tf, nil
}

// SplitKey extracts the mapping key of a line: the text before the first
// unquoted colon. It returns false for blank lines, comments, and lines
// without a key.
func SplitKey(line string) (key, rest string, ok bool) {
	stripped := strings.TrimSpace(line)
	if stripped == "" || strings.HasPrefix(stripped, "#") {
		return "", "", false
	}

	var quote rune
	for i, r := range stripped {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == ':':
			return strings.TrimSpace(stripped[:i]), strings.TrimSpace(stripped[i+1:]), true
		case r == '#':
			return "", "", false
		}
	}
	return "", "", false
}

func indentOf(line string) int {
	n := 0
	for _, r := range line {
		if r == ' ' || r == '\t' {
			n++
			continue
		}
		break
	}
	return n
}

package structure

import (
	"fmt"
	"strings"
)

// DefaultIndentUnit is used when a file has no indented content line to
// infer a style from.
const DefaultIndentUnit = 2

// IndentSpec captures the indentation style observed in a theme file: the
// number of spaces per nesting level and the indent of token lines at the
// file's base level.
type IndentSpec struct {
	Unit int
	Flat int
}

// ForSection returns the indent string for a new line created inside the
// given section, or at the file's base level when section is nil. Dual-mode
// sections sit one level below their light:/dark: key.
func (s IndentSpec) ForSection(sec *Section) string {
	if sec == nil {
		return strings.Repeat(" ", s.Flat)
	}
	return strings.Repeat(" ", sec.KeyIndent+s.Unit)
}

// detectIndent infers the indentation style from the first indented,
// non-comment content line. Mixed tabs/spaces or indents that are not
// multiples of the unit are reported as warnings; editing proceeds with the
// majority style.
func detectIndent(lines []string) (IndentSpec, []string) {
	spec := IndentSpec{Unit: DefaultIndentUnit, Flat: DefaultIndentUnit}
	var warnings []string

	found := false
	sawTabs := false
	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, "#") {
			continue
		}
		prefix := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if prefix == "" {
			continue
		}
		if strings.Contains(prefix, "\t") {
			if !sawTabs {
				warnings = append(warnings, fmt.Sprintf("line %d: tab indentation; continuing with space indentation", i+1))
				sawTabs = true
			}
			continue
		}
		if !found {
			spec.Unit = len(prefix)
			spec.Flat = len(prefix)
			found = true
			continue
		}
		if len(prefix)%spec.Unit != 0 {
			warnings = append(warnings, fmt.Sprintf("line %d: indent of %d is not a multiple of %d", i+1, len(prefix), spec.Unit))
		}
	}

	return spec, warnings
}

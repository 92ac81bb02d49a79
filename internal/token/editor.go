package token

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/TilmanGriesel/graphite-theme-patcher/internal/security"
	"github.com/TilmanGriesel/graphite-theme-patcher/internal/structure"
	patcherrors "github.com/TilmanGriesel/graphite-theme-patcher/pkg/errors"
)

const (
	provenanceMarker = "# Modified by Graphite Theme Patcher"
	timestampLayout  = "2006-01-02 15:04:05"

	userEntriesMarker = "# User defined entries"
	bannerWidth       = 78

	// CardModTheme is the theme property card-mod declarations hang off.
	CardModTheme = "card-mod-theme"
)

// Edit replaces one existing line.
type Edit struct {
	Line int
	Old  string
	New  string
}

// Insert adds lines before index At, in the file's original coordinates.
type Insert struct {
	At    int
	Lines []string
}

// Plan is the full set of line-level changes one token change requires on one
// file. It is computed without touching disk and either commits as a whole or
// not at all.
type Plan struct {
	File    *structure.ThemeFile
	Spec    Spec
	Edits   []Edit
	Inserts []Insert
	Deletes []int
	Updated int
	Created int
}

// Changed reports whether applying the plan would alter the file.
func (p *Plan) Changed() bool {
	return len(p.Edits)+len(p.Inserts)+len(p.Deletes) > 0
}

// Apply materializes the plan into a new line slice. The receiver's file is
// not modified. Insert and delete positions refer to the file's original
// coordinates; inserted lines land before the line they name.
func (p *Plan) Apply() []string {
	lines := append([]string(nil), p.File.Lines...)
	for _, e := range p.Edits {
		lines[e.Line] = e.New
	}

	deleted := make(map[int]bool, len(p.Deletes))
	for _, d := range p.Deletes {
		deleted[d] = true
	}
	insertAt := make(map[int][]string, len(p.Inserts))
	for _, ins := range p.Inserts {
		insertAt[ins.At] = append(insertAt[ins.At], ins.Lines...)
	}

	out := make([]string, 0, len(lines))
	for i := 0; i <= len(lines); i++ {
		out = append(out, insertAt[i]...)
		if i < len(lines) && !deleted[i] {
			out = append(out, lines[i])
		}
	}
	return out
}

// PlanEdit locates the token's declaration in the applicable sections and
// produces the replacement lines, or a creation plan when the token is absent
// and creation is permitted. The file is never modified here.
func PlanEdit(tf *structure.ThemeFile, spec Spec, createIfMissing bool, version string, now time.Time) (*Plan, error) {
	if err := security.ValidateTokenName(spec.Name); err != nil {
		return nil, err
	}

	value, err := spec.Type.Normalize(spec.Name, spec.RawValue)
	if err != nil {
		return nil, err
	}

	provenance := fmt.Sprintf("%s v%s - %s", provenanceMarker, version, now.UTC().Format(timestampLayout))
	plan := &Plan{File: tf, Spec: spec}
	multiline := spec.Type == TypeCardMod && strings.Contains(value, "\n")

	type match struct {
		line int
		rest string
	}
	var matches []match
	seen := make(map[string]int)
	for i, line := range tf.Lines {
		key, rest, ok := structure.SplitKey(line)
		if !ok || key != spec.Name {
			continue
		}
		sec := tf.SectionAt(i)
		scope := "root"
		if sec != nil {
			scope = string(sec.Mode)
		}
		if prev, dup := seen[scope]; dup {
			return nil, patcherrors.NewStructureError(tf.Path, i+1, fmt.Sprintf("duplicate declaration of %q (also on line %d)", spec.Name, prev+1))
		}
		seen[scope] = i

		if sec == nil || spec.Mode.Matches(sec.Mode) {
			matches = append(matches, match{line: i, rest: rest})
		}
	}

	if len(matches) > 0 {
		for _, m := range matches {
			old := tf.Lines[m.line]
			indent := old[:len(old)-len(strings.TrimLeft(old, " \t"))]
			rendered := renderDeclaration(indent, spec.Name, value, multiline, tf.Indent.Unit, provenance)

			if strings.HasPrefix(m.rest, "|") || strings.HasPrefix(m.rest, ">") {
				// Block scalars this tool wrote carry the provenance marker
				// on the key line; anything else is hand-authored structure
				// that is not rewritten in place.
				if !strings.Contains(old, provenanceMarker) {
					return nil, patcherrors.NewStructureError(tf.Path, m.line+1, fmt.Sprintf("declaration of %q is a block scalar and cannot be rewritten in place", spec.Name))
				}

				end := blockEnd(tf.Lines, m.line, len(indent))
				body := tf.Lines[m.line+1 : end]
				if stripProvenance(old) == stripProvenance(rendered[0]) && slices.Equal(body, rendered[1:]) {
					continue
				}

				plan.Edits = append(plan.Edits, Edit{Line: m.line, Old: old, New: rendered[0]})
				for i := m.line + 1; i < end; i++ {
					plan.Deletes = append(plan.Deletes, i)
				}
				if len(rendered) > 1 {
					plan.Inserts = append(plan.Inserts, Insert{At: m.line + 1, Lines: rendered[1:]})
				}
				plan.Updated++
				continue
			}

			// Re-applying the same value is a no-op so runs stay idempotent.
			if !multiline && stripProvenance(old) == stripProvenance(rendered[0]) {
				continue
			}

			plan.Edits = append(plan.Edits, Edit{Line: m.line, Old: old, New: rendered[0]})
			if len(rendered) > 1 {
				plan.Inserts = append(plan.Inserts, Insert{At: m.line + 1, Lines: rendered[1:]})
			}
			plan.Updated++
		}
		return plan, nil
	}

	if !createIfMissing && !spec.Type.Creatable() {
		return nil, patcherrors.NewTokenNotFoundError(spec.Name, tf.Path)
	}

	if spec.Type == TypeCardMod {
		planCardModCreate(plan, tf, spec.Name, value, multiline, provenance)
		return plan, nil
	}

	if tf.Kind == structure.KindDualMode {
		for _, sec := range tf.Sections(spec.Mode) {
			line := renderDeclaration(tf.Indent.ForSection(sec), spec.Name, value, false, tf.Indent.Unit, provenance)[0]
			planUserBlockInsert(plan, tf, sec.Start, sec.End, tf.Indent.ForSection(sec), line)
		}
		return plan, nil
	}

	line := renderDeclaration(tf.Indent.ForSection(nil), spec.Name, value, false, tf.Indent.Unit, provenance)[0]
	planUserBlockInsert(plan, tf, 0, len(tf.Lines), tf.Indent.ForSection(nil), line)
	return plan, nil
}

// planUserBlockInsert appends a declaration to the "User defined entries"
// block of the line range [start, end), creating the banner when absent.
func planUserBlockInsert(plan *Plan, tf *structure.ThemeFile, start, end int, indent, line string) {
	bannerLine := -1
	lastToken := -1
	for i := start; i < end && i < len(tf.Lines); i++ {
		if !strings.Contains(tf.Lines[i], userEntriesMarker) {
			continue
		}
		bannerLine = i
		for j := i + 1; j < end && j < len(tf.Lines); j++ {
			stripped := strings.TrimSpace(tf.Lines[j])
			if stripped == "" {
				continue
			}
			if strings.HasPrefix(stripped, "#") {
				break
			}
			if _, _, ok := structure.SplitKey(tf.Lines[j]); ok {
				lastToken = j
			}
		}
		break
	}

	if bannerLine == -1 {
		plan.Inserts = append(plan.Inserts, Insert{At: end, Lines: []string{
			"",
			indent + strings.Repeat("#", bannerWidth),
			indent + userEntriesMarker,
			line,
		}})
	} else {
		at := bannerLine + 1
		if lastToken != -1 {
			at = lastToken + 1
		}
		plan.Inserts = append(plan.Inserts, Insert{At: at, Lines: []string{line}})
	}
	plan.Created++
}

// planCardModCreate anchors a new card-mod declaration to the
// card-mod-theme: property, creating that property after the theme name when
// the file does not have one yet.
func planCardModCreate(plan *Plan, tf *structure.ThemeFile, name, value string, multiline bool, provenance string) {
	anchor := -1
	for i, line := range tf.Lines {
		if key, _, ok := structure.SplitKey(line); ok && key == CardModTheme {
			anchor = i
			break
		}
	}

	if anchor >= 0 {
		old := tf.Lines[anchor]
		indent := old[:len(old)-len(strings.TrimLeft(old, " \t"))]
		plan.Inserts = append(plan.Inserts, Insert{
			At:    anchor + 1,
			Lines: renderDeclaration(indent, name, value, multiline, tf.Indent.Unit, provenance),
		})
		plan.Created++
		return
	}

	first := 0
	for i, line := range tf.Lines {
		stripped := strings.TrimSpace(line)
		if stripped != "" && !strings.HasPrefix(stripped, "#") {
			first = i
			break
		}
	}

	indent := tf.Indent.ForSection(nil)
	lines := append([]string{indent + CardModTheme + ":"},
		renderDeclaration(indent, name, value, multiline, tf.Indent.Unit, provenance)...)
	plan.Inserts = append(plan.Inserts, Insert{At: first + 1, Lines: lines})
	plan.Created++
}

// renderDeclaration emits the line(s) for a declaration including the
// provenance comment. Multi-line values become a block scalar with the value
// indented one level below the key.
func renderDeclaration(indent, name, value string, multiline bool, unit int, provenance string) []string {
	if !multiline {
		return []string{fmt.Sprintf("%s%s: %s  %s", indent, name, value, provenance)}
	}

	lines := []string{fmt.Sprintf("%s%s: |-  %s", indent, name, provenance)}
	pad := indent + strings.Repeat(" ", unit)
	for _, vl := range strings.Split(value, "\n") {
		lines = append(lines, pad+vl)
	}
	return lines
}

// blockEnd returns the exclusive end of the block scalar body opened at
// keyLine: every following line indented deeper than the key, not counting
// trailing blanks.
func blockEnd(lines []string, keyLine, keyIndent int) int {
	end := keyLine + 1
	for i := keyLine + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		if len(lines[i])-len(strings.TrimLeft(lines[i], " ")) <= keyIndent {
			break
		}
		end = i + 1
	}
	return end
}

// stripProvenance removes a trailing provenance comment so value equality can
// be compared across runs with different timestamps.
func stripProvenance(line string) string {
	if idx := strings.Index(line, provenanceMarker); idx >= 0 {
		return strings.TrimRight(line[:idx], " ")
	}
	return line
}

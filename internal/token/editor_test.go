package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/TilmanGriesel/graphite-theme-patcher/internal/structure"
	patcherrors "github.com/TilmanGriesel/graphite-theme-patcher/pkg/errors"
)

const testVersion = "2.0.0"

var testNow = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

const flatTheme = `# Graphite
graphite:
  token-rgb-primary: 229, 145, 9
  token-color-primary: rgb(var(--token-rgb-primary))
  token-size-radius-large: 18px
`

const autoTheme = `# Graphite Auto
graphite-auto:
  modes:
    light:
      token-rgb-primary: 229, 145, 9
      token-color-feedback-info: rgb(50, 125, 237)
    dark:
      token-rgb-primary: 229, 145, 9
      token-color-feedback-info: rgb(61, 133, 45)
  card-mod-theme: graphite-auto
`

func analyze(t *testing.T, content string) *structure.ThemeFile {
	t.Helper()
	lines, trailing := structure.SplitLines(content)
	tf, err := structure.Analyze("test.yaml", lines, trailing)
	require.NoError(t, err)
	return tf
}

func TestPlanEditReplacesOnlyTargetLine(t *testing.T) {
	tf := analyze(t, flatTheme)
	spec := Spec{Name: "token-rgb-primary", Type: TypeRGB, RawValue: "10,20,30", Mode: structure.ModeAll}

	plan, err := PlanEdit(tf, spec, false, testVersion, testNow)
	require.NoError(t, err)
	require.True(t, plan.Changed())
	require.Equal(t, 1, plan.Updated)

	got := plan.Apply()
	want, _ := structure.SplitLines(flatTheme)
	require.Len(t, got, len(want))
	for i := range got {
		if i == 2 {
			require.Equal(t, "  token-rgb-primary: 10, 20, 30  # Modified by Graphite Theme Patcher v2.0.0 - 2026-08-29 12:00:00", got[i])
			continue
		}
		require.Equal(t, want[i], got[i], "line %d must be untouched", i)
	}
}

func TestPlanEditIsIdempotent(t *testing.T) {
	tf := analyze(t, flatTheme)
	spec := Spec{Name: "token-rgb-primary", Type: TypeRGB, RawValue: "10,20,30", Mode: structure.ModeAll}

	plan, err := PlanEdit(tf, spec, false, testVersion, testNow)
	require.NoError(t, err)
	first := plan.Apply()

	tf2, err := structure.Analyze("test.yaml", first, tf.TrailingNewline)
	require.NoError(t, err)

	later := testNow.Add(3 * time.Hour)
	plan2, err := PlanEdit(tf2, spec, false, testVersion, later)
	require.NoError(t, err)
	require.False(t, plan2.Changed(), "second run must be a no-op diff")
	require.Equal(t, first, plan2.Apply())
}

func TestPlanEditDiscardsOldInlineComment(t *testing.T) {
	content := "graphite:\n  token-size-radius-large: 18px  # hand tuned\n"
	tf := analyze(t, content)
	spec := Spec{Name: "token-size-radius-large", Type: TypeRadius, RawValue: "24", Mode: structure.ModeAll}

	plan, err := PlanEdit(tf, spec, false, testVersion, testNow)
	require.NoError(t, err)

	got := plan.Apply()
	require.NotContains(t, got[1], "hand tuned")
	require.Contains(t, got[1], "token-size-radius-large: 24px")
	require.Contains(t, got[1], "# Modified by Graphite Theme Patcher")
}

func TestPlanEditDualModeTargetsBothSections(t *testing.T) {
	tf := analyze(t, autoTheme)
	spec := Spec{Name: "token-rgb-primary", Type: TypeRGB, RawValue: "1,2,3", Mode: structure.ModeAll}

	plan, err := PlanEdit(tf, spec, false, testVersion, testNow)
	require.NoError(t, err)
	require.Equal(t, 2, plan.Updated)

	got := plan.Apply()
	require.Contains(t, got[4], "1, 2, 3")
	require.Contains(t, got[7], "1, 2, 3")
}

func TestPlanEditDualModeTargetsSingleSection(t *testing.T) {
	tf := analyze(t, autoTheme)
	spec := Spec{Name: "token-rgb-primary", Type: TypeRGB, RawValue: "1,2,3", Mode: structure.ModeDark}

	plan, err := PlanEdit(tf, spec, false, testVersion, testNow)
	require.NoError(t, err)
	require.Equal(t, 1, plan.Updated)

	got := plan.Apply()
	require.Contains(t, got[4], "229, 145, 9", "light section must be untouched")
	require.Contains(t, got[7], "1, 2, 3")
}

func TestPlanEditTokenNotFound(t *testing.T) {
	tf := analyze(t, flatTheme)
	spec := Spec{Name: "accent", Type: TypeGeneric, RawValue: "blue", Mode: structure.ModeAll}

	_, err := PlanEdit(tf, spec, false, testVersion, testNow)
	require.Error(t, err)

	var nfErr *patcherrors.TokenNotFoundError
	require.True(t, errors.As(err, &nfErr))
	require.Equal(t, "accent", nfErr.Token)
}

func TestPlanEditCreatesInFlatFile(t *testing.T) {
	tf := analyze(t, flatTheme)
	spec := Spec{Name: "accent", Type: TypeGeneric, RawValue: "blue", Mode: structure.ModeAll}

	plan, err := PlanEdit(tf, spec, true, testVersion, testNow)
	require.NoError(t, err)
	require.Equal(t, 1, plan.Created)

	got := plan.Apply()
	n := len(got)
	require.Equal(t, "", got[n-4])
	require.Equal(t, "  "+strings.Repeat("#", 78), got[n-3])
	require.Equal(t, "  # User defined entries", got[n-2])
	require.Contains(t, got[n-1], "  accent: blue  # Modified by")
}

func TestPlanEditCreatesOnlyInDarkSection(t *testing.T) {
	tf := analyze(t, autoTheme)
	spec := Spec{Name: "accent", Type: TypeGeneric, RawValue: "blue", Mode: structure.ModeDark}

	plan, err := PlanEdit(tf, spec, true, testVersion, testNow)
	require.NoError(t, err)
	require.Equal(t, 1, plan.Created)

	got := plan.Apply()
	joined := structure.JoinLines(got, true)
	require.Contains(t, joined, "      accent: blue")

	// A new line appears only inside the dark section, at the section's
	// indentation; the light section keeps its original line count.
	tf2, err := structure.Analyze("test.yaml", got, true)
	require.NoError(t, err)
	require.Equal(t, tf.Light.End-tf.Light.Start, tf2.Light.End-tf2.Light.Start)

	found := false
	for i := tf2.Dark.Start; i < tf2.Dark.End; i++ {
		if strings.HasPrefix(got[i], "      accent: blue") {
			found = true
		}
	}
	require.True(t, found, "created token must live in the dark section")
}

func TestPlanEditAppendsToExistingUserBlock(t *testing.T) {
	content := "graphite:\n" +
		"  token-a: 1\n" +
		"\n" +
		"  " + strings.Repeat("#", 78) + "\n" +
		"  # User defined entries\n" +
		"  earlier: value  # Modified by Graphite Theme Patcher v2.0.0 - 2026-01-01 00:00:00\n"
	tf := analyze(t, content)
	spec := Spec{Name: "accent", Type: TypeGeneric, RawValue: "blue", Mode: structure.ModeAll}

	plan, err := PlanEdit(tf, spec, true, testVersion, testNow)
	require.NoError(t, err)

	got := plan.Apply()
	require.Len(t, got, 7)
	require.Contains(t, got[6], "accent: blue")
	// No second banner was created.
	require.Equal(t, 1, strings.Count(structure.JoinLines(got, true), "# User defined entries"))
}

func TestPlanEditDuplicateDeclarationIsStructureError(t *testing.T) {
	content := "graphite:\n  token-a: 1\n  token-a: 2\n"
	tf := analyze(t, content)
	spec := Spec{Name: "token-a", Type: TypeGeneric, RawValue: "3", Mode: structure.ModeAll}

	_, err := PlanEdit(tf, spec, false, testVersion, testNow)
	require.Error(t, err)

	var structErr *patcherrors.StructureError
	require.True(t, errors.As(err, &structErr))
	require.Contains(t, structErr.Message, "duplicate declaration")
}

func TestPlanEditRejectsBadTokenName(t *testing.T) {
	tf := analyze(t, flatTheme)
	spec := Spec{Name: "../../etc/passwd", Type: TypeGeneric, RawValue: "x", Mode: structure.ModeAll}

	_, err := PlanEdit(tf, spec, true, testVersion, testNow)
	require.Error(t, err)

	var secErr *patcherrors.SecurityError
	require.True(t, errors.As(err, &secErr))
}

func TestPlanEditCardModAnchorsToExistingProperty(t *testing.T) {
	tf := analyze(t, autoTheme)
	spec := Spec{Name: "card-mod-root", Type: TypeCardMod, RawValue: "ha-card { border: none; }", Mode: structure.ModeAll}

	// create not requested: card-mod is creatable by default.
	plan, err := PlanEdit(tf, spec, false, testVersion, testNow)
	require.NoError(t, err)
	require.Equal(t, 1, plan.Created)

	got := plan.Apply()
	// Inserted right below card-mod-theme:, at the same indent.
	require.Contains(t, got[10], `  card-mod-root: "ha-card { border: none; }"`)
}

func TestPlanEditCardModCreatesAnchorWhenMissing(t *testing.T) {
	tf := analyze(t, flatTheme)
	spec := Spec{Name: "card-mod-root", Type: TypeCardMod, RawValue: "x", Mode: structure.ModeAll}

	plan, err := PlanEdit(tf, spec, false, testVersion, testNow)
	require.NoError(t, err)

	got := plan.Apply()
	require.Equal(t, "  card-mod-theme:", got[2])
	require.Contains(t, got[3], `card-mod-root: "x"`)
}

func TestPlanEditCardModMultilineBlockScalar(t *testing.T) {
	tf := analyze(t, autoTheme)
	spec := Spec{Name: "card-mod-root", Type: TypeCardMod, RawValue: "a { x: 1; }\nb { y: 2; }", Mode: structure.ModeAll}

	plan, err := PlanEdit(tf, spec, false, testVersion, testNow)
	require.NoError(t, err)

	got := plan.Apply()
	require.Contains(t, got[10], "card-mod-root: |-")
	require.Equal(t, "    a { x: 1; }", got[11])
	require.Equal(t, "    b { y: 2; }", got[12])
}

func TestPlanEditRefusesForeignBlockScalar(t *testing.T) {
	// No provenance marker on the key line: the block was hand-authored.
	content := "graphite:\n  card-mod-root: |-\n    old { }\n"
	tf := analyze(t, content)
	spec := Spec{Name: "card-mod-root", Type: TypeCardMod, RawValue: "new", Mode: structure.ModeAll}

	_, err := PlanEdit(tf, spec, false, testVersion, testNow)
	require.Error(t, err)

	var structErr *patcherrors.StructureError
	require.True(t, errors.As(err, &structErr))
}

func TestPlanEditCardModMultilineRerunIsIdempotent(t *testing.T) {
	tf := analyze(t, autoTheme)
	spec := Spec{Name: "card-mod-root", Type: TypeCardMod, RawValue: "a { x: 1; }\nb { y: 2; }", Mode: structure.ModeAll}

	plan, err := PlanEdit(tf, spec, false, testVersion, testNow)
	require.NoError(t, err)
	first := plan.Apply()

	tf2, err := structure.Analyze("test.yaml", first, tf.TrailingNewline)
	require.NoError(t, err)

	later := testNow.Add(3 * time.Hour)
	plan2, err := PlanEdit(tf2, spec, false, testVersion, later)
	require.NoError(t, err)
	require.False(t, plan2.Changed(), "second run must be a no-op diff")
	require.Equal(t, first, plan2.Apply())
}

func TestPlanEditReplacesOwnBlockScalar(t *testing.T) {
	tf := analyze(t, autoTheme)
	spec := Spec{Name: "card-mod-root", Type: TypeCardMod, RawValue: "a { x: 1; }\nb { y: 2; }", Mode: structure.ModeAll}

	plan, err := PlanEdit(tf, spec, false, testVersion, testNow)
	require.NoError(t, err)
	first := plan.Apply()

	tf2, err := structure.Analyze("test.yaml", first, tf.TrailingNewline)
	require.NoError(t, err)

	shorter := Spec{Name: "card-mod-root", Type: TypeCardMod, RawValue: "c { z: 3; }", Mode: structure.ModeAll}
	plan2, err := PlanEdit(tf2, shorter, false, testVersion, testNow)
	require.NoError(t, err)
	require.Equal(t, 1, plan2.Updated)

	got := plan2.Apply()
	joined := strings.Join(got, "\n")
	require.Contains(t, joined, `card-mod-root: "c { z: 3; }"`)
	require.NotContains(t, joined, "a { x: 1; }")
	require.NotContains(t, joined, "b { y: 2; }")
	// The old two-line body collapsed into a single declaration line.
	require.Len(t, got, len(first)-2)
}

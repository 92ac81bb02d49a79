package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	patcherrors "github.com/TilmanGriesel/graphite-theme-patcher/pkg/errors"
)

const sampleTheme = `# Graphite
graphite:
  token-rgb-primary: 229, 145, 9
  token-size-radius-large: 18px
`

func writeThemesDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "graphite.yaml"), []byte(sampleTheme), 0o644))
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootPatchesToken(t *testing.T) {
	dir := writeThemesDir(t)

	out, _, err := execute(t, "10,20,30", "--path", dir)
	require.NoError(t, err)
	require.Contains(t, out, "1 file(s) changed")

	data, err := os.ReadFile(filepath.Join(dir, "graphite.yaml"))
	require.NoError(t, err)
	require.Contains(t, string(data), "token-rgb-primary: 10, 20, 30  # Modified by Graphite Theme Patcher")
	require.Contains(t, string(data), "token-size-radius-large: 18px")
}

func TestRootValueFlagEquivalentToPositional(t *testing.T) {
	dir := writeThemesDir(t)

	_, _, err := execute(t, "--value", "24", "--token", "token-size-radius-large", "--type", "radius", "--path", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "graphite.yaml"))
	require.NoError(t, err)
	require.Contains(t, string(data), "token-size-radius-large: 24px")
}

func TestRootSkipMarker(t *testing.T) {
	dir := writeThemesDir(t)

	out, _, err := execute(t, "None", "--path", dir)
	require.NoError(t, err)
	require.Contains(t, out, "Skipping token-rgb-primary")

	data, err := os.ReadFile(filepath.Join(dir, "graphite.yaml"))
	require.NoError(t, err)
	require.Equal(t, sampleTheme, string(data))
}

func TestRootMissingValue(t *testing.T) {
	_, _, err := execute(t, "--path", writeThemesDir(t))

	var validateErr *patcherrors.ValidationError
	require.ErrorAs(t, err, &validateErr)
}

func TestRootUnknownType(t *testing.T) {
	_, _, err := execute(t, "blue", "--type", "gradient", "--path", writeThemesDir(t))

	var validateErr *patcherrors.ValidationError
	require.ErrorAs(t, err, &validateErr)
	require.Contains(t, validateErr.Message, "gradient")
}

func TestRootInvalidMode(t *testing.T) {
	_, _, err := execute(t, "1,2,3", "--mode", "dusk", "--path", writeThemesDir(t))
	require.Error(t, err)
}

func TestRootUnsupportedEncoding(t *testing.T) {
	_, _, err := execute(t, "1,2,3", "--encoding", "ebcdic", "--path", writeThemesDir(t))

	var validateErr *patcherrors.ValidationError
	require.ErrorAs(t, err, &validateErr)
	require.Contains(t, validateErr.Message, "ebcdic")
}

func TestRootLatin1Encoding(t *testing.T) {
	dir := t.TempDir()
	doc := "# Th\xe8me\ngraphite:\n  token-rgb-primary: 229, 145, 9\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "graphite.yaml"), []byte(doc), 0o644))

	_, _, err := execute(t, "10,20,30", "--encoding", "latin-1", "--path", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "graphite.yaml"))
	require.NoError(t, err)
	require.Contains(t, string(data), "# Th\xe8me")
	require.Contains(t, string(data), "token-rgb-primary: 10, 20, 30")
}

func TestRootVerboseDiff(t *testing.T) {
	dir := writeThemesDir(t)

	out, _, err := execute(t, "10,20,30", "--path", dir, "--verbose")
	require.NoError(t, err)
	require.Contains(t, out, "-  token-rgb-primary: 229, 145, 9")
	require.Contains(t, out, "+  token-rgb-primary: 10, 20, 30")
}

func TestRootRecipe(t *testing.T) {
	dir := writeThemesDir(t)
	recipePath := filepath.Join(t.TempDir(), "recipe.yaml")
	require.NoError(t, os.WriteFile(recipePath, []byte(`recipe:
  name: Test
  author: tester
  version: 1.0.0
  patcher_version: ">=2.0.0"
  variants: [graphite]
patches:
  - token: token-size-radius-large
    type: radius
    value: "30"
`), 0o644))

	out, _, err := execute(t, "--recipe", recipePath, "--path", dir)
	require.NoError(t, err)
	require.Contains(t, out, "Test applied")

	data, err := os.ReadFile(filepath.Join(dir, "graphite.yaml"))
	require.NoError(t, err)
	require.Contains(t, string(data), "token-size-radius-large: 30px")
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	require.Contains(t, out, "Graphite Theme Patcher 2.0.0")
	require.Contains(t, out, "Tilman Griesel")
	require.Contains(t, out, "Initial release")
}

func TestSortedReleasesNewestFirst(t *testing.T) {
	releases := sortedReleases()
	require.NotEmpty(t, releases)
	require.Equal(t, "2.0.0", releases[0])
	require.Equal(t, "1.0.0", releases[len(releases)-1])
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{patcherrors.NewSecurityError("path", "bad", nil), exitValidation},
		{patcherrors.NewValidationError("tok", "bad", nil), exitValidation},
		{patcherrors.NewStructureError("a.yaml", 3, "dup"), exitStructure},
		{patcherrors.NewTokenNotFoundError("tok", "a.yaml"), exitNotFound},
		{patcherrors.NewRecipeError("r.yaml", "bad", nil), exitRecipe},
		{patcherrors.NewBusyError("a.yaml", nil), exitBusy},
		{patcherrors.NewWriteError("a.yaml", nil), exitIO},
		{os.ErrPermission, exitValidation},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, exitCode(tt.err))
	}
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/TilmanGriesel/graphite-theme-patcher/internal/atomicfile"
	"github.com/TilmanGriesel/graphite-theme-patcher/internal/logger"
	"github.com/TilmanGriesel/graphite-theme-patcher/internal/recipe"
	"github.com/TilmanGriesel/graphite-theme-patcher/internal/structure"
	"github.com/TilmanGriesel/graphite-theme-patcher/internal/themepath"
	"github.com/TilmanGriesel/graphite-theme-patcher/internal/token"
	"github.com/TilmanGriesel/graphite-theme-patcher/internal/version"
	patcherrors "github.com/TilmanGriesel/graphite-theme-patcher/pkg/errors"
)

// skipMarker is accepted instead of a value; install scripts pass it for
// tokens they leave untouched.
const skipMarker = "none"

// defaultCardModToken receives card-mod payloads when no token is named.
const defaultCardModToken = "card-mod-root"

type rootFlags struct {
	value     string
	token     string
	tokenType string
	theme     string
	basePath  string
	mode      string
	create    bool
	recipe    string
	encoding  string
	logDir    string
	logLevel  string
	verbose   bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:     "themepatcher [value]",
		Short:   "Patch design tokens in Home Assistant theme files",
		Long:    "Graphite Theme Patcher edits token declarations in place, preserving every untouched byte of the theme file. Changes to multiple files are applied atomically with automatic rollback.",
		Version: version.Version,
		Args:    cobra.MaximumNArgs(1),
		// Errors carry typed exit codes; cobra's own reporting would
		// duplicate them on stderr.
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPatch(cmd, flags, args)
		},
	}

	cmd.Flags().StringVarP(&flags.value, "value", "V", "", "Token value to set (positional argument is equivalent)")
	cmd.Flags().StringVarP(&flags.token, "token", "t", "token-rgb-primary", "Token name to update")
	cmd.Flags().StringVarP(&flags.tokenType, "type", "T", "rgb", "Token type: rgb, size, opacity, radius, generic or card-mod")
	cmd.Flags().StringVarP(&flags.theme, "theme", "m", "graphite", "Theme name (directory of YAML files or a single <name>.yaml)")
	cmd.Flags().StringVarP(&flags.basePath, "path", "p", "", "Themes directory (default: auto-detect the Home Assistant config)")
	cmd.Flags().StringVarP(&flags.mode, "mode", "M", "all", "Restrict dual-mode edits to light or dark")
	cmd.Flags().BoolVarP(&flags.create, "create", "c", false, "Create the token in the user-defined block when absent")
	cmd.Flags().StringVarP(&flags.recipe, "recipe", "r", "", "Apply a recipe file or URL instead of a single token")
	cmd.Flags().StringVar(&flags.encoding, "encoding", "", "Theme file encoding: utf-8 (default), latin-1, windows-1252, utf-16le or utf-16be")
	cmd.Flags().StringVar(&flags.logDir, "log-dir", "", "Directory for the audit log (default: <themes>/logs)")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Print unified diffs of every changed file")

	cmd.AddCommand(newVersionCmd())

	return cmd
}

func runPatch(cmd *cobra.Command, flags *rootFlags, args []string) error {
	value := flags.value
	if value == "" && len(args) == 1 {
		value = args[0]
	}

	if flags.recipe == "" {
		if strings.EqualFold(strings.TrimSpace(value), skipMarker) {
			fmt.Fprintf(cmd.OutOrStdout(), "Skipping %s (value is %q)\n", flags.token, skipMarker)
			return nil
		}
		if value == "" {
			return patcherrors.NewValidationError(flags.token, "a value is required unless --recipe is given", nil)
		}
	}

	mode, ok := structure.ParseMode(flags.mode)
	if !ok {
		return patcherrors.NewValidationError(flags.token, fmt.Sprintf("invalid mode %q (expected light, dark or all)", flags.mode), nil)
	}

	if err := atomicfile.ValidateEncoding(flags.encoding); err != nil {
		return err
	}

	paths, err := themepath.Resolve(flags.basePath, flags.logDir, themepath.DefaultProbes())
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Options{
		Level:         flags.logLevel,
		HumanReadable: true,
		Writer:        cmd.ErrOrStderr(),
		LogDir:        paths.LogDir,
	})
	if err != nil {
		return patcherrors.NewWriteError(paths.LogDir, err)
	}
	defer func() { _ = log.Close() }()

	engine := recipe.New(log, paths, version.Version, flags.encoding)
	ctx := cmd.Context()

	if flags.recipe != "" {
		r, err := recipe.Load(ctx, flags.recipe)
		if err != nil {
			return err
		}

		themeOverride := ""
		if cmd.Flags().Changed("theme") {
			themeOverride = flags.theme
		}

		report, err := engine.ApplyRecipe(ctx, flags.recipe, r, themeOverride, mode)
		if err != nil {
			return err
		}
		printReport(cmd.OutOrStdout(), r.Metadata.Name, report, flags.verbose, isTerminal(cmd))
		return nil
	}

	typ, ok := token.ParseType(flags.tokenType)
	if !ok {
		return patcherrors.NewValidationError(flags.token, fmt.Sprintf("unknown token type %q", flags.tokenType), nil)
	}

	name := flags.token
	if typ == token.TypeCardMod && !cmd.Flags().Changed("token") {
		name = defaultCardModToken
	}

	spec := token.Spec{Name: name, Type: typ, RawValue: value, Mode: mode}
	create := flags.create || typ.Creatable()

	report, err := engine.ApplySingle(ctx, spec, flags.theme, create)
	if err != nil {
		return err
	}
	printReport(cmd.OutOrStdout(), name, report, flags.verbose, isTerminal(cmd))
	return nil
}

func isTerminal(cmd *cobra.Command) bool {
	type fdWriter interface{ Fd() uintptr }
	if f, ok := cmd.OutOrStdout().(fdWriter); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

package recipe

import (
	"context"
	"time"

	"github.com/TilmanGriesel/graphite-theme-patcher/internal/atomicfile"
	"github.com/TilmanGriesel/graphite-theme-patcher/internal/logger"
	"github.com/TilmanGriesel/graphite-theme-patcher/internal/structure"
	"github.com/TilmanGriesel/graphite-theme-patcher/internal/themepath"
	"github.com/TilmanGriesel/graphite-theme-patcher/internal/token"
)

// Engine drives token edits across theme files and commits them through the
// atomic batch writer. It is synchronous: one invocation runs one batch to
// completion.
type Engine struct {
	log      *logger.Logger
	paths    themepath.ResolvedPaths
	version  string
	encoding string
	now      func() time.Time
}

// New creates an Engine rooted at the given resolved paths. An empty
// encoding reads and writes theme files as UTF-8.
func New(log *logger.Logger, paths themepath.ResolvedPaths, version, encoding string) *Engine {
	return &Engine{log: log, paths: paths, version: version, encoding: encoding, now: time.Now}
}

// ApplySingle applies one token change to every file of a theme as one
// atomic batch.
func (e *Engine) ApplySingle(ctx context.Context, spec token.Spec, theme string, create bool) (*atomicfile.Report, error) {
	files, err := e.paths.ThemeFiles(theme)
	if err != nil {
		return nil, err
	}

	edits := make([]atomicfile.FileEdit, 0, len(files))
	for _, file := range files {
		edit, err := e.planFile(file, []plannedPatch{{spec: spec, create: create}})
		if err != nil {
			return nil, err
		}
		edits = append(edits, edit)
	}

	return atomicfile.ApplyBatch(ctx, e.log, edits)
}

// ApplyRecipe expands a recipe into edit plans for every (variant x matching
// patch) pair and commits them as a single batch; a partial recipe
// application is never left in place. A non-empty themeOverride replaces the
// recipe's variant list entirely.
func (e *Engine) ApplyRecipe(ctx context.Context, source string, r *Recipe, themeOverride string, target structure.Mode) (*atomicfile.Report, error) {
	if err := CheckCompatibility(source, r, e.version); err != nil {
		return nil, err
	}

	variants := r.Metadata.Variants
	if themeOverride != "" {
		variants = []string{themeOverride}
	}

	patches := e.selectPatches(r, target)
	if len(patches) == 0 {
		e.log.Warn("no recipe patches match target mode " + string(target))
		return &atomicfile.Report{}, nil
	}

	var edits []atomicfile.FileEdit
	for _, variant := range variants {
		files, err := e.paths.ThemeFiles(variant)
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			edit, err := e.planFile(file, patches)
			if err != nil {
				return nil, err
			}
			edits = append(edits, edit)
		}
	}

	e.log.WithFields(map[string]any{
		"recipe":   r.Metadata.Name,
		"variants": variants,
		"patches":  len(patches),
		"files":    len(edits),
	}).Info("recipe expanded")

	return atomicfile.ApplyBatch(ctx, e.log, edits)
}

type plannedPatch struct {
	spec   token.Spec
	create bool
}

// selectPatches filters recipe patches by target mode and narrows each
// surviving patch to the intersection of its own mode and the target.
// Patches declared for the opposite mode are skipped, not erred.
func (e *Engine) selectPatches(r *Recipe, target structure.Mode) []plannedPatch {
	var out []plannedPatch
	for _, p := range r.Patches {
		mode := r.EffectiveMode(p)
		if target != structure.ModeAll && mode != structure.ModeAll && mode != target {
			e.log.WithFields(map[string]any{"token": p.Token, "patch_mode": string(mode)}).Debug("patch skipped by mode filter")
			continue
		}
		if mode == structure.ModeAll {
			mode = target
		}

		typ, _ := token.ParseType(p.Type)
		out = append(out, plannedPatch{
			spec:   token.Spec{Name: p.Token, Type: typ, RawValue: p.Value, Mode: mode},
			create: p.Create,
		})
	}
	return out
}

// planFile loads one theme file and folds every patch's edit plan into a
// final line set, re-analyzing structure between patches so later plans see
// shifted section boundaries.
func (e *Engine) planFile(path string, patches []plannedPatch) (atomicfile.FileEdit, error) {
	original, err := atomicfile.ReadThemeFile(path, e.encoding)
	if err != nil {
		return atomicfile.FileEdit{}, err
	}
	for _, warning := range original.Warnings {
		e.log.WithFields(map[string]any{"file": path}).Warn(warning)
	}

	working := original
	for _, p := range patches {
		plan, err := token.PlanEdit(working, p.spec, p.create, e.version, e.now())
		if err != nil {
			return atomicfile.FileEdit{}, err
		}

		e.log.WithFields(map[string]any{
			"file":    path,
			"token":   p.spec.Name,
			"type":    string(p.spec.Type),
			"mode":    string(p.spec.Mode),
			"updated": plan.Updated,
			"created": plan.Created,
		}).Debug("edit planned")

		if !plan.Changed() {
			continue
		}

		next, err := structure.Analyze(path, plan.Apply(), working.TrailingNewline)
		if err != nil {
			return atomicfile.FileEdit{}, err
		}
		next.Permissions = original.Permissions
		next.Encoding = original.Encoding
		working = next
	}

	return atomicfile.FileEdit{File: original, NewLines: working.Lines}, nil
}

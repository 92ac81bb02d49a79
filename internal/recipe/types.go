// Package recipe loads, validates, and executes batch-change documents: a
// versioned list of token patches applied across one or more theme variants
// as a single atomic batch.
package recipe

import (
	"github.com/TilmanGriesel/graphite-theme-patcher/internal/structure"
)

// Metadata identifies a recipe and declares what it may be applied to.
type Metadata struct {
	Name           string   `yaml:"name" validate:"required,min=1,max=100"`
	Author         string   `yaml:"author" validate:"required"`
	Version        string   `yaml:"version" validate:"required,semver"`
	PatcherVersion string   `yaml:"patcher_version" validate:"required,semver_range"`
	Variants       []string `yaml:"variants" validate:"required,min=1,dive,required"`
	Mode           string   `yaml:"mode,omitempty" validate:"omitempty,oneof=light dark all"`
	Description    string   `yaml:"description,omitempty"`
}

// Patch is one token-change instruction. Mode, when set, overrides the
// recipe-level mode for this patch alone.
type Patch struct {
	Token       string `yaml:"token" validate:"required,token_name"`
	Type        string `yaml:"type" validate:"required,token_type"`
	Value       string `yaml:"value" validate:"required"`
	Mode        string `yaml:"mode,omitempty" validate:"omitempty,oneof=light dark all"`
	Create      bool   `yaml:"create,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// Recipe is the full batch-change document.
type Recipe struct {
	Metadata Metadata `yaml:"recipe" validate:"required"`
	Patches  []Patch  `yaml:"patches" validate:"required,min=1,dive"`
}

// EffectiveMode resolves the mode a patch targets: its own mode when set,
// else the recipe-level mode, else all.
func (r *Recipe) EffectiveMode(p Patch) structure.Mode {
	raw := p.Mode
	if raw == "" {
		raw = r.Metadata.Mode
	}
	mode, ok := structure.ParseMode(raw)
	if !ok {
		return structure.ModeAll
	}
	return mode
}

// Package token plans edits to token declarations: locating a declaration
// inside an analyzed theme file, validating and formatting the new value for
// the token's declared type, and computing the exact line-level changes to
// apply.
package token

import (
	"strings"

	"github.com/TilmanGriesel/graphite-theme-patcher/internal/structure"
)

// Type determines how a token's value is validated and formatted. The set is
// closed; each type carries its own validate+format pair in format.go.
type Type string

const (
	TypeRGB     Type = "rgb"
	TypeSize    Type = "size"
	TypeOpacity Type = "opacity"
	TypeRadius  Type = "radius"
	TypeGeneric Type = "generic"
	TypeCardMod Type = "card-mod"
)

// ParseType maps a flag or recipe string to a Type.
func ParseType(s string) (Type, bool) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := formatters[t]; ok {
		return t, true
	}
	return "", false
}

// Creatable reports whether a missing declaration of this type may be created
// without an explicit create request. Card-mod tokens commonly do not
// pre-exist in stock theme files, so they are always creatable.
func (t Type) Creatable() bool {
	return t == TypeCardMod
}

// Spec is one requested token change.
type Spec struct {
	Name     string
	Type     Type
	RawValue string
	Mode     structure.Mode
}

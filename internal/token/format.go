package token

import (
	"fmt"
	"strconv"
	"strings"

	patcherrors "github.com/TilmanGriesel/graphite-theme-patcher/pkg/errors"
)

type formatter func(name, raw string) (string, error)

var formatters = map[Type]formatter{
	TypeRGB:     formatRGB,
	TypeSize:    pixelFormatter("size"),
	TypeRadius:  pixelFormatter("radius"),
	TypeOpacity: formatOpacity,
	TypeGeneric: formatGeneric,
	TypeCardMod: formatCardMod,
}

// Normalize validates raw against the type's rules and returns the value as
// it should appear in the theme file. Card-mod values containing newlines are
// returned unquoted; the editor emits them as a block scalar.
func (t Type) Normalize(name, raw string) (string, error) {
	f, ok := formatters[t]
	if !ok {
		return "", patcherrors.NewValidationError(name, fmt.Sprintf("unknown token type %q", string(t)), nil)
	}
	return f(name, raw)
}

func formatGeneric(_, raw string) (string, error) {
	return raw, nil
}

func formatCardMod(_, raw string) (string, error) {
	v := strings.Trim(strings.TrimSpace(raw), `"'`)
	if strings.Contains(v, "\n") {
		return v, nil
	}
	return `"` + v + `"`, nil
}

func pixelFormatter(kind string) formatter {
	return func(name, raw string) (string, error) {
		v := strings.Trim(strings.TrimSpace(raw), `"'`)
		n, err := strconv.Atoi(v)
		if err != nil {
			return "", patcherrors.NewValidationError(name, fmt.Sprintf("%s must be an integer, got %q", kind, raw), err)
		}
		if n < 0 {
			return "", patcherrors.NewValidationError(name, fmt.Sprintf("%s must be positive, got %d", kind, n), nil)
		}
		return fmt.Sprintf("%dpx", n), nil
	}
}

func formatOpacity(name, raw string) (string, error) {
	v := strings.Trim(strings.TrimSpace(raw), `"'`)

	var (
		value float64
		err   error
	)
	if strings.HasSuffix(v, "%") {
		value, err = strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64)
		value /= 100
	} else {
		value, err = strconv.ParseFloat(v, 64)
	}
	if err != nil {
		return "", patcherrors.NewValidationError(name, fmt.Sprintf("opacity must be a number or percentage, got %q", raw), err)
	}
	if value < 0 || value > 1 {
		return "", patcherrors.NewValidationError(name, fmt.Sprintf("opacity must be between 0 and 1, got %v", value), nil)
	}
	return strconv.FormatFloat(value, 'g', -1, 64), nil
}

func formatRGB(name, raw string) (string, error) {
	v := strings.Trim(strings.TrimSpace(raw), `"'`)
	parts := strings.Split(v, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return "", patcherrors.NewValidationError(name, "color must have 3 (RGB) or 4 (RGBA) components", nil)
	}

	rgb := make([]int, 3)
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return "", patcherrors.NewValidationError(name, fmt.Sprintf("invalid color component %q", strings.TrimSpace(parts[i])), err)
		}
		if n < 0 || n > 255 {
			return "", patcherrors.NewValidationError(name, fmt.Sprintf("RGB values must be between 0 and 255, got %d", n), nil)
		}
		rgb[i] = n
	}

	hasAlpha := len(parts) == 4
	var alpha float64
	if hasAlpha {
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil {
			return "", patcherrors.NewValidationError(name, fmt.Sprintf("invalid alpha component %q", strings.TrimSpace(parts[3])), err)
		}
		if a < 0 || a > 1 {
			return "", patcherrors.NewValidationError(name, fmt.Sprintf("alpha must be between 0 and 1, got %v", a), nil)
		}
		alpha = a
	}

	// Tokens carrying "rgb" in their name hold the bare channel triple that
	// other tokens interpolate; everything else gets the CSS function form.
	if strings.Contains(strings.ToLower(name), "rgb") {
		if hasAlpha {
			return "", patcherrors.NewValidationError(name, "RGB channel tokens cannot carry an alpha component", nil)
		}
		return fmt.Sprintf("%d, %d, %d", rgb[0], rgb[1], rgb[2]), nil
	}
	if hasAlpha {
		return fmt.Sprintf("rgba(%d, %d, %d, %s)", rgb[0], rgb[1], rgb[2], strconv.FormatFloat(alpha, 'g', -1, 64)), nil
	}
	return fmt.Sprintf("rgb(%d, %d, %d)", rgb[0], rgb[1], rgb[2]), nil
}

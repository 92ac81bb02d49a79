package recipe

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"

	"github.com/TilmanGriesel/graphite-theme-patcher/internal/security"
	"github.com/TilmanGriesel/graphite-theme-patcher/internal/token"
	patcherrors "github.com/TilmanGriesel/graphite-theme-patcher/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
			_, err := semver.NewVersion(fl.Field().String())
			return err == nil
		})

		_ = v.RegisterValidation("semver_range", func(fl validator.FieldLevel) bool {
			_, err := semver.NewConstraint(fl.Field().String())
			return err == nil
		})

		_ = v.RegisterValidation("token_name", func(fl validator.FieldLevel) bool {
			return security.ValidateTokenName(fl.Field().String()) == nil
		})

		_ = v.RegisterValidation("token_type", func(fl validator.FieldLevel) bool {
			_, ok := token.ParseType(fl.Field().String())
			return ok
		})

		validateInst = v
	})

	return validateInst
}

// Validate performs schema validation on a loaded recipe document.
func Validate(source string, r *Recipe) error {
	if r == nil {
		return patcherrors.NewRecipeError(source, "recipe document is empty", nil)
	}

	v := validatorInstance()
	if err := v.Struct(r); err != nil {
		return convertValidationError(source, err)
	}
	return nil
}

func convertValidationError(source string, err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return patcherrors.NewRecipeError(source, err.Error(), err)
	}

	first := fieldErrs[0]
	field := strings.TrimPrefix(first.Namespace(), "Recipe.")
	msg := fmt.Sprintf("field %s failed %q validation", field, first.Tag())
	return patcherrors.NewRecipeError(source, msg, err)
}

// CheckCompatibility validates the recipe's patcher version requirement
// against the running engine version, failing closed before any patch is
// attempted.
func CheckCompatibility(source string, r *Recipe, engineVersion string) error {
	constraint, err := semver.NewConstraint(r.Metadata.PatcherVersion)
	if err != nil {
		return patcherrors.NewRecipeError(source, fmt.Sprintf("invalid patcher_version requirement %q", r.Metadata.PatcherVersion), err)
	}

	running, err := semver.NewVersion(engineVersion)
	if err != nil {
		return patcherrors.NewRecipeError(source, fmt.Sprintf("invalid engine version %q", engineVersion), err)
	}

	if !constraint.Check(running) {
		return patcherrors.NewRecipeError(source,
			fmt.Sprintf("recipe %q requires patcher %s but %s is running", r.Metadata.Name, r.Metadata.PatcherVersion, engineVersion), nil)
	}
	return nil
}

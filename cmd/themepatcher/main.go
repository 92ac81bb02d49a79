package main

import (
	"errors"
	"fmt"
	"os"

	patcherrors "github.com/TilmanGriesel/graphite-theme-patcher/pkg/errors"
)

// Exit codes distinguish failure classes for scripted callers.
const (
	exitOK         = 0
	exitValidation = 1
	exitStructure  = 2
	exitNotFound   = 3
	exitRecipe     = 4
	exitBusy       = 5
	exitIO         = 6
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	return exitOK
}

func exitCode(err error) int {
	var (
		securityErr  *patcherrors.SecurityError
		validateErr  *patcherrors.ValidationError
		structureErr *patcherrors.StructureError
		notFoundErr  *patcherrors.TokenNotFoundError
		recipeErr    *patcherrors.RecipeError
		busyErr      *patcherrors.BusyError
		writeErr     *patcherrors.WriteError
	)

	switch {
	case errors.As(err, &securityErr), errors.As(err, &validateErr):
		return exitValidation
	case errors.As(err, &structureErr):
		return exitStructure
	case errors.As(err, &notFoundErr):
		return exitNotFound
	case errors.As(err, &recipeErr):
		return exitRecipe
	case errors.As(err, &busyErr):
		return exitBusy
	case errors.As(err, &writeErr):
		return exitIO
	default:
		return exitValidation
	}
}

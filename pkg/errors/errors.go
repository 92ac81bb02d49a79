package errors

import (
	"fmt"
)

// SecurityError reports input that failed a security policy check: a bad
// token name, a path escaping the themes directory, or a resource limit
// violation. Security errors always abort the operation before any file is
// touched.
type SecurityError struct {
	Field   string
	Message string
	Err     error
}

// NewSecurityError constructs a SecurityError.
func NewSecurityError(field, message string, err error) error {
	return &SecurityError{Field: field, Message: message, Err: err}
}

func (e *SecurityError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("security violation: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("security violation: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *SecurityError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError reports a token value that does not satisfy its declared
// type. It names the offending token and never touches disk.
type ValidationError struct {
	Token   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(token, message string, err error) error {
	return &ValidationError{Token: token, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Token != "" {
		return fmt.Sprintf("validation error: token %q: %s", e.Token, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// StructureError reports a theme file that does not parse into a known shape,
// with optional line metadata.
type StructureError struct {
	Path    string
	Line    int
	Message string
}

// NewStructureError constructs a StructureError. Line is 1-based; pass 0 when
// no single line is at fault.
func NewStructureError(path string, line int, message string) error {
	return &StructureError{Path: path, Line: line, Message: message}
}

func (e *StructureError) Error() string {
	if e == nil {
		return ""
	}
	if e.Line > 0 {
		return fmt.Sprintf("structure error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("structure error: %s: %s", e.Path, e.Message)
}

// TokenNotFoundError reports a token that has no declaration in the target
// file and was not permitted to be created.
type TokenNotFoundError struct {
	Token string
	Path  string
}

// NewTokenNotFoundError constructs a TokenNotFoundError.
func NewTokenNotFoundError(token, path string) error {
	return &TokenNotFoundError{Token: token, Path: path}
}

func (e *TokenNotFoundError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("token %q not found in %s (use --create to add it)", e.Token, e.Path)
}

// RecipeError reports a recipe document that failed to load or validate:
// missing metadata, malformed patches, or an incompatible version
// requirement. Recipe errors are raised before any file is touched.
type RecipeError struct {
	Source  string
	Message string
	Err     error
}

// NewRecipeError constructs a RecipeError for the given source path or URL.
func NewRecipeError(source, message string, err error) error {
	return &RecipeError{Source: source, Message: message, Err: err}
}

func (e *RecipeError) Error() string {
	if e == nil {
		return ""
	}
	if e.Source != "" {
		return fmt.Sprintf("recipe error: %s: %s", e.Source, e.Message)
	}
	return fmt.Sprintf("recipe error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *RecipeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BusyError reports lock contention on a target file. The operation did not
// proceed and is safe to retry.
type BusyError struct {
	Path string
	Err  error
}

// NewBusyError constructs a BusyError.
func NewBusyError(path string, err error) error {
	return &BusyError{Path: path, Err: err}
}

func (e *BusyError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("resource busy: %s is locked by another patcher invocation", e.Path)
}

// Unwrap exposes the underlying error.
func (e *BusyError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WriteError reports a disk failure during backup, write, or rollback. When a
// WriteError surfaces from a batch, every file already modified has been
// restored from its backup.
type WriteError struct {
	Path string
	Err  error
}

// NewWriteError constructs a WriteError.
func NewWriteError(path string, err error) error {
	return &WriteError{Path: path, Err: err}
}

func (e *WriteError) Error() string {
	if e == nil {
		return ""
	}
	if e.Path != "" {
		return fmt.Sprintf("write error on %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("write error: %v", e.Err)
}

// Unwrap exposes the root error.
func (e *WriteError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"
	"time"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/dynamic-secrets/internal/errors"
)

var (
	// slugRegex matches lowercase alphanumerics separated by single hyphens.
	slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

	// nameRegex matches definition names: letters, digits, hyphens, underscores.
	nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// Slug validates project and environment slugs.
func Slug(value any) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_slug", "must be a string")
	}
	if s == "" {
		return nil
	}
	if !slugRegex.MatchString(s) {
		return validation.NewError("validation_slug", "must be a lowercase slug")
	}
	return nil
}

// DefinitionName validates dynamic secret definition names.
func DefinitionName(value any) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_name", "must be a string")
	}
	if s == "" {
		return nil
	}
	if !nameRegex.MatchString(s) {
		return validation.NewError("validation_name", "must contain only letters, digits, hyphens and underscores")
	}
	return nil
}

// SecretPath validates folder secret paths: absolute, no trailing slash
// except the root itself.
func SecretPath(value any) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_secret_path", "must be a string")
	}
	if s == "" {
		return nil
	}
	if !strings.HasPrefix(s, "/") {
		return validation.NewError("validation_secret_path", "must start with /")
	}
	if s != "/" && strings.HasSuffix(s, "/") {
		return validation.NewError("validation_secret_path", "must not end with /")
	}
	return nil
}

// TTL validates lease TTL strings as Go durations.
func TTL(value any) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_ttl", "must be a string")
	}
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return validation.NewError("validation_ttl", "must be a duration such as 30m or 1h")
	}
	if d <= 0 {
		return validation.NewError("validation_ttl", "must be a positive duration")
	}
	return nil
}

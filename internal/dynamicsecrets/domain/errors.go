package domain

import (
	"github.com/allisson/dynamic-secrets/internal/errors"
)

var (
	// ErrDynamicSecretNotFound indicates no definition exists for the selector.
	ErrDynamicSecretNotFound = errors.Wrap(errors.ErrNotFound, "dynamic secret not found")

	// ErrNameAlreadyExists indicates the folder already has a definition with the name.
	ErrNameAlreadyExists = errors.Wrap(errors.ErrConflict, "dynamic secret with this name already exists in folder")

	// ErrDefinitionDeleting indicates the definition is marked deleting and
	// can no longer be updated.
	ErrDefinitionDeleting = errors.Wrap(errors.ErrConflict, "dynamic secret is being deleted")

	// ErrPlanRestriction indicates the organization's plan does not include
	// dynamic secrets. Distinct from a permission denial.
	ErrPlanRestriction = errors.Wrap(errors.ErrInvalidInput, "organization plan does not allow dynamic secrets")

	// ErrProviderConnection indicates the provider could not reach or
	// authenticate against the target system. Timeouts surface the same way.
	ErrProviderConnection = errors.Wrap(errors.ErrInvalidInput, "provider connection check failed")

	// ErrUnsupportedProvider indicates an unknown provider type tag.
	ErrUnsupportedProvider = errors.Wrap(errors.ErrInvalidInput, "unsupported dynamic secret provider")
)

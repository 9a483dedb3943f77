package domain

import (
	"github.com/allisson/dynamic-secrets/internal/errors"
)

var (
	// ErrProjectNotFound indicates the project does not exist.
	ErrProjectNotFound = errors.Wrap(errors.ErrNotFound, "project not found")

	// ErrFolderNotFound indicates no folder exists at the environment and path.
	ErrFolderNotFound = errors.Wrap(errors.ErrNotFound, "folder not found")

	// ErrGatewayNotFound indicates the gateway does not exist in the organization.
	ErrGatewayNotFound = errors.Wrap(errors.ErrNotFound, "gateway not found")
)

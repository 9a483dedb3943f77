// Package domain holds the dynamic secret definition model.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ResourceMetadata is one key/value tag attached to a definition. Tags are
// replaced wholesale on update, never edited in place.
type ResourceMetadata struct {
	ID    uuid.UUID `json:"id"`
	Key   string    `json:"key"`
	Value string    `json:"value"`
}

// DynamicSecret is a provider-backed definition from which leases are minted.
// Name is unique within its folder. The provider inputs are persisted only as
// an encrypted blob; plaintext exists in memory for the duration of a single
// operation.
type DynamicSecret struct {
	ID             uuid.UUID
	Name           string
	Version        int
	Type           ProviderType
	DefaultTTL     string
	MaxTTL         string
	EncryptedInput string
	FolderID       uuid.UUID
	Status         *Status
	StatusDetails  *string
	GatewayID      *uuid.UUID
	Metadata       []ResourceMetadata
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Environment and SecretPath are annotations set by multi-env listings;
	// they are not persisted on the row.
	Environment string
	SecretPath  string
}

// IsDeleting reports whether the definition is marked for background pruning.
func (d *DynamicSecret) IsDeleting() bool {
	return d.Status != nil && *d.Status == StatusDeleting
}

// ListFilter selects and paginates definitions across one or more folders.
type ListFilter struct {
	FolderIDs      []uuid.UUID
	Search         string
	Limit          int
	Offset         int
	OrderBy        OrderBy
	OrderDirection OrderDirection
}

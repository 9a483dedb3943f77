// Package usecase implements the dynamic secret lifecycle engine. It
// orchestrates authorization, plan entitlement, provider validation,
// encryption and safe deletion ordering over the persistence layer.
package usecase

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/allisson/dynamic-secrets/internal/authz"
	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/domain"
	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/provider"
	leasesDomain "github.com/allisson/dynamic-secrets/internal/leases/domain"
	projectsDomain "github.com/allisson/dynamic-secrets/internal/projects/domain"
)

// ProjectRepository resolves projects.
type ProjectRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*projectsDomain.Project, error)
	FindBySlug(ctx context.Context, orgID uuid.UUID, slug string) (*projectsDomain.Project, error)
}

// FolderRepository resolves folders by secret path.
type FolderRepository interface {
	FindBySecretPath(ctx context.Context, projectID uuid.UUID, environment, path string) (*projectsDomain.Folder, error)
	FindBySecretPathMultiEnv(ctx context.Context, projectID uuid.UUID, environments []string, path string) ([]projectsDomain.Folder, error)
}

// GatewayRepository resolves gateways pinned by provider inputs.
type GatewayRepository interface {
	FindByIDAndOrg(ctx context.Context, id uuid.UUID, orgID uuid.UUID) (*projectsDomain.Gateway, error)
}

// DynamicSecretRepository persists definitions.
type DynamicSecretRepository interface {
	Create(ctx context.Context, ds *domain.DynamicSecret) error
	Update(ctx context.Context, ds *domain.DynamicSecret) error
	DeleteByID(ctx context.Context, id uuid.UUID) error
	FindByNameAndFolder(ctx context.Context, name string, folderID uuid.UUID) (*domain.DynamicSecret, error)
	FindOneWithMetadata(ctx context.Context, name string, folderID uuid.UUID) (*domain.DynamicSecret, error)
	FindWithMetadata(ctx context.Context, filter domain.ListFilter) ([]domain.DynamicSecret, error)
	ListByFolderIDs(ctx context.Context, filter domain.ListFilter) ([]domain.DynamicSecret, error)
	CountByFolderIDs(ctx context.Context, filter domain.ListFilter) (int64, error)
	CountDistinctByFolderIDs(ctx context.Context, filter domain.ListFilter) (int64, error)
}

// ResourceMetadataRepository persists metadata tags.
type ResourceMetadataRepository interface {
	InsertMany(ctx context.Context, orgID uuid.UUID, dynamicSecretID uuid.UUID, tags []domain.ResourceMetadata) error
	DeleteByDynamicSecretID(ctx context.Context, dynamicSecretID uuid.UUID) error
}

// LeaseRepository reads the leases of a definition.
type LeaseRepository interface {
	FindByDynamicSecretID(ctx context.Context, dynamicSecretID uuid.UUID) ([]leasesDomain.Lease, error)
}

// RevocationQueue schedules background pruning and cancels queued lease
// revocations. The engine treats "job enqueued" as success; eventual job
// outcomes are outside its error surface.
type RevocationQueue interface {
	SchedulePrune(ctx context.Context, dynamicSecretID uuid.UUID) error
	CancelRevocation(ctx context.Context, leaseID uuid.UUID) error
}

// ProviderRegistry resolves providers by type tag.
type ProviderRegistry interface {
	Get(providerType domain.ProviderType) (provider.Provider, error)
}

// EntraIDUserLister lists Azure Entra ID directory users.
type EntraIDUserLister interface {
	FetchUsers(ctx context.Context, validated json.RawMessage) ([]provider.EntraIDUser, error)
}

// Selector addresses a definition. Exactly one of ProjectID or ProjectSlug
// must be set.
type Selector struct {
	ProjectID   *uuid.UUID
	ProjectSlug string
	Environment string
	SecretPath  string
	Name        string
}

// CreateInput is the draft of a new definition.
type CreateInput struct {
	Selector
	Type       domain.ProviderType
	DefaultTTL string
	MaxTTL     string
	Inputs     json.RawMessage
	Metadata   []domain.ResourceMetadata
}

// UpdateInput carries the partial fields of an update. Nil pointers leave the
// field unchanged; nil Metadata keeps the existing tags, non-nil replaces
// them wholesale. Inputs are shallow-merged over the decrypted existing ones.
type UpdateInput struct {
	NewName    *string
	DefaultTTL *string
	MaxTTL     *string
	Inputs     json.RawMessage
	Metadata   []domain.ResourceMetadata
}

// ListQuery selects definitions for list and count operations.
type ListQuery struct {
	ProjectID      *uuid.UUID
	ProjectSlug    string
	Environment    string
	Environments   []string
	SecretPath     string
	Search         string
	Limit          int
	Offset         int
	OrderBy        domain.OrderBy
	OrderDirection domain.OrderDirection
}

// FolderMapping is one (folder, environment, path) triple supplied by the
// caller to list across precomputed folders.
type FolderMapping struct {
	FolderID    uuid.UUID
	Environment string
	SecretPath  string
}

// Details is a definition together with its decrypted, provider-normalized
// inputs. The plaintext inputs exist only in this in-memory projection.
type Details struct {
	DynamicSecret domain.DynamicSecret
	Inputs        json.RawMessage
}

// DynamicSecretUseCase is the lifecycle engine surface exposed to transport.
type DynamicSecretUseCase interface {
	Create(ctx context.Context, actor authz.Actor, input CreateInput) (*domain.DynamicSecret, error)
	UpdateByName(ctx context.Context, actor authz.Actor, selector Selector, input UpdateInput) (*domain.DynamicSecret, error)
	DeleteByName(ctx context.Context, actor authz.Actor, selector Selector, force bool) (*domain.DynamicSecret, error)
	GetDetails(ctx context.Context, actor authz.Actor, selector Selector) (*Details, error)
	ListByEnv(ctx context.Context, actor authz.Actor, query ListQuery) ([]domain.DynamicSecret, error)
	ListByEnvs(ctx context.Context, actor authz.Actor, query ListQuery) ([]domain.DynamicSecret, error)
	ListByFolderMappings(ctx context.Context, actor authz.Actor, projectID uuid.UUID, mappings []FolderMapping, query ListQuery) ([]domain.DynamicSecret, error)
	CountByEnv(ctx context.Context, actor authz.Actor, query ListQuery) (int64, error)
	CountByEnvs(ctx context.Context, actor authz.Actor, query ListQuery) (int64, error)
	FetchAzureEntraIDUsers(ctx context.Context, inputs json.RawMessage) ([]provider.EntraIDUser, error)
}

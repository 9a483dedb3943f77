// Package mocks provides mock implementations of the lifecycle engine's
// collaborators for testing.
package mocks

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/dynamic-secrets/internal/authz"
	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/domain"
	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/provider"
	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/usecase"
	leasesDomain "github.com/allisson/dynamic-secrets/internal/leases/domain"
	projectsDomain "github.com/allisson/dynamic-secrets/internal/projects/domain"
)

// MockProjectRepository is a mock implementation of ProjectRepository.
type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*projectsDomain.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*projectsDomain.Project), args.Error(1)
}

func (m *MockProjectRepository) FindBySlug(ctx context.Context, orgID uuid.UUID, slug string) (*projectsDomain.Project, error) {
	args := m.Called(ctx, orgID, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*projectsDomain.Project), args.Error(1)
}

// MockFolderRepository is a mock implementation of FolderRepository.
type MockFolderRepository struct {
	mock.Mock
}

func (m *MockFolderRepository) FindBySecretPath(ctx context.Context, projectID uuid.UUID, environment, path string) (*projectsDomain.Folder, error) {
	args := m.Called(ctx, projectID, environment, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*projectsDomain.Folder), args.Error(1)
}

func (m *MockFolderRepository) FindBySecretPathMultiEnv(ctx context.Context, projectID uuid.UUID, environments []string, path string) ([]projectsDomain.Folder, error) {
	args := m.Called(ctx, projectID, environments, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]projectsDomain.Folder), args.Error(1)
}

// MockGatewayRepository is a mock implementation of GatewayRepository.
type MockGatewayRepository struct {
	mock.Mock
}

func (m *MockGatewayRepository) FindByIDAndOrg(ctx context.Context, id uuid.UUID, orgID uuid.UUID) (*projectsDomain.Gateway, error) {
	args := m.Called(ctx, id, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*projectsDomain.Gateway), args.Error(1)
}

// MockDynamicSecretRepository is a mock implementation of DynamicSecretRepository.
type MockDynamicSecretRepository struct {
	mock.Mock
}

func (m *MockDynamicSecretRepository) Create(ctx context.Context, ds *domain.DynamicSecret) error {
	args := m.Called(ctx, ds)
	return args.Error(0)
}

func (m *MockDynamicSecretRepository) Update(ctx context.Context, ds *domain.DynamicSecret) error {
	args := m.Called(ctx, ds)
	return args.Error(0)
}

func (m *MockDynamicSecretRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDynamicSecretRepository) FindByNameAndFolder(ctx context.Context, name string, folderID uuid.UUID) (*domain.DynamicSecret, error) {
	args := m.Called(ctx, name, folderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DynamicSecret), args.Error(1)
}

func (m *MockDynamicSecretRepository) FindOneWithMetadata(ctx context.Context, name string, folderID uuid.UUID) (*domain.DynamicSecret, error) {
	args := m.Called(ctx, name, folderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DynamicSecret), args.Error(1)
}

func (m *MockDynamicSecretRepository) FindWithMetadata(ctx context.Context, filter domain.ListFilter) ([]domain.DynamicSecret, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DynamicSecret), args.Error(1)
}

func (m *MockDynamicSecretRepository) ListByFolderIDs(ctx context.Context, filter domain.ListFilter) ([]domain.DynamicSecret, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DynamicSecret), args.Error(1)
}

func (m *MockDynamicSecretRepository) CountByFolderIDs(ctx context.Context, filter domain.ListFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDynamicSecretRepository) CountDistinctByFolderIDs(ctx context.Context, filter domain.ListFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockResourceMetadataRepository is a mock implementation of ResourceMetadataRepository.
type MockResourceMetadataRepository struct {
	mock.Mock
}

func (m *MockResourceMetadataRepository) InsertMany(ctx context.Context, orgID uuid.UUID, dynamicSecretID uuid.UUID, tags []domain.ResourceMetadata) error {
	args := m.Called(ctx, orgID, dynamicSecretID, tags)
	return args.Error(0)
}

func (m *MockResourceMetadataRepository) DeleteByDynamicSecretID(ctx context.Context, dynamicSecretID uuid.UUID) error {
	args := m.Called(ctx, dynamicSecretID)
	return args.Error(0)
}

// MockLeaseRepository is a mock implementation of LeaseRepository.
type MockLeaseRepository struct {
	mock.Mock
}

func (m *MockLeaseRepository) FindByDynamicSecretID(ctx context.Context, dynamicSecretID uuid.UUID) ([]leasesDomain.Lease, error) {
	args := m.Called(ctx, dynamicSecretID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]leasesDomain.Lease), args.Error(1)
}

// MockRevocationQueue is a mock implementation of RevocationQueue.
type MockRevocationQueue struct {
	mock.Mock
}

func (m *MockRevocationQueue) SchedulePrune(ctx context.Context, dynamicSecretID uuid.UUID) error {
	args := m.Called(ctx, dynamicSecretID)
	return args.Error(0)
}

func (m *MockRevocationQueue) CancelRevocation(ctx context.Context, leaseID uuid.UUID) error {
	args := m.Called(ctx, leaseID)
	return args.Error(0)
}

// MockProvider is a mock implementation of provider.Provider with a fixed
// type tag.
type MockProvider struct {
	mock.Mock
	ProviderType domain.ProviderType
}

func (m *MockProvider) Type() domain.ProviderType {
	return m.ProviderType
}

func (m *MockProvider) ValidateInputs(ctx context.Context, raw json.RawMessage) (json.RawMessage, error) {
	args := m.Called(ctx, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockProvider) ValidateConnection(ctx context.Context, validated json.RawMessage) error {
	args := m.Called(ctx, validated)
	return args.Error(0)
}

// MockDynamicSecretUseCase is a mock implementation of DynamicSecretUseCase
// for decorator and transport tests.
type MockDynamicSecretUseCase struct {
	mock.Mock
}

func (m *MockDynamicSecretUseCase) Create(ctx context.Context, actor authz.Actor, input usecase.CreateInput) (*domain.DynamicSecret, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DynamicSecret), args.Error(1)
}

func (m *MockDynamicSecretUseCase) UpdateByName(ctx context.Context, actor authz.Actor, selector usecase.Selector, input usecase.UpdateInput) (*domain.DynamicSecret, error) {
	args := m.Called(ctx, actor, selector, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DynamicSecret), args.Error(1)
}

func (m *MockDynamicSecretUseCase) DeleteByName(ctx context.Context, actor authz.Actor, selector usecase.Selector, force bool) (*domain.DynamicSecret, error) {
	args := m.Called(ctx, actor, selector, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DynamicSecret), args.Error(1)
}

func (m *MockDynamicSecretUseCase) GetDetails(ctx context.Context, actor authz.Actor, selector usecase.Selector) (*usecase.Details, error) {
	args := m.Called(ctx, actor, selector)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.Details), args.Error(1)
}

func (m *MockDynamicSecretUseCase) ListByEnv(ctx context.Context, actor authz.Actor, query usecase.ListQuery) ([]domain.DynamicSecret, error) {
	args := m.Called(ctx, actor, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DynamicSecret), args.Error(1)
}

func (m *MockDynamicSecretUseCase) ListByEnvs(ctx context.Context, actor authz.Actor, query usecase.ListQuery) ([]domain.DynamicSecret, error) {
	args := m.Called(ctx, actor, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DynamicSecret), args.Error(1)
}

func (m *MockDynamicSecretUseCase) ListByFolderMappings(ctx context.Context, actor authz.Actor, projectID uuid.UUID, mappings []usecase.FolderMapping, query usecase.ListQuery) ([]domain.DynamicSecret, error) {
	args := m.Called(ctx, actor, projectID, mappings, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DynamicSecret), args.Error(1)
}

func (m *MockDynamicSecretUseCase) CountByEnv(ctx context.Context, actor authz.Actor, query usecase.ListQuery) (int64, error) {
	args := m.Called(ctx, actor, query)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDynamicSecretUseCase) CountByEnvs(ctx context.Context, actor authz.Actor, query usecase.ListQuery) (int64, error) {
	args := m.Called(ctx, actor, query)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDynamicSecretUseCase) FetchAzureEntraIDUsers(ctx context.Context, inputs json.RawMessage) ([]provider.EntraIDUser, error) {
	args := m.Called(ctx, inputs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.EntraIDUser), args.Error(1)
}

// MockEntraIDUserLister is a mock implementation of EntraIDUserLister.
type MockEntraIDUserLister struct {
	mock.Mock
}

func (m *MockEntraIDUserLister) FetchUsers(ctx context.Context, validated json.RawMessage) ([]provider.EntraIDUser, error) {
	args := m.Called(ctx, validated)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.EntraIDUser), args.Error(1)
}

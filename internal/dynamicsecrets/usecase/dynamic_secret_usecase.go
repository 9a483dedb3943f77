package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/allisson/dynamic-secrets/internal/authz"
	cryptoService "github.com/allisson/dynamic-secrets/internal/crypto/service"
	"github.com/allisson/dynamic-secrets/internal/database"
	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/domain"
	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/provider"
	"github.com/allisson/dynamic-secrets/internal/errors"
	"github.com/allisson/dynamic-secrets/internal/license"
	projectsDomain "github.com/allisson/dynamic-secrets/internal/projects/domain"
)

type dynamicSecretUseCase struct {
	projects    ProjectRepository
	folders     FolderRepository
	gateways    GatewayRepository
	secrets     DynamicSecretRepository
	metadata    ResourceMetadataRepository
	leases      LeaseRepository
	revocations RevocationQueue
	registry    ProviderRegistry
	ciphers     cryptoService.CipherService
	checker     authz.Checker
	licenses    license.Service
	txManager   database.TxManager
	entraUsers  EntraIDUserLister
}

// NewDynamicSecretUseCase creates the lifecycle engine.
func NewDynamicSecretUseCase(
	projects ProjectRepository,
	folders FolderRepository,
	gateways GatewayRepository,
	secrets DynamicSecretRepository,
	metadata ResourceMetadataRepository,
	leases LeaseRepository,
	revocations RevocationQueue,
	registry ProviderRegistry,
	ciphers cryptoService.CipherService,
	checker authz.Checker,
	licenses license.Service,
	txManager database.TxManager,
	entraUsers EntraIDUserLister,
) DynamicSecretUseCase {
	return &dynamicSecretUseCase{
		projects:    projects,
		folders:     folders,
		gateways:    gateways,
		secrets:     secrets,
		metadata:    metadata,
		leases:      leases,
		revocations: revocations,
		registry:    registry,
		ciphers:     ciphers,
		checker:     checker,
		licenses:    licenses,
		txManager:   txManager,
		entraUsers:  entraUsers,
	}
}

// Create validates, probes and persists a new definition together with its
// metadata tags.
func (u *dynamicSecretUseCase) Create(ctx context.Context, actor authz.Actor, input CreateInput) (*domain.DynamicSecret, error) {
	project, err := u.resolveProject(ctx, actor, input.Selector)
	if err != nil {
		return nil, err
	}

	subject := metadataSubject(input.Environment, input.SecretPath, input.Metadata)
	if err := u.checker.RequireCan(ctx, actor, authz.ActionCreateRootCredential, subject); err != nil {
		return nil, err
	}

	if err := u.requireDynamicSecretPlan(ctx, actor.OrgID); err != nil {
		return nil, err
	}

	folder, err := u.folders.FindBySecretPath(ctx, project.ID, input.Environment, input.SecretPath)
	if err != nil {
		return nil, err
	}

	existing, err := u.secrets.FindByNameAndFolder(ctx, input.Name, folder.ID)
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrNameAlreadyExists
	}

	validated, gatewayID, err := u.validateProviderInputs(ctx, project, input.Type, input.Inputs)
	if err != nil {
		return nil, err
	}

	cipher, err := u.ciphers.Derive(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	encrypted, err := cipher.EncryptString(string(validated))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	dynamicSecret := &domain.DynamicSecret{
		ID:             uuid.Must(uuid.NewV7()),
		Name:           input.Name,
		Version:        1,
		Type:           input.Type,
		DefaultTTL:     input.DefaultTTL,
		MaxTTL:         input.MaxTTL,
		EncryptedInput: encrypted,
		FolderID:       folder.ID,
		GatewayID:      gatewayID,
		Metadata:       newTags(input.Metadata),
		CreatedAt:      now,
		UpdatedAt:      now,
		Environment:    input.Environment,
		SecretPath:     input.SecretPath,
	}

	err = u.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := u.secrets.Create(ctx, dynamicSecret); err != nil {
			return err
		}
		return u.metadata.InsertMany(ctx, actor.OrgID, dynamicSecret.ID, dynamicSecret.Metadata)
	})
	if err != nil {
		return nil, err
	}

	return dynamicSecret, nil
}

// UpdateByName applies a partial update. Inputs are decrypted, shallow-merged
// with the incoming fragment, re-validated and re-probed before the row and
// its tags are rewritten in one transaction.
func (u *dynamicSecretUseCase) UpdateByName(ctx context.Context, actor authz.Actor, selector Selector, input UpdateInput) (*domain.DynamicSecret, error) {
	project, folder, existing, err := u.resolveDefinition(ctx, actor, selector)
	if err != nil {
		return nil, err
	}

	// The actor needs edit rights against the tags currently on the
	// definition and, when replacing them, against the incoming set too.
	if err := u.checker.RequireCan(ctx, actor, authz.ActionEditRootCredential,
		metadataSubject(selector.Environment, selector.SecretPath, existing.Metadata)); err != nil {
		return nil, err
	}
	if input.Metadata != nil {
		if err := u.checker.RequireCan(ctx, actor, authz.ActionEditRootCredential,
			metadataSubject(selector.Environment, selector.SecretPath, input.Metadata)); err != nil {
			return nil, err
		}
	}

	if err := u.requireDynamicSecretPlan(ctx, actor.OrgID); err != nil {
		return nil, err
	}

	if existing.IsDeleting() {
		return nil, domain.ErrDefinitionDeleting
	}

	if input.NewName != nil && *input.NewName != existing.Name {
		conflict, err := u.secrets.FindByNameAndFolder(ctx, *input.NewName, folder.ID)
		if err != nil && !errors.Is(err, errors.ErrNotFound) {
			return nil, err
		}
		if conflict != nil {
			return nil, domain.ErrNameAlreadyExists
		}
		existing.Name = *input.NewName
	}

	cipher, err := u.ciphers.Derive(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	current, err := cipher.DecryptString(existing.EncryptedInput)
	if err != nil {
		return nil, err
	}
	merged, err := mergeInputs(json.RawMessage(current), input.Inputs)
	if err != nil {
		return nil, err
	}

	validated, gatewayID, err := u.validateProviderInputs(ctx, project, existing.Type, merged)
	if err != nil {
		return nil, err
	}

	encrypted, err := cipher.EncryptString(string(validated))
	if err != nil {
		return nil, err
	}

	existing.EncryptedInput = encrypted
	existing.GatewayID = gatewayID
	if input.DefaultTTL != nil {
		existing.DefaultTTL = *input.DefaultTTL
	}
	if input.MaxTTL != nil {
		existing.MaxTTL = *input.MaxTTL
	}
	if input.Metadata != nil {
		existing.Metadata = newTags(input.Metadata)
	}
	existing.UpdatedAt = time.Now().UTC()

	err = u.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := u.secrets.Update(ctx, existing); err != nil {
			return err
		}
		if input.Metadata == nil {
			return nil
		}
		if err := u.metadata.DeleteByDynamicSecretID(ctx, existing.ID); err != nil {
			return err
		}
		return u.metadata.InsertMany(ctx, actor.OrgID, existing.ID, existing.Metadata)
	})
	if err != nil {
		return nil, err
	}

	return existing, nil
}

// DeleteByName removes a definition. With force, every queued lease
// revocation is cancelled first and the row is removed immediately. Without
// force, a definition with live leases is only marked deleting and a prune
// job is scheduled; one without leases is removed right away.
func (u *dynamicSecretUseCase) DeleteByName(ctx context.Context, actor authz.Actor, selector Selector, force bool) (*domain.DynamicSecret, error) {
	_, _, existing, err := u.resolveDefinition(ctx, actor, selector)
	if err != nil {
		return nil, err
	}

	if err := u.checker.RequireCan(ctx, actor, authz.ActionDeleteRootCredential,
		metadataSubject(selector.Environment, selector.SecretPath, existing.Metadata)); err != nil {
		return nil, err
	}

	leases, err := u.leases.FindByDynamicSecretID(ctx, existing.ID)
	if err != nil {
		return nil, err
	}

	if force {
		// Every cancellation must land before the row goes away; a partial
		// cancel would leave revocation jobs pointing at a missing definition.
		group, groupCtx := errgroup.WithContext(ctx)
		for _, lease := range leases {
			group.Go(func() error {
				return u.revocations.CancelRevocation(groupCtx, lease.ID)
			})
		}
		if err := group.Wait(); err != nil {
			return nil, err
		}
		if err := u.secrets.DeleteByID(ctx, existing.ID); err != nil {
			return nil, err
		}
		return existing, nil
	}

	if len(leases) > 0 {
		status := domain.StatusDeleting
		existing.Status = &status
		existing.StatusDetails = nil
		existing.UpdatedAt = time.Now().UTC()
		if err := u.secrets.Update(ctx, existing); err != nil {
			return nil, err
		}
		if err := u.revocations.SchedulePrune(ctx, existing.ID); err != nil {
			return nil, err
		}
		return existing, nil
	}

	if err := u.secrets.DeleteByID(ctx, existing.ID); err != nil {
		return nil, err
	}
	return existing, nil
}

// GetDetails returns a definition with its decrypted inputs. Reading the
// plaintext connection material requires edit rights on top of read rights.
func (u *dynamicSecretUseCase) GetDetails(ctx context.Context, actor authz.Actor, selector Selector) (*Details, error) {
	project, _, existing, err := u.resolveDefinition(ctx, actor, selector)
	if err != nil {
		return nil, err
	}

	subject := metadataSubject(selector.Environment, selector.SecretPath, existing.Metadata)
	if err := u.checker.RequireCan(ctx, actor, authz.ActionReadRootCredential, subject); err != nil {
		return nil, err
	}
	if err := u.checker.RequireCan(ctx, actor, authz.ActionEditRootCredential, subject); err != nil {
		return nil, err
	}

	cipher, err := u.ciphers.Derive(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	plaintext, err := cipher.DecryptString(existing.EncryptedInput)
	if err != nil {
		return nil, err
	}

	// Re-run input validation so fields added after the row was written are
	// dropped instead of leaking to the caller.
	prov, err := u.registry.Get(existing.Type)
	if err != nil {
		return nil, err
	}
	normalized, err := prov.ValidateInputs(ctx, json.RawMessage(plaintext))
	if err != nil {
		return nil, err
	}

	return &Details{DynamicSecret: *existing, Inputs: normalized}, nil
}

// ListByEnv lists the definitions of one folder. Rows the actor cannot read,
// judged against each row's own tags, are filtered out.
func (u *dynamicSecretUseCase) ListByEnv(ctx context.Context, actor authz.Actor, query ListQuery) ([]domain.DynamicSecret, error) {
	project, err := u.resolveProject(ctx, actor, Selector{ProjectID: query.ProjectID, ProjectSlug: query.ProjectSlug})
	if err != nil {
		return nil, err
	}
	folder, err := u.folders.FindBySecretPath(ctx, project.ID, query.Environment, query.SecretPath)
	if err != nil {
		return nil, err
	}

	list, err := u.secrets.FindWithMetadata(ctx, listFilter(query, []uuid.UUID{folder.ID}))
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Environment = query.Environment
		list[i].SecretPath = query.SecretPath
	}
	return u.filterReadable(ctx, actor, list)
}

// ListByEnvs lists definitions across the folders matching the path in each
// requested environment. Environments without such a folder contribute
// nothing; only a path present in none of them is an error.
func (u *dynamicSecretUseCase) ListByEnvs(ctx context.Context, actor authz.Actor, query ListQuery) ([]domain.DynamicSecret, error) {
	project, err := u.resolveProject(ctx, actor, Selector{ProjectID: query.ProjectID, ProjectSlug: query.ProjectSlug})
	if err != nil {
		return nil, err
	}
	folders, err := u.folders.FindBySecretPathMultiEnv(ctx, project.ID, query.Environments, query.SecretPath)
	if err != nil {
		return nil, err
	}
	if len(folders) == 0 {
		return nil, projectsDomain.ErrFolderNotFound
	}

	folderIDs := make([]uuid.UUID, 0, len(folders))
	envByFolder := make(map[uuid.UUID]string, len(folders))
	for _, folder := range folders {
		folderIDs = append(folderIDs, folder.ID)
		envByFolder[folder.ID] = folder.Environment
	}

	list, err := u.secrets.ListByFolderIDs(ctx, listFilter(query, folderIDs))
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Environment = envByFolder[list[i].FolderID]
		list[i].SecretPath = query.SecretPath
	}
	return u.filterReadable(ctx, actor, list)
}

// ListByFolderMappings lists definitions across caller-resolved folders.
// Mappings the actor cannot read at the folder level are dropped up front;
// surviving rows are still filtered against their own tags.
func (u *dynamicSecretUseCase) ListByFolderMappings(ctx context.Context, actor authz.Actor, projectID uuid.UUID, mappings []FolderMapping, query ListQuery) ([]domain.DynamicSecret, error) {
	if _, err := u.projects.FindByID(ctx, projectID); err != nil {
		return nil, err
	}

	folderIDs := make([]uuid.UUID, 0, len(mappings))
	mappingByFolder := make(map[uuid.UUID]FolderMapping, len(mappings))
	for _, mapping := range mappings {
		allowed, err := u.checker.Can(ctx, actor, authz.ActionReadRootCredential, authz.Subject{
			Environment: mapping.Environment,
			SecretPath:  mapping.SecretPath,
		})
		if err != nil {
			return nil, err
		}
		if !allowed {
			continue
		}
		folderIDs = append(folderIDs, mapping.FolderID)
		mappingByFolder[mapping.FolderID] = mapping
	}
	if len(folderIDs) == 0 {
		return []domain.DynamicSecret{}, nil
	}

	list, err := u.secrets.ListByFolderIDs(ctx, listFilter(query, folderIDs))
	if err != nil {
		return nil, err
	}
	for i := range list {
		mapping := mappingByFolder[list[i].FolderID]
		list[i].Environment = mapping.Environment
		list[i].SecretPath = mapping.SecretPath
	}
	return u.filterReadable(ctx, actor, list)
}

// CountByEnv counts the definitions of one folder.
func (u *dynamicSecretUseCase) CountByEnv(ctx context.Context, actor authz.Actor, query ListQuery) (int64, error) {
	project, err := u.resolveProject(ctx, actor, Selector{ProjectID: query.ProjectID, ProjectSlug: query.ProjectSlug})
	if err != nil {
		return 0, err
	}
	if err := u.checker.RequireCan(ctx, actor, authz.ActionReadRootCredential, authz.Subject{
		Environment: query.Environment,
		SecretPath:  query.SecretPath,
	}); err != nil {
		return 0, err
	}

	folder, err := u.folders.FindBySecretPath(ctx, project.ID, query.Environment, query.SecretPath)
	if err != nil {
		return 0, err
	}
	return u.secrets.CountByFolderIDs(ctx, domain.ListFilter{FolderIDs: []uuid.UUID{folder.ID}, Search: query.Search})
}

// CountByEnvs counts distinct definition names across environments, so a
// definition present under the same name in several environments counts once.
func (u *dynamicSecretUseCase) CountByEnvs(ctx context.Context, actor authz.Actor, query ListQuery) (int64, error) {
	project, err := u.resolveProject(ctx, actor, Selector{ProjectID: query.ProjectID, ProjectSlug: query.ProjectSlug})
	if err != nil {
		return 0, err
	}
	for _, environment := range query.Environments {
		if err := u.checker.RequireCan(ctx, actor, authz.ActionReadRootCredential, authz.Subject{
			Environment: environment,
			SecretPath:  query.SecretPath,
		}); err != nil {
			return 0, err
		}
	}

	folders, err := u.folders.FindBySecretPathMultiEnv(ctx, project.ID, query.Environments, query.SecretPath)
	if err != nil {
		return 0, err
	}
	if len(folders) == 0 {
		return 0, projectsDomain.ErrFolderNotFound
	}

	folderIDs := make([]uuid.UUID, 0, len(folders))
	for _, folder := range folders {
		folderIDs = append(folderIDs, folder.ID)
	}
	return u.secrets.CountDistinctByFolderIDs(ctx, domain.ListFilter{FolderIDs: folderIDs, Search: query.Search})
}

// FetchAzureEntraIDUsers lists directory users for the given app registration
// credentials. The credentials come from the caller, not from a stored
// definition, so there is no resource to authorize against here.
func (u *dynamicSecretUseCase) FetchAzureEntraIDUsers(ctx context.Context, inputs json.RawMessage) ([]provider.EntraIDUser, error) {
	prov, err := u.registry.Get(domain.ProviderTypeAzureEntraID)
	if err != nil {
		return nil, err
	}
	validated, err := prov.ValidateInputs(ctx, inputs)
	if err != nil {
		return nil, err
	}
	return u.entraUsers.FetchUsers(ctx, validated)
}

// resolveProject loads the project by ID or by slug within the actor's
// organization.
func (u *dynamicSecretUseCase) resolveProject(ctx context.Context, actor authz.Actor, selector Selector) (*projectsDomain.Project, error) {
	if selector.ProjectID != nil {
		return u.projects.FindByID(ctx, *selector.ProjectID)
	}
	return u.projects.FindBySlug(ctx, actor.OrgID, selector.ProjectSlug)
}

// resolveDefinition loads the project, folder and definition (with tags)
// addressed by the selector.
func (u *dynamicSecretUseCase) resolveDefinition(ctx context.Context, actor authz.Actor, selector Selector) (*projectsDomain.Project, *projectsDomain.Folder, *domain.DynamicSecret, error) {
	project, err := u.resolveProject(ctx, actor, selector)
	if err != nil {
		return nil, nil, nil, err
	}
	folder, err := u.folders.FindBySecretPath(ctx, project.ID, selector.Environment, selector.SecretPath)
	if err != nil {
		return nil, nil, nil, err
	}
	existing, err := u.secrets.FindOneWithMetadata(ctx, selector.Name, folder.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	existing.Environment = selector.Environment
	existing.SecretPath = selector.SecretPath
	return project, folder, existing, nil
}

func (u *dynamicSecretUseCase) requireDynamicSecretPlan(ctx context.Context, orgID uuid.UUID) error {
	plan, err := u.licenses.GetPlan(ctx, orgID)
	if err != nil {
		return err
	}
	if !plan.DynamicSecret {
		return domain.ErrPlanRestriction
	}
	return nil
}

// validateProviderInputs normalizes the raw inputs through the provider,
// probes the target connection and resolves a pinned gateway against the
// project's organization.
func (u *dynamicSecretUseCase) validateProviderInputs(
	ctx context.Context,
	project *projectsDomain.Project,
	providerType domain.ProviderType,
	raw json.RawMessage,
) (json.RawMessage, *uuid.UUID, error) {
	prov, err := u.registry.Get(providerType)
	if err != nil {
		return nil, nil, err
	}

	validated, err := prov.ValidateInputs(ctx, raw)
	if err != nil {
		return nil, nil, err
	}
	if err := prov.ValidateConnection(ctx, validated); err != nil {
		return nil, nil, err
	}

	gatewayID, err := provider.GatewayIDFromInputs(validated)
	if err != nil {
		return nil, nil, err
	}
	if gatewayID != nil {
		if _, err := u.gateways.FindByIDAndOrg(ctx, *gatewayID, project.OrgID); err != nil {
			return nil, nil, err
		}
	}
	return validated, gatewayID, nil
}

// filterReadable drops rows the actor cannot read given each row's own tags.
func (u *dynamicSecretUseCase) filterReadable(ctx context.Context, actor authz.Actor, list []domain.DynamicSecret) ([]domain.DynamicSecret, error) {
	readable := make([]domain.DynamicSecret, 0, len(list))
	for _, item := range list {
		allowed, err := u.checker.Can(ctx, actor, authz.ActionReadRootCredential,
			metadataSubject(item.Environment, item.SecretPath, item.Metadata))
		if err != nil {
			return nil, err
		}
		if allowed {
			readable = append(readable, item)
		}
	}
	return readable, nil
}

// mergeInputs overlays the top-level keys of the partial fragment onto the
// current inputs. Nested objects are replaced, not merged.
func mergeInputs(current, partial json.RawMessage) (json.RawMessage, error) {
	if len(partial) == 0 {
		return current, nil
	}

	base := map[string]json.RawMessage{}
	if err := json.Unmarshal(current, &base); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	overlay := map[string]json.RawMessage{}
	if err := json.Unmarshal(partial, &overlay); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	for key, value := range overlay {
		base[key] = value
	}

	merged, err := json.Marshal(base)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	return merged, nil
}

// metadataSubject builds the authorization subject carrying the resource tags.
func metadataSubject(environment, secretPath string, metadata []domain.ResourceMetadata) authz.Subject {
	tags := make([]authz.Tag, 0, len(metadata))
	for _, item := range metadata {
		tags = append(tags, authz.Tag{Key: item.Key, Value: item.Value})
	}
	return authz.Subject{Environment: environment, SecretPath: secretPath, Metadata: tags}
}

// newTags assigns fresh IDs to incoming tags so the persisted rows and the
// returned definition agree.
func newTags(metadata []domain.ResourceMetadata) []domain.ResourceMetadata {
	tags := make([]domain.ResourceMetadata, 0, len(metadata))
	for _, item := range metadata {
		tags = append(tags, domain.ResourceMetadata{
			ID:    uuid.Must(uuid.NewV7()),
			Key:   item.Key,
			Value: item.Value,
		})
	}
	return tags
}

func listFilter(query ListQuery, folderIDs []uuid.UUID) domain.ListFilter {
	return domain.ListFilter{
		FolderIDs:      folderIDs,
		Search:         query.Search,
		Limit:          query.Limit,
		Offset:         query.Offset,
		OrderBy:        query.OrderBy,
		OrderDirection: query.OrderDirection,
	}
}

// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"encoding/json"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/domain"
	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/usecase"
	customValidation "github.com/allisson/dynamic-secrets/internal/validation"
)

// MetadataTag is one metadata key/value pair in request bodies.
type MetadataTag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Validate checks the tag shape.
func (t MetadataTag) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Key, validation.Required, validation.Length(1, 255)),
		validation.Field(&t.Value, validation.Length(0, 1024)),
	)
}

// SelectorParams are the body fields addressing a project folder. Exactly one
// of projectId and projectSlug must be provided.
type SelectorParams struct {
	ProjectID   string `json:"projectId"`
	ProjectSlug string `json:"projectSlug"`
	Environment string `json:"environment"`
	SecretPath  string `json:"secretPath"`
}

// Validate checks the selector shape.
func (p SelectorParams) Validate() error {
	if err := validation.ValidateStruct(&p,
		validation.Field(&p.ProjectID, validation.By(validUUID)),
		validation.Field(&p.ProjectSlug, validation.By(customValidation.Slug)),
		validation.Field(&p.Environment, validation.Required, validation.By(customValidation.Slug)),
		validation.Field(&p.SecretPath, validation.Required, validation.By(customValidation.SecretPath)),
	); err != nil {
		return err
	}
	if (p.ProjectID == "") == (p.ProjectSlug == "") {
		return validation.NewError("validation_selector", "exactly one of projectId and projectSlug must be set")
	}
	return nil
}

// ToSelector converts the params to an engine selector with the given name.
func (p SelectorParams) ToSelector(name string) usecase.Selector {
	selector := usecase.Selector{
		ProjectSlug: p.ProjectSlug,
		Environment: p.Environment,
		SecretPath:  p.SecretPath,
		Name:        name,
	}
	if p.ProjectID != "" {
		id := uuid.MustParse(p.ProjectID)
		selector.ProjectID = &id
	}
	return selector
}

func validUUID(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := uuid.Parse(s); err != nil {
		return validation.NewError("validation_uuid", "must be a valid UUID")
	}
	return nil
}

// CreateDynamicSecretRequest contains the parameters for creating a definition.
type CreateDynamicSecretRequest struct {
	SelectorParams
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	DefaultTTL string          `json:"defaultTTL"`
	MaxTTL     string          `json:"maxTTL"`
	Inputs     json.RawMessage `json:"inputs"`
	Metadata   []MetadataTag   `json:"metadata"`
}

// Validate checks if the create request is valid.
func (r *CreateDynamicSecretRequest) Validate() error {
	if err := r.SelectorParams.Validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 64), validation.By(customValidation.DefinitionName)),
		validation.Field(&r.Type, validation.Required, validation.In(
			string(domain.ProviderTypePostgres),
			string(domain.ProviderTypeMySQL),
			string(domain.ProviderTypeAuth0ClientSecret),
			string(domain.ProviderTypeAzureEntraID),
		)),
		validation.Field(&r.DefaultTTL, validation.Required, validation.By(customValidation.TTL)),
		validation.Field(&r.MaxTTL, validation.By(customValidation.TTL)),
		validation.Field(&r.Inputs, validation.Required),
		validation.Field(&r.Metadata),
	)
}

// ToInput converts the request to an engine create input.
func (r *CreateDynamicSecretRequest) ToInput() usecase.CreateInput {
	return usecase.CreateInput{
		Selector:   r.ToSelector(r.Name),
		Type:       domain.ProviderType(r.Type),
		DefaultTTL: r.DefaultTTL,
		MaxTTL:     r.MaxTTL,
		Inputs:     r.Inputs,
		Metadata:   mapTags(r.Metadata),
	}
}

// UpdateDynamicSecretRequest contains the parameters for a partial update.
// Nil fields leave the corresponding attribute unchanged; a non-nil metadata
// slice replaces the tags wholesale.
type UpdateDynamicSecretRequest struct {
	SelectorParams
	NewName    *string         `json:"newName"`
	DefaultTTL *string         `json:"defaultTTL"`
	MaxTTL     *string         `json:"maxTTL"`
	Inputs     json.RawMessage `json:"inputs"`
	Metadata   *[]MetadataTag  `json:"metadata"`
}

// Validate checks if the update request is valid.
func (r *UpdateDynamicSecretRequest) Validate() error {
	if err := r.SelectorParams.Validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(r,
		validation.Field(&r.NewName, validation.Length(1, 64), validation.By(optionalString(customValidation.DefinitionName))),
		validation.Field(&r.DefaultTTL, validation.By(optionalString(customValidation.TTL))),
		validation.Field(&r.MaxTTL, validation.By(optionalString(customValidation.TTL))),
	)
}

// ToInput converts the request to an engine update input.
func (r *UpdateDynamicSecretRequest) ToInput() usecase.UpdateInput {
	input := usecase.UpdateInput{
		NewName:    r.NewName,
		DefaultTTL: r.DefaultTTL,
		MaxTTL:     r.MaxTTL,
		Inputs:     r.Inputs,
	}
	if r.Metadata != nil {
		input.Metadata = mapTags(*r.Metadata)
	}
	return input
}

// optionalString adapts a string rule to pointer fields.
func optionalString(rule func(any) error) func(any) error {
	return func(value any) error {
		s, ok := value.(*string)
		if !ok || s == nil {
			return nil
		}
		return rule(*s)
	}
}

// DeleteDynamicSecretRequest contains the parameters for deleting a definition.
type DeleteDynamicSecretRequest struct {
	SelectorParams
	IsForced bool `json:"isForced"`
}

// Validate checks if the delete request is valid.
func (r *DeleteDynamicSecretRequest) Validate() error {
	return r.SelectorParams.Validate()
}

// FolderMappingParam is one caller-resolved folder in a list-by-folders request.
type FolderMappingParam struct {
	FolderID    string `json:"folderId"`
	Environment string `json:"environment"`
	SecretPath  string `json:"secretPath"`
}

// Validate checks the mapping shape.
func (p FolderMappingParam) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FolderID, validation.Required, validation.By(validUUID)),
		validation.Field(&p.Environment, validation.Required, validation.By(customValidation.Slug)),
		validation.Field(&p.SecretPath, validation.Required, validation.By(customValidation.SecretPath)),
	)
}

// ListByFoldersRequest lists definitions across caller-resolved folders.
type ListByFoldersRequest struct {
	ProjectID string               `json:"projectId"`
	Folders   []FolderMappingParam `json:"folders"`
	Search    string               `json:"search"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
}

// Validate checks if the list-by-folders request is valid.
func (r *ListByFoldersRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(validUUID)),
		validation.Field(&r.Folders, validation.Required),
		validation.Field(&r.Limit, validation.Min(0), validation.Max(100)),
		validation.Field(&r.Offset, validation.Min(0)),
	)
}

// ToMappings converts the request folders to engine folder mappings.
func (r *ListByFoldersRequest) ToMappings() []usecase.FolderMapping {
	mappings := make([]usecase.FolderMapping, 0, len(r.Folders))
	for _, folder := range r.Folders {
		mappings = append(mappings, usecase.FolderMapping{
			FolderID:    uuid.MustParse(folder.FolderID),
			Environment: folder.Environment,
			SecretPath:  folder.SecretPath,
		})
	}
	return mappings
}

// ListParams are the query parameters selecting definitions for list and
// count operations. Environments holds one entry for the single-environment
// form and several for the multi-environment form.
type ListParams struct {
	ProjectID    string
	ProjectSlug  string
	Environments []string
	SecretPath   string
}

// Validate checks the list selector shape.
func (p ListParams) Validate() error {
	if err := validation.ValidateStruct(&p,
		validation.Field(&p.ProjectID, validation.By(validUUID)),
		validation.Field(&p.ProjectSlug, validation.By(customValidation.Slug)),
		validation.Field(&p.Environments, validation.Required, validation.Each(validation.Required, validation.By(customValidation.Slug))),
		validation.Field(&p.SecretPath, validation.Required, validation.By(customValidation.SecretPath)),
	); err != nil {
		return err
	}
	if (p.ProjectID == "") == (p.ProjectSlug == "") {
		return validation.NewError("validation_selector", "exactly one of projectId and projectSlug must be set")
	}
	return nil
}

// ToQuery converts the params to an engine list query. Pagination, search and
// ordering are filled in by the handler.
func (p ListParams) ToQuery() usecase.ListQuery {
	query := usecase.ListQuery{
		ProjectSlug: p.ProjectSlug,
		SecretPath:  p.SecretPath,
	}
	if p.ProjectID != "" {
		id := uuid.MustParse(p.ProjectID)
		query.ProjectID = &id
	}
	if len(p.Environments) == 1 {
		query.Environment = p.Environments[0]
	} else {
		query.Environments = p.Environments
	}
	return query
}

// FetchEntraIDUsersRequest carries caller-supplied Azure Entra ID credentials
// used to list directory users before a definition exists.
type FetchEntraIDUsersRequest struct {
	Inputs json.RawMessage `json:"inputs"`
}

// Validate checks if the fetch-users request is valid.
func (r *FetchEntraIDUsersRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Inputs, validation.Required),
	)
}

func mapTags(tags []MetadataTag) []domain.ResourceMetadata {
	mapped := make([]domain.ResourceMetadata, 0, len(tags))
	for _, tag := range tags {
		mapped = append(mapped, domain.ResourceMetadata{Key: tag.Key, Value: tag.Value})
	}
	return mapped
}

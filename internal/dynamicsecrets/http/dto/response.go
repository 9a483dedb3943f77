package dto

import (
	"encoding/json"
	"time"

	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/domain"
	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/provider"
	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/usecase"
)

// MetadataTagResponse is one metadata tag in API responses.
type MetadataTagResponse struct {
	ID    string `json:"id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// DynamicSecretResponse represents a definition in API responses. Provider
// inputs are never included; GetDetails returns them separately.
type DynamicSecretResponse struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Version     int                   `json:"version"`
	Type        string                `json:"type"`
	DefaultTTL  string                `json:"defaultTTL"`
	MaxTTL      string                `json:"maxTTL,omitempty"`
	FolderID    string                `json:"folderId"`
	Status      *string               `json:"status,omitempty"`
	GatewayID   *string               `json:"gatewayId,omitempty"`
	Environment string                `json:"environment,omitempty"`
	SecretPath  string                `json:"secretPath,omitempty"`
	Metadata    []MetadataTagResponse `json:"metadata"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// DynamicSecretDetailsResponse is a definition with its decrypted,
// provider-normalized inputs.
type DynamicSecretDetailsResponse struct {
	DynamicSecretResponse
	Inputs json.RawMessage `json:"inputs"`
}

// ListDynamicSecretsResponse represents a list of definitions in API responses.
type ListDynamicSecretsResponse struct {
	Data []DynamicSecretResponse `json:"data"`
}

// CountResponse carries a count result.
type CountResponse struct {
	Total int64 `json:"total"`
}

// EntraIDUserResponse is one Azure Entra ID directory user.
type EntraIDUserResponse struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// ListEntraIDUsersResponse represents a directory user listing.
type ListEntraIDUsersResponse struct {
	Data []EntraIDUserResponse `json:"data"`
}

// MapDynamicSecretToResponse converts a domain definition to a response.
func MapDynamicSecretToResponse(ds *domain.DynamicSecret) DynamicSecretResponse {
	response := DynamicSecretResponse{
		ID:          ds.ID.String(),
		Name:        ds.Name,
		Version:     ds.Version,
		Type:        string(ds.Type),
		DefaultTTL:  ds.DefaultTTL,
		MaxTTL:      ds.MaxTTL,
		FolderID:    ds.FolderID.String(),
		Environment: ds.Environment,
		SecretPath:  ds.SecretPath,
		Metadata:    make([]MetadataTagResponse, 0, len(ds.Metadata)),
		CreatedAt:   ds.CreatedAt,
		UpdatedAt:   ds.UpdatedAt,
	}
	if ds.Status != nil {
		status := string(*ds.Status)
		response.Status = &status
	}
	if ds.GatewayID != nil {
		gatewayID := ds.GatewayID.String()
		response.GatewayID = &gatewayID
	}
	for _, tag := range ds.Metadata {
		response.Metadata = append(response.Metadata, MetadataTagResponse{
			ID:    tag.ID.String(),
			Key:   tag.Key,
			Value: tag.Value,
		})
	}
	return response
}

// MapDetailsToResponse converts engine details to a response.
func MapDetailsToResponse(details *usecase.Details) DynamicSecretDetailsResponse {
	return DynamicSecretDetailsResponse{
		DynamicSecretResponse: MapDynamicSecretToResponse(&details.DynamicSecret),
		Inputs:                details.Inputs,
	}
}

// MapDynamicSecretsToListResponse converts a slice of definitions to a list response.
func MapDynamicSecretsToListResponse(list []domain.DynamicSecret) ListDynamicSecretsResponse {
	data := make([]DynamicSecretResponse, 0, len(list))
	for i := range list {
		data = append(data, MapDynamicSecretToResponse(&list[i]))
	}
	return ListDynamicSecretsResponse{Data: data}
}

// MapEntraIDUsersToListResponse converts directory users to a list response.
func MapEntraIDUsersToListResponse(users []provider.EntraIDUser) ListEntraIDUsersResponse {
	data := make([]EntraIDUserResponse, 0, len(users))
	for _, user := range users {
		data = append(data, EntraIDUserResponse{
			ID:                user.ID,
			DisplayName:       user.DisplayName,
			UserPrincipalName: user.UserPrincipalName,
		})
	}
	return ListEntraIDUsersResponse{Data: data}
}

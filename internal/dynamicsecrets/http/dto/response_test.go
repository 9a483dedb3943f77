package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/domain"
	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/provider"
	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/usecase"
)

func sampleDefinition() *domain.DynamicSecret {
	gatewayID := uuid.Must(uuid.NewV7())
	status := domain.StatusDeleting
	now := time.Now().UTC()
	return &domain.DynamicSecret{
		ID:             uuid.Must(uuid.NewV7()),
		Name:           "pg-reader",
		Version:        3,
		Type:           domain.ProviderTypePostgres,
		DefaultTTL:     "1h",
		MaxTTL:         "24h",
		EncryptedInput: "opaque-ciphertext",
		FolderID:       uuid.Must(uuid.NewV7()),
		Status:         &status,
		GatewayID:      &gatewayID,
		Metadata: []domain.ResourceMetadata{
			{ID: uuid.Must(uuid.NewV7()), Key: "team", Value: "payments"},
		},
		CreatedAt:   now,
		UpdatedAt:   now,
		Environment: "dev",
		SecretPath:  "/db",
	}
}

func TestMapDynamicSecretToResponse(t *testing.T) {
	ds := sampleDefinition()
	response := MapDynamicSecretToResponse(ds)

	assert.Equal(t, ds.ID.String(), response.ID)
	assert.Equal(t, "pg-reader", response.Name)
	assert.Equal(t, 3, response.Version)
	assert.Equal(t, string(domain.ProviderTypePostgres), response.Type)
	assert.Equal(t, "1h", response.DefaultTTL)
	assert.Equal(t, ds.FolderID.String(), response.FolderID)
	require.NotNil(t, response.Status)
	assert.Equal(t, string(domain.StatusDeleting), *response.Status)
	require.NotNil(t, response.GatewayID)
	assert.Equal(t, ds.GatewayID.String(), *response.GatewayID)
	assert.Equal(t, "dev", response.Environment)
	assert.Equal(t, "/db", response.SecretPath)
	require.Len(t, response.Metadata, 1)
	assert.Equal(t, "team", response.Metadata[0].Key)
}

// The encrypted blob must never appear in a serialized response.
func TestMapDynamicSecretToResponse_ExcludesCiphertext(t *testing.T) {
	ds := sampleDefinition()
	payload, err := json.Marshal(MapDynamicSecretToResponse(ds))
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "opaque-ciphertext")
}

func TestMapDynamicSecretToResponse_OptionalFieldsOmitted(t *testing.T) {
	ds := sampleDefinition()
	ds.Status = nil
	ds.GatewayID = nil
	ds.Environment = ""
	ds.SecretPath = ""

	payload, err := json.Marshal(MapDynamicSecretToResponse(ds))
	require.NoError(t, err)
	assert.NotContains(t, string(payload), `"status"`)
	assert.NotContains(t, string(payload), `"gatewayId"`)
	assert.NotContains(t, string(payload), `"environment"`)
}

func TestMapDetailsToResponse(t *testing.T) {
	details := &usecase.Details{
		DynamicSecret: *sampleDefinition(),
		Inputs:        json.RawMessage(`{"host":"db.internal"}`),
	}

	response := MapDetailsToResponse(details)
	assert.Equal(t, "pg-reader", response.Name)
	assert.JSONEq(t, `{"host":"db.internal"}`, string(response.Inputs))
}

func TestMapDynamicSecretsToListResponse(t *testing.T) {
	list := []domain.DynamicSecret{*sampleDefinition(), *sampleDefinition()}
	response := MapDynamicSecretsToListResponse(list)
	assert.Len(t, response.Data, 2)

	empty := MapDynamicSecretsToListResponse(nil)
	assert.NotNil(t, empty.Data)
	assert.Len(t, empty.Data, 0)
}

func TestMapEntraIDUsersToListResponse(t *testing.T) {
	users := []provider.EntraIDUser{
		{ID: "user-1", DisplayName: "Alice", UserPrincipalName: "alice@example.com"},
	}

	response := MapEntraIDUsersToListResponse(users)
	require.Len(t, response.Data, 1)
	assert.Equal(t, "alice@example.com", response.Data[0].UserPrincipalName)
}

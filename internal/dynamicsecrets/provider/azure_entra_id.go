package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/domain"
)

const graphUsersURL = "https://graph.microsoft.com/v1.0/users?$select=id,displayName,userPrincipalName"

// AzureEntraIDInputs are the app registration credentials of an Azure Entra
// ID definition.
type AzureEntraIDInputs struct {
	TenantID      string `json:"tenantId"`
	ApplicationID string `json:"applicationId"`
	ClientSecret  string `json:"clientSecret"`
	// UserID is the directory user whose password gets rotated when leases
	// are minted.
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
}

// Validate checks the input shape.
func (in AzureEntraIDInputs) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.TenantID, validation.Required, validation.By(validUUID)),
		validation.Field(&in.ApplicationID, validation.Required, validation.By(validUUID)),
		validation.Field(&in.ClientSecret, validation.Required),
		validation.Field(&in.UserID, validation.Required, validation.By(validUUID)),
	)
}

func validUUID(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := uuid.Parse(s); err != nil {
		return fmt.Errorf("must be a valid UUID")
	}
	return nil
}

// EntraIDUser is one directory user returned by the Graph API listing.
type EntraIDUser struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// AzureEntraIDProvider validates Azure Entra ID definitions and lists
// directory users for the definition setup flow.
type AzureEntraIDProvider struct {
	probeTimeout time.Duration
}

// NewAzureEntraIDProvider creates an AzureEntraIDProvider with the given
// probe timeout.
func NewAzureEntraIDProvider(probeTimeout time.Duration) *AzureEntraIDProvider {
	return &AzureEntraIDProvider{probeTimeout: probeTimeout}
}

// Type returns the provider type tag.
func (p *AzureEntraIDProvider) Type() domain.ProviderType {
	return domain.ProviderTypeAzureEntraID
}

// ValidateInputs checks the raw input shape and returns the normalized form.
func (p *AzureEntraIDProvider) ValidateInputs(_ context.Context, raw json.RawMessage) (json.RawMessage, error) {
	var in AzureEntraIDInputs
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, invalidInputs(err)
	}
	if err := in.Validate(); err != nil {
		return nil, invalidInputs(err)
	}

	normalized, err := json.Marshal(in)
	if err != nil {
		return nil, invalidInputs(err)
	}
	return normalized, nil
}

// ValidateConnection exchanges client credentials for a Graph API token.
func (p *AzureEntraIDProvider) ValidateConnection(ctx context.Context, validated json.RawMessage) error {
	var in AzureEntraIDInputs
	if err := json.Unmarshal(validated, &in); err != nil {
		return invalidInputs(err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()

	if _, err := p.config(in).Token(ctx); err != nil {
		return connectionError(err)
	}
	return nil
}

// FetchUsers lists directory users through the Graph API. Used by the
// definition setup flow to pick the rotated user.
func (p *AzureEntraIDProvider) FetchUsers(ctx context.Context, validated json.RawMessage) ([]EntraIDUser, error) {
	var in AzureEntraIDInputs
	if err := json.Unmarshal(validated, &in); err != nil {
		return nil, invalidInputs(err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()

	client := p.config(in).Client(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, graphUsersURL, nil)
	if err != nil {
		return nil, connectionError(err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, connectionError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, connectionError(fmt.Errorf("graph api returned %d: %s", resp.StatusCode, body))
	}

	var payload struct {
		Value []EntraIDUser `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, connectionError(err)
	}
	return payload.Value, nil
}

func (p *AzureEntraIDProvider) config(in AzureEntraIDInputs) *clientcredentials.Config {
	return &clientcredentials.Config{
		ClientID:     in.ApplicationID,
		ClientSecret: in.ClientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", in.TenantID),
		Scopes:       []string{"https://graph.microsoft.com/.default"},
	}
}

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	validation "github.com/jellydator/validation"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/domain"
)

// Auth0Inputs are the management API credentials of an Auth0 definition.
type Auth0Inputs struct {
	Domain       string `json:"domain"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	Audience     string `json:"audience,omitempty"`
	// ManagedClientID is the application whose client secret gets rotated
	// when leases are minted.
	ManagedClientID string `json:"managedClientId"`
}

// Validate checks the input shape.
func (in Auth0Inputs) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Domain, validation.Required),
		validation.Field(&in.ClientID, validation.Required),
		validation.Field(&in.ClientSecret, validation.Required),
		validation.Field(&in.ManagedClientID, validation.Required),
	)
}

// Auth0Provider validates Auth0 client secret definitions.
type Auth0Provider struct {
	probeTimeout time.Duration
}

// NewAuth0Provider creates an Auth0Provider with the given probe timeout.
func NewAuth0Provider(probeTimeout time.Duration) *Auth0Provider {
	return &Auth0Provider{probeTimeout: probeTimeout}
}

// Type returns the provider type tag.
func (p *Auth0Provider) Type() domain.ProviderType {
	return domain.ProviderTypeAuth0ClientSecret
}

// ValidateInputs checks the raw input shape and returns the normalized form.
func (p *Auth0Provider) ValidateInputs(_ context.Context, raw json.RawMessage) (json.RawMessage, error) {
	var in Auth0Inputs
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

// ValidateConnection exchanges client credentials for a management API token.
func (p *Auth0Provider) ValidateConnection(ctx context.Context, validated json.RawMessage) error {
	var in Auth0Inputs
	if err := json.Unmarshal(validated, &in); err != nil {
		return invalidInputs(err)
	}

	audience := in.Audience
	if audience == "" {
		audience = fmt.Sprintf("https://%s/api/v2/", in.Domain)
	}

	cfg := clientcredentials.Config{
		ClientID:     in.ClientID,
		ClientSecret: in.ClientSecret,
		TokenURL:     fmt.Sprintf("https://%s/oauth/token", in.Domain),
		EndpointParams: map[string][]string{
			"audience": {audience},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()

	if _, err := cfg.Token(ctx); err != nil {
		return connectionError(err)
	}
	return nil
}

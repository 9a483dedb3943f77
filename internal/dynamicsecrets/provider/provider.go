// Package provider implements the dynamic secret provider capability set.
// Each provider validates its input shape and probes connectivity against the
// target system; credential minting happens in the leasing service and is out
// of scope here.
package provider

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/domain"
	"github.com/allisson/dynamic-secrets/internal/errors"
)

// Provider is the capability set a dynamic secret definition is bound to.
type Provider interface {
	// Type returns the provider type tag.
	Type() domain.ProviderType

	// ValidateInputs checks the raw input shape and returns the normalized
	// form: unknown fields are dropped, so the result is also the projection
	// safe to return from detail reads. The normalized form is what gets
	// encrypted and persisted.
	ValidateInputs(ctx context.Context, raw json.RawMessage) (json.RawMessage, error)

	// ValidateConnection probes the target system with the validated inputs.
	// nil means reachable; any failure, including a timeout, is reported as
	// a provider connection failure.
	ValidateConnection(ctx context.Context, validated json.RawMessage) error
}

// gatewayRef is the shared shape for extracting a gateway pin from inputs.
type gatewayRef struct {
	GatewayID *uuid.UUID `json:"gatewayId"`
}

// GatewayIDFromInputs extracts the gateway reference embedded in validated
// inputs, or nil when the inputs do not pin a gateway.
func GatewayIDFromInputs(validated json.RawMessage) (*uuid.UUID, error) {
	var ref gatewayRef
	if err := json.Unmarshal(validated, &ref); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "malformed provider inputs")
	}
	return ref.GatewayID, nil
}

func connectionError(err error) error {
	return errors.Wrap(domain.ErrProviderConnection, err.Error())
}

func invalidInputs(err error) error {
	return errors.Wrap(errors.ErrInvalidInput, err.Error())
}

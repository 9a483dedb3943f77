package provider

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"
	_ "github.com/lib/pq"

	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/domain"
)

// PostgresInputs are the connection inputs of a PostgreSQL definition.
// Statements are templates executed by the leasing service when minting and
// revoking roles; they are stored but not interpreted here.
type PostgresInputs struct {
	Host                string     `json:"host"`
	Port                int        `json:"port"`
	Database            string     `json:"database"`
	Username            string     `json:"username"`
	Password            string     `json:"password"`
	SSLMode             string     `json:"sslmode,omitempty"`
	CreationStatement   string     `json:"creationStatement,omitempty"`
	RevocationStatement string     `json:"revocationStatement,omitempty"`
	RenewStatement      string     `json:"renewStatement,omitempty"`
	GatewayID           *uuid.UUID `json:"gatewayId,omitempty"`
}

// Validate checks the input shape.
func (in PostgresInputs) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Host, validation.Required),
		validation.Field(&in.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&in.Database, validation.Required),
		validation.Field(&in.Username, validation.Required),
		validation.Field(&in.Password, validation.Required),
		validation.Field(&in.SSLMode, validation.In("", "disable", "require", "verify-ca", "verify-full")),
	)
}

// PostgresProvider validates PostgreSQL definitions.
type PostgresProvider struct {
	probeTimeout time.Duration
}

// NewPostgresProvider creates a PostgresProvider with the given probe timeout.
func NewPostgresProvider(probeTimeout time.Duration) *PostgresProvider {
	return &PostgresProvider{probeTimeout: probeTimeout}
}

// Type returns the provider type tag.
func (p *PostgresProvider) Type() domain.ProviderType {
	return domain.ProviderTypePostgres
}

// ValidateInputs checks the raw input shape and returns the normalized form.
func (p *PostgresProvider) ValidateInputs(_ context.Context, raw json.RawMessage) (json.RawMessage, error) {
	var in PostgresInputs
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

// ValidateConnection probes the target database. Gateway-pinned inputs skip
// the direct probe: the control plane cannot reach the target without the relay.
func (p *PostgresProvider) ValidateConnection(ctx context.Context, validated json.RawMessage) error {
	var in PostgresInputs
	if err := json.Unmarshal(validated, &in); err != nil {
		return invalidInputs(err)
	}
	if in.GatewayID != nil {
		return nil
	}

	sslMode := in.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&connect_timeout=%d",
		in.Username, in.Password, in.Host, in.Port, in.Database, sslMode,
		int(p.probeTimeout.Seconds()),
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return connectionError(err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return connectionError(err)
	}
	return nil
}

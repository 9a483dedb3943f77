package provider

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/domain"
)

// MySQLInputs are the connection inputs of a MySQL definition.
type MySQLInputs struct {
	Host                string     `json:"host"`
	Port                int        `json:"port"`
	Database            string     `json:"database"`
	Username            string     `json:"username"`
	Password            string     `json:"password"`
	CreationStatement   string     `json:"creationStatement,omitempty"`
	RevocationStatement string     `json:"revocationStatement,omitempty"`
	RenewStatement      string     `json:"renewStatement,omitempty"`
	GatewayID           *uuid.UUID `json:"gatewayId,omitempty"`
}

// Validate checks the input shape.
func (in MySQLInputs) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Host, validation.Required),
		validation.Field(&in.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&in.Database, validation.Required),
		validation.Field(&in.Username, validation.Required),
		validation.Field(&in.Password, validation.Required),
	)
}

// MySQLProvider validates MySQL definitions.
type MySQLProvider struct {
	probeTimeout time.Duration
}

// NewMySQLProvider creates a MySQLProvider with the given probe timeout.
func NewMySQLProvider(probeTimeout time.Duration) *MySQLProvider {
	return &MySQLProvider{probeTimeout: probeTimeout}
}

// Type returns the provider type tag.
func (p *MySQLProvider) Type() domain.ProviderType {
	return domain.ProviderTypeMySQL
}

// ValidateInputs checks the raw input shape and returns the normalized form.
func (p *MySQLProvider) ValidateInputs(_ context.Context, raw json.RawMessage) (json.RawMessage, error) {
	var in MySQLInputs
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
// the direct probe.
func (p *MySQLProvider) ValidateConnection(ctx context.Context, validated json.RawMessage) error {
	var in MySQLInputs
	if err := json.Unmarshal(validated, &in); err != nil {
		return invalidInputs(err)
	}
	if in.GatewayID != nil {
		return nil
	}

	dsn := fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?timeout=%s",
		in.Username, in.Password, in.Host, in.Port, in.Database, p.probeTimeout,
	)

	db, err := sql.Open("mysql", dsn)
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

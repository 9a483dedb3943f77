package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/allisson/dynamic-secrets/internal/database"
	apperrors "github.com/allisson/dynamic-secrets/internal/errors"
	projectsDomain "github.com/allisson/dynamic-secrets/internal/projects/domain"
)

// PostgreSQLGatewayRepository implements gateway lookups for PostgreSQL.
type PostgreSQLGatewayRepository struct {
	db      *sql.DB
	replica *sql.DB
}

// NewPostgreSQLGatewayRepository creates a new PostgreSQL gateway repository.
// The replica may be nil.
func NewPostgreSQLGatewayRepository(db, replica *sql.DB) *PostgreSQLGatewayRepository {
	return &PostgreSQLGatewayRepository{db: db, replica: replica}
}

// FindByIDAndOrg retrieves a gateway scoped to the organization. A gateway
// from another organization is reported as not found.
func (p *PostgreSQLGatewayRepository) FindByIDAndOrg(
	ctx context.Context,
	id uuid.UUID,
	orgID uuid.UUID,
) (*projectsDomain.Gateway, error) {
	querier := database.Reader(ctx, p.db, p.replica)

	query := `SELECT id, org_id, name, created_at
			  FROM gateways
			  WHERE id = $1 AND org_id = $2`

	var gateway projectsDomain.Gateway
	err := querier.QueryRowContext(ctx, query, id, orgID).Scan(
		&gateway.ID,
		&gateway.OrgID,
		&gateway.Name,
		&gateway.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, projectsDomain.ErrGatewayNotFound
		}
		return nil, apperrors.NewDatabaseError("find gateway by id and org", err)
	}

	return &gateway, nil
}

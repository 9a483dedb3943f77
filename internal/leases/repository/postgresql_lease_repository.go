// Package repository provides read-only PostgreSQL access to dynamic secret leases.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/allisson/dynamic-secrets/internal/database"
	apperrors "github.com/allisson/dynamic-secrets/internal/errors"
	leasesDomain "github.com/allisson/dynamic-secrets/internal/leases/domain"
)

// PostgreSQLLeaseRepository implements lease lookups for PostgreSQL.
type PostgreSQLLeaseRepository struct {
	db *sql.DB
}

// NewPostgreSQLLeaseRepository creates a new PostgreSQL lease repository.
func NewPostgreSQLLeaseRepository(db *sql.DB) *PostgreSQLLeaseRepository {
	return &PostgreSQLLeaseRepository{db: db}
}

// FindByDynamicSecretID retrieves all leases of a definition. Deletion
// decisions depend on this read, so it always runs against the primary.
func (p *PostgreSQLLeaseRepository) FindByDynamicSecretID(
	ctx context.Context,
	dynamicSecretID uuid.UUID,
) ([]leasesDomain.Lease, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, dynamic_secret_id, version, external_entity_id, expire_at, created_at
			  FROM dynamic_secret_leases
			  WHERE dynamic_secret_id = $1
			  ORDER BY created_at`

	rows, err := querier.QueryContext(ctx, query, dynamicSecretID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("find leases by dynamic secret", err)
	}
	defer rows.Close()

	var leases []leasesDomain.Lease
	for rows.Next() {
		var lease leasesDomain.Lease
		if err := rows.Scan(
			&lease.ID,
			&lease.DynamicSecretID,
			&lease.Version,
			&lease.ExternalEntityID,
			&lease.ExpireAt,
			&lease.CreatedAt,
		); err != nil {
			return nil, apperrors.NewDatabaseError("scan lease row", err)
		}
		leases = append(leases, lease)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError("iterate lease rows", err)
	}

	return leases, nil
}

// Package repository provides persistence for wrapped per-project data keys.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"

	cryptoDomain "github.com/allisson/dynamic-secrets/internal/crypto/domain"
	"github.com/allisson/dynamic-secrets/internal/database"
	apperrors "github.com/allisson/dynamic-secrets/internal/errors"
)

// PostgreSQLDataKeyRepository implements data key persistence for PostgreSQL.
// Uses native UUID and BYTEA types with transaction support via database.GetTx().
type PostgreSQLDataKeyRepository struct {
	db *sql.DB
}

// NewPostgreSQLDataKeyRepository creates a new PostgreSQL data key repository.
func NewPostgreSQLDataKeyRepository(db *sql.DB) *PostgreSQLDataKeyRepository {
	return &PostgreSQLDataKeyRepository{db: db}
}

// Create inserts a new wrapped data key. A duplicate project yields ErrConflict.
func (p *PostgreSQLDataKeyRepository) Create(ctx context.Context, dataKey *cryptoDomain.DataKey) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO project_data_keys (id, project_id, algorithm, encrypted_key, created_at)
			  VALUES ($1, $2, $3, $4, $5)`

	_, err := querier.ExecContext(
		ctx,
		query,
		dataKey.ID,
		dataKey.ProjectID,
		dataKey.Algorithm,
		dataKey.EncryptedKey,
		dataKey.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return apperrors.Wrap(apperrors.ErrConflict, "data key already exists for project")
		}
		return apperrors.NewDatabaseError("create data key", err)
	}
	return nil
}

// FindByProjectID retrieves the wrapped data key for a project.
func (p *PostgreSQLDataKeyRepository) FindByProjectID(
	ctx context.Context,
	projectID uuid.UUID,
) (*cryptoDomain.DataKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, project_id, algorithm, encrypted_key, created_at
			  FROM project_data_keys
			  WHERE project_id = $1`

	var dataKey cryptoDomain.DataKey
	err := querier.QueryRowContext(ctx, query, projectID).Scan(
		&dataKey.ID,
		&dataKey.ProjectID,
		&dataKey.Algorithm,
		&dataKey.EncryptedKey,
		&dataKey.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, cryptoDomain.ErrDataKeyNotFound
		}
		return nil, apperrors.NewDatabaseError("find data key by project", err)
	}

	return &dataKey, nil
}

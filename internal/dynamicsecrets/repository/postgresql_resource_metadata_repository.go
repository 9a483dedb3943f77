package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/dynamic-secrets/internal/database"
	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/domain"
	apperrors "github.com/allisson/dynamic-secrets/internal/errors"
)

// PostgreSQLResourceMetadataRepository implements metadata tag persistence
// for PostgreSQL. Tags are only ever inserted and deleted wholesale; the
// engine replaces a definition's tags inside the same transaction as the row
// write.
type PostgreSQLResourceMetadataRepository struct {
	db *sql.DB
}

// NewPostgreSQLResourceMetadataRepository creates a new PostgreSQL resource
// metadata repository.
func NewPostgreSQLResourceMetadataRepository(db *sql.DB) *PostgreSQLResourceMetadataRepository {
	return &PostgreSQLResourceMetadataRepository{db: db}
}

// InsertMany inserts tags referencing a definition. A no-op for empty tags.
func (p *PostgreSQLResourceMetadataRepository) InsertMany(
	ctx context.Context,
	orgID uuid.UUID,
	dynamicSecretID uuid.UUID,
	tags []domain.ResourceMetadata,
) error {
	if len(tags) == 0 {
		return nil
	}

	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO resource_metadata (id, org_id, dynamic_secret_id, key, value, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	now := time.Now().UTC()
	for _, tag := range tags {
		id := tag.ID
		if id == uuid.Nil {
			id = uuid.Must(uuid.NewV7())
		}
		_, err := querier.ExecContext(ctx, query, id, orgID, dynamicSecretID, tag.Key, tag.Value, now)
		if err != nil {
			return apperrors.NewDatabaseError("insert resource metadata", err)
		}
	}
	return nil
}

// DeleteByDynamicSecretID removes all tags of a definition.
func (p *PostgreSQLResourceMetadataRepository) DeleteByDynamicSecretID(
	ctx context.Context,
	dynamicSecretID uuid.UUID,
) error {
	querier := database.GetTx(ctx, p.db)

	_, err := querier.ExecContext(
		ctx,
		`DELETE FROM resource_metadata WHERE dynamic_secret_id = $1`,
		dynamicSecretID,
	)
	if err != nil {
		return apperrors.NewDatabaseError("delete resource metadata", err)
	}
	return nil
}

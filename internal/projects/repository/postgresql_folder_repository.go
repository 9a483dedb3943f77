package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/allisson/dynamic-secrets/internal/database"
	apperrors "github.com/allisson/dynamic-secrets/internal/errors"
	projectsDomain "github.com/allisson/dynamic-secrets/internal/projects/domain"
)

// PostgreSQLFolderRepository implements folder lookups for PostgreSQL.
type PostgreSQLFolderRepository struct {
	db      *sql.DB
	replica *sql.DB
}

// NewPostgreSQLFolderRepository creates a new PostgreSQL folder repository.
// The replica may be nil.
func NewPostgreSQLFolderRepository(db, replica *sql.DB) *PostgreSQLFolderRepository {
	return &PostgreSQLFolderRepository{db: db, replica: replica}
}

// FindBySecretPath retrieves the folder at a path within one environment.
func (p *PostgreSQLFolderRepository) FindBySecretPath(
	ctx context.Context,
	projectID uuid.UUID,
	environment string,
	path string,
) (*projectsDomain.Folder, error) {
	querier := database.Reader(ctx, p.db, p.replica)

	query := `SELECT id, project_id, environment, path, created_at
			  FROM folders
			  WHERE project_id = $1 AND environment = $2 AND path = $3`

	var folder projectsDomain.Folder
	err := querier.QueryRowContext(ctx, query, projectID, environment, path).Scan(
		&folder.ID,
		&folder.ProjectID,
		&folder.Environment,
		&folder.Path,
		&folder.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, projectsDomain.ErrFolderNotFound
		}
		return nil, apperrors.NewDatabaseError("find folder by secret path", err)
	}

	return &folder, nil
}

// FindBySecretPathMultiEnv retrieves the folders at the same path across
// multiple environments. Environments without a folder at the path are
// simply absent from the result.
func (p *PostgreSQLFolderRepository) FindBySecretPathMultiEnv(
	ctx context.Context,
	projectID uuid.UUID,
	environments []string,
	path string,
) ([]projectsDomain.Folder, error) {
	querier := database.Reader(ctx, p.db, p.replica)

	query := `SELECT id, project_id, environment, path, created_at
			  FROM folders
			  WHERE project_id = $1 AND environment = ANY($2) AND path = $3
			  ORDER BY environment`

	rows, err := querier.QueryContext(ctx, query, projectID, pq.Array(environments), path)
	if err != nil {
		return nil, apperrors.NewDatabaseError("find folders by secret path multi env", err)
	}
	defer rows.Close()

	var folders []projectsDomain.Folder
	for rows.Next() {
		var folder projectsDomain.Folder
		if err := rows.Scan(
			&folder.ID,
			&folder.ProjectID,
			&folder.Environment,
			&folder.Path,
			&folder.CreatedAt,
		); err != nil {
			return nil, apperrors.NewDatabaseError("scan folder row", err)
		}
		folders = append(folders, folder)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError("iterate folder rows", err)
	}

	return folders, nil
}

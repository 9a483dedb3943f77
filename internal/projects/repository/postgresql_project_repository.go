// Package repository provides read-only PostgreSQL access to projects,
// folders and gateways. Finders prefer the read replica when one is
// configured; an open transaction always takes precedence.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/allisson/dynamic-secrets/internal/database"
	apperrors "github.com/allisson/dynamic-secrets/internal/errors"
	projectsDomain "github.com/allisson/dynamic-secrets/internal/projects/domain"
)

// PostgreSQLProjectRepository implements project lookups for PostgreSQL.
type PostgreSQLProjectRepository struct {
	db      *sql.DB
	replica *sql.DB
}

// NewPostgreSQLProjectRepository creates a new PostgreSQL project repository.
// The replica may be nil.
func NewPostgreSQLProjectRepository(db, replica *sql.DB) *PostgreSQLProjectRepository {
	return &PostgreSQLProjectRepository{db: db, replica: replica}
}

// FindByID retrieves a project by its ID.
func (p *PostgreSQLProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*projectsDomain.Project, error) {
	query := `SELECT id, org_id, name, slug, created_at
			  FROM projects
			  WHERE id = $1`
	return p.findOne(ctx, query, id)
}

// FindBySlug retrieves a project by its slug within an organization.
func (p *PostgreSQLProjectRepository) FindBySlug(
	ctx context.Context,
	orgID uuid.UUID,
	slug string,
) (*projectsDomain.Project, error) {
	query := `SELECT id, org_id, name, slug, created_at
			  FROM projects
			  WHERE org_id = $1 AND slug = $2`
	return p.findOne(ctx, query, orgID, slug)
}

func (p *PostgreSQLProjectRepository) findOne(
	ctx context.Context,
	query string,
	args ...any,
) (*projectsDomain.Project, error) {
	querier := database.Reader(ctx, p.db, p.replica)

	var project projectsDomain.Project
	err := querier.QueryRowContext(ctx, query, args...).Scan(
		&project.ID,
		&project.OrgID,
		&project.Name,
		&project.Slug,
		&project.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, projectsDomain.ErrProjectNotFound
		}
		return nil, apperrors.NewDatabaseError("find project", err)
	}

	return &project, nil
}

package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/allisson/dynamic-secrets/internal/database"
	apperrors "github.com/allisson/dynamic-secrets/internal/errors"
	leasesDomain "github.com/allisson/dynamic-secrets/internal/leases/domain"
)

// PostgreSQLRevocationJobRepository persists revocation queue jobs.
type PostgreSQLRevocationJobRepository struct {
	db *sql.DB
}

// NewPostgreSQLRevocationJobRepository creates a new PostgreSQL revocation job repository.
func NewPostgreSQLRevocationJobRepository(db *sql.DB) *PostgreSQLRevocationJobRepository {
	return &PostgreSQLRevocationJobRepository{db: db}
}

// Create inserts a new job.
func (p *PostgreSQLRevocationJobRepository) Create(ctx context.Context, job *leasesDomain.RevocationJob) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO revocation_jobs (id, job_type, subject_id, status, retries, last_error, processed_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query, job.ID, job.Type, job.SubjectID, job.Status,
		job.Retries, job.LastError, job.ProcessedAt)
	if err != nil {
		return apperrors.NewDatabaseError("create revocation job", err)
	}

	return nil
}

// GetPendingJobs retrieves pending jobs of one type oldest first, locking the
// rows so concurrent workers never pick up the same job.
func (p *PostgreSQLRevocationJobRepository) GetPendingJobs(
	ctx context.Context,
	jobType leasesDomain.RevocationJobType,
	limit int,
) ([]*leasesDomain.RevocationJob, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, job_type, subject_id, status, retries, last_error, processed_at, created_at, updated_at
			  FROM revocation_jobs
			  WHERE job_type = $1 AND status = $2
			  ORDER BY created_at ASC
			  LIMIT $3
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, jobType, leasesDomain.RevocationJobStatusPending, limit)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get pending revocation jobs", err)
	}
	defer rows.Close()

	var jobs []*leasesDomain.RevocationJob
	for rows.Next() {
		var job leasesDomain.RevocationJob
		if err := rows.Scan(
			&job.ID,
			&job.Type,
			&job.SubjectID,
			&job.Status,
			&job.Retries,
			&job.LastError,
			&job.ProcessedAt,
			&job.CreatedAt,
			&job.UpdatedAt,
		); err != nil {
			return nil, apperrors.NewDatabaseError("scan revocation job row", err)
		}
		jobs = append(jobs, &job)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError("iterate revocation job rows", err)
	}

	return jobs, nil
}

// Update updates the processing state of a job.
func (p *PostgreSQLRevocationJobRepository) Update(ctx context.Context, job *leasesDomain.RevocationJob) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE revocation_jobs
			  SET status = $1, retries = $2, last_error = $3, processed_at = $4, updated_at = NOW()
			  WHERE id = $5`

	_, err := querier.ExecContext(ctx, query, job.Status, job.Retries, job.LastError, job.ProcessedAt, job.ID)
	if err != nil {
		return apperrors.NewDatabaseError("update revocation job", err)
	}

	return nil
}

// DeletePendingBySubjectID removes pending jobs of the given type for a
// subject. Used to cancel a lease's queued revocation on forced delete.
func (p *PostgreSQLRevocationJobRepository) DeletePendingBySubjectID(
	ctx context.Context,
	jobType leasesDomain.RevocationJobType,
	subjectID uuid.UUID,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM revocation_jobs
			  WHERE job_type = $1 AND subject_id = $2 AND status = $3`

	_, err := querier.ExecContext(ctx, query, jobType, subjectID, leasesDomain.RevocationJobStatusPending)
	if err != nil {
		return apperrors.NewDatabaseError("delete pending revocation jobs", err)
	}

	return nil
}

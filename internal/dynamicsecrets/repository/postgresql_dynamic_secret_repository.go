// Package repository provides PostgreSQL persistence for dynamic secret
// definitions and their metadata tags. Finders prefer the read replica when
// one is configured; writes and transactional sequences run on the primary.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/allisson/dynamic-secrets/internal/database"
	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/domain"
	apperrors "github.com/allisson/dynamic-secrets/internal/errors"
)

// dynamicSecretColumns is the projection shared by all definition queries.
const dynamicSecretColumns = `ds.id, ds.name, ds.version, ds.type, ds.default_ttl, ds.max_ttl,
	ds.encrypted_input, ds.folder_id, ds.status, ds.status_details, ds.gateway_id,
	ds.created_at, ds.updated_at`

// PostgreSQLDynamicSecretRepository implements definition persistence for PostgreSQL.
type PostgreSQLDynamicSecretRepository struct {
	db      *sql.DB
	replica *sql.DB
}

// NewPostgreSQLDynamicSecretRepository creates a new PostgreSQL dynamic
// secret repository. The replica may be nil.
func NewPostgreSQLDynamicSecretRepository(db, replica *sql.DB) *PostgreSQLDynamicSecretRepository {
	return &PostgreSQLDynamicSecretRepository{db: db, replica: replica}
}

// Create inserts a new definition row. A (folder, name) duplicate yields
// ErrNameAlreadyExists.
func (p *PostgreSQLDynamicSecretRepository) Create(ctx context.Context, ds *domain.DynamicSecret) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO dynamic_secrets
			  (id, name, version, type, default_ttl, max_ttl, encrypted_input, folder_id,
			   status, status_details, gateway_id, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := querier.ExecContext(
		ctx,
		query,
		ds.ID,
		ds.Name,
		ds.Version,
		ds.Type,
		ds.DefaultTTL,
		ds.MaxTTL,
		ds.EncryptedInput,
		ds.FolderID,
		statusValue(ds.Status),
		ds.StatusDetails,
		uuidValue(ds.GatewayID),
		ds.CreatedAt,
		ds.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return domain.ErrNameAlreadyExists
		}
		return apperrors.NewDatabaseError("create dynamic secret", err)
	}
	return nil
}

// Update rewrites the mutable fields of a definition row.
func (p *PostgreSQLDynamicSecretRepository) Update(ctx context.Context, ds *domain.DynamicSecret) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE dynamic_secrets
			  SET name = $1,
				  version = $2,
				  default_ttl = $3,
				  max_ttl = $4,
				  encrypted_input = $5,
				  status = $6,
				  status_details = $7,
				  gateway_id = $8,
				  updated_at = $9
			  WHERE id = $10`

	_, err := querier.ExecContext(
		ctx,
		query,
		ds.Name,
		ds.Version,
		ds.DefaultTTL,
		ds.MaxTTL,
		ds.EncryptedInput,
		statusValue(ds.Status),
		ds.StatusDetails,
		uuidValue(ds.GatewayID),
		ds.UpdatedAt,
		ds.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return domain.ErrNameAlreadyExists
		}
		return apperrors.NewDatabaseError("update dynamic secret", err)
	}
	return nil
}

// DeleteByID removes a definition row. Metadata tags are removed by the
// ON DELETE CASCADE on resource_metadata.
func (p *PostgreSQLDynamicSecretRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM dynamic_secrets WHERE id = $1`, id)
	if err != nil {
		return apperrors.NewDatabaseError("delete dynamic secret", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.ErrDynamicSecretNotFound
	}
	return nil
}

// FindByNameAndFolder retrieves a bare definition row without metadata.
func (p *PostgreSQLDynamicSecretRepository) FindByNameAndFolder(
	ctx context.Context,
	name string,
	folderID uuid.UUID,
) (*domain.DynamicSecret, error) {
	querier := database.Reader(ctx, p.db, p.replica)

	query := fmt.Sprintf(`SELECT %s FROM dynamic_secrets ds WHERE ds.name = $1 AND ds.folder_id = $2`,
		dynamicSecretColumns)

	row := querier.QueryRowContext(ctx, query, name, folderID)
	ds, err := scanDynamicSecret(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrDynamicSecretNotFound
		}
		return nil, apperrors.NewDatabaseError("find dynamic secret by name and folder", err)
	}
	return ds, nil
}

// FindOneWithMetadata retrieves a definition with its metadata tags folded in.
func (p *PostgreSQLDynamicSecretRepository) FindOneWithMetadata(
	ctx context.Context,
	name string,
	folderID uuid.UUID,
) (*domain.DynamicSecret, error) {
	querier := database.Reader(ctx, p.db, p.replica)

	query := fmt.Sprintf(`SELECT %s, rm.id, rm.key, rm.value
			  FROM dynamic_secrets ds
			  LEFT JOIN resource_metadata rm ON rm.dynamic_secret_id = ds.id
			  WHERE ds.name = $1 AND ds.folder_id = $2
			  ORDER BY rm.created_at`, dynamicSecretColumns)

	rows, err := querier.QueryContext(ctx, query, name, folderID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("find dynamic secret with metadata", err)
	}
	defer rows.Close()

	secrets, err := foldRows(rows)
	if err != nil {
		return nil, apperrors.NewDatabaseError("find dynamic secret with metadata", err)
	}
	if len(secrets) == 0 {
		return nil, domain.ErrDynamicSecretNotFound
	}
	return &secrets[0], nil
}

// FindWithMetadata lists definitions with folded metadata using plain
// offset/limit pagination. The limit is applied to definitions, not to
// joined rows.
func (p *PostgreSQLDynamicSecretRepository) FindWithMetadata(
	ctx context.Context,
	filter domain.ListFilter,
) ([]domain.DynamicSecret, error) {
	querier := database.Reader(ctx, p.db, p.replica)

	where, args, next := whereFolderAndSearch(filter)
	dir := sqlDirection(filter.OrderDirection)

	limitClause := ""
	if filter.Limit > 0 {
		limitClause = fmt.Sprintf("LIMIT $%d OFFSET $%d", next, next+1)
		args = append(args, filter.Limit, filter.Offset)
	}

	query := fmt.Sprintf(`SELECT %s, rm.id, rm.key, rm.value
			  FROM (
				  SELECT * FROM dynamic_secrets ds
				  WHERE %s
				  ORDER BY ds.name %s
				  %s
			  ) ds
			  LEFT JOIN resource_metadata rm ON rm.dynamic_secret_id = ds.id
			  ORDER BY ds.name %s, ds.id`,
		dynamicSecretColumns, where, dir, limitClause, dir)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list dynamic secrets", err)
	}
	defer rows.Close()

	secrets, err := foldRows(rows)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list dynamic secrets", err)
	}
	return secrets, nil
}

// ListByFolderIDs lists definitions across several folders with stable
// multi-env pagination. Each row gets a dense rank ordered by name over the
// entire qualifying set; the page is the rank window (offset, offset+limit].
// A name appearing in several folders shares one rank, so a page carries all
// of a name's environment occurrences and offsets never skip or duplicate.
// A zero limit skips the window and returns the whole qualifying set.
func (p *PostgreSQLDynamicSecretRepository) ListByFolderIDs(
	ctx context.Context,
	filter domain.ListFilter,
) ([]domain.DynamicSecret, error) {
	querier := database.Reader(ctx, p.db, p.replica)

	where, args, next := whereFolderAndSearch(filter)
	dir := sqlDirection(filter.OrderDirection)

	window := ""
	if filter.Limit > 0 {
		window = fmt.Sprintf("WHERE ranked.name_rank > $%d AND ranked.name_rank <= $%d", next, next+1)
		args = append(args, filter.Offset, filter.Offset+filter.Limit)
	}

	query := fmt.Sprintf(`WITH ranked AS (
				  SELECT ds.id, DENSE_RANK() OVER (ORDER BY ds.name %s) AS name_rank
				  FROM dynamic_secrets ds
				  WHERE %s
			  )
			  SELECT %s, rm.id, rm.key, rm.value
			  FROM dynamic_secrets ds
			  JOIN ranked ON ranked.id = ds.id
			  LEFT JOIN resource_metadata rm ON rm.dynamic_secret_id = ds.id
			  %s
			  ORDER BY ds.name %s, ds.id`,
		dir, where, dynamicSecretColumns, window, dir)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list dynamic secrets multi env", err)
	}
	defer rows.Close()

	secrets, err := foldRows(rows)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list dynamic secrets multi env", err)
	}
	return secrets, nil
}

// CountByFolderIDs counts qualifying definition rows.
func (p *PostgreSQLDynamicSecretRepository) CountByFolderIDs(
	ctx context.Context,
	filter domain.ListFilter,
) (int64, error) {
	return p.count(ctx, filter, "COUNT(ds.id)")
}

// CountDistinctByFolderIDs counts distinct names across folders so a logical
// secret present in several environments is counted once.
func (p *PostgreSQLDynamicSecretRepository) CountDistinctByFolderIDs(
	ctx context.Context,
	filter domain.ListFilter,
) (int64, error) {
	return p.count(ctx, filter, "COUNT(DISTINCT ds.name)")
}

func (p *PostgreSQLDynamicSecretRepository) count(
	ctx context.Context,
	filter domain.ListFilter,
	expr string,
) (int64, error) {
	querier := database.Reader(ctx, p.db, p.replica)

	where, args, _ := whereFolderAndSearch(filter)
	query := fmt.Sprintf(`SELECT %s FROM dynamic_secrets ds WHERE %s`, expr, where)

	var total int64
	if err := querier.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, apperrors.NewDatabaseError("count dynamic secrets", err)
	}
	return total, nil
}

// whereFolderAndSearch builds the shared filter clause and returns the next
// free placeholder index.
func whereFolderAndSearch(filter domain.ListFilter) (string, []any, int) {
	where := "ds.folder_id = ANY($1)"
	args := []any{pq.Array(filter.FolderIDs)}
	next := 2
	if filter.Search != "" {
		where += fmt.Sprintf(" AND ds.name ILIKE '%%' || $%d || '%%'", next)
		args = append(args, filter.Search)
		next++
	}
	return where, args, next
}

func sqlDirection(dir domain.OrderDirection) string {
	if dir == domain.OrderDesc {
		return "DESC"
	}
	return "ASC"
}

// rowScanner abstracts *sql.Row and *sql.Rows for the shared scan.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDynamicSecret(row rowScanner) (*domain.DynamicSecret, error) {
	var (
		ds            domain.DynamicSecret
		status        sql.NullString
		statusDetails sql.NullString
		gatewayID     uuid.NullUUID
	)

	err := row.Scan(
		&ds.ID,
		&ds.Name,
		&ds.Version,
		&ds.Type,
		&ds.DefaultTTL,
		&ds.MaxTTL,
		&ds.EncryptedInput,
		&ds.FolderID,
		&status,
		&statusDetails,
		&gatewayID,
		&ds.CreatedAt,
		&ds.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	applyNullables(&ds, status, statusDetails, gatewayID)
	return &ds, nil
}

// foldRows folds the left-joined (definition, metadata) rows into definitions
// with embedded tag lists. Definitions without tags get an empty list, never nil.
func foldRows(rows *sql.Rows) ([]domain.DynamicSecret, error) {
	var (
		secrets []domain.DynamicSecret
		index   = make(map[uuid.UUID]int)
	)

	for rows.Next() {
		var (
			ds            domain.DynamicSecret
			status        sql.NullString
			statusDetails sql.NullString
			gatewayID     uuid.NullUUID
			metaID        uuid.NullUUID
			metaKey       sql.NullString
			metaValue     sql.NullString
		)

		err := rows.Scan(
			&ds.ID,
			&ds.Name,
			&ds.Version,
			&ds.Type,
			&ds.DefaultTTL,
			&ds.MaxTTL,
			&ds.EncryptedInput,
			&ds.FolderID,
			&status,
			&statusDetails,
			&gatewayID,
			&ds.CreatedAt,
			&ds.UpdatedAt,
			&metaID,
			&metaKey,
			&metaValue,
		)
		if err != nil {
			return nil, err
		}

		pos, seen := index[ds.ID]
		if !seen {
			applyNullables(&ds, status, statusDetails, gatewayID)
			ds.Metadata = []domain.ResourceMetadata{}
			secrets = append(secrets, ds)
			pos = len(secrets) - 1
			index[ds.ID] = pos
		}

		if metaID.Valid {
			secrets[pos].Metadata = append(secrets[pos].Metadata, domain.ResourceMetadata{
				ID:    metaID.UUID,
				Key:   metaKey.String,
				Value: metaValue.String,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return secrets, nil
}

func applyNullables(ds *domain.DynamicSecret, status, statusDetails sql.NullString, gatewayID uuid.NullUUID) {
	if status.Valid {
		s := domain.Status(status.String)
		ds.Status = &s
	}
	if statusDetails.Valid {
		d := statusDetails.String
		ds.StatusDetails = &d
	}
	if gatewayID.Valid {
		id := gatewayID.UUID
		ds.GatewayID = &id
	}
}

func statusValue(status *domain.Status) any {
	if status == nil {
		return nil
	}
	return string(*status)
}

func uuidValue(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}

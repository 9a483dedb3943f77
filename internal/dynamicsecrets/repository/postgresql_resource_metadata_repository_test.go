package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/domain"
	apperrors "github.com/allisson/dynamic-secrets/internal/errors"
)

func TestPostgreSQLResourceMetadataRepository_InsertMany(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.Must(uuid.NewV7())
	dynamicSecretID := uuid.Must(uuid.NewV7())

	t.Run("inserts one row per tag", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLResourceMetadataRepository(db)

		mock.ExpectExec("INSERT INTO resource_metadata").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO resource_metadata").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.InsertMany(ctx, orgID, dynamicSecretID, []domain.ResourceMetadata{
			{Key: "env", Value: "prod"},
			{Key: "team", Value: "payments"},
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty tags is a no-op", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLResourceMetadataRepository(db)

		require.NoError(t, repo.InsertMany(ctx, orgID, dynamicSecretID, nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("engine fault wrapped as database error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLResourceMetadataRepository(db)

		mock.ExpectExec("INSERT INTO resource_metadata").WillReturnError(assert.AnError)

		err := repo.InsertMany(ctx, orgID, dynamicSecretID, []domain.ResourceMetadata{{Key: "k", Value: "v"}})
		require.Error(t, err)

		var dbErr *apperrors.DatabaseError
		assert.True(t, apperrors.As(err, &dbErr))
	})
}

func TestPostgreSQLResourceMetadataRepository_DeleteByDynamicSecretID(t *testing.T) {
	ctx := context.Background()

	db, mock := newMockDB(t)
	repo := NewPostgreSQLResourceMetadataRepository(db)
	dynamicSecretID := uuid.Must(uuid.NewV7())

	mock.ExpectExec("DELETE FROM resource_metadata").
		WithArgs(dynamicSecretID).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.DeleteByDynamicSecretID(ctx, dynamicSecretID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/dynamic-secrets/internal/crypto/domain"
	apperrors "github.com/allisson/dynamic-secrets/internal/errors"
)

// localKeeperURI is a base64key:// keeper for tests; no external KMS needed.
const localKeeperURI = "base64key://smGbjm71Nxd1Ig5FS0wj9SlbzAIrnolCz9bQQ6uAhl4="

type memoryDataKeyRepository struct {
	keys map[uuid.UUID]*cryptoDomain.DataKey
}

func newMemoryDataKeyRepository() *memoryDataKeyRepository {
	return &memoryDataKeyRepository{keys: make(map[uuid.UUID]*cryptoDomain.DataKey)}
}

func (m *memoryDataKeyRepository) Create(_ context.Context, dataKey *cryptoDomain.DataKey) error {
	if _, ok := m.keys[dataKey.ProjectID]; ok {
		return apperrors.Wrap(apperrors.ErrConflict, "data key already exists for project")
	}
	m.keys[dataKey.ProjectID] = dataKey
	return nil
}

func (m *memoryDataKeyRepository) FindByProjectID(_ context.Context, projectID uuid.UUID) (*cryptoDomain.DataKey, error) {
	dataKey, ok := m.keys[projectID]
	if !ok {
		return nil, cryptoDomain.ErrDataKeyNotFound
	}
	return dataKey, nil
}

func newTestCipherService(t *testing.T, repo DataKeyRepository) *ProjectCipherService {
	t.Helper()
	ctx := context.Background()

	keeper, err := NewKMSService().OpenKeeper(ctx, localKeeperURI)
	require.NoError(t, err)
	t.Cleanup(func() { _ = keeper.Close() })

	return NewProjectCipherService(keeper, NewAEADManager(), repo, cryptoDomain.AESGCM)
}

func TestProjectCipherService_Derive(t *testing.T) {
	ctx := context.Background()

	t.Run("creates data key on first use", func(t *testing.T) {
		repo := newMemoryDataKeyRepository()
		svc := newTestCipherService(t, repo)
		projectID := uuid.Must(uuid.NewV7())

		cipher, err := svc.Derive(ctx, projectID)
		require.NoError(t, err)
		require.NotNil(t, cipher)

		stored, err := repo.FindByProjectID(ctx, projectID)
		require.NoError(t, err)
		assert.Equal(t, projectID, stored.ProjectID)
		assert.Equal(t, cryptoDomain.AESGCM, stored.Algorithm)
		assert.NotEmpty(t, stored.EncryptedKey)
	})

	t.Run("reuses existing data key", func(t *testing.T) {
		repo := newMemoryDataKeyRepository()
		svc := newTestCipherService(t, repo)
		projectID := uuid.Must(uuid.NewV7())

		first, err := svc.Derive(ctx, projectID)
		require.NoError(t, err)

		blob, err := first.EncryptString("plaintext-inputs")
		require.NoError(t, err)

		second, err := svc.Derive(ctx, projectID)
		require.NoError(t, err)

		// A cipher from a later derivation must decrypt earlier blobs.
		plaintext, err := second.DecryptString(blob)
		require.NoError(t, err)
		assert.Equal(t, "plaintext-inputs", plaintext)
	})

	t.Run("different projects use different keys", func(t *testing.T) {
		repo := newMemoryDataKeyRepository()
		svc := newTestCipherService(t, repo)

		cipherA, err := svc.Derive(ctx, uuid.Must(uuid.NewV7()))
		require.NoError(t, err)
		cipherB, err := svc.Derive(ctx, uuid.Must(uuid.NewV7()))
		require.NoError(t, err)

		blob, err := cipherA.EncryptString("secret")
		require.NoError(t, err)

		_, err = cipherB.DecryptString(blob)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})
}

func TestProjectCipher_EncryptDecrypt(t *testing.T) {
	ctx := context.Background()
	svc := newTestCipherService(t, newMemoryDataKeyRepository())

	cipher, err := svc.Derive(ctx, uuid.Must(uuid.NewV7()))
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		blob, err := cipher.EncryptString(`{"host":"db.internal"}`)
		require.NoError(t, err)

		plaintext, err := cipher.DecryptString(blob)
		require.NoError(t, err)
		assert.Equal(t, `{"host":"db.internal"}`, plaintext)
	})

	t.Run("unique blobs per encryption", func(t *testing.T) {
		a, err := cipher.EncryptString("same")
		require.NoError(t, err)
		b, err := cipher.EncryptString("same")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("malformed blob", func(t *testing.T) {
		_, err := cipher.DecryptString("not-a-blob")
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	})

	t.Run("truncated payload", func(t *testing.T) {
		_, err := cipher.DecryptString("1:aes-gcm:aGk=")
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidBlobFormat)
	})
}

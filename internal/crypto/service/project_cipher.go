package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/dynamic-secrets/internal/crypto/domain"
	"github.com/allisson/dynamic-secrets/internal/errors"
)

// ProjectCipher encrypts and decrypts strings under a project's data key.
// Instances are safe for concurrent use.
type ProjectCipher struct {
	aead      AEAD
	algorithm cryptoDomain.Algorithm
}

// EncryptString encrypts plaintext and returns the serialized blob.
func (c *ProjectCipher) EncryptString(plaintext string) (string, error) {
	ciphertext, nonce, err := c.aead.Encrypt([]byte(plaintext), nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to encrypt")
	}

	blob := cryptoDomain.EncryptedBlob{
		Version:   cryptoDomain.BlobVersion,
		Algorithm: c.algorithm,
		Payload:   append(nonce, ciphertext...),
	}
	return blob.String(), nil
}

// DecryptString parses a serialized blob and returns the plaintext.
func (c *ProjectCipher) DecryptString(content string) (string, error) {
	blob, err := cryptoDomain.NewEncryptedBlob(content)
	if err != nil {
		return "", err
	}
	if blob.Algorithm != c.algorithm {
		return "", cryptoDomain.ErrDecryptionFailed
	}

	nonceSize := c.aead.NonceSize()
	if len(blob.Payload) < nonceSize {
		return "", fmt.Errorf("%w: payload shorter than nonce", cryptoDomain.ErrInvalidBlobFormat)
	}

	plaintext, err := c.aead.Decrypt(blob.Payload[nonceSize:], blob.Payload[:nonceSize], nil)
	if err != nil {
		return "", cryptoDomain.ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// ProjectCipherService derives project ciphers from KMS-wrapped data keys.
// A fresh data key is generated, wrapped and persisted on a project's first
// encryption.
type ProjectCipherService struct {
	keeper      cryptoDomain.KMSKeeper
	aeadManager AEADManager
	dataKeys    DataKeyRepository
	algorithm   cryptoDomain.Algorithm
}

// NewProjectCipherService creates a ProjectCipherService. The algorithm is
// used for newly generated data keys; existing keys keep their own.
func NewProjectCipherService(
	keeper cryptoDomain.KMSKeeper,
	aeadManager AEADManager,
	dataKeys DataKeyRepository,
	algorithm cryptoDomain.Algorithm,
) *ProjectCipherService {
	return &ProjectCipherService{
		keeper:      keeper,
		aeadManager: aeadManager,
		dataKeys:    dataKeys,
		algorithm:   algorithm,
	}
}

// Derive returns the cipher for the project, creating the data key on first use.
func (s *ProjectCipherService) Derive(ctx context.Context, projectID uuid.UUID) (*ProjectCipher, error) {
	dataKey, err := s.dataKeys.FindByProjectID(ctx, projectID)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			return nil, err
		}
		dataKey, err = s.createDataKey(ctx, projectID)
		if err != nil {
			return nil, err
		}
	}

	key, err := s.keeper.Decrypt(ctx, dataKey.EncryptedKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to unwrap data key")
	}
	defer cryptoDomain.Zero(key)

	aead, err := s.aeadManager.CreateCipher(key, dataKey.Algorithm)
	if err != nil {
		return nil, err
	}

	return &ProjectCipher{aead: aead, algorithm: dataKey.Algorithm}, nil
}

func (s *ProjectCipherService) createDataKey(ctx context.Context, projectID uuid.UUID) (*cryptoDomain.DataKey, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, errors.Wrap(err, "failed to generate data key")
	}
	defer cryptoDomain.Zero(key)

	wrapped, err := s.keeper.Encrypt(ctx, key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to wrap data key")
	}

	dataKey := &cryptoDomain.DataKey{
		ID:           uuid.Must(uuid.NewV7()),
		ProjectID:    projectID,
		Algorithm:    s.algorithm,
		EncryptedKey: wrapped,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.dataKeys.Create(ctx, dataKey); err != nil {
		// Lost a race with a concurrent first encryption; the winner's key
		// is authoritative.
		if errors.Is(err, errors.ErrConflict) {
			return s.dataKeys.FindByProjectID(ctx, projectID)
		}
		return nil, err
	}

	return dataKey, nil
}

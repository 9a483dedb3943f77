// Package service provides the cryptographic services used to protect
// dynamic secret provider inputs: AEAD ciphers, a KMS-backed key wrapper and
// the per-project cipher derivation.
package service

import (
	"context"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/dynamic-secrets/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)

	// NonceSize returns the nonce size in bytes.
	NonceSize() int
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// DataKeyRepository persists wrapped per-project data keys.
type DataKeyRepository interface {
	Create(ctx context.Context, dataKey *cryptoDomain.DataKey) error
	FindByProjectID(ctx context.Context, projectID uuid.UUID) (*cryptoDomain.DataKey, error)
}

// CipherService derives the cipher bound to a project's data key.
type CipherService interface {
	// Derive returns the project cipher, creating and wrapping a fresh data
	// key on first use.
	Derive(ctx context.Context, projectID uuid.UUID) (*ProjectCipher, error)
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// DataKey is the per-project key used to encrypt dynamic secret provider
// inputs. The key material is wrapped by the KMS keeper before persistence;
// the plaintext key only ever lives in memory and must be zeroed after use.
type DataKey struct {
	ID           uuid.UUID
	ProjectID    uuid.UUID
	Algorithm    Algorithm
	EncryptedKey []byte
	CreatedAt    time.Time
}

// Package domain holds the lease model. Leases are minted and renewed by the
// leasing service; this service only reads them to decide deletion behavior
// and cancels their scheduled revocations on forced delete.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Lease is one issued credential derived from a dynamic secret definition.
type Lease struct {
	ID               uuid.UUID
	DynamicSecretID  uuid.UUID
	Version          int
	ExternalEntityID string
	ExpireAt         time.Time
	CreatedAt        time.Time
}

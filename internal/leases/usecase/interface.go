// Package usecase implements the revocation queue and the background worker
// that prunes definitions marked deleting once their leases drain.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	leasesDomain "github.com/allisson/dynamic-secrets/internal/leases/domain"
)

// RevocationJobRepository persists revocation queue jobs.
type RevocationJobRepository interface {
	Create(ctx context.Context, job *leasesDomain.RevocationJob) error
	GetPendingJobs(ctx context.Context, jobType leasesDomain.RevocationJobType, limit int) ([]*leasesDomain.RevocationJob, error)
	Update(ctx context.Context, job *leasesDomain.RevocationJob) error
	DeletePendingBySubjectID(ctx context.Context, jobType leasesDomain.RevocationJobType, subjectID uuid.UUID) error
}

// LeaseRepository reads the leases of a definition.
type LeaseRepository interface {
	FindByDynamicSecretID(ctx context.Context, dynamicSecretID uuid.UUID) ([]leasesDomain.Lease, error)
}

// DefinitionPruner removes a definition row. Satisfied by the dynamic secret
// repository; metadata tags go with the row via the foreign key cascade.
type DefinitionPruner interface {
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// WorkerConfig holds prune worker configuration.
type WorkerConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

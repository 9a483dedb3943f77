package usecase

import (
	"context"

	"github.com/google/uuid"

	leasesDomain "github.com/allisson/dynamic-secrets/internal/leases/domain"
)

// RevocationQueue is the Postgres-backed job queue used by the lifecycle
// engine. Scheduling only enqueues; the prune worker and the leasing service
// consume the jobs.
type RevocationQueue struct {
	jobs RevocationJobRepository
}

// NewRevocationQueue creates a new revocation queue.
func NewRevocationQueue(jobs RevocationJobRepository) *RevocationQueue {
	return &RevocationQueue{jobs: jobs}
}

// SchedulePrune enqueues a prune job for a definition marked deleting.
func (q *RevocationQueue) SchedulePrune(ctx context.Context, dynamicSecretID uuid.UUID) error {
	job := &leasesDomain.RevocationJob{
		ID:        uuid.Must(uuid.NewV7()),
		Type:      leasesDomain.RevocationJobTypePrune,
		SubjectID: dynamicSecretID,
		Status:    leasesDomain.RevocationJobStatusPending,
	}
	return q.jobs.Create(ctx, job)
}

// CancelRevocation removes the queued revocation of one lease. Forced deletes
// call this for every lease before removing the definition; a failure here
// must abort the delete.
func (q *RevocationQueue) CancelRevocation(ctx context.Context, leaseID uuid.UUID) error {
	return q.jobs.DeletePendingBySubjectID(ctx, leasesDomain.RevocationJobTypeRevokeLease, leaseID)
}

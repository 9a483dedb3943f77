package domain

import (
	"time"

	"github.com/google/uuid"
)

// RevocationJobType identifies the work a queued job carries.
type RevocationJobType string

const (
	// RevocationJobTypePrune removes a definition marked deleting once its
	// leases have drained.
	RevocationJobTypePrune RevocationJobType = "prune_dynamic_secret"

	// RevocationJobTypeRevokeLease revokes one issued lease at its expiry.
	RevocationJobTypeRevokeLease RevocationJobType = "revoke_lease"
)

// RevocationJobStatus represents the processing state of a job.
type RevocationJobStatus string

const (
	RevocationJobStatusPending   RevocationJobStatus = "pending"
	RevocationJobStatusProcessed RevocationJobStatus = "processed"
	RevocationJobStatusFailed    RevocationJobStatus = "failed"
)

// RevocationJob is one queued background job. SubjectID points at a
// definition for prune jobs and at a lease for revocation jobs.
type RevocationJob struct {
	ID          uuid.UUID
	Type        RevocationJobType
	SubjectID   uuid.UUID
	Status      RevocationJobStatus
	Retries     int
	LastError   *string
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

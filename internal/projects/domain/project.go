// Package domain holds the project, folder and gateway models the dynamic
// secret engine resolves against. These resources are owned by other services;
// this service only reads them.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Project is the tenancy unit. Dynamic secret definitions always live inside
// a folder of one of the project's environments.
type Project struct {
	ID        uuid.UUID
	OrgID     uuid.UUID
	Name      string
	Slug      string
	CreatedAt time.Time
}

// Folder is a node in an environment's secret path tree.
type Folder struct {
	ID          uuid.UUID
	ProjectID   uuid.UUID
	Environment string
	Path        string
	CreatedAt   time.Time
}

// Gateway is an org-scoped relay through which providers reach targets that
// the control plane cannot connect to directly.
type Gateway struct {
	ID        uuid.UUID
	OrgID     uuid.UUID
	Name      string
	CreatedAt time.Time
}

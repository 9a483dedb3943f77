// Package authz provides the capability check applied before every dynamic
// secret operation. The engine depends only on the Checker interface; the
// policy evaluator in this package is the default implementation.
package authz

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/allisson/dynamic-secrets/internal/errors"
)

// Action identifies a capability over dynamic secret root credentials.
type Action string

// Actions checked by the lifecycle engine.
const (
	ActionReadRootCredential   Action = "read-root-credential"
	ActionCreateRootCredential Action = "create-root-credential"
	ActionEditRootCredential   Action = "edit-root-credential"
	ActionDeleteRootCredential Action = "delete-root-credential"
)

// ActorType identifies the kind of principal performing a request.
type ActorType string

// Supported actor types.
const (
	ActorTypeUser     ActorType = "user"
	ActorTypeIdentity ActorType = "identity"
)

// Actor is the authenticated principal performing an operation.
type Actor struct {
	ID         uuid.UUID
	OrgID      uuid.UUID
	Type       ActorType
	AuthMethod string
}

// Tag is a single metadata key/value pair attached to a resource.
type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Subject carries the attributes of the resource being accessed. Metadata is
// included so policies can condition access on resource tags.
type Subject struct {
	Environment string
	SecretPath  string
	Metadata    []Tag
}

// Checker decides whether an actor may perform an action on a subject.
type Checker interface {
	// Can reports whether the action is permitted. It returns an error only
	// for evaluation faults, never for a plain denial.
	Can(ctx context.Context, actor Actor, action Action, subject Subject) (bool, error)

	// RequireCan is Can with denial mapped to a forbidden error.
	RequireCan(ctx context.Context, actor Actor, action Action, subject Subject) error
}

// Deny builds the forbidden error returned for a denied action.
func Deny(action Action, subject Subject) error {
	return errors.Wrap(
		errors.ErrForbidden,
		fmt.Sprintf("actor is not allowed to %s at %s/%s", action, subject.Environment, subject.SecretPath),
	)
}

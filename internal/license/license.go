// Package license exposes the plan entitlements of an organization. The
// lifecycle engine only consults the dynamic secret flag; a billing-backed
// implementation replaces StaticService in larger deployments.
package license

import (
	"context"

	"github.com/google/uuid"
)

// Plan holds the entitlement flags relevant to this service.
type Plan struct {
	// DynamicSecret indicates whether the plan allows creating and updating
	// dynamic secret definitions. Reads and deletes are never plan-gated.
	DynamicSecret bool
}

// Service resolves the plan for an organization.
type Service interface {
	GetPlan(ctx context.Context, orgID uuid.UUID) (Plan, error)
}

// StaticService returns the same plan for every organization, backed by
// configuration.
type StaticService struct {
	plan Plan
}

// NewStaticService creates a StaticService with the given plan.
func NewStaticService(plan Plan) *StaticService {
	return &StaticService{plan: plan}
}

// GetPlan returns the configured plan regardless of organization.
func (s *StaticService) GetPlan(_ context.Context, _ uuid.UUID) (Plan, error) {
	return s.plan, nil
}

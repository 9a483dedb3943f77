package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/dynamic-secrets/internal/authz"
	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/domain"
	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/provider"
	"github.com/allisson/dynamic-secrets/internal/metrics"
)

// dynamicSecretUseCaseWithMetrics wraps DynamicSecretUseCase with business metrics.
type dynamicSecretUseCaseWithMetrics struct {
	next    DynamicSecretUseCase
	metrics metrics.BusinessMetrics
}

// NewDynamicSecretUseCaseWithMetrics creates a metrics decorator for DynamicSecretUseCase.
func NewDynamicSecretUseCaseWithMetrics(next DynamicSecretUseCase, businessMetrics metrics.BusinessMetrics) DynamicSecretUseCase {
	return &dynamicSecretUseCaseWithMetrics{
		next:    next,
		metrics: businessMetrics,
	}
}

func (d *dynamicSecretUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	d.metrics.RecordOperation(ctx, "dynamic_secrets", operation, status)
	d.metrics.RecordDuration(ctx, "dynamic_secrets", operation, time.Since(start), status)
}

func (d *dynamicSecretUseCaseWithMetrics) Create(ctx context.Context, actor authz.Actor, input CreateInput) (*domain.DynamicSecret, error) {
	start := time.Now()
	result, err := d.next.Create(ctx, actor, input)
	d.record(ctx, "dynamic_secret_create", start, err)
	return result, err
}

func (d *dynamicSecretUseCaseWithMetrics) UpdateByName(ctx context.Context, actor authz.Actor, selector Selector, input UpdateInput) (*domain.DynamicSecret, error) {
	start := time.Now()
	result, err := d.next.UpdateByName(ctx, actor, selector, input)
	d.record(ctx, "dynamic_secret_update", start, err)
	return result, err
}

func (d *dynamicSecretUseCaseWithMetrics) DeleteByName(ctx context.Context, actor authz.Actor, selector Selector, force bool) (*domain.DynamicSecret, error) {
	start := time.Now()
	result, err := d.next.DeleteByName(ctx, actor, selector, force)
	d.record(ctx, "dynamic_secret_delete", start, err)
	return result, err
}

func (d *dynamicSecretUseCaseWithMetrics) GetDetails(ctx context.Context, actor authz.Actor, selector Selector) (*Details, error) {
	start := time.Now()
	result, err := d.next.GetDetails(ctx, actor, selector)
	d.record(ctx, "dynamic_secret_get_details", start, err)
	return result, err
}

func (d *dynamicSecretUseCaseWithMetrics) ListByEnv(ctx context.Context, actor authz.Actor, query ListQuery) ([]domain.DynamicSecret, error) {
	start := time.Now()
	result, err := d.next.ListByEnv(ctx, actor, query)
	d.record(ctx, "dynamic_secret_list", start, err)
	return result, err
}

func (d *dynamicSecretUseCaseWithMetrics) ListByEnvs(ctx context.Context, actor authz.Actor, query ListQuery) ([]domain.DynamicSecret, error) {
	start := time.Now()
	result, err := d.next.ListByEnvs(ctx, actor, query)
	d.record(ctx, "dynamic_secret_list_multi_env", start, err)
	return result, err
}

func (d *dynamicSecretUseCaseWithMetrics) ListByFolderMappings(ctx context.Context, actor authz.Actor, projectID uuid.UUID, mappings []FolderMapping, query ListQuery) ([]domain.DynamicSecret, error) {
	start := time.Now()
	result, err := d.next.ListByFolderMappings(ctx, actor, projectID, mappings, query)
	d.record(ctx, "dynamic_secret_list_by_folders", start, err)
	return result, err
}

func (d *dynamicSecretUseCaseWithMetrics) CountByEnv(ctx context.Context, actor authz.Actor, query ListQuery) (int64, error) {
	start := time.Now()
	result, err := d.next.CountByEnv(ctx, actor, query)
	d.record(ctx, "dynamic_secret_count", start, err)
	return result, err
}

func (d *dynamicSecretUseCaseWithMetrics) CountByEnvs(ctx context.Context, actor authz.Actor, query ListQuery) (int64, error) {
	start := time.Now()
	result, err := d.next.CountByEnvs(ctx, actor, query)
	d.record(ctx, "dynamic_secret_count_multi_env", start, err)
	return result, err
}

func (d *dynamicSecretUseCaseWithMetrics) FetchAzureEntraIDUsers(ctx context.Context, inputs json.RawMessage) ([]provider.EntraIDUser, error) {
	start := time.Now()
	result, err := d.next.FetchAzureEntraIDUsers(ctx, inputs)
	d.record(ctx, "dynamic_secret_fetch_entra_users", start, err)
	return result, err
}

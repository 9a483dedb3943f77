package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/domain"
	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/usecase"
	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/usecase/mocks"
	apperrors "github.com/allisson/dynamic-secrets/internal/errors"
	"github.com/allisson/dynamic-secrets/internal/metrics"
)

// mockBusinessMetrics is a mock implementation of metrics.BusinessMetrics for testing.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

var _ metrics.BusinessMetrics = (*mockBusinessMetrics)(nil)

func TestMetricsDecorator_Create(t *testing.T) {
	ctx := context.Background()
	actor := testActor()
	input := usecase.CreateInput{
		Selector: usecase.Selector{ProjectSlug: "backend", Environment: "dev", SecretPath: "/db", Name: "pg-reader"},
		Type:     domain.ProviderTypePostgres,
	}

	t.Run("records success", func(t *testing.T) {
		next := &mocks.MockDynamicSecretUseCase{}
		businessMetrics := &mockBusinessMetrics{}
		created := &domain.DynamicSecret{ID: uuid.Must(uuid.NewV7()), Name: "pg-reader"}

		next.On("Create", ctx, actor, input).Return(created, nil).Once()
		businessMetrics.On("RecordOperation", ctx, "dynamic_secrets", "dynamic_secret_create", "success").Return().Once()
		businessMetrics.On("RecordDuration", ctx, "dynamic_secrets", "dynamic_secret_create", mock.AnythingOfType("time.Duration"), "success").Return().Once()

		decorator := usecase.NewDynamicSecretUseCaseWithMetrics(next, businessMetrics)
		result, err := decorator.Create(ctx, actor, input)

		assert.NoError(t, err)
		assert.Equal(t, created, result)
		businessMetrics.AssertExpectations(t)
	})

	t.Run("records error", func(t *testing.T) {
		next := &mocks.MockDynamicSecretUseCase{}
		businessMetrics := &mockBusinessMetrics{}

		next.On("Create", ctx, actor, input).Return(nil, apperrors.ErrForbidden).Once()
		businessMetrics.On("RecordOperation", ctx, "dynamic_secrets", "dynamic_secret_create", "error").Return().Once()
		businessMetrics.On("RecordDuration", ctx, "dynamic_secrets", "dynamic_secret_create", mock.AnythingOfType("time.Duration"), "error").Return().Once()

		decorator := usecase.NewDynamicSecretUseCaseWithMetrics(next, businessMetrics)
		_, err := decorator.Create(ctx, actor, input)

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		businessMetrics.AssertExpectations(t)
	})
}

func TestMetricsDecorator_DeleteByName(t *testing.T) {
	ctx := context.Background()
	actor := testActor()
	selector := usecase.Selector{ProjectSlug: "backend", Environment: "dev", SecretPath: "/db", Name: "pg-reader"}

	next := &mocks.MockDynamicSecretUseCase{}
	businessMetrics := &mockBusinessMetrics{}
	deleted := &domain.DynamicSecret{ID: uuid.Must(uuid.NewV7()), Name: "pg-reader"}

	next.On("DeleteByName", ctx, actor, selector, true).Return(deleted, nil).Once()
	businessMetrics.On("RecordOperation", ctx, "dynamic_secrets", "dynamic_secret_delete", "success").Return().Once()
	businessMetrics.On("RecordDuration", ctx, "dynamic_secrets", "dynamic_secret_delete", mock.AnythingOfType("time.Duration"), "success").Return().Once()

	decorator := usecase.NewDynamicSecretUseCaseWithMetrics(next, businessMetrics)
	result, err := decorator.DeleteByName(ctx, actor, selector, true)

	assert.NoError(t, err)
	assert.Equal(t, deleted, result)
	businessMetrics.AssertExpectations(t)
}

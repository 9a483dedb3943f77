package license

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticService_GetPlan(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.Must(uuid.NewV7())

	t.Run("entitled", func(t *testing.T) {
		svc := NewStaticService(Plan{DynamicSecret: true})

		plan, err := svc.GetPlan(ctx, orgID)
		require.NoError(t, err)
		assert.True(t, plan.DynamicSecret)
	})

	t.Run("not entitled", func(t *testing.T) {
		svc := NewStaticService(Plan{DynamicSecret: false})

		plan, err := svc.GetPlan(ctx, orgID)
		require.NoError(t, err)
		assert.False(t, plan.DynamicSecret)
	})
}

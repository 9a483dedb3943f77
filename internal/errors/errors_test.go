package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	t.Run("wraps error with context", func(t *testing.T) {
		err := Wrap(ErrNotFound, "dynamic secret 'pg-reader' in folder '/db' not found")
		require.Error(t, err)
		assert.True(t, Is(err, ErrNotFound))
		assert.Contains(t, err.Error(), "pg-reader")
	})

	t.Run("returns nil for nil error", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, "context"))
	})

	t.Run("preserves chain through multiple wraps", func(t *testing.T) {
		err := Wrap(Wrap(ErrConflict, "name taken"), "create failed")
		assert.True(t, Is(err, ErrConflict))
	})
}

func TestNewDatabaseError(t *testing.T) {
	t.Run("carries operation label", func(t *testing.T) {
		cause := errors.New("pq: deadlock detected")
		err := NewDatabaseError("list dynamic secrets multi env", cause)
		require.Error(t, err)

		var dbErr *DatabaseError
		require.True(t, As(err, &dbErr))
		assert.Equal(t, "list dynamic secrets multi env", dbErr.Op)
		assert.True(t, Is(err, cause))
	})

	t.Run("returns nil for nil error", func(t *testing.T) {
		assert.Nil(t, NewDatabaseError("op", nil))
	})
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	sentinels := []error{ErrNotFound, ErrConflict, ErrInvalidInput, ErrUnauthorized, ErrForbidden}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(t, Is(a, b))
		}
	}
}

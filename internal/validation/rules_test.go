package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/dynamic-secrets/internal/errors"
	"github.com/allisson/dynamic-secrets/internal/validation"
)

func TestWrapValidationError(t *testing.T) {
	assert.Nil(t, validation.WrapValidationError(nil))

	err := validation.WrapValidationError(apperrors.New("field is required"))
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	assert.Contains(t, err.Error(), "field is required")
}

func TestSlug(t *testing.T) {
	valid := []string{"", "backend", "backend-api", "env1"}
	for _, s := range valid {
		assert.NoError(t, validation.Slug(s), s)
	}

	invalid := []string{"Backend", "backend_api", "-backend", "backend-", "back--end", "back end"}
	for _, s := range invalid {
		assert.Error(t, validation.Slug(s), s)
	}

	assert.Error(t, validation.Slug(42))
}

func TestDefinitionName(t *testing.T) {
	valid := []string{"", "pg-reader", "pg_reader", "PGReader1"}
	for _, s := range valid {
		assert.NoError(t, validation.DefinitionName(s), s)
	}

	invalid := []string{"pg reader", "pg/reader", "pg.reader"}
	for _, s := range invalid {
		assert.Error(t, validation.DefinitionName(s), s)
	}
}

func TestSecretPath(t *testing.T) {
	valid := []string{"", "/", "/db", "/db/replica"}
	for _, s := range valid {
		assert.NoError(t, validation.SecretPath(s), s)
	}

	invalid := []string{"db", "/db/", "db/replica"}
	for _, s := range invalid {
		assert.Error(t, validation.SecretPath(s), s)
	}
}

func TestTTL(t *testing.T) {
	valid := []string{"", "30m", "1h", "1h30m"}
	for _, s := range valid {
		assert.NoError(t, validation.TTL(s), s)
	}

	invalid := []string{"soon", "-1h", "0s", "1 hour"}
	for _, s := range invalid {
		assert.Error(t, validation.TTL(s), s)
	}
}

package shared

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	err := NewDomainErrorWithDetails("NOT_FOUND", "Configuration not found", map[string]any{"user_id": 1})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrInvalidInput)
}

func TestStorageError(t *testing.T) {
	err := NewStorageError("create configuration", io.ErrUnexpectedEOF)

	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "create configuration")

	var domainErr *DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "STORAGE_UNAVAILABLE", domainErr.Code)
}

package util

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError_Passthrough(t *testing.T) {
	original := NewConflict("already open", nil)
	converted := ToDomainError(original)
	assert.Equal(t, CodeConflict, converted.Code)
	assert.Equal(t, "already open", converted.Message)
}

func TestToDomainError_WrapsUnknownErrors(t *testing.T) {
	converted := ToDomainError(errors.New("boom"))
	require.NotNil(t, converted)
	assert.Equal(t, CodeInternal, converted.Code)
	assert.NotContains(t, converted.Message, "boom", "raw error text never reaches the user")

	assert.Nil(t, ToDomainError(nil))
}

func TestToDomainError_UnwrapsWrappedDomainErrors(t *testing.T) {
	wrapped := fmt.Errorf("dispatch: %w", NewUnauthorized("admins only"))
	converted := ToDomainError(wrapped)
	assert.Equal(t, CodeUnauthorized, converted.Code)
}

func TestNewDeliveryDegraded(t *testing.T) {
	err := NewDeliveryDegraded([]string{"log-channel", "owner-dm"}, nil)
	assert.True(t, IsCode(err, CodeDeliveryDegraded))

	converted := ToDomainError(err)
	assert.Equal(t, []string{"log-channel", "owner-dm"}, converted.Details["targets"])
}

func TestIsCode(t *testing.T) {
	err := NewUpstreamFailure("channel fetch failed", errors.New("timeout"))
	assert.True(t, IsCode(err, CodeUpstreamFailure))
	assert.False(t, IsCode(err, CodeConflict))
	assert.False(t, IsCode(errors.New("plain"), CodeInternal))
	assert.False(t, IsCode(nil, CodeInternal))
}

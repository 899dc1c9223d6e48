package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesCode(t *testing.T) {
	err := Errorf("NOT_FOUND", "footprint %s not found", "abc")
	assert.Equal(t, "footprint abc not found", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, fmt.Errorf("load: %w", err), ErrNotFound)
	assert.NotErrorIs(t, err, ErrInvalidInput)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "INVALID_STATE", ErrorCode(fmt.Errorf("sync: %w", ErrInvalidState)))
	assert.Empty(t, ErrorCode(errors.New("plain")))
	assert.Empty(t, ErrorCode(nil))
}

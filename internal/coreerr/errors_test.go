package coreerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoreErrorFormatting(t *testing.T) {
	err := New(CodeFrame, "frame too long", ErrFrameTooLarge)
	assert.Contains(t, err.Error(), "FRAME_ERROR")
	assert.Contains(t, err.Error(), "frame too long")
	assert.Contains(t, err.Error(), "frame exceeds maximum size")
}

func TestCoreErrorWithoutCause(t *testing.T) {
	err := New(CodeConfig, "missing database.path", nil)
	assert.Equal(t, "CONFIG_ERROR: missing database.path", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestCoreErrorIsMatchesWrappedSentinel(t *testing.T) {
	err := New(CodePersistence, "lookup failed", ErrNotFound)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrFrameTooLarge))
}

func TestCoreErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := New(CodePersistence, "insert failed", cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

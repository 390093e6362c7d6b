package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	t.Run("WrapPreservesSentinel", func(t *testing.T) {
		err := Wrap(ErrNotFound, "identity lookup")

		assert.True(t, stderrors.Is(err, ErrNotFound))
		assert.Equal(t, "identity lookup: not found", err.Error())
	})

	t.Run("WrapNilReturnsNil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, "context"))
	})

	t.Run("NestedWrapPreservesSentinel", func(t *testing.T) {
		err := Wrap(Wrap(ErrIntegrity, "decrypt email"), "authenticate")

		assert.True(t, Is(err, ErrIntegrity))
		assert.False(t, Is(err, ErrUnavailable))
	})
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrConflict,
		ErrInvalidInput,
		ErrUnauthorized,
		ErrForbidden,
		ErrIntegrity,
		ErrUnavailable,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(t, stderrors.Is(a, b), "%v should not match %v", a, b)
		}
	}
}

package errors_test

import (
	"errors"
	"testing"

	pkgerrors "github.com/agentstation/alloymap/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestPreconditionError(t *testing.T) {
	t.Run("with stage", func(t *testing.T) {
		err := pkgerrors.NewPreconditionError("reconcile", "text source is empty")
		assert.Equal(t, "precondition failed in reconcile: text source is empty", err.Error())
		assert.True(t, pkgerrors.IsPrecondition(err))
		assert.False(t, pkgerrors.IsValidationError(err))
	})

	t.Run("without stage", func(t *testing.T) {
		err := &pkgerrors.PreconditionError{Message: "no data"}
		assert.Equal(t, "precondition failed: no data", err.Error())
	})

	t.Run("wraps cause", func(t *testing.T) {
		err := pkgerrors.WrapPrecondition("rank", pkgerrors.ErrEmptyRanking)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsPrecondition(err))
		assert.True(t, pkgerrors.IsEmptyRanking(err))
		assert.Contains(t, err.Error(), "ranking is empty")
	})

	t.Run("nil passthrough", func(t *testing.T) {
		assert.NoError(t, pkgerrors.WrapPrecondition("rank", nil))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{
			Field:   "identifier_column",
			Message: "cannot be empty",
		}
		assert.Equal(t, "validation failed for field identifier_column: cannot be empty", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInput))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "invalid configuration"}
		assert.Equal(t, "validation failed: invalid configuration", err.Error())
	})
}

func TestFieldErrors(t *testing.T) {
	fe := pkgerrors.FieldErrors{
		pkgerrors.NewValidationError("SS.1", "Strenght", "undeclared trait"),
		pkgerrors.NewValidationError("WA.1", "Densty", "undeclared trait"),
	}
	assert.True(t, pkgerrors.IsValidationError(fe))
	assert.Contains(t, fe.Error(), "SS.1")
	assert.Contains(t, fe.Error(), "; ")

	var empty pkgerrors.FieldErrors
	assert.False(t, errors.Is(empty, pkgerrors.ErrInvalidInput))
}

func TestWrapHelpers(t *testing.T) {
	cause := errors.New("disk full")

	ioErr := pkgerrors.WrapIO("write", "out.csv", cause)
	var target *pkgerrors.IOError
	require.True(t, errors.As(ioErr, &target))
	assert.Equal(t, "out.csv", target.Path)
	assert.ErrorIs(t, ioErr, cause)

	parseErr := pkgerrors.WrapParse("yaml", "text.yaml", cause)
	assert.Equal(t, "parse error in yaml file text.yaml: disk full", parseErr.Error())

	assert.NoError(t, pkgerrors.WrapIO("read", "x", nil))
	assert.NoError(t, pkgerrors.WrapParse("json", "x", nil))
	assert.NoError(t, pkgerrors.WrapValidation("x", nil))

	valErr := pkgerrors.WrapValidation("weights.strength", cause)
	assert.True(t, pkgerrors.IsValidationError(valErr))
	assert.Equal(t, "validation failed for field weights.strength: disk full", valErr.Error())
}

func TestConfigError(t *testing.T) {
	cause := errors.New("bad weight")
	err := pkgerrors.NewConfigError("weights", "strength must be finite", cause)
	assert.Equal(t, "configuration error in weights: strength must be finite", err.Error())
	assert.ErrorIs(t, err, cause)
}

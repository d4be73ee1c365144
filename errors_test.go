package minimax

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors(t *testing.T) {
	t.Run("it should match typed errors with their sentinel", func(t *testing.T) {
		// GIVEN
		notFound := &ServiceNotFoundError{Identifier: counterID}
		failed := &ConstructionFailedError{Identifier: reportID, Cause: notFound}

		// WHEN / THEN
		assert.ErrorIs(t, notFound, ErrServiceNotFound)
		assert.ErrorIs(t, failed, ErrConstructionFailed)
		assert.ErrorIs(t, failed, ErrServiceNotFound)
		assert.NotErrorIs(t, notFound, ErrConstructionFailed)
	})

	t.Run("it should nest construction failures", func(t *testing.T) {
		// GIVEN
		err := &ConstructionFailedError{
			Identifier: reportID,
			Cause:      &ServiceNotFoundError{Identifier: counterID},
		}

		// WHEN
		message := err.Error()

		// THEN
		assert.Equal(t, "failed to construct service 'CounterReport':\n\tservice 'counter' not found", message)
	})

	t.Run("it should list build problems", func(t *testing.T) {
		// GIVEN
		err := &BuildError{Problems: []error{
			errors.New("first"),
			errors.New("second\nline"),
		}}

		// WHEN
		message := err.Error()

		// THEN
		assert.Equal(t, "failed to build provider:\n\t- first\n\t- second\n\t  line", message)
		assert.Len(t, err.Unwrap(), 2)
	})
}

package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Run("it should parse level names ignoring case", func(t *testing.T) {
		// WHEN
		level, err := ParseLevel(" WARN ")

		// THEN
		require.NoError(t, err)
		assert.Equal(t, zerolog.WarnLevel, level)
	})

	t.Run("it should default to info", func(t *testing.T) {
		// WHEN
		level, err := ParseLevel("")

		// THEN
		require.NoError(t, err)
		assert.Equal(t, zerolog.InfoLevel, level)
	})

	t.Run("it should reject unknown levels", func(t *testing.T) {
		// WHEN
		_, err := ParseLevel("verbose")

		// THEN
		assert.ErrorContains(t, err, `invalid log level "verbose"`)
	})
}

func TestNew(t *testing.T) {
	t.Run("it should filter messages below the level", func(t *testing.T) {
		// GIVEN
		var buf bytes.Buffer
		logger := New(&buf, zerolog.InfoLevel)

		// WHEN
		logger.Debug().Msg("hidden")
		logger.Info().Str("service", "counter").Msg("visible")

		// THEN
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "visible")
		assert.Contains(t, buf.String(), "service=counter")
	})
}

package minimax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	t.Run("it should keep descriptors in registration order", func(t *testing.T) {
		// GIVEN
		first := Must(Instance(greeterID, greeter(&englishGreeter{})))
		second := Must(Service[greeter](greeterID, Transient, newEnglishGreeter))
		other := Must(Instance(NewIdentifier("Number"), 42))

		// WHEN
		registry := NewRegistry().
			Register(first).
			Register(other).
			Register(second)

		// THEN
		assert.Equal(t, []*Descriptor{first, second}, registry.Lookup(greeterID))
		assert.Equal(t, []Identifier{greeterID, NewIdentifier("Number")}, registry.Identifiers())
		assert.Equal(t, 3, registry.Len())
	})

	t.Run("it should return nothing for an unknown identifier", func(t *testing.T) {
		// WHEN
		descriptors := NewRegistry().Lookup(NewIdentifier("Unknown"))

		// THEN
		assert.Empty(t, descriptors)
	})

	t.Run("it should not expose its internal order", func(t *testing.T) {
		// GIVEN
		registry := NewRegistry().Register(Must(Instance(NewIdentifier("Number"), 42)))

		// WHEN
		ids := registry.Identifiers()
		ids[0] = NewIdentifier("Changed")

		// THEN
		assert.Equal(t, []Identifier{NewIdentifier("Number")}, registry.Identifiers())
	})

	t.Run("it should panic when registering a nil descriptor", func(t *testing.T) {
		assert.Panics(t, func() {
			NewRegistry().Register(nil)
		})
	})

	t.Run("it should panic when registering after build", func(t *testing.T) {
		// GIVEN
		registry := NewRegistry()
		p, err := Build(registry)
		require.NoError(t, err)
		defer p.Close()

		// WHEN / THEN
		assert.Panics(t, func() {
			registry.Register(Must(Instance(NewIdentifier("Number"), 42)))
		})
	})
}

package minimax

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var greeterID = IdentifierOf[greeter]()

func newEnglishGreeter(Resolver) (*englishGreeter, error) {
	return &englishGreeter{}, nil
}

func TestNewDescriptor(t *testing.T) {
	factory := func(Resolver) (AnyHandle, error) {
		return NewShared(1), nil
	}

	t.Run("it should create a descriptor", func(t *testing.T) {
		// WHEN
		d, err := NewDescriptor(
			NewIdentifier("Number"),
			Transient,
			TypeTagOf[int](),
			factory,
			DependsOn(NewIdentifier("Seed")),
			Description("a number"),
		)

		// THEN
		require.NoError(t, err)
		assert.Equal(t, NewIdentifier("Number"), d.Identifier())
		assert.Equal(t, Transient, d.Lifetime())
		assert.Equal(t, TypeTagOf[int](), d.TypeTag())
		assert.Equal(t, []Identifier{NewIdentifier("Seed")}, d.Dependencies())
		assert.Equal(t, "a number", d.Description())
		assert.Equal(t, "Descriptor(Number, transient, int)", d.String())
	})

	testCases := []struct {
		name     string
		id       Identifier
		lifetime Lifetime
		tag      TypeTag
		factory  Factory
		deps     []Identifier
		field    string
	}{
		{name: "an empty identifier", lifetime: Singleton, tag: TypeTagOf[int](), factory: factory, field: "Identifier"},
		{name: "an unknown lifetime", id: NewIdentifier("x"), lifetime: 0, tag: TypeTagOf[int](), factory: factory, field: "Lifetime"},
		{name: "a zero type tag", id: NewIdentifier("x"), lifetime: Singleton, factory: factory, field: "Implemented"},
		{name: "a nil factory", id: NewIdentifier("x"), lifetime: Singleton, tag: TypeTagOf[int](), field: "Factory"},
		{name: "an empty dependency", id: NewIdentifier("x"), lifetime: Singleton, tag: TypeTagOf[int](), factory: factory, deps: []Identifier{{}}, field: "Dependencies[0]"},
	}
	for _, tc := range testCases {
		t.Run("it should reject "+tc.name, func(t *testing.T) {
			// WHEN
			_, err := NewDescriptor(tc.id, tc.lifetime, tc.tag, tc.factory, DependsOn(tc.deps...))

			// THEN
			assert.ErrorIs(t, err, ErrInvalidDescriptor)
			assert.ErrorContains(t, err, tc.field)
		})
	}
}

func TestService(t *testing.T) {
	t.Run("it should expose the implementation as the interface", func(t *testing.T) {
		// GIVEN
		d, err := Service[greeter](greeterID, Singleton, newEnglishGreeter)
		require.NoError(t, err)

		// WHEN
		h, err := d.construct(nil)

		// THEN
		require.NoError(t, err)
		assert.Equal(t, TypeTagOf[*englishGreeter](), d.TypeTag())
		assert.Equal(t, TypeTagOf[greeter](), h.TypeTag())
		typed, ok := Downcast[greeter](h)
		require.True(t, ok)
		assert.Equal(t, "hello", typed.Get().Greet())
	})

	t.Run("it should reject an implementation not assignable to the interface", func(t *testing.T) {
		// WHEN
		_, err := Service[greeter](greeterID, Singleton, func(Resolver) (int, error) { return 1, nil })

		// THEN
		assert.ErrorIs(t, err, ErrInvalidDescriptor)
		assert.ErrorContains(t, err, "int is not assignable to minimax.greeter")
	})

	t.Run("it should reject a nil constructor", func(t *testing.T) {
		// WHEN
		_, err := Service[greeter, *englishGreeter](greeterID, Singleton, nil)

		// THEN
		assert.ErrorIs(t, err, ErrInvalidDescriptor)
	})

	t.Run("it should forward the constructor error", func(t *testing.T) {
		// GIVEN
		boom := errors.New("boom")
		d := Must(Service[greeter](greeterID, Transient, func(Resolver) (*englishGreeter, error) {
			return nil, boom
		}))

		// WHEN
		_, err := d.construct(nil)

		// THEN
		assert.ErrorIs(t, err, boom)
	})

	t.Run("it should report a nil interface implementation", func(t *testing.T) {
		// GIVEN
		d := Must(Service[greeter](greeterID, Transient, func(Resolver) (greeter, error) {
			return nil, nil
		}))

		// WHEN
		_, err := d.construct(nil)

		// THEN
		assert.ErrorContains(t, err, "constructor returned a nil")
	})
}

func TestInstance(t *testing.T) {
	t.Run("it should serve the given value as a singleton", func(t *testing.T) {
		// GIVEN
		instance := &englishGreeter{}
		d := Must(Instance[greeter](greeterID, instance))

		// WHEN
		h, err := d.construct(nil)

		// THEN
		require.NoError(t, err)
		assert.Equal(t, Singleton, d.Lifetime())
		assert.Equal(t, TypeTagOf[*englishGreeter](), d.TypeTag())
		typed, ok := Downcast[greeter](h)
		require.True(t, ok)
		assert.Same(t, instance, typed.Get())
	})

	t.Run("it should reject a nil instance", func(t *testing.T) {
		// WHEN
		_, err := Instance[greeter](greeterID, nil)

		// THEN
		assert.ErrorIs(t, err, ErrInvalidDescriptor)
	})
}

func TestDescriptorConstruct(t *testing.T) {
	t.Run("it should turn a factory panic into an error", func(t *testing.T) {
		// GIVEN
		d := Must(NewDescriptor(NewIdentifier("Panicking"), Transient, TypeTagOf[int](), func(Resolver) (AnyHandle, error) {
			panic("kaboom")
		}))

		// WHEN
		h, err := d.construct(nil)

		// THEN
		assert.Nil(t, h)
		assert.ErrorContains(t, err, "panic calling factory of Descriptor(Panicking, transient, int): kaboom")
	})

	t.Run("it should reject a nil handle", func(t *testing.T) {
		// GIVEN
		d := Must(NewDescriptor(NewIdentifier("Nil"), Transient, TypeTagOf[int](), func(Resolver) (AnyHandle, error) {
			return nil, nil
		}))

		// WHEN
		_, err := d.construct(nil)

		// THEN
		assert.ErrorContains(t, err, "returned a nil handle")
	})

	t.Run("it should panic in Must on error", func(t *testing.T) {
		assert.Panics(t, func() {
			Must(nil, errors.New("invalid"))
		})
	})
}

package minimax

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/a-peyrard/minimax/option"
	"github.com/go-playground/validator/v10"
)

type (
	// Factory builds one instance, resolving its own dependencies through r.
	Factory func(r Resolver) (AnyHandle, error)

	// Descriptor is the registration record of one implementation.
	//
	// Descriptors are immutable once created. They are usually emitted by
	// minimaxgen but can be written by hand.
	Descriptor struct {
		identifier   Identifier
		lifetime     Lifetime
		dependencies []Identifier
		tag          TypeTag
		factory      Factory
		description  string
	}

	DescriptorOptions struct {
		dependencies []Identifier
		description  string
	}

	// descriptorFields is the validated projection of a Descriptor.
	descriptorFields struct {
		Identifier   string   `validate:"required"`
		Lifetime     Lifetime `validate:"lifetime"`
		Implemented  bool     `validate:"required"`
		Factory      Factory  `validate:"required"`
		Dependencies []string `validate:"dive,required"`
	}
)

var descriptorValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("lifetime", func(fl validator.FieldLevel) bool {
		return Lifetime(fl.Field().Uint()).IsValid()
	})
	return v
})

// DependsOn declares the identifiers the factory resolves.
//
// Declarations are used for introspection and by CheckDependencies, the
// provider does not enforce them.
func DependsOn(ids ...Identifier) option.Option[DescriptorOptions] {
	return func(opts *DescriptorOptions) {
		opts.dependencies = append(opts.dependencies, ids...)
	}
}

func Description(description string) option.Option[DescriptorOptions] {
	return func(opts *DescriptorOptions) {
		opts.description = description
	}
}

// NewDescriptor creates a descriptor from a raw factory.
//
// tag identifies the implementation type and is the singleton cache key: two
// descriptors sharing a tag share their cached singleton, whatever their
// identifiers are.
func NewDescriptor(
	id Identifier,
	lifetime Lifetime,
	tag TypeTag,
	factory Factory,
	opts ...option.Option[DescriptorOptions],
) (*Descriptor, error) {
	options := option.Build(&DescriptorOptions{}, opts...)

	fields := descriptorFields{
		Identifier:   id.String(),
		Lifetime:     lifetime,
		Implemented:  !tag.IsZero(),
		Factory:      factory,
		Dependencies: make([]string, len(options.dependencies)),
	}
	for i, dep := range options.dependencies {
		fields.Dependencies[i] = dep.String()
	}
	if err := descriptorValidator().Struct(fields); err != nil {
		return nil, fmt.Errorf("%w '%s':\n\t%w", ErrInvalidDescriptor, id, err)
	}

	return &Descriptor{
		identifier:   id,
		lifetime:     lifetime,
		dependencies: options.dependencies,
		tag:          tag,
		factory:      factory,
		description:  options.description,
	}, nil
}

// Service creates a descriptor for the implementation Impl exposed as I.
//
// The handle produced by the factory is typed as I, so the descriptor is
// resolved with Resolve[I]. Impl must be assignable to I.
func Service[I any, Impl any](
	id Identifier,
	lifetime Lifetime,
	construct func(r Resolver) (Impl, error),
	opts ...option.Option[DescriptorOptions],
) (*Descriptor, error) {
	var (
		iface = reflect.TypeFor[I]()
		impl  = reflect.TypeFor[Impl]()
	)
	if !impl.AssignableTo(iface) {
		return nil, fmt.Errorf("%w '%s': %s is not assignable to %s", ErrInvalidDescriptor, id, impl, iface)
	}
	if construct == nil {
		return nil, fmt.Errorf("%w '%s': constructor cannot be nil", ErrInvalidDescriptor, id)
	}

	factory := func(r Resolver) (AnyHandle, error) {
		instance, err := construct(r)
		if err != nil {
			return nil, err
		}
		exposed, ok := any(instance).(I)
		if !ok {
			return nil, fmt.Errorf("constructor returned a nil %s", impl)
		}
		return NewShared(exposed), nil
	}

	return NewDescriptor(id, lifetime, typeTagFor(impl), factory, opts...)
}

// Instance creates a singleton descriptor serving an already built value.
//
// The dynamic type of value is the singleton cache key. Two instances of the
// same type registered under different identifiers share one slot: whichever
// is resolved first is served for both identifiers. Wrap values in distinct
// types to keep them apart.
//
// Closing the provider releases the cached handle, which closes value if it
// implements io.Closer.
func Instance[I any](id Identifier, value I, opts ...option.Option[DescriptorOptions]) (*Descriptor, error) {
	typ := reflect.TypeOf(value)
	if typ == nil {
		return nil, fmt.Errorf("%w '%s': instance cannot be nil", ErrInvalidDescriptor, id)
	}
	return NewDescriptor(
		id,
		Singleton,
		typeTagFor(typ),
		func(Resolver) (AnyHandle, error) {
			return NewShared(value), nil
		},
		opts...,
	)
}

// Must panics if err is not nil, it is intended for registration code.
func Must(d *Descriptor, err error) *Descriptor {
	if err != nil {
		panic(fmt.Sprintf("minimax: %v", err))
	}
	return d
}

func (d *Descriptor) Identifier() Identifier {
	return d.identifier
}

func (d *Descriptor) Lifetime() Lifetime {
	return d.lifetime
}

// Dependencies returns a copy of the declared dependencies.
func (d *Descriptor) Dependencies() []Identifier {
	deps := make([]Identifier, len(d.dependencies))
	copy(deps, d.dependencies)
	return deps
}

func (d *Descriptor) TypeTag() TypeTag {
	return d.tag
}

func (d *Descriptor) Description() string {
	return d.description
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("Descriptor(%s, %s, %s)", d.identifier, d.lifetime, d.tag)
}

// construct runs the factory, turning panics and nil handles into errors.
func (d *Descriptor) construct(r Resolver) (handle AnyHandle, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			handle = nil
			err = fmt.Errorf("panic calling factory of %s: %v", d, rec)
		}
	}()

	handle, err = d.factory(r)
	if err != nil {
		return nil, err
	}
	if handle == nil {
		return nil, fmt.Errorf("factory of %s returned a nil handle", d)
	}
	return handle, nil
}

func describeDependencies(ids []Identifier) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.String()
	}
	return strings.Join(names, ", ")
}

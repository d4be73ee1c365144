package minimax

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"runtime"

	"github.com/a-peyrard/minimax/option"
)

var errorType = reflect.TypeFor[error]()

// FromFunc creates a descriptor from a constructor function.
//
// The constructor either returns the instance, or the instance and an error.
// Each parameter is resolved through the provider: by the identifier declared
// at the same position with DependsOn, or by the identifier derived from the
// parameter type when no dependency is declared.
//
// The handle is typed as the declared return type, which is also the type
// tag. Constructors returning an interface therefore share one singleton slot
// per interface type.
func FromFunc(
	id Identifier,
	lifetime Lifetime,
	constructor any,
	opts ...option.Option[DescriptorOptions],
) (*Descriptor, error) {
	t := reflect.TypeOf(constructor)
	if t == nil || t.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w '%s': constructor must be a function, got %T", ErrInvalidDescriptor, id, constructor)
	}
	if t.IsVariadic() {
		return nil, fmt.Errorf("%w '%s': variadic constructors are not supported", ErrInvalidDescriptor, id)
	}
	if t.NumOut() != 1 && t.NumOut() != 2 {
		return nil, fmt.Errorf("%w '%s': constructor must either return the instance and an error, or just the instance", ErrInvalidDescriptor, id)
	}
	if t.NumOut() == 2 && t.Out(1) != errorType {
		return nil, fmt.Errorf("%w '%s': if constructor returns two elements, the second one must be an error", ErrInvalidDescriptor, id)
	}

	options := option.Build(&DescriptorOptions{}, opts...)
	if len(options.dependencies) > t.NumIn() {
		return nil, fmt.Errorf(
			"%w '%s': %d dependencies declared for a constructor taking %d parameters",
			ErrInvalidDescriptor, id, len(options.dependencies), t.NumIn(),
		)
	}

	params := make([]reflect.Type, t.NumIn())
	deps := make([]Identifier, t.NumIn())
	for i := range params {
		params[i] = t.In(i)
		if i < len(options.dependencies) {
			deps[i] = options.dependencies[i]
		} else {
			deps[i] = identifierForType(params[i])
		}
	}

	var (
		fn       = reflect.ValueOf(constructor)
		fnName   = filepath.Base(runtime.FuncForPC(fn.Pointer()).Name())
		provides = t.Out(0)
	)
	factory := func(r Resolver) (AnyHandle, error) {
		args := make([]reflect.Value, len(params))
		handles := make([]AnyHandle, 0, len(params))
		for i, dep := range deps {
			handle, arg, err := resolveArgument(r, dep, params[i])
			if err != nil {
				releaseAll(handles)
				return nil, fmt.Errorf("failed to resolve parameter %d of %s:\n\t%w", i, fnName, err)
			}
			handles = append(handles, handle)
			args[i] = arg
		}

		results := fn.Call(args)
		if len(results) == 2 && !results[1].IsNil() {
			releaseAll(handles)
			return nil, results[1].Interface().(error)
		}
		// holders of dependencies cached elsewhere are dropped, the others
		// now belong to the new instance
		for _, h := range handles {
			h.sharedHolder().releaseShared()
		}
		return newDynamicHandle(results[0], provides), nil
	}

	descOpts := []option.Option[DescriptorOptions]{
		option.Combine(opts...),
		func(o *DescriptorOptions) {
			o.dependencies = deps
		},
	}
	if options.description == "" {
		descOpts = append(descOpts, Description(fnName))
	}

	return NewDescriptor(id, lifetime, typeTagFor(provides), factory, descOpts...)
}

// resolveArgument resolves dep and returns its handle along with the value to
// pass as a parameter of type param.
func resolveArgument(r Resolver, dep Identifier, param reflect.Type) (AnyHandle, reflect.Value, error) {
	handle, err := r.ResolveAny(dep)
	if err != nil {
		return nil, reflect.Value{}, err
	}
	if handle.TypeTag().Type() != param {
		mismatch := &ServiceNotFoundError{Identifier: dep, Requested: typeTagFor(param), Actual: handle.TypeTag()}
		return nil, reflect.Value{}, errors.Join(mismatch, handle.Release())
	}

	value := handle.Value()
	if value == nil {
		return handle, reflect.Zero(param), nil
	}
	return handle, reflect.ValueOf(value), nil
}

// newDynamicHandle wraps a reflected value into a handle tagged with typ, so
// that Resolve[T] matches when T is the declared type.
func newDynamicHandle(value reflect.Value, typ reflect.Type) AnyHandle {
	return newHolder(value.Interface(), typeTagFor(typ))
}

package minimax

import (
	"errors"
	"fmt"
)

// Resolve resolves id and downcasts the handle to T.
//
// When the registered instance is not a T the handle is released and a
// *ServiceNotFoundError carrying both type tags is returned.
func Resolve[T any](r Resolver, id Identifier) (*Shared[T], error) {
	h, err := r.ResolveAny(id)
	if err != nil {
		return nil, err
	}
	return downcastOrRelease[T](id, h)
}

// MustResolve is like Resolve but panics on failure.
func MustResolve[T any](r Resolver, id Identifier) *Shared[T] {
	shared, err := Resolve[T](r, id)
	if err != nil {
		panic(fmt.Sprintf("failed to resolve %s:\n\t%v", id, err))
	}
	return shared
}

// Get resolves id and returns the instance itself.
//
// The holder is released when another one keeps the instance alive, as the
// provider cache does for singletons, so closing the provider still closes
// them. The only holder of a transient instance is kept and the instance is
// never closed: use Resolve to control the lifetime of transient services
// holding resources.
func Get[T any](r Resolver, id Identifier) (T, error) {
	shared, err := Resolve[T](r, id)
	if err != nil {
		var zero T
		return zero, err
	}
	value := shared.Get()
	shared.releaseShared()
	return value, nil
}

// TryResolve is like Resolve but reports a missing registration for id with
// found set to false instead of an error. Type mismatches and failures of
// dependencies are still errors.
func TryResolve[T any](r Resolver, id Identifier) (shared *Shared[T], found bool, err error) {
	shared, err = Resolve[T](r, id)
	if err == nil {
		return shared, true, nil
	}

	var notFound *ServiceNotFoundError
	if !errors.Is(err, ErrConstructionFailed) && errors.As(err, &notFound) &&
		notFound.Identifier == id && notFound.Requested.IsZero() {
		return nil, false, nil
	}
	return nil, false, err
}

// ResolveAll resolves every descriptor registered under id, in registration
// order, and downcasts them to T.
//
// On any failure the handles resolved so far are released.
func ResolveAll[T any](r MultiResolver, id Identifier) ([]*Shared[T], error) {
	handles, err := r.ResolveAllAny(id)
	if err != nil {
		return nil, err
	}

	shared := make([]*Shared[T], 0, len(handles))
	for idx, h := range handles {
		typed, err := downcastOrRelease[T](id, h)
		if err != nil {
			for _, s := range shared {
				_ = s.Release()
			}
			releaseAll(handles[idx+1:])
			return nil, err
		}
		shared = append(shared, typed)
	}
	return shared, nil
}

func downcastOrRelease[T any](id Identifier, h AnyHandle) (*Shared[T], error) {
	shared, ok := Downcast[T](h)
	if ok {
		return shared, nil
	}

	mismatch := &ServiceNotFoundError{
		Identifier: id,
		Requested:  TypeTagOf[T](),
		Actual:     h.TypeTag(),
	}
	if err := h.Release(); err != nil {
		return nil, errors.Join(mismatch, err)
	}
	return nil, mismatch
}

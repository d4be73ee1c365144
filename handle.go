package minimax

import (
	"fmt"
	"io"
	"sync/atomic"
)

type (
	// AnyHandle is the type erased view of a shared service instance.
	//
	// Every handle is one holder of a reference counted cell. Holders are
	// independent: releasing one never invalidates the others, and the
	// instance is closed (if it implements io.Closer) once the last holder
	// is released.
	AnyHandle interface {
		// TypeTag is the tag of the type the handle was created for.
		TypeTag() TypeTag
		// CloneShared returns a new holder of the same instance.
		CloneShared() AnyHandle
		// Value returns the instance as an interface value.
		Value() any
		// Release drops this holder. Calling it more than once is a no-op.
		Release() error

		sharedHolder() *holder
	}

	// Shared is a typed handle over a shared instance of T.
	Shared[T any] struct {
		*holder
	}

	cell struct {
		value any
		tag   TypeTag
		refs  atomic.Int64
	}

	holder struct {
		cell     *cell
		released atomic.Bool
	}
)

// NewShared wraps value in a new cell with a single holder.
func NewShared[T any](value T) *Shared[T] {
	return &Shared[T]{holder: newHolder(value, TypeTagOf[T]())}
}

func newHolder(value any, tag TypeTag) *holder {
	c := &cell{value: value, tag: tag}
	c.refs.Store(1)
	return &holder{cell: c}
}

// Get returns the shared instance.
func (s *Shared[T]) Get() T {
	value, _ := s.cell.value.(T)
	return value
}

// Clone returns a new holder of the same instance.
//
// Clone panics if this holder was already released.
func (s *Shared[T]) Clone() *Shared[T] {
	return &Shared[T]{holder: s.holder.clone()}
}

// Downcast returns h as a typed handle when its type tag matches T.
//
// The typed handle is the same holder as h: nothing is copied and the
// reference count is shared. On mismatch h is left untouched so callers can
// probe other types.
func Downcast[T any](h AnyHandle) (*Shared[T], bool) {
	if h == nil {
		return nil, false
	}
	hd := h.sharedHolder()
	if hd == nil || hd.cell.tag != TypeTagOf[T]() {
		return nil, false
	}
	return &Shared[T]{holder: hd}, true
}

// SameInstance reports whether both handles hold the same instance.
func SameInstance(a, b AnyHandle) bool {
	if a == nil || b == nil {
		return false
	}
	return a.sharedHolder().cell == b.sharedHolder().cell
}

func (h *holder) TypeTag() TypeTag {
	return h.cell.tag
}

func (h *holder) CloneShared() AnyHandle {
	return h.clone()
}

func (h *holder) Value() any {
	return h.cell.value
}

// Refs returns the number of live holders of the instance.
func (h *holder) Refs() int64 {
	return h.cell.refs.Load()
}

func (h *holder) Release() error {
	if !h.released.CompareAndSwap(false, true) {
		return nil
	}
	if h.cell.refs.Add(-1) > 0 {
		return nil
	}
	if closer, ok := h.cell.value.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("failed to close instance of %s:\n\t%w", h.cell.tag, err)
		}
	}
	return nil
}

// releaseShared drops this holder only when other holders keep the instance
// alive, so the instance is never closed by it. It reports whether the holder
// was released.
func (h *holder) releaseShared() bool {
	if !h.released.CompareAndSwap(false, true) {
		return true
	}
	for {
		refs := h.cell.refs.Load()
		if refs <= 1 {
			h.released.Store(false)
			return false
		}
		if h.cell.refs.CompareAndSwap(refs, refs-1) {
			return true
		}
	}
}

func (h *holder) clone() *holder {
	if h.released.Load() {
		panic(fmt.Sprintf("minimax: clone of a released handle of %s", h.cell.tag))
	}
	h.cell.refs.Add(1)
	return &holder{cell: h.cell}
}

func (h *holder) sharedHolder() *holder {
	return h
}

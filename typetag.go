package minimax

import "reflect"

// TypeTag is a process unique token for a Go type.
//
// Tags are comparable and are used as the singleton cache key.
type TypeTag struct {
	typ reflect.Type
}

// TypeTagOf returns the tag of T. Interface types are supported.
func TypeTagOf[T any]() TypeTag {
	return TypeTag{typ: reflect.TypeFor[T]()}
}

func typeTagFor(typ reflect.Type) TypeTag {
	return TypeTag{typ: typ}
}

// Type returns the underlying reflect.Type, nil for the zero tag.
func (t TypeTag) Type() reflect.Type {
	return t.typ
}

func (t TypeTag) IsZero() bool {
	return t.typ == nil
}

func (t TypeTag) String() string {
	if t.typ == nil {
		return "<none>"
	}
	return t.typ.String()
}

package minimax

import (
	"reflect"
	"strings"
)

// Identifier names a requested capability, usually an interface optionally
// followed by its rendered generic parameters, e.g. "ExampleService<Other>".
//
// Identifiers are plain values: they can be compared with ==, used as map keys
// and declared as package level variables next to the types they name.
type Identifier struct {
	name string
}

func NewIdentifier(name string) Identifier {
	return Identifier{name: name}
}

// Generic renders an identifier for a generic capability: Generic("Box", Other)
// gives "Box<Other>".
func Generic(base string, params ...Identifier) Identifier {
	if len(params) == 0 {
		return NewIdentifier(base)
	}
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.name
	}
	return NewIdentifier(base + "<" + strings.Join(names, ", ") + ">")
}

// IdentifierOf derives the canonical identifier of T from its Go type name.
// Package qualifiers and pointer indirections are dropped and generic
// arguments are rendered with angle brackets.
func IdentifierOf[T any]() Identifier {
	return identifierForType(reflect.TypeFor[T]())
}

func identifierForType(typ reflect.Type) Identifier {
	return NewIdentifier(renderType(typ))
}

func (id Identifier) String() string {
	return id.name
}

func (id Identifier) IsZero() bool {
	return id.name == ""
}

// Compare orders identifiers by their canonical string.
func (id Identifier) Compare(other Identifier) int {
	return strings.Compare(id.name, other.name)
}

func renderType(typ reflect.Type) string {
	switch typ.Kind() {
	case reflect.Pointer:
		return renderType(typ.Elem())
	case reflect.Slice:
		if typ.Name() == "" {
			return "[]" + renderType(typ.Elem())
		}
	case reflect.Map:
		if typ.Name() == "" {
			return "map[" + renderType(typ.Key()) + "]" + renderType(typ.Elem())
		}
	}
	if typ.Name() == "" {
		return typ.String()
	}
	return renderTypeName(typ.Name())
}

// renderTypeName rewrites a reflect name such as
// "Pair[int,*github.com/acme/app.Other]" into "Pair<int, Other>".
func renderTypeName(name string) string {
	name = strings.TrimSpace(name)
	switch {
	case strings.HasPrefix(name, "*"):
		return renderTypeName(name[1:])
	case strings.HasPrefix(name, "[]"):
		return "[]" + renderTypeName(name[2:])
	case strings.HasPrefix(name, "map["):
		end := matchingBracket(name, len("map"))
		if end < 0 {
			return name
		}
		return "map[" + renderTypeName(name[len("map["):end]) + "]" + renderTypeName(name[end+1:])
	}

	open := strings.IndexByte(name, '[')
	if open < 0 {
		return unqualified(name)
	}
	end := matchingBracket(name, open)
	if end < 0 {
		return unqualified(name)
	}

	args := splitTopLevel(name[open+1 : end])
	for i, arg := range args {
		args[i] = renderTypeName(arg)
	}
	return unqualified(name[:open]) + "<" + strings.Join(args, ", ") + ">"
}

func unqualified(name string) string {
	if slash := strings.LastIndexByte(name, '/'); slash >= 0 {
		name = name[slash+1:]
	}
	if dot := strings.LastIndexByte(name, '.'); dot >= 0 {
		name = name[dot+1:]
	}
	return name
}

func matchingBracket(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func splitTopLevel(s string) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

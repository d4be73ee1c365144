package minimax

import (
	"fmt"
	"strings"
)

// Lifetime is the construction and caching policy of a descriptor.
type Lifetime uint8

const (
	// Singleton instances are built once per Provider and cached.
	Singleton Lifetime = iota + 1
	// Scoped is declared for descriptors that want one instance per scope.
	// Scopes are not modelled yet: Scoped behaves exactly like Transient.
	Scoped
	// Transient instances are built on every resolution.
	Transient
)

func (l Lifetime) String() string {
	switch l {
	case Singleton:
		return "singleton"
	case Scoped:
		return "scoped"
	case Transient:
		return "transient"
	default:
		return fmt.Sprintf("lifetime(%d)", uint8(l))
	}
}

func (l Lifetime) IsValid() bool {
	return l >= Singleton && l <= Transient
}

// ParseLifetime parses the name of a lifetime, case insensitive.
func ParseLifetime(raw string) (Lifetime, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "singleton":
		return Singleton, nil
	case "scoped":
		return Scoped, nil
	case "transient":
		return Transient, nil
	}
	return 0, fmt.Errorf("unknown lifetime %q, expected one of singleton, scoped, transient", raw)
}

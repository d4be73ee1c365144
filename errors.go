package minimax

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrServiceNotFound matches every *ServiceNotFoundError.
	ErrServiceNotFound = errors.New("service not found")
	// ErrConstructionFailed matches every *ConstructionFailedError.
	ErrConstructionFailed = errors.New("service construction failed")
	// ErrProviderClosed is returned by resolutions on a closed Provider.
	ErrProviderClosed = errors.New("provider is closed")
	// ErrRegistryConsumed is returned when building a registry twice.
	ErrRegistryConsumed = errors.New("registry was already built into a provider")
	// ErrInvalidDescriptor wraps descriptor validation failures.
	ErrInvalidDescriptor = errors.New("invalid descriptor")
)

type (
	// ServiceNotFoundError is returned when nothing is registered under the
	// identifier or when the registered instance is not of the requested type.
	ServiceNotFoundError struct {
		Identifier Identifier
		// Requested and Actual are only set for type mismatches.
		Requested TypeTag
		Actual    TypeTag
	}

	// ConstructionFailedError is returned when the factory of the selected
	// descriptor failed. Cause is whatever the factory returned, including
	// resolution errors of its own dependencies.
	ConstructionFailedError struct {
		Identifier Identifier
		Cause      error
	}

	// BuildError collects the problems found while building a Provider.
	BuildError struct {
		Problems []error
	}

	MissingDependencyError struct {
		Service    Identifier
		Dependency Identifier
	}

	// CycleError describes a dependency cycle, the first and last elements of
	// Path are the same identifier.
	CycleError struct {
		Path []Identifier
	}
)

func (e *ServiceNotFoundError) Error() string {
	if e.Requested.IsZero() {
		return fmt.Sprintf("service '%s' not found", e.Identifier)
	}
	return fmt.Sprintf("service '%s' not found as %s (registered instance is %s)", e.Identifier, e.Requested, e.Actual)
}

func (e *ServiceNotFoundError) Is(target error) bool {
	return target == ErrServiceNotFound
}

func (e *ConstructionFailedError) Error() string {
	return fmt.Sprintf("failed to construct service '%s':\n\t%v", e.Identifier, e.Cause)
}

func (e *ConstructionFailedError) Unwrap() error {
	return e.Cause
}

func (e *ConstructionFailedError) Is(target error) bool {
	return target == ErrConstructionFailed
}

func (e *BuildError) Error() string {
	var b strings.Builder
	b.WriteString("failed to build provider:")
	for _, p := range e.Problems {
		b.WriteString("\n\t- ")
		b.WriteString(strings.ReplaceAll(p.Error(), "\n", "\n\t  "))
	}
	return b.String()
}

func (e *BuildError) Unwrap() []error {
	return e.Problems
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("service '%s' depends on '%s' which is not registered", e.Service, e.Dependency)
}

func (e *CycleError) Error() string {
	return "dependency cycle found:\n" + formatCycle(e.Path)
}

func formatCycle(path []Identifier) string {
	var b strings.Builder
	for i, id := range path {
		b.WriteString(strings.Repeat("\t", i))
		if i > 0 {
			b.WriteString(" -> ")
		}
		b.WriteString(id.String())
		b.WriteString("\n")
	}
	return b.String()
}

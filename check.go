package minimax

import (
	"errors"
	"slices"

	"github.com/a-peyrard/minimax/set"
)

// CheckDependencies verifies the declared dependencies of every descriptor:
// each one must be registered and the dependency graph must be acyclic.
//
// It is not run by default, pass it to Build through WithChecks.
func CheckDependencies(r *Registry) error {
	var problems []error

	for _, id := range r.order {
		for _, d := range r.descriptors[id] {
			for _, dep := range d.dependencies {
				if _, found := r.descriptors[dep]; !found {
					problems = append(problems, &MissingDependencyError{Service: id, Dependency: dep})
				}
			}
		}
	}

	walker := &cycleWalker{
		registry: r,
		done:     set.New[Identifier](),
		onPath:   set.New[Identifier](),
	}
	for _, id := range r.order {
		if cycle := walker.visit(id); cycle != nil {
			problems = append(problems, &CycleError{Path: cycle})
		}
	}

	return errors.Join(problems...)
}

type cycleWalker struct {
	registry *Registry
	done     set.Set[Identifier]
	onPath   set.Set[Identifier]
	stack    []Identifier
}

// visit walks the dependencies of id depth first and returns the first cycle
// reachable from it, if any.
func (w *cycleWalker) visit(id Identifier) []Identifier {
	if w.done.Contains(id) {
		return nil
	}
	if w.onPath.Contains(id) {
		cycle := []Identifier{id}
		for i := len(w.stack) - 1; i >= 0; i-- {
			cycle = append(cycle, w.stack[i])
			if w.stack[i] == id {
				break
			}
		}
		slices.Reverse(cycle)
		return cycle
	}

	descriptors, found := w.registry.descriptors[id]
	if !found {
		return nil
	}

	w.onPath.Add(id)
	w.stack = append(w.stack, id)
	defer func() {
		w.stack = w.stack[:len(w.stack)-1]
		w.onPath.Remove(id)
		w.done.Add(id)
	}()

	for _, d := range descriptors {
		for _, dep := range d.dependencies {
			if cycle := w.visit(dep); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

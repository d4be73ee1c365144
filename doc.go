// Package minimax is a small dependency injection container.
//
// Services are described by descriptors registered under an Identifier in a
// Registry. Building the registry gives a Provider which constructs services
// on demand, caching singletons for its whole lifetime:
//
//	registry := minimax.NewRegistry().
//		Register(minimax.Must(minimax.Service[Counter](CounterID, minimax.Singleton, NewCounter)))
//	provider, err := minimax.Build(registry)
//	if err != nil {
//		return err
//	}
//	defer provider.Close()
//
//	counter, err := minimax.Resolve[Counter](provider, CounterID)
//
// Descriptors are usually generated from annotated constructors with the
// minimaxgen command.
package minimax

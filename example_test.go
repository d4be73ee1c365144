package minimax_test

import (
	"fmt"

	"github.com/a-peyrard/minimax"
)

type (
	Counter interface {
		Increment() int
	}

	inMemoryCounter struct {
		value int
	}

	Greeter struct {
		counter Counter
	}
)

var (
	CounterID = minimax.IdentifierOf[Counter]()
	GreeterID = minimax.IdentifierOf[*Greeter]()
)

func (c *inMemoryCounter) Increment() int {
	c.value++
	return c.value
}

func (g *Greeter) Greet(name string) string {
	return fmt.Sprintf("hello %s, you are visitor #%d", name, g.counter.Increment())
}

func NewGreeter(r minimax.Resolver) (*Greeter, error) {
	counter, err := minimax.Get[Counter](r, CounterID)
	if err != nil {
		return nil, err
	}
	return &Greeter{counter: counter}, nil
}

func Example() {
	registry := minimax.NewRegistry().
		Register(minimax.Must(minimax.Service[Counter](CounterID, minimax.Singleton, func(minimax.Resolver) (*inMemoryCounter, error) {
			return &inMemoryCounter{}, nil
		}))).
		Register(minimax.Must(minimax.Service[*Greeter](GreeterID, minimax.Transient, NewGreeter, minimax.DependsOn(CounterID))))

	provider, err := minimax.Build(registry, minimax.WithChecks(minimax.CheckDependencies))
	if err != nil {
		fmt.Println(err)
		return
	}
	defer provider.Close()

	for _, name := range []string{"alice", "bob"} {
		greeter, err := minimax.Get[*Greeter](provider, GreeterID)
		if err != nil {
			fmt.Println(err)
			return
		}
		fmt.Println(greeter.Greet(name))
	}

	_, err = minimax.Resolve[Counter](provider, minimax.NewIdentifier("Missing"))
	fmt.Println(err)

	// Output:
	// hello alice, you are visitor #1
	// hello bob, you are visitor #2
	// service 'Missing' not found
}

package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/twobody/internal/dynamo"
)

const (
	NameEuler = "euler"
	NameRK4   = "rk4"
)

var registry = map[string]func() dynamo.Integrator{
	NameEuler: func() dynamo.Integrator { return NewEuler() },
	NameRK4:   func() dynamo.Integrator { return NewRK4() },
}

// New returns a fresh integrator for the given algorithm name.
func New(name string) (dynamo.Integrator, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", dynamo.ErrUnknownAlgorithm, name)
	}
	return fn(), nil
}

// Names lists the registered algorithm names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

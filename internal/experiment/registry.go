package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/rockweather/internal/config"
	"github.com/san-kum/rockweather/internal/dynamo"
	"github.com/san-kum/rockweather/internal/integrators"
	"github.com/san-kum/rockweather/internal/model"
)

type Registry struct {
	oracles     map[string]func(*config.Config) model.Oracle
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		oracles:     make(map[string]func(*config.Config) model.Oracle),
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.oracles["chemostat"] = func(cfg *config.Config) model.Oracle { return model.NewChemostatFromConfig(cfg) }

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }

	return r
}

// RegisterOracle adds or replaces a named oracle constructor.
func (r *Registry) RegisterOracle(name string, fn func(*config.Config) model.Oracle) {
	r.oracles[name] = fn
}

func (r *Registry) GetOracle(name string, cfg *config.Config) (model.Oracle, error) {
	fn, ok := r.oracles[name]
	if !ok {
		return nil, &dynamo.InvalidInputError{Param: "oracle", Reason: fmt.Sprintf("unknown oracle: %s", name)}
	}
	return fn(cfg), nil
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, &dynamo.InvalidInputError{Param: "integrator", Reason: fmt.Sprintf("unknown integrator: %s", name)}
	}
	return fn(), nil
}

func (r *Registry) ListOracles() []string {
	return sortedKeys(r.oracles)
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

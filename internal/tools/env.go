// Package tools implements the analysis operations the model may call and
// wraps each one as a schema.Tool.
package tools

import (
	"github.com/crowagent/crowagent/internal/cache"
	"github.com/crowagent/crowagent/internal/catalog"
	"github.com/crowagent/crowagent/internal/physics"
)

// DefaultTemperatureC is the UK annual mean used when a call omits weather.
const DefaultTemperatureC = 10.5

// Env carries the registries and evaluator for one call. Registries are
// supplied by the caller per invocation and never read from package state.
type Env struct {
	Buildings catalog.Buildings
	Scenarios catalog.Scenarios
	Cache     cache.Evaluator
	// Engine supplies the constants for baseline figures. Zero means defaults.
	Engine physics.Engine
}

// NewEnv returns an Env evaluating through rc. A nil rc evaluates directly
// with default constants.
func NewEnv(buildings catalog.Buildings, scenarios catalog.Scenarios, rc *cache.ResultCache) Env {
	env := Env{Buildings: buildings, Scenarios: scenarios}
	if rc != nil {
		env.Cache = rc
		env.Engine = rc.Engine()
	}
	return env
}

// Defaults are applied when a tool call omits optional arguments.
type Defaults struct {
	TemperatureC float64
	Tariff       float64
}

// DefaultDefaults returns 10.5 °C and 0.28 per kWh.
func DefaultDefaults() Defaults {
	return Defaults{TemperatureC: DefaultTemperatureC, Tariff: 0.28}
}

func (e Env) engine() physics.Engine {
	if e.Engine.Constants() == (physics.Constants{}) {
		return physics.NewEngine(physics.DefaultConstants())
	}
	return e.Engine
}

func (e Env) evaluator() cache.Evaluator {
	if e.Cache == nil {
		return engineEvaluator{e.engine()}
	}
	return e.Cache
}

// engineEvaluator evaluates without memoization.
type engineEvaluator struct{ engine physics.Engine }

func (d engineEvaluator) GetOrCompute(b physics.Building, s physics.Scenario, w physics.Weather, tariff float64) (physics.Result, error) {
	return d.engine.Evaluate(b, s, w, tariff)
}

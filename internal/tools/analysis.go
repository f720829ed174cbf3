package tools

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/crowagent/crowagent/internal/physics"
)

// minCarbonForCostPerTonne keeps cost per tonne finite for tiny savings.
const minCarbonForCostPerTonne = 0.01

// maxBudgetAlternatives caps the runner-up list of FindBestForBudget.
const maxBudgetAlternatives = 5

// ScenarioResult is one evaluated building/scenario pair.
type ScenarioResult struct {
	Building     string  `json:"building"`
	Scenario     string  `json:"scenario"`
	Description  string  `json:"description,omitempty"`
	InstallCost  float64 `json:"install_cost_gbp"`
	TemperatureC float64 `json:"temperature_c"`
	physics.Result
	CostPerTonne float64 `json:"cost_per_tonne_gbp"`
}

func newScenarioResult(building, scenario string, s physics.Scenario, w physics.Weather, r physics.Result) ScenarioResult {
	return ScenarioResult{
		Building:     building,
		Scenario:     scenario,
		Description:  s.Description,
		InstallCost:  s.InstallCost,
		TemperatureC: w.TemperatureC,
		Result:       r,
		CostPerTonne: costPerTonne(s.InstallCost, r.CarbonSavingTCO2),
	}
}

// costPerTonne is install cost over annual carbon saving, rounded to 0.1.
func costPerTonne(cost, carbon float64) float64 {
	return math.Round(cost/math.Max(carbon, minCarbonForCostPerTonne)*10) / 10
}

// RankBy selects the ordering of RankAllScenarios.
type RankBy string

const (
	RankByCarbonSaving RankBy = "carbon_saving"
	RankByCostSaving   RankBy = "cost_saving"
	RankByPayback      RankBy = "payback"
	RankByCostPerTonne RankBy = "cost_per_tonne"
)

var rankAliases = map[string]RankBy{
	"":                  RankByCarbonSaving,
	"carbon_saving":     RankByCarbonSaving,
	"cost_saving":       RankByCostSaving,
	"annual_saving_gbp": RankByCostSaving,
	"payback":           RankByPayback,
	"payback_years":     RankByPayback,
	"cost_per_tonne":    RankByCostPerTonne,
}

// ParseRankBy resolves a metric name. Empty means carbon saving.
func ParseRankBy(s string) (RankBy, bool) {
	r, ok := rankAliases[s]
	return r, ok
}

// comparePayback orders lower payback first and nil last.
func comparePayback(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*a, *b)
}

// byCarbon is the default order: carbon saving descending, then lower
// payback, then names.
func byCarbon(a, b ScenarioResult) int {
	return cmp.Or(
		cmp.Compare(b.CarbonSavingTCO2, a.CarbonSavingTCO2),
		comparePayback(a.SimplePaybackYrs, b.SimplePaybackYrs),
		cmp.Compare(a.Scenario, b.Scenario),
		cmp.Compare(a.Building, b.Building),
	)
}

// byValue orders scenarios that save carbon by ascending cost per tonne.
func byValue(a, b ScenarioResult) int {
	aSaves, bSaves := a.CarbonSavingTCO2 > 0, b.CarbonSavingTCO2 > 0
	if aSaves != bSaves {
		if aSaves {
			return -1
		}
		return 1
	}
	return cmp.Or(cmp.Compare(a.CostPerTonne, b.CostPerTonne), byCarbon(a, b))
}

func (r RankBy) compare() func(a, b ScenarioResult) int {
	switch r {
	case RankByCostSaving:
		return func(a, b ScenarioResult) int {
			return cmp.Or(cmp.Compare(b.CostSaving, a.CostSaving), byCarbon(a, b))
		}
	case RankByPayback:
		return func(a, b ScenarioResult) int {
			return cmp.Or(comparePayback(a.SimplePaybackYrs, b.SimplePaybackYrs), byCarbon(a, b))
		}
	case RankByCostPerTonne:
		return byValue
	}
	return byCarbon
}

// RunScenario evaluates one named scenario on one named building.
func RunScenario(ctx context.Context, env Env, building, scenario string, w physics.Weather, tariff float64) (ScenarioResult, error) {
	if err := ctx.Err(); err != nil {
		return ScenarioResult{}, err
	}
	b, err := env.Buildings.Lookup(building)
	if err != nil {
		return ScenarioResult{}, err
	}
	s, err := env.Scenarios.Lookup(scenario)
	if err != nil {
		return ScenarioResult{}, err
	}
	r, err := env.evaluator().GetOrCompute(b, s, w, tariff)
	if err != nil {
		return ScenarioResult{}, fmt.Errorf("evaluate %s/%s: %w", building, scenario, err)
	}
	return newScenarioResult(building, scenario, s, w, r), nil
}

// CompareAllBuildings evaluates one scenario on every building, ordered by
// carbon saving descending and then building name.
func CompareAllBuildings(ctx context.Context, env Env, scenario string, w physics.Weather, tariff float64) ([]ScenarioResult, error) {
	if _, err := env.Scenarios.Lookup(scenario); err != nil {
		return nil, err
	}
	names := env.Buildings.Names()
	out := make([]ScenarioResult, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, name := range names {
		g.Go(func() error {
			r, err := RunScenario(gctx, env, name, scenario, w, tariff)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(out, func(a, b ScenarioResult) int {
		return cmp.Or(cmp.Compare(b.CarbonSavingTCO2, a.CarbonSavingTCO2), cmp.Compare(a.Building, b.Building))
	})
	return out, nil
}

// RankAllScenarios evaluates every scenario on one building. The default
// order is carbon saving descending with lower payback breaking ties.
func RankAllScenarios(ctx context.Context, env Env, building string, w physics.Weather, tariff float64, rankBy RankBy) ([]ScenarioResult, error) {
	if _, err := env.Buildings.Lookup(building); err != nil {
		return nil, err
	}
	out, err := evaluateScenarios(ctx, env, building, env.Scenarios.Names(), w, tariff)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(out, rankBy.compare())
	return out, nil
}

func evaluateScenarios(ctx context.Context, env Env, building string, scenarios []string, w physics.Weather, tariff float64) ([]ScenarioResult, error) {
	out := make([]ScenarioResult, 0, len(scenarios))
	for _, name := range scenarios {
		r, err := RunScenario(ctx, env, building, name, w, tariff)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// NoFeasibleOption explains why no scenario fits a budget.
type NoFeasibleOption struct {
	Reason string `json:"reason"`
	// CheapestCost is the lowest install cost in the library, when any.
	CheapestCost *float64 `json:"cheapest_install_cost_gbp,omitempty"`
	Affordable   int      `json:"affordable_scenarios"`
}

// BudgetOutcome is the result of FindBestForBudget. Exactly one of Best and
// NoFeasibleOption is set.
type BudgetOutcome struct {
	Building         string            `json:"building"`
	Budget           float64           `json:"budget_gbp"`
	Feasible         bool              `json:"feasible"`
	Best             *ScenarioResult   `json:"best,omitempty"`
	Alternatives     []ScenarioResult  `json:"alternatives,omitempty"`
	NoFeasibleOption *NoFeasibleOption `json:"no_feasible_option,omitempty"`
}

// FindBestForBudget picks the scenario with the highest carbon saving among
// those costing at most budget. Scenarios that save no carbon never qualify.
// An empty choice is reported in the outcome, not as an error.
func FindBestForBudget(ctx context.Context, env Env, building string, w physics.Weather, tariff, budget float64) (BudgetOutcome, error) {
	if _, err := env.Buildings.Lookup(building); err != nil {
		return BudgetOutcome{}, err
	}
	outcome := BudgetOutcome{Building: building, Budget: budget}

	var affordable []string
	var cheapest *float64
	for _, name := range env.Scenarios.Names() {
		s := env.Scenarios[name]
		if cheapest == nil || s.InstallCost < *cheapest {
			c := s.InstallCost
			cheapest = &c
		}
		if s.InstallCost <= budget {
			affordable = append(affordable, name)
		}
	}
	if len(affordable) == 0 {
		outcome.NoFeasibleOption = &NoFeasibleOption{
			Reason:       fmt.Sprintf("no scenario costs %.0f or less", budget),
			CheapestCost: cheapest,
		}
		return outcome, nil
	}

	results, err := evaluateScenarios(ctx, env, building, affordable, w, tariff)
	if err != nil {
		return BudgetOutcome{}, err
	}
	candidates := slices.DeleteFunc(results, func(r ScenarioResult) bool { return r.CarbonSavingTCO2 <= 0 })
	if len(candidates) == 0 {
		outcome.NoFeasibleOption = &NoFeasibleOption{
			Reason:     "no affordable scenario reduces carbon for this building",
			Affordable: len(affordable),
		}
		return outcome, nil
	}

	slices.SortStableFunc(candidates, byCarbon)
	best := candidates[0]
	outcome.Feasible = true
	outcome.Best = &best

	rest := slices.Clone(candidates[1:])
	slices.SortStableFunc(rest, byValue)
	if len(rest) > maxBudgetAlternatives {
		rest = rest[:maxBudgetAlternatives]
	}
	outcome.Alternatives = rest
	return outcome, nil
}

// BuildingInfo is a building record with its baseline figures.
type BuildingInfo struct {
	Name string `json:"building"`
	physics.Building
	BaselineCarbonTCO2 float64 `json:"baseline_carbon_tco2"`
	BaselineCostGBP    float64 `json:"baseline_cost_gbp_yr"`
	Tariff             float64 `json:"tariff_gbp_per_kwh"`
}

// GetBuildingInfo returns the named record. No simulation is run, but the
// tariff is checked like any other pricing input.
func GetBuildingInfo(env Env, building string, tariff float64) (BuildingInfo, error) {
	if err := physics.ValidateTariff(tariff); err != nil {
		return BuildingInfo{}, err
	}
	b, err := env.Buildings.Lookup(building)
	if err != nil {
		return BuildingInfo{}, err
	}
	e := env.engine()
	return BuildingInfo{
		Name:               building,
		Building:           b,
		BaselineCarbonTCO2: e.BaselineCarbon(b),
		BaselineCostGBP:    e.BaselineCost(b, tariff),
		Tariff:             tariff,
	}, nil
}

package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/crowagent/crowagent/internal/physics"
)

// simulationTool holds what every analysis tool needs.
type simulationTool struct {
	env      Env
	defaults Defaults
}

func (t simulationTool) weather(a arguments) (physics.Weather, error) {
	temp, err := a.optionalNumber("temperature_c", t.defaults.TemperatureC)
	if err != nil {
		return physics.Weather{}, err
	}
	return physics.Weather{TemperatureC: temp}, nil
}

func (t simulationTool) tariff(a arguments) (float64, error) {
	return a.optionalNumber("tariff", t.defaults.Tariff)
}

func encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode tool result: %w", err)
	}
	return string(b), nil
}

const weatherParams = `
			"temperature_c": {
				"type": "number",
				"description": "Outdoor temperature in °C. Defaults to the UK annual mean, 10.5."
			},
			"tariff": {
				"type": "number",
				"description": "Electricity tariff in GBP per kWh. Defaults to the configured tariff."
			}`

// RunScenarioTool wraps RunScenario.
type RunScenarioTool struct{ simulationTool }

func (t *RunScenarioTool) Name() string { return string(ToolRunScenario) }
func (t *RunScenarioTool) Description() string {
	return "Simulate one retrofit scenario on one building and return annual energy, " +
		"energy, carbon and cost savings, payback, 10-year return and peak demand."
}
func (t *RunScenarioTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"building_name": {"type": "string", "description": "Building name from the catalogue"},
			"scenario_name": {"type": "string", "description": "Scenario id from the catalogue"},` + weatherParams + `
		},
		"required": ["building_name", "scenario_name"]
	}`)
}

func (t *RunScenarioTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	a := arguments{tool: t.Name(), m: params}
	building, err := a.requiredString("building_name")
	if err != nil {
		return "", err
	}
	scenario, err := a.requiredString("scenario_name")
	if err != nil {
		return "", err
	}
	w, err := t.weather(a)
	if err != nil {
		return "", err
	}
	tariff, err := t.tariff(a)
	if err != nil {
		return "", err
	}
	r, err := RunScenario(ctx, t.env, building, scenario, w, tariff)
	if err != nil {
		return "", err
	}
	return encode(r)
}

// CompareAllBuildingsTool wraps CompareAllBuildings.
type CompareAllBuildingsTool struct{ simulationTool }

func (t *CompareAllBuildingsTool) Name() string { return string(ToolCompareAllBuildings) }
func (t *CompareAllBuildingsTool) Description() string {
	return "Run one scenario across every building in the portfolio and rank the buildings by carbon saving."
}
func (t *CompareAllBuildingsTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"scenario_name": {"type": "string", "description": "Scenario id from the catalogue"},` + weatherParams + `
		},
		"required": ["scenario_name"]
	}`)
}

func (t *CompareAllBuildingsTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	a := arguments{tool: t.Name(), m: params}
	scenario, err := a.requiredString("scenario_name")
	if err != nil {
		return "", err
	}
	w, err := t.weather(a)
	if err != nil {
		return "", err
	}
	tariff, err := t.tariff(a)
	if err != nil {
		return "", err
	}
	rows, err := CompareAllBuildings(ctx, t.env, scenario, w, tariff)
	if err != nil {
		return "", err
	}
	return encode(map[string]any{"scenario": scenario, "temperature_c": w.TemperatureC, "results": rows})
}

// RankAllScenariosTool wraps RankAllScenarios.
type RankAllScenariosTool struct{ simulationTool }

func (t *RankAllScenariosTool) Name() string { return string(ToolRankAllScenarios) }
func (t *RankAllScenariosTool) Description() string {
	return "Run every available scenario on one building and rank them. " +
		"Useful for questions like 'what is the best intervention for this building?'."
}
func (t *RankAllScenariosTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"building_name": {"type": "string", "description": "Building name from the catalogue"},
			"rank_by": {
				"type": "string",
				"enum": ["carbon_saving", "cost_saving", "payback", "cost_per_tonne"],
				"description": "Ranking metric. Defaults to carbon_saving."
			},` + weatherParams + `
		},
		"required": ["building_name"]
	}`)
}

func (t *RankAllScenariosTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	a := arguments{tool: t.Name(), m: params}
	building, err := a.requiredString("building_name")
	if err != nil {
		return "", err
	}
	metric, err := a.optionalString("rank_by", string(RankByCarbonSaving))
	if err != nil {
		return "", err
	}
	rankBy, ok := ParseRankBy(metric)
	if !ok {
		return "", a.fail("rank_by", fmt.Sprintf("unsupported metric %q", metric))
	}
	w, err := t.weather(a)
	if err != nil {
		return "", err
	}
	tariff, err := t.tariff(a)
	if err != nil {
		return "", err
	}
	rows, err := RankAllScenarios(ctx, t.env, building, w, tariff, rankBy)
	if err != nil {
		return "", err
	}
	return encode(map[string]any{"building": building, "ranked_by": rankBy, "scenarios": rows})
}

// FindBestForBudgetTool wraps FindBestForBudget.
type FindBestForBudgetTool struct{ simulationTool }

func (t *FindBestForBudgetTool) Name() string { return string(ToolFindBestForBudget) }
func (t *FindBestForBudgetTool) Description() string {
	return "Find the scenario with the largest carbon saving whose install cost fits within a budget " +
		"for one building, plus affordable alternatives ranked by cost per tonne of CO2e."
}
func (t *FindBestForBudgetTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"building_name": {"type": "string", "description": "Building name from the catalogue"},
			"budget_gbp": {"type": "number", "description": "Maximum capital budget in GBP"},` + weatherParams + `
		},
		"required": ["building_name", "budget_gbp"]
	}`)
}

func (t *FindBestForBudgetTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	a := arguments{tool: t.Name(), m: params}
	building, err := a.requiredString("building_name")
	if err != nil {
		return "", err
	}
	budget, err := a.requiredNumber("budget_gbp")
	if err != nil {
		return "", err
	}
	if budget < 0 {
		return "", a.fail("budget_gbp", "must not be negative")
	}
	w, err := t.weather(a)
	if err != nil {
		return "", err
	}
	tariff, err := t.tariff(a)
	if err != nil {
		return "", err
	}
	outcome, err := FindBestForBudget(ctx, t.env, building, w, tariff, budget)
	if err != nil {
		return "", err
	}
	return encode(outcome)
}

// BuildingInfoTool wraps GetBuildingInfo.
type BuildingInfoTool struct{ simulationTool }

func (t *BuildingInfoTool) Name() string { return string(ToolGetBuildingInfo) }
func (t *BuildingInfoTool) Description() string {
	return "Return the technical record of a building: floor area, height, glazing ratio, U-values, " +
		"baseline energy, occupancy hours, and baseline carbon and cost."
}
func (t *BuildingInfoTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"building_name": {"type": "string", "description": "Building name from the catalogue"},
			"tariff": {"type": "number", "description": "Electricity tariff in GBP per kWh for the baseline cost."}
		},
		"required": ["building_name"]
	}`)
}

func (t *BuildingInfoTool) Execute(_ context.Context, params map[string]any) (string, error) {
	a := arguments{tool: t.Name(), m: params}
	building, err := a.requiredString("building_name")
	if err != nil {
		return "", err
	}
	tariff, err := t.tariff(a)
	if err != nil {
		return "", err
	}
	info, err := GetBuildingInfo(t.env, building, tariff)
	if err != nil {
		return "", err
	}
	return encode(info)
}

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/crowagent/crowagent/internal/catalog"
	"github.com/crowagent/crowagent/internal/physics"
)

func TestToolList_Definitions(t *testing.T) {
	list := NewToolList(testEnv(), DefaultDefaults())
	defs := list.Definitions()

	want := []string{
		"compare_all_buildings",
		"find_best_for_budget",
		"get_building_info",
		"rank_all_scenarios",
		"run_scenario",
	}
	if len(defs) != len(want) {
		t.Fatalf("expected %d definitions, got %d", len(want), len(defs))
	}
	for i, d := range defs {
		if d.Name != want[i] {
			t.Errorf("definition %d: got %q, want %q", i, d.Name, want[i])
		}
		if d.Parameters["type"] != "object" {
			t.Errorf("%s: parameters are not an object schema", d.Name)
		}
		if d.Description == "" {
			t.Errorf("%s: empty description", d.Name)
		}
		for _, req := range d.Required() {
			if _, ok := d.Properties()[req]; !ok {
				t.Errorf("%s: required %q has no property", d.Name, req)
			}
		}
	}
}

func TestToolList_ExecuteRunScenario(t *testing.T) {
	list := NewToolList(testEnv(), DefaultDefaults())
	out, err := list.Execute(context.Background(), "run_scenario", map[string]any{
		"building_name": "Depot",
		"scenario_name": "pv_10",
		"temperature_c": -10.0,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("result is not JSON: %v\n%s", err, out)
	}
	for _, key := range []string{"annual_energy_mwh", "carbon_saving_tco2", "cost_saving_gbp", "simple_payback_yrs", "peak_demand_kw", "cost_per_tonne_gbp"} {
		if _, ok := got[key]; !ok {
			t.Errorf("missing key %q in %s", key, out)
		}
	}
	if got["building"] != "Depot" {
		t.Errorf("building: got %v", got["building"])
	}
}

func TestToolList_DefaultsApplied(t *testing.T) {
	list := NewToolList(testEnv(), Defaults{TemperatureC: 10.5, Tariff: 0.3})
	out, err := list.Execute(context.Background(), "run_scenario", map[string]any{
		"building_name": "Depot",
		"scenario_name": "pv_10",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var got ScenarioResult
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.TemperatureC != 10.5 {
		t.Errorf("default temperature: got %v", got.TemperatureC)
	}
	want, _ := RunScenario(context.Background(), testEnv(), "Depot", "pv_10", physics.Weather{TemperatureC: 10.5}, 0.3)
	if got.CostSaving != want.CostSaving {
		t.Errorf("default tariff not applied: got %v, want %v", got.CostSaving, want.CostSaving)
	}
}

func TestToolList_NumericStringArguments(t *testing.T) {
	list := NewToolList(testEnv(), DefaultDefaults())
	out, err := list.Execute(context.Background(), "find_best_for_budget", map[string]any{
		"building_name": "Depot",
		"budget_gbp":    "5000",
		"temperature_c": json.Number("-10"),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var got BudgetOutcome
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Feasible || got.Best.Scenario != "pv_20" {
		t.Errorf("unexpected outcome: %s", out)
	}
}

func TestToolList_ArgumentErrors(t *testing.T) {
	list := NewToolList(testEnv(), DefaultDefaults())
	cases := []struct {
		name   string
		tool   string
		params map[string]any
		param  string
	}{
		{"missing building", "run_scenario", map[string]any{"scenario_name": "pv_10"}, "building_name"},
		{"wrong type", "run_scenario", map[string]any{"building_name": 7, "scenario_name": "pv_10"}, "building_name"},
		{"bad temperature", "run_scenario", map[string]any{"building_name": "Depot", "scenario_name": "pv_10", "temperature_c": "warm"}, "temperature_c"},
		{"negative budget", "find_best_for_budget", map[string]any{"building_name": "Depot", "budget_gbp": -1.0}, "budget_gbp"},
		{"unknown metric", "rank_all_scenarios", map[string]any{"building_name": "Depot", "rank_by": "vibes"}, "rank_by"},
		{"nil params", "get_building_info", nil, "building_name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := list.Execute(context.Background(), tc.tool, tc.params)
			var argErr *ArgumentError
			if !errors.As(err, &argErr) {
				t.Fatalf("expected ArgumentError, got %v", err)
			}
			if argErr.Param != tc.param || argErr.Tool != tc.tool {
				t.Errorf("unexpected error fields: %+v", argErr)
			}
			if ErrorKind(err) != KindArgument {
				t.Errorf("kind: got %q", ErrorKind(err))
			}
		})
	}
}

func TestToolList_UnknownTool(t *testing.T) {
	list := NewToolList(testEnv(), DefaultDefaults())
	_, err := list.Execute(context.Background(), "delete_everything", nil)
	var unknown *catalog.UnknownEntityError
	if !errors.As(err, &unknown) || unknown.Registry != RegistryTools {
		t.Fatalf("expected tools UnknownEntityError, got %v", err)
	}
	if len(unknown.Available) != 5 {
		t.Errorf("expected 5 available tools, got %v", unknown.Available)
	}
}

func TestErrorPayload(t *testing.T) {
	cases := []struct {
		err  error
		kind string
	}{
		{&ArgumentError{Tool: "run_scenario", Param: "x", Reason: "is required"}, KindArgument},
		{&catalog.UnknownEntityError{Registry: "buildings", Key: "x"}, KindUnknownEntity},
		{&physics.ValidationError{Violations: []physics.Violation{{Field: "tariff"}}}, KindValidation},
		{errors.New("boom"), KindInternal},
	}
	for _, tc := range cases {
		payload := ErrorPayload(tc.err)
		var got map[string]string
		if err := json.Unmarshal([]byte(payload), &got); err != nil {
			t.Fatalf("payload is not JSON: %v", err)
		}
		if got["kind"] != tc.kind {
			t.Errorf("%v: kind %q, want %q", tc.err, got["kind"], tc.kind)
		}
		if !strings.Contains(got["error"], tc.err.Error()) {
			t.Errorf("error text lost: %q", got["error"])
		}
	}
}

func TestRegistry_GetTool(t *testing.T) {
	r := NewRegistry(testEnv(), DefaultDefaults())
	for _, name := range []ToolName{ToolRunScenario, ToolCompareAllBuildings, ToolRankAllScenarios, ToolFindBestForBudget, ToolGetBuildingInfo} {
		if r.GetTool(name) == nil {
			t.Errorf("tool %q not registered", name)
		}
	}
	if r.GetTool("exec") != nil {
		t.Error("unexpected tool registered")
	}
}

func TestToolList_BuildingInfoRejectsNegativeTariff(t *testing.T) {
	list := NewToolList(testEnv(), DefaultDefaults())
	out, err := list.Execute(context.Background(), "get_building_info", map[string]any{
		"building_name": "Depot",
		"tariff":        -1.0,
	})
	if err == nil {
		t.Fatalf("expected validation error, got %s", out)
	}
	if ErrorKind(err) != KindValidation {
		t.Errorf("kind: got %q", ErrorKind(err))
	}
}

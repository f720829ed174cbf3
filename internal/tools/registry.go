package tools

import (
	"github.com/crowagent/crowagent/internal/schema"
)

// ToolName is the canonical name of a built-in tool.
type ToolName string

const (
	ToolRunScenario         ToolName = "run_scenario"
	ToolCompareAllBuildings ToolName = "compare_all_buildings"
	ToolRankAllScenarios    ToolName = "rank_all_scenarios"
	ToolFindBestForBudget   ToolName = "find_best_for_budget"
	ToolGetBuildingInfo     ToolName = "get_building_info"
)

// Registry holds a set of named tools and exposes them for execution.
type Registry struct {
	tools map[string]schema.Tool
}

// NewRegistry returns the five analysis tools bound to env.
func NewRegistry(env Env, defaults Defaults) *Registry {
	base := simulationTool{env: env, defaults: defaults}
	return NewRegistryBuilder().
		WithTool(&RunScenarioTool{base}).
		WithTool(&CompareAllBuildingsTool{base}).
		WithTool(&RankAllScenariosTool{base}).
		WithTool(&FindBestForBudgetTool{base}).
		WithTool(&BuildingInfoTool{base}).
		Build()
}

// GetTool returns the tool with the given name, or nil.
func (r *Registry) GetTool(name ToolName) schema.Tool {
	return r.tools[string(name)]
}

func (r *Registry) AllTools() *ToolList {
	list := ToolList{tools: make(map[string]schema.Tool, len(r.tools))}
	for k, t := range r.tools {
		list.tools[k] = t
	}
	return &list
}

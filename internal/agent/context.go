package agent

import (
	"fmt"
	"strings"

	"github.com/crowagent/crowagent/internal/catalog"
	"github.com/crowagent/crowagent/internal/physics"
	"github.com/crowagent/crowagent/internal/tools"
)

// Disclaimer closes every recommendation.
const Disclaimer = "⚠️ These figures are indicative only. Verify with a qualified energy surveyor before investment."

// ContextBuilder assembles the system instruction for one turn from the
// registries the caller supplied.
type ContextBuilder struct {
	buildings catalog.Buildings
	scenarios catalog.Scenarios
	defaults  tools.Defaults
	constants physics.Constants
}

func NewContextBuilder(
	buildings catalog.Buildings,
	scenarios catalog.Scenarios,
	defaults tools.Defaults,
	constants physics.Constants,
) *ContextBuilder {
	return &ContextBuilder{buildings: buildings, scenarios: scenarios, defaults: defaults, constants: constants}
}

// BuildSystemPrompt joins identity, rules, constants and the catalogue.
func (cb *ContextBuilder) BuildSystemPrompt() string {
	parts := []string{
		cb.buildIdentity(),
		cb.buildConstants(),
		cb.buildCatalogue(),
	}
	return strings.Join(parts, "\n\n---\n\n")
}

func (cb *ContextBuilder) buildIdentity() string {
	return `# CrowAgent Advisor

You are an expert sustainability engineer helping estate and property managers
make evidence-based retrofit investment decisions. You run the physics
simulation through your tools and turn the outputs into a clear recommendation.

## Tools
- run_scenario: one building under one retrofit scenario
- compare_all_buildings: every building under one scenario
- rank_all_scenarios: every scenario for one building, ranked by a metric
- find_best_for_budget: the highest carbon saving within a budget
- get_building_info: the specification and baseline of one building

## Rules
1. Always use tools to get numbers. Never invent figures.
2. When a question covers several buildings or scenarios, call a tool for each.
3. Cite the constant behind every figure you quote.
4. Give one specific recommendation, not a list of options.
5. Keep answers to 3-5 sentences unless asked for detail.
6. If a question is not about building energy or carbon, say so in one sentence.
7. End every recommendation with: "` + Disclaimer + `"`
}

func (cb *ContextBuilder) buildConstants() string {
	c := cb.constants
	var sb strings.Builder
	sb.WriteString("## Model constants\n")
	fmt.Fprintf(&sb, "- Carbon intensity: %.5f kgCO2e/kWh\n", c.CarbonIntensityTPerMWh)
	fmt.Fprintf(&sb, "- Heating set-point: %.1f °C\n", c.HeatingSetpointC)
	fmt.Fprintf(&sb, "- Heating season: %.0f hours/yr\n", c.HeatingHoursPerYear)
	fmt.Fprintf(&sb, "- Solar irradiance: %.0f kWh/m²/yr\n", c.SolarIrradianceKWhM2Yr)
	fmt.Fprintf(&sb, "- Default outdoor temperature: %.1f °C\n", cb.defaults.TemperatureC)
	fmt.Fprintf(&sb, "- Default electricity tariff: £%.2f/kWh", cb.defaults.Tariff)
	return sb.String()
}

func (cb *ContextBuilder) buildCatalogue() string {
	var sb strings.Builder
	sb.WriteString("## Buildings\n")
	for _, name := range cb.buildings.Names() {
		b := cb.buildings[name]
		fmt.Fprintf(&sb, "- %s: %.0f m², baseline %.0f MWh/yr", name, b.FloorAreaM2, b.BaselineEnergyMWh)
		if b.BuildingType != "" {
			fmt.Fprintf(&sb, " (%s)", b.BuildingType)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n## Scenarios\n")
	for _, name := range cb.scenarios.Names() {
		s := cb.scenarios[name]
		fmt.Fprintf(&sb, "- %s: install cost £%.0f", name, s.InstallCost)
		if s.Description != "" {
			fmt.Fprintf(&sb, ", %s", s.Description)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// StarterQuestions are suggested openers per segment.
var StarterQuestions = map[string][]string{
	catalog.SegmentUniversityHE: {
		"Which campus building yields the best carbon saving from a deep retrofit?",
		"Which scenario offers the fastest payback for the Greenfield Science Block?",
		"What is the best option for the Greenfield Library with a £500,000 budget?",
		"Compare every building under the large rooftop PV scenario.",
	},
	catalog.SegmentCommercialLandlord: {
		"What is the cheapest way to cut carbon across my office portfolio?",
		"Rank every scenario for Retail Unit 1 by cost per tonne.",
		"Which property has the highest baseline energy use?",
		"What can I achieve with a £100,000 budget?",
	},
	catalog.SegmentSMBIndustrial: {
		"Which retrofit pays back fastest for Warehouse Unit 4?",
		"How much carbon would advanced glazing save on Warehouse Unit 4?",
		"Compare a moderate fabric upgrade with a deep one.",
		"What is the best option under £50,000?",
	},
	catalog.SegmentIndividualSelfBuild: {
		"Is a net-zero-ready package worth it for my house?",
		"How much would small rooftop PV save me each year?",
		"What is the best upgrade for £15,000?",
		"Show me the baseline figures for my home.",
	},
}

// StarterQuestionsFor returns the openers for segment, falling back to the
// university set for unknown ids.
func StarterQuestionsFor(segment string) []string {
	if qs, ok := StarterQuestions[segment]; ok {
		return append([]string(nil), qs...)
	}
	return append([]string(nil), StarterQuestions[catalog.SegmentUniversityHE]...)
}

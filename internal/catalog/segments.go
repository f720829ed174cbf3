package catalog

import (
	"fmt"

	"github.com/crowagent/crowagent/internal/physics"
)

// Segment identifiers, in display order.
const (
	SegmentUniversityHE        = "university_he"
	SegmentCommercialLandlord  = "commercial_landlord"
	SegmentSMBIndustrial       = "smb_industrial"
	SegmentIndividualSelfBuild = "individual_selfbuild"
)

// SegmentIDs lists the built-in segments in display order.
var SegmentIDs = []string{
	SegmentUniversityHE,
	SegmentCommercialLandlord,
	SegmentSMBIndustrial,
	SegmentIndividualSelfBuild,
}

// Segment is one customer category: its buildings and the scenarios it may
// evaluate.
type Segment struct {
	ID        string    `json:"id" yaml:"id"`
	Label     string    `json:"label" yaml:"label"`
	Buildings Buildings `json:"buildings" yaml:"buildings"`
	Scenarios Scenarios `json:"-" yaml:"-"`
	Defaults  []string  `json:"defaultScenarios" yaml:"defaults"`
}

// clone returns a copy that shares no maps or slices with s.
func (s Segment) clone() Segment {
	s.Buildings = s.Buildings.Clone()
	s.Scenarios = s.Scenarios.Clone()
	s.Defaults = append([]string(nil), s.Defaults...)
	return s
}

// segmentSpec is the static description a factory turns into a Segment.
type segmentSpec struct {
	label     string
	buildings Buildings
	whitelist []string
	defaults  []string
}

// SegmentFactory builds a segment against a scenario library.
type SegmentFactory func(library Scenarios) (Segment, error)

// segmentFactories is resolved once by NewCatalog; there is no name-based
// loading beyond this map.
var segmentFactories = map[string]SegmentFactory{
	SegmentUniversityHE:        specFactory(SegmentUniversityHE, universityHE),
	SegmentCommercialLandlord:  specFactory(SegmentCommercialLandlord, commercialLandlord),
	SegmentSMBIndustrial:       specFactory(SegmentSMBIndustrial, smbIndustrial),
	SegmentIndividualSelfBuild: specFactory(SegmentIndividualSelfBuild, individualSelfBuild),
}

// LookupSegmentFactory returns the factory registered for id.
func LookupSegmentFactory(id string) (SegmentFactory, error) {
	f, ok := segmentFactories[id]
	if !ok {
		return nil, &UnknownEntityError{Registry: RegistrySegments, Key: id, Available: sortedKeys(segmentFactories)}
	}
	return f, nil
}

func specFactory(id string, spec func() segmentSpec) SegmentFactory {
	return func(library Scenarios) (Segment, error) {
		sp := spec()
		return buildSegment(id, sp.label, sp.buildings, sp.whitelist, sp.defaults, library)
	}
}

func buildSegment(id, label string, buildings Buildings, whitelist, defaults []string, library Scenarios) (Segment, error) {
	scenarios, err := library.Subset(whitelist)
	if err != nil {
		return Segment{}, fmt.Errorf("segment %s: %w", id, err)
	}
	for _, d := range defaults {
		if _, ok := scenarios[d]; !ok {
			return Segment{}, fmt.Errorf("segment %s: default scenario %q is not whitelisted", id, d)
		}
	}
	for name, b := range buildings {
		if err := physics.ValidateBuilding(b); err != nil {
			return Segment{}, fmt.Errorf("segment %s: building %q: %w", id, name, err)
		}
	}
	return Segment{
		ID:        id,
		Label:     label,
		Buildings: buildings,
		Scenarios: scenarios,
		Defaults:  defaults,
	}, nil
}

func universityHE() segmentSpec {
	return segmentSpec{
		label: "University / Higher Education",
		buildings: Buildings{
			"Greenfield Library": {
				FloorAreaM2: 8500, HeightM: 18, GlazingRatio: 0.40,
				UValueWall: 0.35, UValueRoof: 0.25, UValueGlazing: 2.8,
				BaselineEnergyMWh: 1450, OccupancyHours: 3500,
				BuildingType: "Library", BuiltYear: 1995,
			},
			"Greenfield Arts Building": {
				FloorAreaM2: 4200, HeightM: 12, GlazingRatio: 0.55,
				UValueWall: 0.45, UValueRoof: 0.30, UValueGlazing: 2.8,
				BaselineEnergyMWh: 680, OccupancyHours: 2800,
				BuildingType: "Teaching / Studio", BuiltYear: 1988,
			},
			"Greenfield Science Block": {
				FloorAreaM2: 12500, HeightM: 24, GlazingRatio: 0.30,
				UValueWall: 0.28, UValueRoof: 0.20, UValueGlazing: 1.8,
				BaselineEnergyMWh: 3200, OccupancyHours: 4000,
				BuildingType: "Lab / Research", BuiltYear: 2005,
			},
		},
		whitelist: []string{ScenarioFabricModerate, ScenarioFabricDeep, ScenarioPVLarge, ScenarioNetZeroReady},
		defaults:  []string{ScenarioFabricDeep, ScenarioPVLarge},
	}
}

func commercialLandlord() segmentSpec {
	return segmentSpec{
		label: "Commercial Landlord",
		buildings: Buildings{
			"Retail Unit 1": {
				FloorAreaM2: 250, HeightM: 4.0, GlazingRatio: 0.80,
				UValueWall: 0.6, UValueRoof: 0.4, UValueGlazing: 2.8,
				BaselineEnergyMWh: 45, OccupancyHours: 3000,
				BuildingType: "Retail", BuiltYear: 1990,
			},
			"Office Block A": {
				FloorAreaM2: 1200, HeightM: 12, GlazingRatio: 0.40,
				UValueWall: 0.45, UValueRoof: 0.3, UValueGlazing: 2.2,
				BaselineEnergyMWh: 180, OccupancyHours: 2500,
				BuildingType: "Office", BuiltYear: 2000,
			},
		},
		whitelist: []string{ScenarioFabricModerate, ScenarioGlazingAdvanced, ScenarioPVSmall, ScenarioPVLarge, ScenarioNetZeroReady},
		defaults:  []string{ScenarioFabricModerate, ScenarioPVSmall},
	}
}

func smbIndustrial() segmentSpec {
	return segmentSpec{
		label: "SMB Industrial",
		buildings: Buildings{
			"Warehouse Unit 4": {
				FloorAreaM2: 2000, HeightM: 8.0, GlazingRatio: 0.05,
				UValueWall: 0.7, UValueRoof: 0.5, UValueGlazing: 3.0,
				BaselineEnergyMWh: 250, OccupancyHours: 4000,
				BuildingType: "Warehouse", BuiltYear: 1985,
			},
		},
		whitelist: []string{ScenarioFabricModerate, ScenarioFabricDeep, ScenarioPVLarge},
		defaults:  []string{ScenarioFabricDeep},
	}
}

func individualSelfBuild() segmentSpec {
	return segmentSpec{
		label: "Individual Self-Build",
		buildings: Buildings{
			"Detached House": {
				FloorAreaM2: 150, HeightM: 6.0, GlazingRatio: 0.25,
				UValueWall: 1.2, UValueRoof: 0.8, UValueGlazing: 2.8,
				BaselineEnergyMWh: 25, OccupancyHours: 5000,
				BuildingType: "Residential", BuiltYear: 1970,
			},
		},
		whitelist: []string{ScenarioFabricDeep, ScenarioGlazingAdvanced, ScenarioPVSmall, ScenarioNetZeroReady},
		defaults:  []string{ScenarioNetZeroReady},
	}
}

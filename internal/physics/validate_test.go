package physics

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestValidate_AcceptsReference(t *testing.T) {
	if err := Validate(referenceBuilding(), referenceScenario(), Weather{TemperatureC: 8.5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_CollectsEveryViolation(t *testing.T) {
	b := referenceBuilding()
	b.HeightM = -1
	b.GlazingRatio = 1
	b.UValueWall = 7
	s := referenceScenario()
	s.InfiltrationReduction = 1.5
	w := Weather{TemperatureC: 60}

	err := Validate(b, s, w)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
	}
	want := []string{"height_m", "glazing_ratio", "u_value_wall", "infiltration_reduction", "temperature_c"}
	if got := verr.Fields(); !reflect.DeepEqual(got, want) {
		t.Errorf("fields: got %v, want %v", got, want)
	}
}

func TestValidate_Bounds(t *testing.T) {
	cases := []struct {
		name  string
		mod   func(*Building, *Scenario, *Weather)
		field string
	}{
		{"zero floor area", func(b *Building, _ *Scenario, _ *Weather) { b.FloorAreaM2 = 0 }, "floor_area_m2"},
		{"zero glazing", func(b *Building, _ *Scenario, _ *Weather) { b.GlazingRatio = 0 }, "glazing_ratio"},
		{"u-value too low", func(b *Building, _ *Scenario, _ *Weather) { b.UValueRoof = 0.01 }, "u_value_roof"},
		{"u-value too high", func(b *Building, _ *Scenario, _ *Weather) { b.UValueGlazing = 6.5 }, "u_value_glazing"},
		{"occupancy over a year", func(b *Building, _ *Scenario, _ *Weather) { b.OccupancyHours = 9000 }, "occupancy_hours"},
		{"negative baseline", func(b *Building, _ *Scenario, _ *Weather) { b.BaselineEnergyMWh = -1 }, "baseline_energy_mwh"},
		{"zero factor", func(_ *Building, s *Scenario, _ *Weather) { s.UWallFactor = 0 }, "u_wall_factor"},
		{"factor over one", func(_ *Building, s *Scenario, _ *Weather) { s.URoofFactor = 1.1 }, "u_roof_factor"},
		{"negative solar reduction", func(_ *Building, s *Scenario, _ *Weather) { s.SolarGainReduction = -0.1 }, "solar_gain_reduction"},
		{"negative renewable", func(_ *Building, s *Scenario, _ *Weather) { s.RenewableKWh = -5 }, "renewable_kwh"},
		{"negative cost", func(_ *Building, s *Scenario, _ *Weather) { s.InstallCost = -1 }, "install_cost_gbp"},
		{"too cold", func(_ *Building, _ *Scenario, w *Weather) { w.TemperatureC = -31 }, "temperature_c"},
		{"NaN temperature", func(_ *Building, _ *Scenario, w *Weather) { w.TemperatureC = math.NaN() }, "temperature_c"},
		{"infinite height", func(b *Building, _ *Scenario, _ *Weather) { b.HeightM = math.Inf(1) }, "height_m"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, s, w := referenceBuilding(), referenceScenario(), Weather{TemperatureC: 8.5}
			tc.mod(&b, &s, &w)
			err := Validate(b, s, w)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if got := verr.Fields(); len(got) != 1 || got[0] != tc.field {
				t.Errorf("fields: got %v, want [%s]", got, tc.field)
			}
		})
	}
}

func TestValidate_InclusiveEdges(t *testing.T) {
	b := referenceBuilding()
	b.UValueWall = MinUValue
	b.UValueGlazing = MaxUValue
	b.OccupancyHours = HoursPerYear
	s := referenceScenario()
	s.UGlazingFactor = 1
	s.SolarGainReduction = 1
	if err := Validate(b, s, Weather{TemperatureC: MaxTemperature}); err != nil {
		t.Errorf("edges should be accepted: %v", err)
	}
}

func TestValidateTariff(t *testing.T) {
	if err := ValidateTariff(0.28); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, bad := range []float64{0, -0.1, 0.00004, math.NaN(), math.Inf(1)} {
		if err := ValidateTariff(bad); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("tariff %v: expected ErrInvalidInput, got %v", bad, err)
		}
	}
}

func TestValidateTariff_Minimum(t *testing.T) {
	if err := ValidateTariff(MinTariff); err != nil {
		t.Errorf("MinTariff rejected: %v", err)
	}
	if _, err := Evaluate(referenceBuilding(), referenceScenario(), Weather{TemperatureC: 8.5}, MinTariff/2); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("tariff below minimum: expected ErrInvalidInput, got %v", err)
	}
}

func TestViolation_MarshalNonFinite(t *testing.T) {
	err := ValidateTariff(math.NaN())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	b, mErr := json.Marshal(verr.Violations)
	if mErr != nil {
		t.Fatalf("marshal: %v", mErr)
	}
	var got []map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 1 || got[0]["field"] != "tariff" || got[0]["value"] != "NaN" {
		t.Errorf("unexpected violations: %s", b)
	}

	b, mErr = json.Marshal(Violation{Field: "tariff", Value: -1, Expect: ">= 0.0001"})
	if mErr != nil || string(b) != `{"field":"tariff","value":-1,"expect":">= 0.0001"}` {
		t.Errorf("finite violation = %s, %v", b, mErr)
	}
}

package physics

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Physical ranges accepted by the validator.
const (
	MinUValue      = 0.05
	MaxUValue      = 6.0
	MinTemperature = -30.0
	MaxTemperature = 50.0
	HoursPerYear   = 8760.0
	// MinTariff is the smallest price the result cache can key without
	// rounding it to zero.
	MinTariff      = 0.0001
)

// ErrInvalidInput is matched by every *ValidationError via errors.Is.
var ErrInvalidInput = errors.New("invalid simulation input")

// Violation describes one field outside its accepted range.
type Violation struct {
	Field  string  `json:"field"`
	Value  float64 `json:"value"`
	Expect string  `json:"expect"`
}

// MarshalJSON writes NaN and infinities as strings, which JSON numbers
// cannot carry.
func (v Violation) MarshalJSON() ([]byte, error) {
	type plain Violation
	if finite(v.Value) {
		return json.Marshal(plain(v))
	}
	return json.Marshal(struct {
		Field  string `json:"field"`
		Value  string `json:"value"`
		Expect string `json:"expect"`
	}{v.Field, strconv.FormatFloat(v.Value, 'g', -1, 64), v.Expect})
}

func (v Violation) String() string {
	return fmt.Sprintf("%s=%g (expected %s)", v.Field, v.Value, v.Expect)
}

// ValidationError collects every violated field of one input set.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// Fields returns the names of the violated fields in check order.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		out[i] = v.Field
	}
	return out
}

// checker accumulates violations; finite is implied by every rule.
type checker struct {
	violations []Violation
}

func (c *checker) add(field string, v float64, expect string) {
	c.violations = append(c.violations, Violation{Field: field, Value: v, Expect: expect})
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func (c *checker) positive(field string, v float64) {
	if !finite(v) || v <= 0 {
		c.add(field, v, "> 0")
	}
}

func (c *checker) nonNegative(field string, v float64) {
	if !finite(v) || v < 0 {
		c.add(field, v, ">= 0")
	}
}

func (c *checker) closed(field string, v, lo, hi float64) {
	if !finite(v) || v < lo || v > hi {
		c.add(field, v, fmt.Sprintf("in [%g, %g]", lo, hi))
	}
}

func (c *checker) open(field string, v, lo, hi float64) {
	if !finite(v) || v <= lo || v >= hi {
		c.add(field, v, fmt.Sprintf("in (%g, %g)", lo, hi))
	}
}

func (c *checker) halfOpen(field string, v, lo, hi float64) {
	if !finite(v) || v <= lo || v > hi {
		c.add(field, v, fmt.Sprintf("in (%g, %g]", lo, hi))
	}
}

func (c *checker) err() error {
	if len(c.violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: c.violations}
}

func (c *checker) building(b Building) {
	c.positive("floor_area_m2", b.FloorAreaM2)
	c.positive("height_m", b.HeightM)
	c.open("glazing_ratio", b.GlazingRatio, 0, 1)
	c.closed("u_value_wall", b.UValueWall, MinUValue, MaxUValue)
	c.closed("u_value_roof", b.UValueRoof, MinUValue, MaxUValue)
	c.closed("u_value_glazing", b.UValueGlazing, MinUValue, MaxUValue)
	c.nonNegative("baseline_energy_mwh", b.BaselineEnergyMWh)
	c.closed("occupancy_hours", b.OccupancyHours, 0, HoursPerYear)
}

func (c *checker) scenario(s Scenario) {
	c.halfOpen("u_wall_factor", s.UWallFactor, 0, 1)
	c.halfOpen("u_roof_factor", s.URoofFactor, 0, 1)
	c.halfOpen("u_glazing_factor", s.UGlazingFactor, 0, 1)
	c.closed("solar_gain_reduction", s.SolarGainReduction, 0, 1)
	c.closed("infiltration_reduction", s.InfiltrationReduction, 0, 1)
	c.nonNegative("renewable_kwh", s.RenewableKWh)
	c.nonNegative("install_cost_gbp", s.InstallCost)
}

func (c *checker) weather(w Weather) {
	c.closed("temperature_c", w.TemperatureC, MinTemperature, MaxTemperature)
}

func (c *checker) tariff(t float64) {
	if !finite(t) || t < MinTariff {
		c.add("tariff", t, fmt.Sprintf(">= %g", MinTariff))
	}
}

// Validate checks b, s and w against their physical ranges and reports every
// violation at once.
func Validate(b Building, s Scenario, w Weather) error {
	var c checker
	c.building(b)
	c.scenario(s)
	c.weather(w)
	return c.err()
}

// ValidateBuilding checks a single building record.
func ValidateBuilding(b Building) error {
	var c checker
	c.building(b)
	return c.err()
}

// ValidateScenario checks a single scenario record.
func ValidateScenario(s Scenario) error {
	var c checker
	c.scenario(s)
	return c.err()
}

// ValidateTariff checks the unit energy price.
func ValidateTariff(t float64) error {
	var c checker
	c.tariff(t)
	return c.err()
}

// validateAll is the check run before every evaluation.
func validateAll(b Building, s Scenario, w Weather, tariff float64) error {
	var c checker
	c.building(b)
	c.scenario(s)
	c.weather(w)
	c.tariff(tariff)
	return c.err()
}

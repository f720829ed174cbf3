package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/crowagent/crowagent/internal/physics"
)

// ResultKey builds the cache key for one evaluation. Building and scenario
// fields are encoded sorted by name so the key does not depend on declaration
// order; temperature and tariff are rounded to the precision the cache keeps.
func ResultKey(b physics.Building, s physics.Scenario, w physics.Weather, tariff float64) string {
	return makeKey(
		"building", canonicalFields(buildingFields(b)),
		"scenario", canonicalFields(scenarioFields(s)),
		"temp", canonicalTemperature(w.TemperatureC),
		"tariff", canonicalTariff(tariff),
	)
}

// RoundTemperature rounds to one decimal place.
func RoundTemperature(t float64) float64 { return roundTo(t, 10) }

// RoundTariff rounds to four decimal places.
func RoundTariff(t float64) float64 { return roundTo(t, 1e4) }

func roundTo(v, scale float64) float64 {
	r := math.Round(v*scale) / scale
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}

func buildingFields(b physics.Building) map[string]float64 {
	return map[string]float64{
		"floor_area_m2":       b.FloorAreaM2,
		"height_m":            b.HeightM,
		"glazing_ratio":       b.GlazingRatio,
		"u_value_wall":        b.UValueWall,
		"u_value_roof":        b.UValueRoof,
		"u_value_glazing":     b.UValueGlazing,
		"baseline_energy_mwh": b.BaselineEnergyMWh,
		"occupancy_hours":     b.OccupancyHours,
	}
}

func scenarioFields(s physics.Scenario) map[string]float64 {
	return map[string]float64{
		"u_wall_factor":          s.UWallFactor,
		"u_roof_factor":          s.URoofFactor,
		"u_glazing_factor":       s.UGlazingFactor,
		"solar_gain_reduction":   s.SolarGainReduction,
		"infiltration_reduction": s.InfiltrationReduction,
		"renewable_kwh":          s.RenewableKWh,
		"install_cost_gbp":       s.InstallCost,
	}
}

func canonicalFields(fields map[string]float64) string {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)

	var sb strings.Builder
	for i, k := range names {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(strconv.FormatFloat(fields[k], 'g', -1, 64))
	}
	return sb.String()
}

func canonicalTemperature(t float64) string {
	return strconv.FormatFloat(RoundTemperature(t), 'f', 1, 64)
}

func canonicalTariff(t float64) string {
	return strconv.FormatFloat(RoundTariff(t), 'f', 4, 64)
}

func makeKey(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(h[:])
}

package physics

import "math"

const (
	whPerMWh  = 1e6
	kWhPerMWh = 1000.0
	whPerKWh  = 1000.0
	roiYears  = 10
)

// Engine evaluates scenarios with a fixed set of coefficients. The zero value
// is not useful; build one with NewEngine.
type Engine struct {
	c Constants
}

// NewEngine returns an engine using the coefficients in c.
func NewEngine(c Constants) Engine {
	return Engine{c: c}
}

// Constants returns the coefficients this engine was built with.
func (e Engine) Constants() Constants { return e.c }

var defaultEngine = NewEngine(DefaultConstants())

// Evaluate runs the model with DefaultConstants.
func Evaluate(b Building, s Scenario, w Weather, tariff float64) (Result, error) {
	return defaultEngine.Evaluate(b, s, w, tariff)
}

// Envelope holds the derived surface areas of a square-footprint building.
type Envelope struct {
	WallM2    float64
	GlazingM2 float64
	RoofM2    float64
	VolumeM3  float64
}

// EnvelopeOf derives envelope areas from a building record.
func EnvelopeOf(b Building) Envelope {
	side := math.Sqrt(b.FloorAreaM2)
	facade := 4 * side * b.HeightM
	return Envelope{
		WallM2:    facade * (1 - b.GlazingRatio),
		GlazingM2: facade * b.GlazingRatio,
		RoofM2:    b.FloorAreaM2,
		VolumeM3:  b.FloorAreaM2 * b.HeightM,
	}
}

// HeatBalance is the annual heat flow breakdown behind a Result, in Wh/yr.
type HeatBalance struct {
	DeltaT       float64
	Transmission float64
	Infiltration float64
	SolarGain    float64
	// LossCoefficient is the fabric plus air heat-loss coefficient in W/K.
	LossCoefficient float64
}

// NetDemandMWh is the heating demand after solar gains, floored at zero.
func (h HeatBalance) NetDemandMWh() float64 {
	return math.Max((h.Transmission+h.Infiltration-h.SolarGain)/whPerMWh, 0)
}

// Balance computes the heat flows for b under s at temperature w. It performs
// no validation.
func (e Engine) Balance(b Building, s Scenario, w Weather) HeatBalance {
	env := EnvelopeOf(b)

	// Outdoor air warmer than the setpoint produces no heating demand.
	dT := math.Max(e.c.HeatingSetpointC-w.TemperatureC, 0)

	ua := b.UValueWall*s.UWallFactor*env.WallM2 +
		b.UValueGlazing*s.UGlazingFactor*env.GlazingM2 +
		b.UValueRoof*s.URoofFactor*env.RoofM2

	ach := e.c.AirChangesPerHour * (1 - s.InfiltrationReduction)
	air := e.c.InfiltrationFactor * ach * env.VolumeM3

	return HeatBalance{
		DeltaT:          dT,
		Transmission:    ua * dT * e.c.HeatingHoursPerYear,
		Infiltration:    air * dT * e.c.HeatingHoursPerYear,
		SolarGain:       e.c.SolarIrradianceKWhM2Yr * whPerKWh * env.GlazingM2 * (1 - s.SolarGainReduction) * e.c.SolarUtilisation,
		LossCoefficient: ua + air,
	}
}

// Evaluate validates the inputs and prices the scenario. tariff is the price
// per kWh. Only a *ValidationError is ever returned.
func (e Engine) Evaluate(b Building, s Scenario, w Weather, tariff float64) (Result, error) {
	if err := validateAll(b, s, w, tariff); err != nil {
		return Result{}, err
	}

	hb := e.Balance(b, s, w)
	annual := math.Max(hb.NetDemandMWh()-s.RenewableKWh/kWhPerMWh, 0)

	saving := b.BaselineEnergyMWh - annual
	costSaving := saving * tariff * kWhPerMWh

	res := Result{
		AnnualEnergyMWh:  annual,
		EnergySavingMWh:  saving,
		CarbonSavingTCO2: saving * e.c.CarbonIntensityTPerMWh,
		CostSaving:       costSaving,
		ROI10Yr:          costSaving*roiYears - s.InstallCost,
		PeakDemandKW:     hb.LossCoefficient * hb.DeltaT / whPerKWh,
	}
	if costSaving > 0 {
		payback := s.InstallCost / costSaving
		res.SimplePaybackYrs = &payback
	}
	return res, nil
}

// BaselineCarbon is the annual carbon of the building's recorded baseline
// energy, in tCO2e.
func (e Engine) BaselineCarbon(b Building) float64 {
	return b.BaselineEnergyMWh * e.c.CarbonIntensityTPerMWh
}

// BaselineCost is the annual cost of the recorded baseline energy at tariff.
func (e Engine) BaselineCost(b Building, tariff float64) float64 {
	return b.BaselineEnergyMWh * kWhPerMWh * tariff
}

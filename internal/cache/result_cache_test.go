package cache

import (
	"errors"
	"sync"
	"testing"

	"github.com/crowagent/crowagent/internal/physics"
)

type countingObserver struct {
	mu                   sync.Mutex
	hits, misses, evicts int
}

func (o *countingObserver) CacheHit()   { o.mu.Lock(); o.hits++; o.mu.Unlock() }
func (o *countingObserver) CacheMiss()  { o.mu.Lock(); o.misses++; o.mu.Unlock() }
func (o *countingObserver) CacheEvict() { o.mu.Lock(); o.evicts++; o.mu.Unlock() }

func testBuilding() physics.Building {
	return physics.Building{
		FloorAreaM2: 1200, HeightM: 12, GlazingRatio: 0.4,
		UValueWall: 0.45, UValueRoof: 0.3, UValueGlazing: 2.2,
		BaselineEnergyMWh: 180, OccupancyHours: 2500,
	}
}

func testScenario() physics.Scenario {
	return physics.Scenario{
		UWallFactor: 0.7, URoofFactor: 0.6, UGlazingFactor: 1,
		InfiltrationReduction: 0.1, InstallCost: 50000,
	}
}

func newTestCache(t *testing.T, capacity int) (*ResultCache, *countingObserver) {
	t.Helper()
	obs := &countingObserver{}
	return New(physics.NewEngine(physics.DefaultConstants()), capacity, obs), obs
}

func TestGetOrCompute_MatchesDirectEvaluate(t *testing.T) {
	c, _ := newTestCache(t, 8)
	w := physics.Weather{TemperatureC: -2.5}

	want, err := physics.Evaluate(testBuilding(), testScenario(), w, 0.28)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	for i := 0; i < 2; i++ {
		got, err := c.GetOrCompute(testBuilding(), testScenario(), w, 0.28)
		if err != nil {
			t.Fatalf("GetOrCompute: %v", err)
		}
		if got.AnnualEnergyMWh != want.AnnualEnergyMWh || got.CostSaving != want.CostSaving ||
			got.CarbonSavingTCO2 != want.CarbonSavingTCO2 || got.PeakDemandKW != want.PeakDemandKW {
			t.Errorf("call %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestGetOrCompute_HitAndMissCounting(t *testing.T) {
	c, obs := newTestCache(t, 8)
	w := physics.Weather{TemperatureC: 5}

	for i := 0; i < 3; i++ {
		if _, err := c.GetOrCompute(testBuilding(), testScenario(), w, 0.28); err != nil {
			t.Fatalf("GetOrCompute: %v", err)
		}
	}
	st := c.Stats()
	if st.Misses != 1 || st.Hits != 2 {
		t.Errorf("stats = %+v; want 1 miss, 2 hits", st)
	}
	if obs.misses != 1 || obs.hits != 2 {
		t.Errorf("observer saw %d misses, %d hits", obs.misses, obs.hits)
	}
	if st.HitRatio() < 0.66 || st.HitRatio() > 0.67 {
		t.Errorf("hit ratio = %v", st.HitRatio())
	}
}

func TestGetOrCompute_RoundsTemperatureAndTariff(t *testing.T) {
	c, _ := newTestCache(t, 8)

	a, err := c.GetOrCompute(testBuilding(), testScenario(), physics.Weather{TemperatureC: 4.04}, 0.28001)
	if err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	b, err := c.GetOrCompute(testBuilding(), testScenario(), physics.Weather{TemperatureC: 3.96}, 0.27999)
	if err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if c.Stats().Hits != 1 {
		t.Errorf("expected the second lookup to hit, stats %+v", c.Stats())
	}

	direct, err := physics.Evaluate(testBuilding(), testScenario(), physics.Weather{TemperatureC: 4.0}, 0.28)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if a.AnnualEnergyMWh != direct.AnnualEnergyMWh || b.CostSaving != direct.CostSaving {
		t.Errorf("cached result does not match rounded direct evaluation")
	}
}

func TestGetOrCompute_MutationDoesNotLeak(t *testing.T) {
	c, _ := newTestCache(t, 8)
	w := physics.Weather{TemperatureC: 0}

	first, err := c.GetOrCompute(testBuilding(), testScenario(), w, 0.28)
	if err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if first.SimplePaybackYrs == nil {
		t.Fatal("fixture should produce a payback")
	}
	wantPayback := *first.SimplePaybackYrs
	wantAnnual := first.AnnualEnergyMWh

	first.AnnualEnergyMWh = -1
	*first.SimplePaybackYrs = -1

	second, err := c.GetOrCompute(testBuilding(), testScenario(), w, 0.28)
	if err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if second.AnnualEnergyMWh != wantAnnual || *second.SimplePaybackYrs != wantPayback {
		t.Errorf("mutation leaked into cache: %+v", second)
	}
}

func TestGetOrCompute_ValidatesBeforeLookup(t *testing.T) {
	c, obs := newTestCache(t, 8)
	b := testBuilding()
	b.GlazingRatio = 1.2

	_, err := c.GetOrCompute(b, testScenario(), physics.Weather{TemperatureC: 5}, 0.28)
	if !errors.Is(err, physics.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if obs.hits+obs.misses != 0 {
		t.Error("invalid input should not reach the cache")
	}
	if _, err := c.GetOrCompute(testBuilding(), testScenario(), physics.Weather{TemperatureC: 5}, 0); err == nil {
		t.Error("expected tariff validation error")
	}
}

func TestGetOrCompute_EvictsAtCapacity(t *testing.T) {
	c, obs := newTestCache(t, 2)
	for _, temp := range []float64{1, 2, 3} {
		if _, err := c.GetOrCompute(testBuilding(), testScenario(), physics.Weather{TemperatureC: temp}, 0.28); err != nil {
			t.Fatalf("GetOrCompute: %v", err)
		}
	}
	st := c.Stats()
	if st.Size != 2 || st.Evictions != 1 || obs.evicts != 1 {
		t.Errorf("stats = %+v, observer evicts = %d", st, obs.evicts)
	}

	c.Purge()
	if c.Stats().Size != 0 {
		t.Errorf("size after purge = %d", c.Stats().Size)
	}
}

func TestGetOrCompute_ConcurrentCallers(t *testing.T) {
	c, _ := newTestCache(t, 16)
	want, err := physics.Evaluate(testBuilding(), testScenario(), physics.Weather{TemperatureC: 7}, 0.28)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.GetOrCompute(testBuilding(), testScenario(), physics.Weather{TemperatureC: 7}, 0.28)
			if err != nil {
				errs <- err
				return
			}
			if got.CostSaving != want.CostSaving {
				errs <- errors.New("result mismatch")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestResultKey_Canonical(t *testing.T) {
	w := physics.Weather{TemperatureC: 10}
	k1 := ResultKey(testBuilding(), testScenario(), w, 0.28)
	k2 := ResultKey(testBuilding(), testScenario(), w, 0.28)
	if k1 != k2 {
		t.Fatal("same inputs produced different keys")
	}

	withLabel := testBuilding()
	withLabel.BuildingType = "Office"
	withLabel.BuiltYear = 2000
	if ResultKey(withLabel, testScenario(), w, 0.28) != k1 {
		t.Error("descriptive fields should not change the key")
	}

	changed := testBuilding()
	changed.HeightM = 12.5
	if ResultKey(changed, testScenario(), w, 0.28) == k1 {
		t.Error("model fields must change the key")
	}
}

func TestRoundTemperature_NegativeZero(t *testing.T) {
	if got := canonicalTemperature(-0.04); got != "0.0" {
		t.Errorf("canonicalTemperature(-0.04) = %q; want 0.0", got)
	}
	if got := canonicalTariff(0.123456); got != "0.1235" {
		t.Errorf("canonicalTariff = %q; want 0.1235", got)
	}
}

func TestGetOrCompute_TariffAgreesWithDirectEvaluate(t *testing.T) {
	c, _ := newTestCache(t, 8)
	w := physics.Weather{TemperatureC: 5}

	for _, tariff := range []float64{0.00004, physics.MinTariff / 2} {
		_, direct := physics.Evaluate(testBuilding(), testScenario(), w, tariff)
		_, cached := c.GetOrCompute(testBuilding(), testScenario(), w, tariff)
		if !errors.Is(direct, physics.ErrInvalidInput) || !errors.Is(cached, physics.ErrInvalidInput) {
			t.Errorf("tariff %v: direct=%v cached=%v, want both rejected", tariff, direct, cached)
		}
	}

	want, err := physics.Evaluate(testBuilding(), testScenario(), w, physics.MinTariff)
	if err != nil {
		t.Fatalf("evaluate at minimum tariff: %v", err)
	}
	got, err := c.GetOrCompute(testBuilding(), testScenario(), w, physics.MinTariff)
	if err != nil {
		t.Fatalf("GetOrCompute at minimum tariff: %v", err)
	}
	if got.CostSaving != want.CostSaving {
		t.Errorf("cost saving: got %v, want %v", got.CostSaving, want.CostSaving)
	}
}

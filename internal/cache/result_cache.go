package cache

import (
	"sync/atomic"

	"github.com/crowagent/crowagent/internal/physics"
)

// DefaultCapacity is the number of results kept when no capacity is configured.
const DefaultCapacity = 512

// Observer receives cache events. *metrics.Metrics implements it.
type Observer interface {
	CacheHit()
	CacheMiss()
	CacheEvict()
}

// Evaluator is anything that can produce a simulation result: the
// ResultCache itself or a bare engine.
type Evaluator interface {
	GetOrCompute(b physics.Building, s physics.Scenario, w physics.Weather, tariff float64) (physics.Result, error)
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Size      int    `json:"size"`
	Capacity  int    `json:"capacity"`
}

// HitRatio returns hits over lookups, or 0 before any lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// ResultCache memoizes Engine.Evaluate. Concurrent misses on the same key may
// compute twice; both writes store equal values.
type ResultCache struct {
	engine physics.Engine
	lru    *LRU[physics.Result]
	obs    Observer

	hits, misses, evictions atomic.Uint64
}

// New returns a ResultCache over engine. obs may be nil.
func New(engine physics.Engine, capacity int, obs Observer) *ResultCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &ResultCache{
		engine: engine,
		lru:    NewLRU[physics.Result](capacity),
		obs:    obs,
	}
	c.lru.OnEvict(func(string) {
		c.evictions.Add(1)
		if c.obs != nil {
			c.obs.CacheEvict()
		}
	})
	return c
}

// Engine returns the engine used on misses.
func (c *ResultCache) Engine() physics.Engine { return c.engine }

// GetOrCompute validates the inputs, then returns the cached result for the
// rounded temperature and tariff, computing and storing it on a miss. The
// returned value is a private copy.
func (c *ResultCache) GetOrCompute(b physics.Building, s physics.Scenario, w physics.Weather, tariff float64) (physics.Result, error) {
	if err := physics.Validate(b, s, w); err != nil {
		return physics.Result{}, err
	}
	if err := physics.ValidateTariff(tariff); err != nil {
		return physics.Result{}, err
	}

	rw := physics.Weather{TemperatureC: RoundTemperature(w.TemperatureC)}
	rt := RoundTariff(tariff)
	key := ResultKey(b, s, rw, rt)

	if res, ok := c.lru.Get(key); ok {
		c.hits.Add(1)
		if c.obs != nil {
			c.obs.CacheHit()
		}
		return res.Clone(), nil
	}

	c.misses.Add(1)
	if c.obs != nil {
		c.obs.CacheMiss()
	}

	res, err := c.engine.Evaluate(b, s, rw, rt)
	if err != nil {
		return physics.Result{}, err
	}
	c.lru.Set(key, res.Clone())
	return res, nil
}

// Stats returns the current counters.
func (c *ResultCache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      c.lru.Len(),
		Capacity:  c.lru.Cap(),
	}
}

// Purge drops every cached result. Counters are kept.
func (c *ResultCache) Purge() {
	c.lru.Clear()
}

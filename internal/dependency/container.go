// Package dependency wires core crowagent services using go.uber.org/dig.
package dependency

import (
	"fmt"

	"go.uber.org/dig"

	"github.com/crowagent/crowagent/internal/agent"
	"github.com/crowagent/crowagent/internal/cache"
	"github.com/crowagent/crowagent/internal/catalog"
	"github.com/crowagent/crowagent/internal/config"
	"github.com/crowagent/crowagent/internal/housekeeping"
	"github.com/crowagent/crowagent/internal/metrics"
	"github.com/crowagent/crowagent/internal/providers"
	"github.com/crowagent/crowagent/internal/schema"
	"github.com/crowagent/crowagent/internal/server"
	"github.com/crowagent/crowagent/internal/tools"
)

// Container holds the resolved core service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	cfg          *config.Config
	catalog      *catalog.Catalog
	metrics      *metrics.Metrics
	cache        *cache.ResultCache
	provider     schema.LLMProvider
	orchestrator *agent.Orchestrator
	server       *server.Server
	housekeeping *housekeeping.Service
	credential   Credential
}

func (c *Container) Config() *config.Config              { return c.cfg }
func (c *Container) Catalog() *catalog.Catalog           { return c.catalog }
func (c *Container) Metrics() *metrics.Metrics           { return c.metrics }
func (c *Container) Cache() *cache.ResultCache           { return c.cache }
func (c *Container) Provider() schema.LLMProvider        { return c.provider }
func (c *Container) Orchestrator() *agent.Orchestrator   { return c.orchestrator }
func (c *Container) Server() *server.Server              { return c.server }
func (c *Container) Housekeeping() *housekeeping.Service { return c.housekeeping }
func (c *Container) Credential() string                  { return string(c.credential) }

// Credential is a named string type so dig can distinguish the configured
// API key from other strings.
type Credential string

// New builds and wires all core services from cfg.
func New(cfg *config.Config) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", config.ConfigPath(), err)
	}

	d := dig.New()
	constructors := []any{
		func() *config.Config { return cfg },
		newCatalog,
		metrics.New,
		newResultCache,
		newProvider,
		newCredential,
		newOrchestrator,
		newServer,
		newHousekeeping,
	}
	for _, ctor := range constructors {
		if err := d.Provide(ctor); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(
		cat *catalog.Catalog,
		m *metrics.Metrics,
		rc *cache.ResultCache,
		provider schema.LLMProvider,
		credential Credential,
		orch *agent.Orchestrator,
		srv *server.Server,
		hk *housekeeping.Service,
	) {
		result = &Container{
			cfg:          cfg,
			catalog:      cat,
			metrics:      m,
			cache:        rc,
			provider:     provider,
			orchestrator: orch,
			server:       srv,
			housekeeping: hk,
			credential:   credential,
		}
	})
	return result, err
}

func newCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	return catalog.LoadOrDefault(cfg.Simulation.CatalogFile)
}

func newResultCache(cfg *config.Config, m *metrics.Metrics) *cache.ResultCache {
	return cache.New(cfg.Simulation.Engine(), cfg.Simulation.CacheCapacity, m)
}

func newProvider(cfg *config.Config) (schema.LLMProvider, error) {
	name, params := cfg.ProviderParams("")
	return providers.New(name, params)
}

func newCredential(cfg *config.Config) Credential {
	return Credential(cfg.GetAPIKey(cfg.Agents.Defaults.Model))
}

func newOrchestrator(cfg *config.Config, p schema.LLMProvider, rc *cache.ResultCache, m *metrics.Metrics) *agent.Orchestrator {
	return agent.New(p, rc, cfg.AgentSettings(), agent.WithObserver(m))
}

func newServer(
	cfg *config.Config,
	cat *catalog.Catalog,
	rc *cache.ResultCache,
	orch *agent.Orchestrator,
	m *metrics.Metrics,
	credential Credential,
) *server.Server {
	return server.New(cat, rc, orch, m, server.Options{
		Addr:        cfg.Server.Addr(),
		CORSOrigins: cfg.Server.CORSOrigins,
		Credential:  string(credential),
		Defaults: tools.Defaults{
			TemperatureC: cfg.Simulation.DefaultTemperatureC,
			Tariff:       cfg.Simulation.DefaultTariff,
		},
	})
}

func newHousekeeping(cfg *config.Config, rc *cache.ResultCache, m *metrics.Metrics) *housekeeping.Service {
	return housekeeping.NewService(
		housekeeping.CacheReport(cfg.Server.Housekeeping, rc, m),
		housekeeping.CachePurge(cfg.Server.CachePurge, rc),
	)
}

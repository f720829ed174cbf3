package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/crowagent/crowagent/internal/config"
	"github.com/crowagent/crowagent/internal/housekeeping"
	"github.com/crowagent/crowagent/internal/providers"
	"github.com/crowagent/crowagent/internal/session"
	"github.com/crowagent/crowagent/internal/shared/cmdutils"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show crowagent status",
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfgPath := config.ConfigPath()

	fmt.Printf("%s crowagent Status\n\n", logo)

	_, statErr := os.Stat(cfgPath)
	fmt.Printf("Config:    %s %s\n", cfgPath, cmdutils.Mark(statErr == nil))

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("  (invalid config: %v)\n", err)
	}

	match := cfg.MatchProvider(cfg.Agents.Defaults.Model)
	fmt.Printf("Model:     %s\n", cfg.Agents.Defaults.Model)
	fmt.Printf("Resolved:  %s via %s\n", match.Model, match.Name)
	fmt.Printf("Server:    %s\n", cfg.Server.Addr())

	catalogFile := cfg.Simulation.CatalogFile
	if catalogFile == "" {
		catalogFile = "(built-in)"
	}
	fmt.Printf("Catalogue: %s\n", catalogFile)
	fmt.Printf("Cache:     %d results\n", cfg.Simulation.CacheCapacity)
	if store, err := session.NewManager(filepath.Join(config.DataDir(), "sessions")); err == nil {
		fmt.Printf("Sessions:  %d saved in %s\n", len(store.ListSessions()), store.Dir())
	}
	for _, sched := range []struct{ name, spec string }{
		{"cache-report", cfg.Server.Housekeeping},
		{"cache-purge", cfg.Server.CachePurge},
	} {
		switch {
		case sched.spec == "":
			fmt.Printf("  %-13s (off)\n", sched.name)
		case housekeeping.ValidateSpec(sched.spec) != nil:
			fmt.Printf("  %-13s %s ✗\n", sched.name, sched.spec)
		default:
			fmt.Printf("  %-13s %s\n", sched.name, sched.spec)
		}
	}

	fmt.Println("\nProviders:")
	for _, spec := range providers.PROVIDERS {
		p := cfg.ProviderByName(spec.Name)
		if p == nil {
			continue
		}
		label := spec.Label()
		switch {
		case spec.IsLocal:
			if p.APIBase != "" {
				fmt.Printf("  %-20s ✓ %s\n", label, p.APIBase)
			} else {
				fmt.Printf("  %-20s (not set)\n", label)
			}
		default:
			if p.APIKey != "" {
				fmt.Printf("  %-20s ✓\n", label)
			} else {
				fmt.Printf("  %-20s (not set)\n", label)
			}
		}
	}
	return nil
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crowagent/crowagent/internal/config"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize configuration",
	RunE:  runOnboard,
}

func runOnboard(_ *cobra.Command, _ []string) error {
	cfgPath := config.ConfigPath()

	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Printf("Config already exists at %s\n", cfgPath)
		fmt.Printf("Press Enter to refresh (keep existing values) or Ctrl+C to cancel: ")
		fmt.Scanln()
		existing, loadErr := config.Load(cfgPath)
		if loadErr != nil {
			def := config.DefaultConfig()
			existing = &def
		}
		if err := config.Save(existing, cfgPath); err != nil {
			return err
		}
		fmt.Printf("✓ Config refreshed at %s\n", cfgPath)
	} else {
		cfg := config.DefaultConfig()
		if err := config.Save(&cfg, cfgPath); err != nil {
			return err
		}
		fmt.Printf("✓ Created config at %s\n", cfgPath)
	}

	fmt.Printf("\n%s crowagent is ready!\n\n", logo)
	fmt.Println("Next steps:")
	fmt.Printf("  1. Add a model provider API key to %s\n", cfgPath)
	fmt.Println("     Gemini keys: https://aistudio.google.com/app/apikey")
	fmt.Println("  2. Try the engine: crowagent simulate --building \"Greenfield Library\"")
	fmt.Println("  3. Ask the advisor: crowagent ask -m \"Which building should we retrofit first?\"")
	fmt.Println("  4. Serve the API: crowagent serve")
	return nil
}

// Package cmd implements the crowagent CLI using cobra.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/crowagent/crowagent/internal/config"
	"github.com/crowagent/crowagent/internal/dependency"
	"github.com/crowagent/crowagent/internal/shared/cmdutils"
)

const version = "0.1.0"
const logo = cmdutils.Logo

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "crowagent",
	Short: logo + " crowagent: retrofit energy and carbon advisor",
	Long: logo + " crowagent simulates building retrofit scenarios and answers " +
		"investment questions through a tool-using model.",
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(segmentsCmd)
	rootCmd.AddCommand(statusCmd)
}

// setupLogging installs a stderr text handler at level.
func setupLogging(level slog.Level) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadContainer reads the config file, applies mutate and wires services.
func loadContainer(mutate func(*config.Config)) (*dependency.Container, error) {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if mutate != nil {
		mutate(cfg)
	}
	return dependency.New(cfg)
}

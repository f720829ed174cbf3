package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/crowagent/crowagent/internal/config"
)

var (
	servePort    int
	serveVerbose bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the crowagent HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (overrides server.port)")
	serveCmd.Flags().BoolVarP(&serveVerbose, "verbose", "v", false, "Verbose logging")
}

func runServe(_ *cobra.Command, _ []string) error {
	level := slog.LevelInfo
	if serveVerbose {
		level = slog.LevelDebug
	}
	setupLogging(level)

	container, err := loadContainer(func(cfg *config.Config) {
		if servePort > 0 {
			cfg.Server.Port = servePort
		}
	})
	if err != nil {
		return err
	}

	srv := container.Server()
	hk := container.Housekeeping()

	fmt.Printf("%s Starting crowagent on %s...\n", logo, srv.Addr())
	fmt.Printf("✓ Model provider: %s\n", container.Provider().Name())
	fmt.Printf("✓ Segments: %v\n", container.Catalog().SegmentIDs())
	if jobs := hk.JobNames(); len(jobs) > 0 {
		fmt.Printf("✓ Housekeeping: %v\n", jobs)
	}

	// Graceful shutdown context.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return hk.Start(gctx) })

	fmt.Printf("%s Server running. Press Ctrl+C to stop.\n", logo)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "serve error: %v\n", err)
		return err
	}
	fmt.Println("\nShutdown complete.")
	return nil
}

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/crowagent/crowagent/internal/agent"
	"github.com/crowagent/crowagent/internal/catalog"
	"github.com/crowagent/crowagent/internal/config"
	"github.com/crowagent/crowagent/internal/dependency"
	"github.com/crowagent/crowagent/internal/schema"
	"github.com/crowagent/crowagent/internal/session"
	"github.com/crowagent/crowagent/internal/shared/cmdutils"
)

const turnTimeout = 5 * time.Minute

var (
	askMessage string
	askSegment string
	askSession string
	askLogs    bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask the retrofit advisor",
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askMessage, "message", "m", "", "Send a single message and exit")
	askCmd.Flags().StringVarP(&askSegment, "segment", "s", catalog.SegmentUniversityHE, "Customer segment")
	askCmd.Flags().StringVar(&askSession, "session", "", "Resume and save the named conversation")
	askCmd.Flags().BoolVar(&askLogs, "logs", false, "Show runtime logs")
}

var exitCommands = map[string]bool{
	"exit":  true,
	"quit":  true,
	"/exit": true,
	"/quit": true,
	":q":    true,
}

// conversation is one chat against one segment's registries, optionally
// persisted between runs.
type conversation struct {
	orch       *agent.Orchestrator
	segment    catalog.Segment
	credential string
	history    schema.Messages

	store  *session.Manager
	stored *session.Session
}

func runAsk(_ *cobra.Command, _ []string) error {
	level := slog.LevelWarn
	if askLogs {
		level = slog.LevelInfo
	}
	setupLogging(level)

	container, err := loadContainer(nil)
	if err != nil {
		return err
	}

	segmentID := askSegment
	var (
		store  *session.Manager
		stored *session.Session
	)
	if askSession != "" {
		store, err = session.NewManager(filepath.Join(config.DataDir(), "sessions"))
		if err != nil {
			return err
		}
		stored, err = store.GetOrCreate(askSession, askSegment)
		if err != nil {
			return err
		}
		if stored.Segment != "" {
			segmentID = stored.Segment
		}
		stored.Segment = segmentID
	}

	seg, err := container.Catalog().Segment(segmentID)
	if err != nil {
		return err
	}
	s := newConversation(container, seg)
	if stored != nil {
		s.store, s.stored, s.history = store, stored, stored.Messages
		if n := stored.Messages.Len(); n > 0 {
			fmt.Printf("%s Resuming session %q (%d messages)\n", logo, stored.Key, n)
		}
	}

	if askMessage != "" {
		return s.runSingleMessage(askMessage)
	}
	return s.runInteractive()
}

func newConversation(c *dependency.Container, seg catalog.Segment) *conversation {
	return &conversation{orch: c.Orchestrator(), segment: seg, credential: c.Credential()}
}

// runSingleMessage sends one message to the advisor and prints the reply.
func (s *conversation) runSingleMessage(message string) error {
	ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "  ↳ thinking...\n")
	s.send(ctx, message)
	return nil
}

// runInteractive starts the REPL: each line is one turn and the history
// carries over between turns.
func (s *conversation) runInteractive() error {
	fmt.Printf("%s %s advisor (type 'exit' or Ctrl+C to quit)\n\n", logo, s.segment.Label)
	fmt.Println("Try asking:")
	for _, q := range agent.StarterQuestionsFor(s.segment.ID) {
		fmt.Printf("  • %s\n", q)
	}
	fmt.Println()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listenForSignals(cancel)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")

		if !scanner.Scan() {
			fmt.Println("\nGoodbye!")
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if exitCommands[strings.ToLower(line)] {
			fmt.Println("Goodbye!")
			return nil
		}

		turnCtx, turnCancel := context.WithTimeout(ctx, turnTimeout)
		s.send(turnCtx, line)
		turnCancel()
	}
}

func (s *conversation) send(ctx context.Context, message string) {
	reply, history := s.orch.RunTurn(ctx, message, s.history, s.credential, s.segment.Buildings, s.segment.Scenarios)
	s.history = history
	if s.store != nil {
		s.stored.Messages = history
		if err := s.store.Save(s.stored); err != nil {
			slog.Warn("Could not save session", "key", s.stored.Key, "err", err)
		}
	}

	warning := ""
	if reply.Err != nil {
		warning = reply.Err.Error()
	}
	cmdutils.PrintResponse(os.Stdout, reply.Text, reply.ToolNames(), warning)
}

// listenForSignals cancels ctx on SIGINT or SIGTERM and exits.
func listenForSignals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		fmt.Printf("\nGoodbye!\nReceived %s, shutting down...\n", sig)
		cancel()
		os.Exit(0)
	}()
}

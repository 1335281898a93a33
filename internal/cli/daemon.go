package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/inhalrisk/internal/daemon"
)

var (
	daemonPoll   bool
	daemonInbox  string
	daemonOutbox string
	daemonState  string
)

func init() {
	rootCmd.AddCommand(daemonCmd)
	daemonCmd.Flags().BoolVar(&daemonPoll, "poll", false, "Poll the inbox instead of using filesystem notifications")
	daemonCmd.Flags().StringVar(&daemonInbox, "inbox", "", "Inbox directory (overrides config)")
	daemonCmd.Flags().StringVar(&daemonOutbox, "outbox", "", "Outbox directory (overrides config)")
	daemonCmd.Flags().StringVar(&daemonState, "state", "", "State directory (overrides config)")
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Process assessment jobs dropped into an inbox directory",
	Long: "Watches the inbox for JSON job files, scores each one and writes\n" +
		"<id>.json to the outbox. Processed jobs are kept under state/archive.\n\n" +
		"A job holds a \"request\", a \"batch\" of requests, or a bare request\n" +
		"optionally carrying a quimicos_datos safety data sheet summary.",
	RunE: runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return daemonUntil(ctx)
}

func daemonUntil(ctx context.Context) error {
	e, err := newEnv(os.Stderr)
	if err != nil {
		return err
	}
	defer e.close()

	dc := daemon.ConfigFrom(e.cfg.Daemon, e.logger)
	dc.PollMode = daemonPoll
	if daemonInbox != "" {
		dc.Dirs.Inbox = daemonInbox
	}
	if daemonOutbox != "" {
		dc.Dirs.Outbox = daemonOutbox
	}
	if daemonState != "" {
		dc.Dirs.State = daemonState
	}

	d, err := daemon.New(dc, e.svc)
	if err != nil {
		return err
	}
	return d.Run(ctx)
}

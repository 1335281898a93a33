package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/inhalrisk/internal/httpapi"
	"github.com/ppiankov/inhalrisk/internal/ratelimit"
	"github.com/ppiankov/inhalrisk/internal/server"
)

var (
	servePort     int
	serveHTTPAddr string
	serveNoHTTP   bool
	serveNoReload bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "gRPC listen port (default from config, 50061)")
	serveCmd.Flags().StringVar(&serveHTTPAddr, "http-addr", "", "HTTP listen address (default from config, 127.0.0.1:8937)")
	serveCmd.Flags().BoolVar(&serveNoHTTP, "no-http", false, "Serve gRPC only")
	serveCmd.Flags().BoolVar(&serveNoReload, "no-reload", false, "Disable config hot-reload")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC and HTTP assessment servers",
	Long: "Runs inhalrisk as a scoring service: gRPC (Assess, AssessBatch, Tables,\n" +
		"health) and a JSON HTTP API with /metrics.\n" +
		"The engine options hot-reload when the config file changes.",
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serveUntil(ctx)
}

// serveUntil runs every listener until ctx is cancelled or one of them fails.
func serveUntil(ctx context.Context) error {
	e, err := newEnv(os.Stderr)
	if err != nil {
		return err
	}
	defer e.close()
	port := e.cfg.GRPC.Port
	if servePort != 0 {
		port = servePort
	}
	httpAddr := e.cfg.HTTP.Addr
	if serveHTTPAddr != "" {
		httpAddr = serveHTTPAddr
	}
	workers := e.cfg.Daemon.Workers

	srv := server.New(server.Config{
		Port:         port,
		ConfigPath:   e.path,
		BatchWorkers: workers,
	}, e.svc)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(srv.Serve)
	g.Go(func() error {
		<-gctx.Done()
		e.logger.Info("shutting down")
		srv.GracefulStop()
		return nil
	})

	if !serveNoHTTP {
		rl := e.cfg.HTTP.RateLimit
		h := httpapi.New(e.svc,
			httpapi.WithLimiter(ratelimit.New(rl.RequestsPerSecond, rl.Burst)),
			httpapi.WithGatherer(e.registry),
			httpapi.WithBatchWorkers(workers),
		)
		g.Go(func() error { return h.ListenAndServe(gctx, httpAddr) })
	}

	if !serveNoReload {
		reloader, err := server.NewReloader(srv, []string{e.path})
		if err != nil {
			e.logger.Warn("hot-reload disabled", "error", err)
		} else {
			g.Go(func() error { return reloader.Run(gctx) })
		}
	}

	e.logger.Info("inhalrisk serving",
		"grpc_port", port,
		"http_addr", httpAddr,
		"http", !serveNoHTTP,
		"config", e.path,
		"config_hash", e.hash,
		"strict", e.cfg.Engine.Strict,
	)
	return g.Wait()
}

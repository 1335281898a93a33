package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

const (
	shutdownTimeout = 5 * time.Second
	pruneInterval   = time.Minute
	idleBucket      = 10 * time.Minute
)

// Serve runs the API on lis until ctx is cancelled, then shuts down
// gracefully. Idle rate-limit buckets are pruned while serving.
func (h *Handler) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           h.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("http server listening", "addr", lis.Addr().String())
		errCh <- srv.Serve(lis)
	}()

	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ticker.C:
			if n := h.limiter.Prune(idleBucket); n > 0 {
				h.logger.Debug("pruned idle rate-limit buckets", "count", n)
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("http shutdown: %w", err)
			}
			return nil
		}
	}
}

// ListenAndServe listens on addr and calls Serve.
func (h *Handler) ListenAndServe(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return h.Serve(ctx, lis)
}

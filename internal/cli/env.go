package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ppiankov/inhalrisk/internal/assess"
	"github.com/ppiankov/inhalrisk/internal/audit"
	"github.com/ppiankov/inhalrisk/internal/config"
	"github.com/ppiankov/inhalrisk/internal/logging"
	"github.com/ppiankov/inhalrisk/internal/metrics"
)

// env is what every command needs: config, logger and an assessment service.
type env struct {
	cfg      *config.Config
	path     string
	hash     string
	logger   *slog.Logger
	registry *prometheus.Registry
	svc      *assess.Service
	audit    *audit.Log
}

// newEnv loads the config named by --config and builds the service.
// Logs go to logOut.
func newEnv(logOut io.Writer) (*env, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, hash, err := config.LoadWithHash(path)
	if err != nil {
		return nil, err
	}

	level, format := cfg.Log.Level, cfg.Log.Format
	if logLevel != "" {
		level = logLevel
	}
	if logFormat != "" {
		format = logFormat
	}
	logger, err := logging.New(logOut, level, format)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	reg := prometheus.NewRegistry()
	svc := assess.New(cfg.Engine.Options(), logger, metrics.New(reg))
	svc.SetOptions(cfg.Engine.Options(), hash)

	var trail *audit.Log
	if cfg.Audit.Path != "" {
		if trail, err = audit.Open(cfg.Audit.Path); err != nil {
			return nil, err
		}
		svc.SetAudit(trail)
	}

	logger.Debug("config loaded", "path", path, "config_hash", hash, "strict", cfg.Engine.Strict, "audit", cfg.Audit.Path)
	return &env{
		cfg:      cfg,
		path:     path,
		hash:     hash,
		logger:   logger,
		registry: reg,
		svc:      svc,
		audit:    trail,
	}, nil
}

func (e *env) close() {
	if err := e.audit.Close(); err != nil {
		e.logger.Warn("close audit log", "error", err)
	}
}

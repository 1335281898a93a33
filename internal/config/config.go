package config

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/inhalrisk/internal/ntp937"
)

// EngineConfig controls assessment validation.
type EngineConfig struct {
	Strict bool `yaml:"strict"`
}

// Options converts the engine section to engine options.
func (e EngineConfig) Options() ntp937.Options {
	return ntp937.Options{Strict: e.Strict}
}

// LogConfig selects log level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// GRPCConfig configures the gRPC listener.
type GRPCConfig struct {
	Port int `yaml:"port"`
}

// RateLimitConfig bounds requests per client address. Zero disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// HTTPConfig configures the HTTP listener.
type HTTPConfig struct {
	Addr      string          `yaml:"addr"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// DaemonConfig configures the inbox/outbox job processor.
type DaemonConfig struct {
	Inbox        string        `yaml:"inbox"`
	Outbox       string        `yaml:"outbox"`
	State        string        `yaml:"state"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Workers      int           `yaml:"workers"`
}

// AuditConfig names the hash-chained assessment log. Empty disables it.
type AuditConfig struct {
	Path string `yaml:"path"`
}

// Config is the full inhalrisk configuration.
type Config struct {
	Engine EngineConfig `yaml:"engine"`
	Log    LogConfig    `yaml:"log"`
	GRPC   GRPCConfig   `yaml:"grpc"`
	HTTP   HTTPConfig   `yaml:"http"`
	Daemon DaemonConfig `yaml:"daemon"`
	Audit  AuditConfig  `yaml:"audit"`
}

// Dir returns ~/.inhalrisk, or .inhalrisk when the home directory is unknown.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".inhalrisk"
	}
	return filepath.Join(home, ".inhalrisk")
}

// DefaultPath returns the config file location used when none is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	dir := Dir()
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
		GRPC: GRPCConfig{Port: 50061},
		HTTP: HTTPConfig{
			Addr: "127.0.0.1:8937",
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 50,
				Burst:             100,
			},
		},
		Daemon: DaemonConfig{
			Inbox:        filepath.Join(dir, "inbox"),
			Outbox:       filepath.Join(dir, "outbox"),
			State:        filepath.Join(dir, "state"),
			PollInterval: 5 * time.Second,
			Workers:      4,
		},
	}
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "auto", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	if c.GRPC.Port < 0 || c.GRPC.Port > 65535 {
		errs = append(errs, fmt.Errorf("grpc.port: %d out of range", c.GRPC.Port))
	}
	if c.HTTP.RateLimit.RequestsPerSecond < 0 || c.HTTP.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("http.rate_limit: values must not be negative"))
	}
	if c.Daemon.PollInterval <= 0 {
		errs = append(errs, errors.New("daemon.poll_interval: must be positive"))
	}
	if c.Daemon.Workers < 1 {
		errs = append(errs, errors.New("daemon.workers: must be at least 1"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from a YAML file.
// Empty path falls back to ~/.inhalrisk/config.yaml.
// Missing file returns defaults. Invalid YAML returns an error.
func Load(path string) (*Config, error) {
	cfg, _, err := LoadWithHash(path)
	return cfg, err
}

// LoadWithHash loads configuration and returns the SHA-256 of the raw file.
// When no file exists the hash is the SHA-256 of empty input.
func LoadWithHash(path string) (*Config, string, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), hashOf(nil), nil
		}
		return nil, "", fmt.Errorf("failed to read config: %w", err)
	}

	// Start with defaults, YAML overwrites only specified fields
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config %s: %w", path, err)
	}
	for _, p := range []*string{&cfg.Daemon.Inbox, &cfg.Daemon.Outbox, &cfg.Daemon.State, &cfg.Audit.Path} {
		*p = expandHome(*p)
	}

	return cfg, hashOf(data), nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}

func hashOf(data []byte) string {
	h := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(h[:])
}

// DefaultConfigYAML returns a commented YAML string for init-config.
func DefaultConfigYAML() string {
	return `# inhalrisk configuration
# Missing keys keep their built-in defaults.

engine:
  # Reject out-of-range volatility/procedure/protection/frequency classes
  # instead of applying the table fallbacks.
  strict: false

log:
  level: info      # debug | info | warn | error
  format: auto     # auto (text on a terminal) | text | json

grpc:
  port: 50061

http:
  addr: 127.0.0.1:8937
  rate_limit:
    requests_per_second: 50   # 0 disables
    burst: 100

daemon:
  # Defaults to ~/.inhalrisk/{inbox,outbox,state}.
  # inbox: /var/lib/inhalrisk/inbox
  # outbox: /var/lib/inhalrisk/outbox
  # state: /var/lib/inhalrisk/state
  poll_interval: 5s
  workers: 4

audit:
  # Append every assessment to a hash-chained JSONL log.
  # Check it with: inhalrisk audit verify
  # path: ~/.inhalrisk/audit.jsonl
`
}

// WriteDefault writes DefaultConfigYAML to path. It refuses to overwrite an
// existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if path == "" {
		path = DefaultPath()
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(DefaultConfigYAML()), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

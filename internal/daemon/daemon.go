package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ppiankov/inhalrisk/internal/assess"
	"github.com/ppiankov/inhalrisk/internal/config"
	"github.com/ppiankov/inhalrisk/internal/logging"
)

// Config holds full daemon configuration.
type Config struct {
	Dirs         DirConfig
	PollMode     bool
	PollInterval time.Duration
	Workers      int
	BatchWorkers int
	Logger       *slog.Logger
}

// ConfigFrom builds a daemon config from the file's daemon section.
func ConfigFrom(c config.DaemonConfig, logger *slog.Logger) Config {
	return Config{
		Dirs:         DirsFromConfig(c),
		PollInterval: c.PollInterval,
		Workers:      c.Workers,
		BatchWorkers: c.Workers,
		Logger:       logger,
	}
}

const pidFile = "daemon.pid"

// Daemon watches the inbox directory and processes jobs.
type Daemon struct {
	cfg       Config
	processor *Processor
}

// New creates a daemon with validated configuration.
func New(cfg Config, svc *assess.Service) (*Daemon, error) {
	if cfg.Dirs.Inbox == "" || cfg.Dirs.Outbox == "" || cfg.Dirs.State == "" {
		return nil, fmt.Errorf("inbox, outbox, and state directories are required")
	}
	if svc == nil {
		return nil, fmt.Errorf("assessment service is required")
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = pollDefault
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}

	processor := NewProcessor(ProcessorConfig{
		Dirs:         cfg.Dirs,
		BatchWorkers: cfg.BatchWorkers,
		Logger:       cfg.Logger,
	}, svc)

	return &Daemon{
		cfg:       cfg,
		processor: processor,
	}, nil
}

// Run processes jobs until ctx is cancelled. Jobs already in the inbox are
// handled first; jobs a previous run left in processing get failed results.
func (d *Daemon) Run(ctx context.Context) error {
	log := d.cfg.Logger

	release, err := d.prepare()
	if err != nil {
		return err
	}
	defer release()

	handler := func(path string) {
		if err := d.processor.Process(ctx, path); err != nil {
			log.Error("process job", "file", filepath.Base(path), "error", err)
		}
	}
	if err := ScanExisting(d.cfg.Dirs.Inbox, handler); err != nil {
		return fmt.Errorf("scan existing: %w", err)
	}

	log.Info("daemon started",
		"inbox", d.cfg.Dirs.Inbox,
		"outbox", d.cfg.Dirs.Outbox,
		"poll", d.cfg.PollMode,
		"workers", d.cfg.Workers,
	)
	return d.watch(ctx, handler)
}

// prepare creates the directories, takes the PID lock and recovers
// orphans. The returned func releases the lock.
func (d *Daemon) prepare() (func(), error) {
	if err := EnsureDirs(d.cfg.Dirs); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	if err := ValidateSameFilesystem(d.cfg.Dirs); err != nil {
		d.cfg.Logger.Warn("job moves will copy across filesystems", "error", err)
	}

	pidPath := filepath.Join(d.cfg.Dirs.State, pidFile)
	if err := acquirePIDLock(pidPath); err != nil {
		return nil, fmt.Errorf("acquire PID lock: %w", err)
	}
	release := func() { _ = os.Remove(pidPath) }

	if err := d.recoverOrphans(); err != nil {
		release()
		return nil, fmt.Errorf("recover orphans: %w", err)
	}
	return release, nil
}

func (d *Daemon) watch(ctx context.Context, handler func(string)) error {
	poll := func() error {
		return NewPollWatcher(d.cfg.Dirs.Inbox, handler, d.cfg.PollInterval).Run(ctx)
	}
	if d.cfg.PollMode {
		return poll()
	}
	if err := NewInboxWatcher(d.cfg.Dirs.Inbox, handler, d.cfg.Workers, d.cfg.Logger).Run(ctx); err != nil {
		// NFS and some FUSE mounts refuse inotify.
		d.cfg.Logger.Warn("inbox watcher unavailable, polling instead", "error", err, "interval", d.cfg.PollInterval)
		return poll()
	}
	return nil
}

// recoverOrphans fails and archives jobs left in state/processing.
func (d *Daemon) recoverOrphans() error {
	orphans, err := listJobs(d.cfg.Dirs.ProcessingDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, path := range orphans {
		name := filepath.Base(path)
		id := IDFromPath(path)
		err := d.processor.writeResult(&Result{
			ID:          id,
			Status:      ResultFailed,
			Error:       "interrupted: job was processing when daemon stopped",
			CompletedAt: time.Now().UTC(),
		})
		if err != nil {
			d.cfg.Logger.Error("recover orphan", "job_id", id, "error", err)
			continue
		}
		d.processor.svc.Metrics().IncrementJob(ResultFailed)
		_ = moveFile(path, filepath.Join(d.cfg.Dirs.ArchiveDir(), name))
		d.cfg.Logger.Warn("orphaned job failed", "job_id", id)
	}
	return nil
}

// acquirePIDLock records this process in path. A file naming a live process
// is an error; one naming a dead process is replaced.
func acquirePIDLock(path string) error {
	if pid, ok := readPID(path); ok && processAlive(pid) {
		return fmt.Errorf("another daemon is running (PID %d)", pid)
	}
	_ = os.Remove(path)
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0600)
}

func readPID(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	return pid, err == nil
}

func processAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return p.Signal(syscall.Signal(0)) == nil
}

package daemon

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/ppiankov/inhalrisk/internal/config"
)

// dirPerm is the permission for daemon-managed directories.
const dirPerm = 0750

// DirConfig holds the daemon directory layout.
type DirConfig struct {
	Inbox  string // incoming job files
	Outbox string // results
	State  string // state/{processing,archive}
}

// DirsFromConfig takes the layout from the daemon config section.
func DirsFromConfig(c config.DaemonConfig) DirConfig {
	return DirConfig{Inbox: c.Inbox, Outbox: c.Outbox, State: c.State}
}

// ProcessingDir returns the path to the processing subdirectory.
func (d DirConfig) ProcessingDir() string {
	return filepath.Join(d.State, "processing")
}

// ArchiveDir holds job files after their result has been written.
func (d DirConfig) ArchiveDir() string {
	return filepath.Join(d.State, "archive")
}

// EnsureDirs creates all required directories. Idempotent.
func EnsureDirs(cfg DirConfig) error {
	dirs := []string{
		cfg.Inbox,
		cfg.Outbox,
		cfg.ProcessingDir(),
		cfg.ArchiveDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ValidateSameFilesystem reports an error when inbox and state live on
// different devices, where moves degrade to copy + remove.
func ValidateSameFilesystem(cfg DirConfig) error {
	inbox, err := deviceID(cfg.Inbox)
	if errors.Is(err, errDeviceUnsupported) {
		return nil
	}
	if err != nil {
		return err
	}
	state, err := deviceID(cfg.State)
	if err != nil {
		return err
	}
	if inbox != state {
		return fmt.Errorf("inbox %s and state %s are on different filesystems", cfg.Inbox, cfg.State)
	}
	return nil
}

var errDeviceUnsupported = errors.New("unsupported platform for device ID check")

// moveFile moves src to dst using os.Rename. If rename fails with EXDEV
// (cross-device link, common with systemd ReadWritePaths bind mounts),
// it falls back to copy + remove.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	var errno syscall.Errno
	if !errors.As(err, &errno) || errno != syscall.EXDEV {
		return err
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

// copyFile copies src to dst preserving permissions.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}

package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/inhalrisk/internal/config"
)

func TestEnsureDirs(t *testing.T) {
	root := t.TempDir()
	cfg := DirConfig{
		Inbox:  filepath.Join(root, "inbox"),
		Outbox: filepath.Join(root, "outbox"),
		State:  filepath.Join(root, "state"),
	}

	if err := EnsureDirs(cfg); err != nil {
		t.Fatalf("EnsureDirs failed: %v", err)
	}

	for _, dir := range []string{cfg.Inbox, cfg.Outbox, cfg.ProcessingDir(), cfg.ArchiveDir()} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("directory %s not created: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}

	if err := EnsureDirs(cfg); err != nil {
		t.Fatalf("second EnsureDirs should be idempotent: %v", err)
	}
}

func TestDirConfigSubdirectories(t *testing.T) {
	cfg := DirConfig{State: "/var/lib/inhalrisk/state"}

	if got := cfg.ProcessingDir(); got != "/var/lib/inhalrisk/state/processing" {
		t.Errorf("ProcessingDir = %q", got)
	}
	if got := cfg.ArchiveDir(); got != "/var/lib/inhalrisk/state/archive" {
		t.Errorf("ArchiveDir = %q", got)
	}
}

func TestDirsFromConfig(t *testing.T) {
	got := DirsFromConfig(config.DaemonConfig{
		Inbox:        "/in",
		Outbox:       "/out",
		State:        "/state",
		PollInterval: time.Second,
	})
	want := DirConfig{Inbox: "/in", Outbox: "/out", State: "/state"}
	if got != want {
		t.Errorf("DirsFromConfig = %+v, want %+v", got, want)
	}
}

func TestValidateSameFilesystem(t *testing.T) {
	root := t.TempDir()
	cfg := DirConfig{
		Inbox:  filepath.Join(root, "inbox"),
		Outbox: filepath.Join(root, "outbox"),
		State:  filepath.Join(root, "state"),
	}
	if err := EnsureDirs(cfg); err != nil {
		t.Fatal(err)
	}

	if err := ValidateSameFilesystem(cfg); err != nil {
		t.Errorf("same tempdir should be same filesystem: %v", err)
	}
}

func TestMoveFile(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "a.json")
	dst := filepath.Join(root, "b.json")
	if err := os.WriteFile(src, []byte(`{}`), 0600); err != nil {
		t.Fatal(err)
	}
	if err := moveFile(src, dst); err != nil {
		t.Fatalf("moveFile: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source should be gone")
	}
	if _, err := os.Stat(dst); err != nil {
		t.Errorf("destination missing: %v", err)
	}
}

func TestCopyFile(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "a.json")
	dst := filepath.Join(root, "b.json")
	if err := os.WriteFile(src, []byte(`{"x":1}`), 0640); err != nil {
		t.Fatal(err)
	}
	if err := copyFile(src, dst); err != nil {
		t.Fatalf("copyFile: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"x":1}` {
		t.Errorf("copied content = %q", data)
	}
}

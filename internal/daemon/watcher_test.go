package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"
)

// recorder collects handled paths from watcher goroutines.
type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) handle(path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

// runFor starts run in the background and returns a stop func that cancels
// it and waits for it to return.
func runFor(t *testing.T, run func(context.Context) error) (stop func() error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx) }()
	return func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(2 * time.Second):
			t.Fatal("watcher did not stop after context cancellation")
			return nil
		}
	}
}

func dropJob(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

const taskJSON = `{"request": {"hazard_phrases": ["H332"], "quantity_g_day": 250, "frequency_class": 2}}`

func TestInboxWatcherSeesRenamedJob(t *testing.T) {
	inbox := t.TempDir()
	var rec recorder
	stop := runFor(t, NewInboxWatcher(inbox, rec.handle, 2, nil).Run)
	time.Sleep(100 * time.Millisecond)

	tmp := dropJob(t, inbox, "task-7.json.tmp", taskJSON)
	final := filepath.Join(inbox, "task-7.json")
	if err := os.Rename(tmp, final); err != nil {
		t.Fatal(err)
	}
	time.Sleep(500 * time.Millisecond)
	if err := stop(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := rec.snapshot()
	if len(got) != 1 || got[0] != final {
		t.Fatalf("handled %v, want [%s]", got, final)
	}
}

func TestInboxWatcherSkipsPartialWrites(t *testing.T) {
	inbox := t.TempDir()
	var rec recorder
	stop := runFor(t, NewInboxWatcher(inbox, rec.handle, 2, nil).Run)
	time.Sleep(100 * time.Millisecond)

	dropJob(t, inbox, "task-8.json.tmp", taskJSON)
	dropJob(t, inbox, "notes.txt", "not a job")
	time.Sleep(500 * time.Millisecond)
	_ = stop()

	if got := rec.snapshot(); len(got) != 0 {
		t.Errorf("non-job files handled: %v", got)
	}
}

func TestInboxWatcherStopsOnCancel(t *testing.T) {
	stop := runFor(t, NewInboxWatcher(t.TempDir(), func(string) {}, 0, nil).Run)
	time.Sleep(50 * time.Millisecond)
	if err := stop(); err != nil {
		t.Errorf("expected nil error on cancel, got %v", err)
	}
}

func TestInboxWatcherMissingInbox(t *testing.T) {
	w := NewInboxWatcher(filepath.Join(t.TempDir(), "gone"), func(string) {}, 1, nil)
	if err := w.Run(context.Background()); err == nil {
		t.Fatal("expected error watching a missing inbox")
	}
}

func TestInboxWatcherSurvivesHandlerPanic(t *testing.T) {
	inbox := t.TempDir()
	var rec recorder
	stop := runFor(t, NewInboxWatcher(inbox, func(path string) {
		rec.handle(path)
		panic("handler bug")
	}, 1, nil).Run)
	time.Sleep(100 * time.Millisecond)

	dropJob(t, inbox, "p1.json", taskJSON)
	dropJob(t, inbox, "p2.json", taskJSON)
	time.Sleep(500 * time.Millisecond)
	_ = stop()

	if got := rec.snapshot(); len(got) != 2 {
		t.Errorf("single worker should survive panics and handle both jobs, got %v", got)
	}
}

func TestPollWatcherPicksUpJob(t *testing.T) {
	inbox := t.TempDir()
	var rec recorder
	stop := runFor(t, NewPollWatcher(inbox, rec.handle, 50*time.Millisecond).Run)

	dropJob(t, inbox, "poll-1.json", taskJSON)
	time.Sleep(200 * time.Millisecond)
	_ = stop()

	if got := rec.snapshot(); len(got) != 1 {
		t.Fatalf("expected 1 job, got %v", got)
	}
}

func TestPollWatcherHandlesEachFileOnce(t *testing.T) {
	inbox := t.TempDir()
	dropJob(t, inbox, "dup-1.json", taskJSON)

	var rec recorder
	stop := runFor(t, NewPollWatcher(inbox, rec.handle, 50*time.Millisecond).Run)
	time.Sleep(300 * time.Millisecond)
	_ = stop()

	if got := rec.snapshot(); len(got) != 1 {
		t.Errorf("job still in inbox should be handled once across polls, got %d", len(got))
	}
}

func TestPollWatcherForgetsRemovedFiles(t *testing.T) {
	inbox := t.TempDir()
	var calls int
	w := NewPollWatcher(inbox, func(p string) {
		calls++
		_ = os.Remove(p)
	}, time.Hour)

	for i := 0; i < 2; i++ {
		dropJob(t, inbox, "again.json", taskJSON)
		w.scan()
		w.scan()
	}
	if calls != 2 {
		t.Errorf("reused job name should be handled again, got %d calls", calls)
	}
}

func TestScanExisting(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  []string
	}{
		{"mixed", []string{"b.json", "a.json", "c.json.tmp", "d.txt"}, []string{"a.json", "b.json"}},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inbox := t.TempDir()
			for _, f := range tt.files {
				dropJob(t, inbox, f, taskJSON)
			}
			var got []string
			if err := ScanExisting(inbox, func(p string) { got = append(got, filepath.Base(p)) }); err != nil {
				t.Fatal(err)
			}
			sort.Strings(got)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestScanExistingMissingDir(t *testing.T) {
	called := false
	if err := ScanExisting(filepath.Join(t.TempDir(), "none"), func(string) { called = true }); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("handler called for missing inbox")
	}
}

func TestIsJobFile(t *testing.T) {
	for name, want := range map[string]bool{
		"task-001.json":    true,
		"batch.json":       true,
		".hidden.json":     true,
		"task.json.tmp":    false,
		"sds-extract.yaml": false,
		"results.csv":      false,
	} {
		if got := isJobFile(name); got != want {
			t.Errorf("isJobFile(%q) = %v, want %v", name, got, want)
		}
	}
}

package daemon

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ppiankov/inhalrisk/internal/logging"
)

// debounceDefault is the default debounce interval for file events.
const debounceDefault = 200 * time.Millisecond

// workersDefault bounds concurrent job processing.
const workersDefault = 4

// maxQueueSize buffers debounced paths ahead of the workers.
const maxQueueSize = 200

// pollDefault is the default polling interval when fsnotify is unavailable.
const pollDefault = 5 * time.Second

// InboxWatcher hands new job files in the inbox to a handler, driven by
// fsnotify events.
type InboxWatcher struct {
	inbox    string
	handler  func(path string)
	debounce time.Duration
	workers  int
	logger   *slog.Logger
}

// NewInboxWatcher creates a watcher for the inbox directory. workers < 1
// uses the default pool size.
func NewInboxWatcher(inbox string, handler func(path string), workers int, logger *slog.Logger) *InboxWatcher {
	if workers < 1 {
		workers = workersDefault
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &InboxWatcher{
		inbox:    inbox,
		handler:  handler,
		debounce: debounceDefault,
		workers:  workers,
		logger:   logger,
	}
}

// pending collects debounced paths. Duplicate events for one path collapse.
type pending struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

func (p *pending) add(path string) {
	p.mu.Lock()
	if p.paths == nil {
		p.paths = make(map[string]struct{})
	}
	p.paths[path] = struct{}{}
	p.mu.Unlock()
}

func (p *pending) drain() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.paths))
	for path := range p.paths {
		out = append(out, path)
	}
	p.paths = nil
	return out
}

// Run watches the inbox for new job files. Blocks until ctx is cancelled.
// One timer is reset on every event; when it fires the accumulated paths go
// to a fixed pool of workers.
func (w *InboxWatcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = fw.Close() }()
	if err := fw.Add(w.inbox); err != nil {
		return err
	}

	queue := make(chan string, maxQueueSize)
	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range queue {
				w.handle(path)
			}
		}()
	}

	var ready pending
	enqueue := func() {
		for _, p := range ready.drain() {
			select {
			case queue <- p:
			case <-ctx.Done():
				return
			}
		}
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer func() {
		timer.Stop()
		enqueue()
		close(queue)
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-timer.C:
			enqueue()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			// A rename into the inbox arrives as Create.
			if !event.Has(fsnotify.Create) || !isJobFile(event.Name) {
				continue
			}
			ready.add(event.Name)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("inbox watcher error", "error", err)
		}
	}
}

// handle runs the handler, keeping the worker alive on panic.
func (w *InboxWatcher) handle(path string) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("job handler panicked", "path", path, "panic", r)
		}
	}()
	w.handler(path)
}

// PollWatcher lists the inbox on a fixed interval. The daemon uses it when
// fsnotify is unavailable or polling is requested.
type PollWatcher struct {
	inbox    string
	handler  func(path string)
	interval time.Duration
	seen     map[string]bool
}

// NewPollWatcher creates a polling-based watcher.
func NewPollWatcher(inbox string, handler func(path string), interval time.Duration) *PollWatcher {
	if interval == 0 {
		interval = pollDefault
	}
	return &PollWatcher{
		inbox:    inbox,
		handler:  handler,
		interval: interval,
		seen:     make(map[string]bool),
	}
}

// Run polls the inbox directory. Blocks until ctx is cancelled.
func (w *PollWatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.scan()
		}
	}
}

// scan hands new job files to the handler. Paths that have left the
// inbox are forgotten so a later job with the same name is picked up.
func (w *PollWatcher) scan() {
	jobs, err := listJobs(w.inbox)
	if err != nil {
		return
	}
	present := make(map[string]bool, len(jobs))
	for _, path := range jobs {
		present[path] = true
		if !w.seen[path] {
			w.seen[path] = true
			w.handler(path)
		}
	}
	for path := range w.seen {
		if !present[path] {
			delete(w.seen, path)
		}
	}
}

// ScanExisting hands every job already in the inbox to handler. A missing
// inbox holds no jobs.
func ScanExisting(inbox string, handler func(path string)) error {
	jobs, err := listJobs(inbox)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, path := range jobs {
		handler(path)
	}
	return nil
}

// listJobs returns the job files in dir in name order.
func listJobs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var jobs []string
	for _, e := range entries {
		if !e.IsDir() && isJobFile(e.Name()) {
			jobs = append(jobs, filepath.Join(dir, e.Name()))
		}
	}
	return jobs, nil
}

// isJobFile reports whether name is a complete job file. Writers drop
// <id>.json.tmp and rename it into place.
func isJobFile(name string) bool {
	return strings.HasSuffix(filepath.Base(name), ".json")
}

package safety

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"well-bot-be/internal/pkg/logger"
)

// RuleWatcher reloads the safety rule file into a Gate whenever it changes on disk.
// A file that fails to parse keeps the previous rules active.
type RuleWatcher struct {
	watcher        *fsnotify.Watcher
	gate           *Gate
	path           string
	debounce       time.Duration
	negationWindow int
	log            logger.ILogger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewRuleWatcher creates a watcher for path. debounce and negationWindow are the
// defaults applied to files that omit them.
func NewRuleWatcher(path string, gate *Gate, debounce time.Duration, negationWindow int, log logger.ILogger) (*RuleWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &RuleWatcher{
		watcher:        watcher,
		gate:           gate,
		path:           filepath.Clean(path),
		debounce:       debounce,
		negationWindow: negationWindow,
		log:            log,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}, nil
}

// Start watches the directory holding the rule file. Editors often replace files
// instead of writing in place, so the directory is watched rather than the file.
func (w *RuleWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.log.Info(module, "Watching safety rules", map[string]interface{}{"path": w.path})

	go w.run(ctx)
	return nil
}

// Stop ends the watch loop and releases the watcher
func (w *RuleWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.log.Error(module, "Failed to close rule watcher", map[string]interface{}{"error": err.Error()})
	}
}

func (w *RuleWatcher) run(ctx context.Context) {
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error(module, "Rule watcher error", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (w *RuleWatcher) reload() {
	rules, err := LoadRuleSet(w.path, w.debounce, w.negationWindow)
	if err != nil {
		w.log.Warn(module, "Keeping previous safety rules", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := w.gate.Reload(rules); err != nil {
		w.log.Warn(module, "Keeping previous safety rules", map[string]interface{}{"error": err.Error()})
	}
}

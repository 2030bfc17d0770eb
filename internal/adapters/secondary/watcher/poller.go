package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fredcamaral/texdeck/internal/domain/ports"
	"github.com/fredcamaral/texdeck/internal/logging"
)

// PollingWatcher watches markup sources by polling their size, mtime and
// content hash. A burst of writes produces one event once the file has been
// quiet for the debounce period, so an editor saving in several steps
// triggers a single conversion.
type PollingWatcher struct {
	interval time.Duration
	debounce time.Duration
	logger   *logging.Logger

	mu      sync.Mutex
	files   map[string]fileState
	events  chan ports.FileChangeEvent
	wg      sync.WaitGroup
	stopped bool
	stopCh  chan struct{}
}

// fileState is the last observed state of a watched file
type fileState struct {
	exists   bool
	size     int64
	modTime  time.Time
	checksum string
}

// NewPollingWatcher creates a new polling-based file watcher
func NewPollingWatcher(interval, debounce time.Duration, logger *logging.Logger) *PollingWatcher {
	if logger == nil {
		logger = logging.New("watcher")
	}
	return &PollingWatcher{
		interval: interval,
		debounce: debounce,
		logger:   logger,
		files:    make(map[string]fileState),
		events:   make(chan ports.FileChangeEvent, 10),
		stopCh:   make(chan struct{}),
	}
}

// Watch starts watching a file for changes. The file must exist when
// watching starts.
func (w *PollingWatcher) Watch(ctx context.Context, path string) (<-chan ports.FileChangeEvent, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	state, err := w.observe(absPath)
	if err != nil {
		return nil, fmt.Errorf("initial scan: %w", err)
	}
	if !state.exists {
		return nil, fmt.Errorf("initial scan: %s: %w", absPath, os.ErrNotExist)
	}

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil, errors.New("watcher stopped")
	}
	w.files[absPath] = state
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()
		w.pollLoop(ctx, absPath)
	}()

	w.logger.Debug("watching %s every %s", absPath, w.interval)
	return w.events, nil
}

// Stop stops the file watcher and closes the event channel
func (w *PollingWatcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.mu.Unlock()

	w.wg.Wait()
	close(w.events)

	return nil
}

// pollLoop polls one file until the context ends or the watcher stops
func (w *PollingWatcher) pollLoop(ctx context.Context, path string) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var (
		pending     bool
		pendingType ports.ChangeType
		lastChange  time.Time
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
		}

		changeType, changed, err := w.checkForChanges(path)
		if err != nil {
			w.logger.Warn("watch error: %v", err)
			continue
		}

		if changed {
			// a create followed by writes is still a create
			if !pending || changeType != ports.Modified {
				pendingType = changeType
			}
			pending = true
			lastChange = time.Now()
			continue
		}

		if !pending || time.Since(lastChange) < w.debounce {
			continue
		}

		event := ports.FileChangeEvent{
			Path:      path,
			Type:      pendingType,
			Timestamp: time.Now(),
		}

		select {
		case w.events <- event:
			pending = false
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		}
	}
}

// checkForChanges compares the file against its last observed state
func (w *PollingWatcher) checkForChanges(path string) (ports.ChangeType, bool, error) {
	w.mu.Lock()
	old := w.files[path]
	w.mu.Unlock()

	// skip the hash when size and mtime are unchanged
	if old.exists {
		info, err := os.Stat(path)
		if err == nil && info.Size() == old.size && info.ModTime().Equal(old.modTime) {
			return 0, false, nil
		}
	}

	current, err := w.observe(path)
	if err != nil {
		return 0, false, err
	}

	var changeType ports.ChangeType
	switch {
	case !old.exists && !current.exists:
		return 0, false, nil
	case !old.exists:
		changeType = ports.Created
	case !current.exists:
		changeType = ports.Deleted
	case old.checksum == current.checksum:
		w.store(path, current)
		return 0, false, nil
	default:
		changeType = ports.Modified
	}

	w.store(path, current)
	return changeType, true, nil
}

func (w *PollingWatcher) store(path string, state fileState) {
	w.mu.Lock()
	w.files[path] = state
	w.mu.Unlock()
}

// observe reads the current state of a file; a missing file is not an error
func (w *PollingWatcher) observe(path string) (fileState, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return fileState{}, nil
	}
	if err != nil {
		return fileState{}, fmt.Errorf("stat file: %w", err)
	}

	checksum, err := calculateChecksum(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileState{}, nil
		}
		return fileState{}, fmt.Errorf("calculate checksum: %w", err)
	}

	return fileState{
		exists:   true,
		size:     info.Size(),
		modTime:  info.ModTime(),
		checksum: checksum,
	}, nil
}

// calculateChecksum calculates SHA256 checksum of a file
func calculateChecksum(path string) (string, error) {
	file, err := os.Open(path) // #nosec G304 - path is the watched markup source
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// Ensure PollingWatcher implements ports.FileWatcher
var _ ports.FileWatcher = (*PollingWatcher)(nil)

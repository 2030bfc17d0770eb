package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/fredcamaral/texdeck/internal/domain/entities"
	"github.com/fredcamaral/texdeck/internal/domain/ports"
	"github.com/fredcamaral/texdeck/internal/logging"
)

// WatchResult is reported after every conversion triggered by a change
type WatchResult struct {
	Event  ports.FileChangeEvent
	Result *entities.ConversionResult
	Err    error
}

// WatchService re-runs a conversion whenever its markup source changes
type WatchService struct {
	watcher   ports.FileWatcher
	converter ports.ConversionService
	notifier  ports.EventNotifier
	logger    *logging.Logger

	mu          sync.Mutex
	watching    bool
	watchCancel context.CancelFunc
	done        chan struct{}
}

// NewWatchService creates a new watch service. notifier may be nil.
func NewWatchService(watcher ports.FileWatcher, converter ports.ConversionService, notifier ports.EventNotifier, logger *logging.Logger) *WatchService {
	if logger == nil {
		logger = logging.New("watch")
	}
	return &WatchService{
		watcher:   watcher,
		converter: converter,
		notifier:  notifier,
		logger:    logger,
	}
}

// Start watches path and converts it with the settings of tmpl on every
// change. Results are sent on the returned channel, which is closed when
// watching ends.
func (s *WatchService) Start(ctx context.Context, path string, tmpl entities.ConversionRequest) (<-chan WatchResult, error) {
	s.mu.Lock()
	if s.watching {
		s.mu.Unlock()
		return nil, errors.New("already watching")
	}
	s.watching = true
	watchCtx, cancel := context.WithCancel(ctx)
	s.watchCancel = cancel
	done := make(chan struct{})
	s.done = done
	s.mu.Unlock()

	events, err := s.watcher.Watch(watchCtx, path)
	if err != nil {
		cancel()
		s.mu.Lock()
		s.watching = false
		s.watchCancel = nil
		close(done)
		s.mu.Unlock()
		return nil, fmt.Errorf("starting watcher: %w", err)
	}

	results := make(chan WatchResult)
	go s.handleEvents(watchCtx, events, tmpl, results, done)

	return results, nil
}

// Stop stops watching and waits for the event loop to exit
func (s *WatchService) Stop() error {
	s.mu.Lock()
	if !s.watching {
		s.mu.Unlock()
		return nil
	}
	cancel, done := s.watchCancel, s.done
	s.watchCancel = nil
	s.watching = false
	s.mu.Unlock()

	cancel()
	<-done
	return nil
}

// IsWatching returns whether the service is currently watching
func (s *WatchService) IsWatching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watching
}

func (s *WatchService) handleEvents(ctx context.Context, events <-chan ports.FileChangeEvent, tmpl entities.ConversionRequest, results chan<- WatchResult, done chan<- struct{}) {
	defer close(done)
	defer close(results)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}

			s.logger.Info("%s %s", event.Path, event.Type)

			if event.Type == ports.Deleted {
				s.logger.Warn("source removed, waiting for it to come back: %s", event.Path)
				continue
			}

			wr := WatchResult{Event: event}
			wr.Result, wr.Err = s.reconvert(ctx, event.Path, tmpl)
			s.notify(wr)

			select {
			case results <- wr:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *WatchService) reconvert(ctx context.Context, path string, tmpl entities.ConversionRequest) (*entities.ConversionResult, error) {
	markup, err := os.ReadFile(path) // #nosec G304 - path is the watched source given on the command line
	if err != nil {
		return nil, &entities.ConversionError{
			Type:    entities.ErrorTypeFilesystem,
			Message: "reading markup",
			Path:    path,
			Cause:   err,
		}
	}

	req := tmpl
	req.Markup = string(markup)
	return s.converter.Convert(ctx, req)
}

func (s *WatchService) notify(wr WatchResult) {
	if s.notifier == nil {
		return
	}

	event := ports.UpdateEvent{
		Type:      ports.EventTypeConversionCompleted,
		Timestamp: wr.Event.Timestamp,
	}
	if wr.Err != nil {
		event.Type = ports.EventTypeConversionFailed
		event.Data = map[string]interface{}{"file": wr.Event.Path, "error": wr.Err.Error()}
	} else {
		event.Data = wr.Result
	}

	if err := s.notifier.NotifyClients(event); err != nil {
		s.logger.Warn("notifying clients: %v", err)
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fredcamaral/coursekit/internal/domain/ports"
)

// ContentWatchService forwards changes in the content tree to WebSocket
// clients as content_change events
type ContentWatchService struct {
	watcher     ports.FileWatcher
	notifier    ports.ClientNotifier
	logger      ports.Logger
	mu          sync.Mutex
	watching    bool
	watchCancel context.CancelFunc
	done        chan struct{}
}

// NewContentWatchService creates a new content watch service
func NewContentWatchService(watcher ports.FileWatcher, notifier ports.ClientNotifier, logger ports.Logger) *ContentWatchService {
	if logger == nil {
		logger = ports.NopLogger{}
	}

	return &ContentWatchService{
		watcher:  watcher,
		notifier: notifier,
		logger:   logger,
	}
}

// Start watches root until Stop is called or ctx ends
func (s *ContentWatchService) Start(ctx context.Context, root string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watching {
		return errors.New("already watching")
	}

	watchCtx, cancel := context.WithCancel(ctx)
	events, err := s.watcher.Watch(watchCtx, root)
	if err != nil {
		cancel()
		return fmt.Errorf("starting watcher: %w", err)
	}

	s.watching = true
	s.watchCancel = cancel
	s.done = make(chan struct{})

	go s.handleEvents(watchCtx, events, s.done)

	s.logger.Info("watching content tree %s", root)
	return nil
}

// Stop stops forwarding events and waits for the forwarding goroutine
func (s *ContentWatchService) Stop() error {
	s.mu.Lock()
	if !s.watching {
		s.mu.Unlock()
		return nil
	}
	s.watchCancel()
	done := s.done
	s.watching = false
	s.watchCancel = nil
	s.mu.Unlock()

	<-done
	return s.watcher.Stop()
}

// IsWatching returns whether the service is currently watching
func (s *ContentWatchService) IsWatching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watching
}

func (s *ContentWatchService) handleEvents(ctx context.Context, events <-chan ports.FileChangeEvent, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}

			data, ok := ChangeScope(event)
			if !ok {
				continue
			}

			s.logger.Debug("content %s: %s", event.Type, event.Path)

			update := ports.UpdateEvent{
				Type:      ports.EventTypeContentChange,
				Timestamp: event.Timestamp,
				Data:      data,
			}
			if err := s.notifier.NotifyClients(update); err != nil {
				s.logger.Warn("notifying clients of %s: %v", event.Path, err)
			}
		}
	}
}

// ChangeScope describes which course or blog a change belongs to. Edit
// session scratch files and hidden files are not reported.
func ChangeScope(event ports.FileChangeEvent) (map[string]string, bool) {
	parts := strings.Split(event.Path, "/")
	for _, p := range parts {
		if strings.HasPrefix(p, ".") {
			return nil, false
		}
	}
	if parts[0] == tempSlidesDir || parts[0] == tempLabsDir {
		return nil, false
	}

	data := map[string]string{
		"path": event.Path,
		"type": event.Type.String(),
	}
	if len(parts) >= 2 {
		switch parts[0] {
		case coursesDir:
			data["course"] = parts[1]
			if len(parts) >= 3 {
				data["section"] = parts[2]
			}
		case blogsDir:
			data["blog"] = parts[1]
		}
	}
	return data, true
}

// Package watch monitors a single source file and notifies subscribers when
// it changes, so the preview server can re-render without manual reloads.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event describes a change to the watched file.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Path      string    `json:"path"`
}

const (
	// EventChanged means the file content was written or recreated.
	EventChanged = "changed"
	// EventRemoved means the file was deleted or renamed away.
	EventRemoved = "removed"
)

type subscriber struct {
	ctx context.Context
	ch  chan Event
}

// Service watches one file for changes. Editors often replace files via
// rename-and-create, so the watch is registered on the parent directory and
// events are filtered by name.
type Service struct {
	ctx         context.Context
	cancel      context.CancelFunc
	logger      *slog.Logger
	watcher     *fsnotify.Watcher
	path        string
	subscribers map[uint64]*subscriber
	subCounter  atomic.Uint64
	subsMu      sync.RWMutex
}

// NewService starts watching path. The file does not need to exist yet.
func NewService(parentCtx context.Context, path string, logger *slog.Logger) (*Service, error) {
	if path == "" {
		return nil, errors.New("watch path must be provided")
	}
	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve watch path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch directory: %w", err)
	}

	ctx, cancel := context.WithCancel(parentCtx)
	svc := &Service{
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger.With("component", "watch"),
		watcher:     watcher,
		path:        abs,
		subscribers: make(map[uint64]*subscriber),
	}

	go svc.run()
	return svc, nil
}

// Path returns the absolute path under watch.
func (s *Service) Path() string {
	return s.path
}

// Close stops the watcher and closes all subscriber channels.
func (s *Service) Close() error {
	s.cancel()
	return s.watcher.Close()
}

// Subscribe registers for change events. The returned channel closes when ctx
// or the service is done.
func (s *Service) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, 8)
	id := s.subCounter.Add(1)

	s.subsMu.Lock()
	s.subscribers[id] = &subscriber{ctx: ctx, ch: ch}
	s.subsMu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-s.ctx.Done():
		}
		s.removeSubscriber(id)
	}()

	return ch
}

func (s *Service) run() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handleEvent(event)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error("watcher error", slog.Any("err", err))
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Service) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != s.path {
		return
	}

	s.logger.Debug("fsnotify event", slog.String("path", event.Name), slog.String("op", event.Op.String()))

	var eventType string
	switch {
	case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
		eventType = EventChanged
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		eventType = EventRemoved
	default:
		return
	}

	s.broadcast(Event{Type: eventType, Path: s.path, Timestamp: time.Now()})
}

func (s *Service) broadcast(evt Event) {
	s.subsMu.RLock()
	var stale []uint64
	for id, sub := range s.subscribers {
		select {
		case <-sub.ctx.Done():
			stale = append(stale, id)
		case <-s.ctx.Done():
			stale = append(stale, id)
		case sub.ch <- evt:
		default:
			// drop event when subscriber lags
		}
	}
	s.subsMu.RUnlock()

	for _, id := range stale {
		s.removeSubscriber(id)
	}
}

func (s *Service) removeSubscriber(id uint64) {
	s.subsMu.Lock()
	if sub, ok := s.subscribers[id]; ok {
		close(sub.ch)
		delete(s.subscribers, id)
	}
	s.subsMu.Unlock()
}

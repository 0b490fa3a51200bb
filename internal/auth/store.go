// Package auth holds the API token used for every backend request.
//
// Readers see the token through TokenSource. Store is the only writer: the
// token command saves it, and the login-required path clears it.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/logger"
)

// TokenSource is a read-only view of the current token.
type TokenSource interface {
	Token() (string, bool)
}

// StaticToken is a fixed TokenSource, used by tests and one-shot commands.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token() (string, bool) {
	return string(t), t != ""
}

// tokenFile is the on-disk layout.
type tokenFile struct {
	Token   string    `json:"token"`
	SavedAt time.Time `json:"saved_at"`
}

// EventType defines the type of token event.
type EventType int

const (
	EventTokenChanged EventType = iota
	EventTokenCleared
	EventError
)

// Event reports a change of the token file made by another process.
type Event struct {
	Error error
	Type  EventType
}

// Store keeps the token in memory and mirrors it to a file.
type Store struct {
	mu            sync.RWMutex
	token         string
	savedAt       time.Time
	filePath      string
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	debounceTimer *time.Timer
	closeOnce     sync.Once
}

// Open loads the token file. A missing file means "logged out".
func Open(filePath string) (*Store, error) {
	if filePath == "" {
		return nil, errors.New("token path is empty")
	}

	s := &Store{
		filePath:  filePath,
		eventChan: make(chan Event, 16),
		stopChan:  make(chan struct{}),
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create token directory: %w", err)
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	return s, nil
}

// Token implements TokenSource.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// SavedAt returns when the current token was written.
func (s *Store) SavedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.savedAt
}

// Path returns the token file path.
func (s *Store) Path() string {
	return s.filePath
}

// Save replaces the token.
func (s *Store) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f := tokenFile{Token: token, SavedAt: time.Now().UTC()}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpFile, s.filePath); err != nil {
		if removeErr := os.Remove(tmpFile); removeErr != nil {
			logger.Error("failed to remove temp file", "error", removeErr)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	s.token = f.Token
	s.savedAt = f.SavedAt
	return nil
}

// Clear forgets the token and deletes the file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.savedAt = time.Time{}

	if err := os.Remove(s.filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var f tokenFile
	if err := json.Unmarshal(data, &f); err != nil {
		// a bare token pasted into the file is accepted as well
		f = tokenFile{Token: string(data)}
	}

	s.token = strings.TrimSpace(f.Token)
	s.savedAt = f.SavedAt
	return nil
}

// Events returns the channel of external token changes. It only receives
// after Watch has been called.
func (s *Store) Events() <-chan Event {
	return s.eventChan
}

// Watch starts watching the token file for changes made by other processes,
// e.g. `ccd token set` in another terminal.
func (s *Store) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory to catch creation and deletion
	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}

	s.mu.Lock()
	s.watcher = watcher
	s.mu.Unlock()

	go s.watchLoop(watcher)
	return nil
}

func (s *Store) watchLoop(watcher *fsnotify.Watcher) {
	const debounceInterval = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(s.filePath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			s.mu.Lock()
			if s.debounceTimer != nil {
				s.debounceTimer.Stop()
			}
			s.debounceTimer = time.AfterFunc(debounceInterval, s.handleFileChange)
			s.mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

// handleFileChange reloads the token and reports only real changes.
func (s *Store) handleFileChange() {
	s.mu.Lock()
	before := s.token
	err := s.load()
	if os.IsNotExist(err) {
		s.token = ""
		s.savedAt = time.Time{}
		err = nil
	}
	after := s.token
	s.mu.Unlock()

	switch {
	case err != nil:
		s.sendEvent(Event{Type: EventError, Error: err})
	case before == after:
	case after == "":
		s.sendEvent(Event{Type: EventTokenCleared})
	default:
		s.sendEvent(Event{Type: EventTokenChanged})
	}
}

// sendEvent sends without blocking, dropping the oldest event when full.
func (s *Store) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the watcher.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopChan)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.debounceTimer != nil {
			s.debounceTimer.Stop()
		}
		if s.watcher != nil {
			err = s.watcher.Close()
		}
	})
	return err
}

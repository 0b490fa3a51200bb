// Package services orchestrates the backend client, the token store and the
// local snapshot store for the TUI and the CLI.
package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/cloudcost-dashboard-tui/internal/api"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/auth"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/cache"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/config"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/db"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/logger"
	"github.com/j-veylop/cloudcost-dashboard-tui/internal/models"
)

type (
	// TokenChangedEvent is emitted when another process saves or clears the token.
	TokenChangedEvent struct {
		Authenticated bool
	}

	// SpendAlertEvent is emitted when month-over-month growth crosses the
	// configured threshold.
	SpendAlertEvent struct {
		AccountID     int
		ChangePercent float64
	}

	// ErrorEvent is emitted when a background component fails.
	ErrorEvent struct {
		Error   error
		Service string
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (TokenChangedEvent) isServiceEvent() {}
func (SpendAlertEvent) isServiceEvent()   {}
func (ErrorEvent) isServiceEvent()        {}

// Notifier shows a desktop notification.
type Notifier func(title, body string) error

type snapshotKey struct {
	AccountID int
	Slice     models.Slice
}

// Options wires a Manager. Tokens, Client and Database are required.
type Options struct {
	Tokens            *auth.Store
	Client            *api.Client
	Database          *db.DB
	Notify            Notifier
	CacheTTL          time.Duration
	SyncGraceDelay    time.Duration
	SpendAlertPercent float64
}

// Manager owns the long-lived components and routes their events.
type Manager struct {
	mu          sync.RWMutex
	tokens      *auth.Store
	client      *api.Client
	database    *db.DB
	snapshots   *cache.Cache[snapshotKey, any]
	notify      Notifier
	stopChan    chan struct{}
	subscribers []chan ServiceEvent
	lastChange  map[int]float64
	closeOnce   sync.Once

	syncGraceDelay    time.Duration
	spendAlertPercent float64
}

// NewManager opens the token store and the database described by cfg and
// starts watching the token file.
func NewManager(cfg *config.Config) (*Manager, error) {
	tokens, err := auth.Open(cfg.TokenPath)
	if err != nil {
		return nil, err
	}

	database, err := db.New(cfg.DatabasePath)
	if err != nil {
		_ = tokens.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	client := api.NewClient(api.Config{
		BaseURL:           cfg.APIBaseURL,
		Tokens:            tokens,
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})

	var notify Notifier
	if cfg.DesktopNotifications {
		notify = desktopNotify
	}

	m := New(Options{
		Tokens:            tokens,
		Client:            client,
		Database:          database,
		Notify:            notify,
		CacheTTL:          cfg.CacheTTL,
		SyncGraceDelay:    cfg.SyncGraceDelay,
		SpendAlertPercent: cfg.SpendAlertPercent,
	})

	if err := tokens.Watch(); err != nil {
		// Not fatal: external logins are only picked up on restart.
		logger.Warn("failed to watch token file", "path", tokens.Path(), "error", err)
	}

	return m, nil
}

// New builds a Manager from already opened components.
func New(opts Options) *Manager {
	m := &Manager{
		tokens:            opts.Tokens,
		client:            opts.Client,
		database:          opts.Database,
		snapshots:         cache.New[snapshotKey, any](opts.CacheTTL),
		notify:            opts.Notify,
		stopChan:          make(chan struct{}),
		lastChange:        make(map[int]float64),
		syncGraceDelay:    opts.SyncGraceDelay,
		spendAlertPercent: opts.SpendAlertPercent,
	}

	if m.tokens != nil {
		go m.routeEvents()
	}

	return m
}

// routeEvents converts token store events into service events.
func (m *Manager) routeEvents() {
	for {
		select {
		case event, ok := <-m.tokens.Events():
			if !ok {
				return
			}
			m.handleTokenEvent(event)
		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handleTokenEvent(event auth.Event) {
	switch event.Type {
	case auth.EventTokenChanged, auth.EventTokenCleared:
		m.broadcast(TokenChangedEvent{Authenticated: m.Authenticated()})
	case auth.EventError:
		m.broadcast(ErrorEvent{Service: "auth", Error: event.Error})
	}
}

// broadcast sends an event to all subscribers without blocking.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that waits for the first event.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd for the next event on a channel. A closed
// channel yields a nil message.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return event
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Authenticated reports whether a token is present.
func (m *Manager) Authenticated() bool {
	if m.tokens == nil {
		return false
	}
	_, ok := m.tokens.Token()
	return ok
}

// Logout clears the stored token. It is the only path besides the token
// command that mutates it.
func (m *Manager) Logout() error {
	if m.tokens == nil {
		return nil
	}
	return m.tokens.Clear()
}

// Client returns the backend client.
func (m *Manager) Client() *api.Client {
	return m.client
}

// Tokens returns the token store.
func (m *Manager) Tokens() *auth.Store {
	return m.tokens
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// Close stops event routing and closes the token store and the database.
func (m *Manager) Close() error {
	var errs []error

	m.closeOnce.Do(func() {
		close(m.stopChan)

		m.mu.Lock()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		if m.tokens != nil {
			if err := m.tokens.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if m.database != nil {
			if err := m.database.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})

	return errors.Join(errs...)
}

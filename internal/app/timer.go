package app

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TimerID identifies a scheduled callback.
type TimerID uint64

// TimerFiredMsg is delivered when a scheduled callback is due. Pass it to
// Scheduler.Fired to obtain the message that was scheduled.
type TimerFiredMsg struct {
	ID TimerID
}

type timerEntry struct {
	msg   tea.Msg
	stop  chan struct{}
	every time.Duration
}

// Scheduler runs one-shot and repeating callbacks as Bubble Tea commands.
// A cancelled callback never delivers its message, even when its timer had
// already fired and the message was queued.
type Scheduler struct {
	mu      sync.Mutex
	next    TimerID
	entries map[TimerID]*timerEntry
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{entries: make(map[TimerID]*timerEntry)}
}

// After schedules msg once after d.
func (s *Scheduler) After(d time.Duration, msg tea.Msg) (TimerID, tea.Cmd) {
	return s.schedule(d, 0, msg)
}

// Every schedules msg every d until cancelled.
func (s *Scheduler) Every(d time.Duration, msg tea.Msg) (TimerID, tea.Cmd) {
	return s.schedule(d, d, msg)
}

func (s *Scheduler) schedule(d, every time.Duration, msg tea.Msg) (TimerID, tea.Cmd) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	id := s.next
	e := &timerEntry{msg: msg, stop: make(chan struct{}), every: every}
	s.entries[id] = e

	return id, wait(id, d, e.stop)
}

func wait(id TimerID, d time.Duration, stop <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		t := time.NewTimer(d)
		defer t.Stop()

		select {
		case <-t.C:
			return TimerFiredMsg{ID: id}
		case <-stop:
			return nil
		}
	}
}

// Fired resolves a TimerFiredMsg. It returns the scheduled message, or nil
// when the callback was cancelled, and for repeating callbacks the command
// that waits for the next round.
func (s *Scheduler) Fired(msg TimerFiredMsg) (tea.Msg, tea.Cmd) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[msg.ID]
	if !ok {
		return nil, nil
	}
	if e.every > 0 {
		return e.msg, wait(msg.ID, e.every, e.stop)
	}
	delete(s.entries, msg.ID)
	return e.msg, nil
}

// Cancel stops a callback. Cancelling an unknown or finished id is a no-op.
func (s *Scheduler) Cancel(id TimerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel(id)
}

func (s *Scheduler) cancel(id TimerID) {
	if e, ok := s.entries[id]; ok {
		close(e.stop)
		delete(s.entries, id)
	}
}

// CancelAll stops every pending callback.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.entries {
		s.cancel(id)
	}
}

// Pending returns the number of live callbacks.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

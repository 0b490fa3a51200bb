package app

import (
	"testing"
	"time"
)

type pingMsg struct{ n int }

func TestScheduler_After(t *testing.T) {
	s := NewScheduler()
	id, cmd := s.After(time.Millisecond, pingMsg{n: 1})

	fired, ok := cmd().(TimerFiredMsg)
	if !ok || fired.ID != id {
		t.Fatalf("cmd() = %v, want TimerFiredMsg{%d}", fired, id)
	}

	msg, rearm := s.Fired(fired)
	if got, ok := msg.(pingMsg); !ok || got.n != 1 {
		t.Errorf("Fired = %v, want pingMsg{1}", msg)
	}
	if rearm != nil {
		t.Error("one-shot timer must not re-arm")
	}
	if s.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", s.Pending())
	}

	if msg, _ := s.Fired(fired); msg != nil {
		t.Error("a timer fires only once")
	}
}

func TestScheduler_Cancel(t *testing.T) {
	s := NewScheduler()
	id, cmd := s.After(time.Hour, pingMsg{})

	done := make(chan any, 1)
	go func() { done <- cmd() }()

	s.Cancel(id)

	select {
	case msg := <-done:
		if msg != nil {
			t.Errorf("cancelled timer returned %v, want nil", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled timer did not return")
	}

	s.Cancel(id)
}

func TestScheduler_CancelAfterFire(t *testing.T) {
	s := NewScheduler()
	id, cmd := s.After(time.Millisecond, pingMsg{})
	fired := cmd().(TimerFiredMsg)

	s.Cancel(id)

	if msg, _ := s.Fired(fired); msg != nil {
		t.Errorf("queued fire of a cancelled timer delivered %v", msg)
	}
}

func TestScheduler_Every(t *testing.T) {
	s := NewScheduler()
	_, cmd := s.Every(time.Millisecond, pingMsg{n: 7})

	for i := 0; i < 3; i++ {
		fired := cmd().(TimerFiredMsg)
		var msg any
		msg, cmd = s.Fired(fired)
		if got, ok := msg.(pingMsg); !ok || got.n != 7 {
			t.Fatalf("round %d: msg = %v", i, msg)
		}
		if cmd == nil {
			t.Fatalf("round %d: repeating timer should re-arm", i)
		}
	}

	s.CancelAll()
	if s.Pending() != 0 {
		t.Errorf("Pending = %d after CancelAll, want 0", s.Pending())
	}
	if msg := cmd(); msg != nil {
		t.Errorf("re-armed cmd after CancelAll returned %v", msg)
	}
}

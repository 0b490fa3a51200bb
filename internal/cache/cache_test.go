package cache

import (
	"testing"
	"time"
)

type key struct {
	account int
	slice   string
}

func newTestCache(ttl time.Duration) (*Cache[key, string], *time.Time) {
	now := time.Date(2025, 3, 12, 8, 0, 0, 0, time.UTC)
	c := New[key, string](ttl)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestGetSet(t *testing.T) {
	c, _ := newTestCache(time.Minute)

	if _, ok := c.Get(key{1, "spend"}); ok {
		t.Error("Get() on empty cache should miss")
	}

	c.Set(key{1, "spend"}, "a")
	if v, ok := c.Get(key{1, "spend"}); !ok || v != "a" {
		t.Errorf("Get() = (%q, %v), want (a, true)", v, ok)
	}
	if _, ok := c.Get(key{2, "spend"}); ok {
		t.Error("keys are per account")
	}
}

func TestExpiry(t *testing.T) {
	c, now := newTestCache(time.Minute)
	c.Set(key{1, "spend"}, "a")

	*now = now.Add(2 * time.Minute)

	if _, ok := c.Get(key{1, "spend"}); ok {
		t.Error("Get() should miss an expired entry")
	}

	v, at, ok := c.Peek(key{1, "spend"})
	if !ok || v != "a" {
		t.Errorf("Peek() = (%q, %v), want stale value", v, ok)
	}
	if now.Sub(at) != 2*time.Minute {
		t.Errorf("stored at %v, want two minutes ago", at)
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	c, now := newTestCache(0)
	c.Set(key{1, "spend"}, "a")
	*now = now.Add(1000 * time.Hour)

	if _, ok := c.Get(key{1, "spend"}); !ok {
		t.Error("zero TTL should never expire")
	}
}

func TestDelete(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	c.Set(key{1, "spend"}, "a")
	c.Set(key{1, "low_level"}, "b")
	c.Set(key{2, "spend"}, "c")

	c.Delete(key{1, "spend"})
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}

	c.DeleteFunc(func(k key) bool { return k.account == 1 })
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

package cache

import (
	"fmt"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache[T any](maxSize int, ttl time.Duration) (*LRUCache[T], *fakeClock) {
	clk := &fakeClock{t: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}
	c := NewLRUCache[T](maxSize, ttl)
	c.now = clk.now
	return c, clk
}

func TestLRUCache_GetSetDelete(t *testing.T) {
	c, _ := newTestCache[string](10, time.Minute)

	if _, ok := c.Get("a"); ok {
		t.Fatal("empty cache should miss")
	}
	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("expected hit, got %q %v", v, ok)
	}
	c.Set("a", "2")
	if v, _ := c.Get("a"); v != "2" {
		t.Fatalf("expected overwrite, got %q", v)
	}
	if c.Size() != 1 {
		t.Fatalf("expected size 1, got %d", c.Size())
	}
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestLRUCache_Expiration(t *testing.T) {
	c, clk := newTestCache[int](10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	clk.t = clk.t.Add(30 * time.Second)
	c.Set("b", 3) // restarts b's TTL

	clk.t = clk.t.Add(31 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatal("a should be expired")
	}
	if v, ok := c.Get("b"); !ok || v != 3 {
		t.Fatalf("b should still be live, got %d %v", v, ok)
	}

	clk.t = clk.t.Add(time.Hour)
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("expected 1 swept entry, got %d", n)
	}
	if c.Size() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Size())
	}
}

func TestLRUCache_NoTTL(t *testing.T) {
	c, clk := newTestCache[int](10, 0)
	c.Set("a", 1)
	clk.t = clk.t.Add(24 * 365 * time.Hour)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("entries without TTL must not expire")
	}
	if n := c.CleanExpired(); n != 0 {
		t.Fatalf("expected nothing swept, got %d", n)
	}
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache[int](3, time.Minute)
	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprint(i), i)
	}
	c.Get("0") // 1 becomes the oldest
	c.Set("3", 3)

	if _, ok := c.Get("1"); ok {
		t.Fatal("1 should have been evicted")
	}
	for _, k := range []string{"0", "2", "3"} {
		if _, ok := c.Get(k); !ok {
			t.Fatalf("%s should be present", k)
		}
	}
}

func TestManager_SweepAndStop(t *testing.T) {
	c, clk := newTestCache[int](10, time.Second)
	c.Set("a", 1)
	clk.t = clk.t.Add(2 * time.Second)

	m := NewManager(nil)
	m.Register("test", c)
	got := m.Sweep()
	if got["test"] != 1 {
		t.Fatalf("expected 1 removed, got %v", got)
	}

	m.StartCleanup(10 * time.Millisecond)
	m.Stop()
	m.Stop()
}

func TestManager_StopWithoutStart(t *testing.T) {
	m := NewManager(nil)
	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without a running cleanup")
	}
}

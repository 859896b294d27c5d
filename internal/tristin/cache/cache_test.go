package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestCache_GetSet(t *testing.T) {
	c := New(10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for absent key")
	}

	c.Set("greeting", "hey there")
	got, ok := c.Get("greeting")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if got != "hey there" {
		t.Errorf("expected %q, got %q", "hey there", got)
	}
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	const capacity = 3
	c := New(capacity, time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Fill to capacity, then insert one more with no intervening reads:
	// the least-recently-inserted key must go.
	for i := 0; i < capacity+1; i++ {
		c.setAt(fmt.Sprintf("key-%d", i), "v", now.Add(time.Duration(i)*time.Second))
	}

	if _, ok := c.getAt("key-0", now.Add(10*time.Second)); ok {
		t.Error("key-0 should have been evicted as least recently used")
	}
	for i := 1; i <= capacity; i++ {
		if _, ok := c.getAt(fmt.Sprintf("key-%d", i), now.Add(10*time.Second)); !ok {
			t.Errorf("key-%d should still be present", i)
		}
	}
}

func TestCache_GetRefreshesRecency(t *testing.T) {
	c := New(2, time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c.setAt("a", "1", now)
	c.setAt("b", "2", now)

	// Touch "a" so "b" becomes the eviction victim.
	c.getAt("a", now.Add(time.Second))
	c.setAt("c", "3", now.Add(2*time.Second))

	if _, ok := c.getAt("a", now.Add(3*time.Second)); !ok {
		t.Error("a was read recently and should have survived")
	}
	if _, ok := c.getAt("b", now.Add(3*time.Second)); ok {
		t.Error("b should have been evicted")
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New(10, 5*time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c.setAt("stale", "v", now)

	if _, ok := c.getAt("stale", now.Add(5*time.Minute+time.Second)); ok {
		t.Error("entry past TTL should report a miss")
	}
	// Lazy expiry evicted it, so it no longer counts toward capacity.
	if got := c.Len(); got != 0 {
		t.Errorf("expired entry should be gone, Len() = %d", got)
	}
}

func TestCache_SetResetsCreatedAt(t *testing.T) {
	c := New(10, 5*time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c.setAt("k", "old", now)
	c.setAt("k", "new", now.Add(4*time.Minute))

	// 4m old by first write, 1m by second: the re-Set restarted the clock.
	got, ok := c.getAt("k", now.Add(5*time.Minute+time.Second))
	if !ok {
		t.Fatal("re-Set entry should still be fresh")
	}
	if got != "new" {
		t.Errorf("expected %q, got %q", "new", got)
	}
}

func TestCache_Cleanup(t *testing.T) {
	c := New(10, time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c.setAt("old-1", "v", now)
	c.setAt("old-2", "v", now)
	c.setAt("fresh", "v", now.Add(50*time.Second))

	removed := c.Cleanup(now.Add(90 * time.Second))
	if removed != 2 {
		t.Fatalf("expected 2 entries removed, got %d", removed)
	}
	if got := c.Len(); got != 1 {
		t.Errorf("expected 1 entry after cleanup, got %d", got)
	}
	if _, ok := c.getAt("fresh", now.Add(91*time.Second)); !ok {
		t.Error("fresh entry should survive cleanup")
	}
}

func TestCache_DeleteAndClear(t *testing.T) {
	c := New(10, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("deleted key should be absent")
	}

	c.Clear()
	if got := c.Len(); got != 0 {
		t.Errorf("expected empty cache after Clear, Len() = %d", got)
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New(50, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				key := fmt.Sprintf("key-%d", j%10)
				c.Set(key, "v")
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if got := c.Len(); got > 50 {
		t.Errorf("cache exceeded capacity under concurrency: %d", got)
	}
}

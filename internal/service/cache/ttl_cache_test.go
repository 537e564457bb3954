package cache

import (
	"context"
	"testing"
	"time"
)

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	buf := []byte("report")
	if err := c.SetBytes(ctx, "k", buf, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	buf[0] = 'X'
	got, ok, err := c.GetBytes(ctx, "k")
	if err != nil || !ok || string(got) != "report" {
		t.Fatalf("get = %q %v %v", got, ok, err)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := c.GetBytes(ctx, "k"); ok {
		t.Fatalf("expected entry to expire")
	}
	if _, ok, _ := c.GetBytes(ctx, "missing"); ok {
		t.Fatalf("expected miss")
	}
}

func TestTTLCacheSweep(t *testing.T) {
	c := NewTTLCache()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_ = c.SetBytes(ctx, "short", []byte("a"), time.Second)
	_ = c.SetBytes(ctx, "forever", []byte("b"), 0)
	now = now.Add(time.Hour)
	if n := c.Sweep(); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
	if c.Len() != 1 {
		t.Fatalf("len = %d", c.Len())
	}
}

func TestTTLCacheExpiredReadKeepsConcurrentWrite(t *testing.T) {
	c := NewTTLCache()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()
	armed, injected := false, false
	// the clock is read between releasing the read lock and deleting, which is
	// where a concurrent SetBytes can land
	c.now = func() time.Time {
		if armed && !injected {
			injected = true
			_ = c.SetBytes(ctx, "k", []byte("fresh"), time.Hour)
		}
		return now
	}

	_ = c.SetBytes(ctx, "k", []byte("stale"), time.Second)
	now = now.Add(time.Minute)
	armed = true

	if _, ok, _ := c.GetBytes(ctx, "k"); ok {
		t.Fatalf("stale entry must read as a miss")
	}
	got, ok, err := c.GetBytes(ctx, "k")
	if err != nil || !ok || string(got) != "fresh" {
		t.Fatalf("fresh entry lost: %q %v %v", got, ok, err)
	}
}

package cache

import (
	"testing"
	"time"
)

func TestSetGetDelete(t *testing.T) {
	c := New[string, int](time.Minute)
	c.Set("a", 1)

	got, ok := c.Get("a")
	if !ok || got != 1 {
		t.Fatalf("expected 1, got %d ok=%v", got, ok)
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected entry removed")
	}
}

func TestExpiry(t *testing.T) {
	c := New[string, string](time.Minute)
	c.SetWithTTL("k", "v", time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected entry expired")
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	c := New[string, string](0)
	c.Set("k", "v")
	time.Sleep(2 * time.Millisecond)
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("expected entry to remain")
	}
}

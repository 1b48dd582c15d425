package cache

import (
	"testing"
	"time"
)

func TestTTLCacheRoundTrip(t *testing.T) {
	c := NewTTLCache[string, int]()

	c.Set("k", 7, time.Minute)
	if got, ok := c.Get("k"); !ok || got != 7 {
		t.Fatalf("get = %d %v", got, ok)
	}

	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("deleted key still present")
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache[string, int]()

	c.Set("k", 7, time.Nanosecond)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry still served")
	}
}

func TestTTLCacheZeroTTLNeverExpires(t *testing.T) {
	c := NewTTLCache[string, int]()

	c.Set("k", 7, 0)
	time.Sleep(2 * time.Millisecond)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("zero-ttl entry expired")
	}
}

func TestNoopCacheAlwaysMisses(t *testing.T) {
	var c Cache[string, int] = NoopCache[string, int]{}

	c.Set("k", 7, time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatal("noop cache returned a hit")
	}
}

package server

import (
	"testing"
	"time"
)

func TestRateLimiterEnforcesWindowBudget(t *testing.T) {
	rl := newRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d rejected inside budget", i)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("request over budget allowed")
	}
	// other clients are unaffected
	if !rl.Allow("5.6.7.8") {
		t.Fatal("separate client rejected")
	}
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	if !rl.Allow("1.2.3.4") {
		t.Fatal("first request rejected")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("second request in window allowed")
	}

	now = now.Add(time.Minute)
	if !rl.Allow("1.2.3.4") {
		t.Fatal("request after window rejected")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	if newRateLimiter(0, time.Minute) != nil {
		t.Fatal("zero limit should disable the limiter")
	}
	if newRateLimiter(10, 0) != nil {
		t.Fatal("zero window should disable the limiter")
	}
}

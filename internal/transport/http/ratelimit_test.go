package http

import (
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	limiter := newRateLimiter(2)
	limiter.now = func() time.Time { return now }

	if !limiter.allow() || !limiter.allow() {
		t.Fatalf("expected first two commands to pass")
	}
	if limiter.allow() {
		t.Fatalf("expected third command to be limited")
	}

	now = now.Add(time.Minute)
	if !limiter.allow() {
		t.Fatalf("expected a new window to reset the counter")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	limiter := newRateLimiter(0)
	for range 1000 {
		if !limiter.allow() {
			t.Fatalf("disabled limiter must allow everything")
		}
	}
}

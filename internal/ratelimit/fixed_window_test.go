package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func testLimiter(t *testing.T, limit int, window time.Duration) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	limiter, err := New(server.Addr(), "", "test:ratelimit", limit, window)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	return limiter, server
}

func TestLimiterAllowsWithinQuota(t *testing.T) {
	limiter, _ := testLimiter(t, 3, time.Minute)
	for i := 0; i < 3; i++ {
		if !limiter.Allow("user-1") {
			t.Fatalf("request %d should be within quota", i+1)
		}
	}
	if limiter.Allow("user-1") {
		t.Fatal("fourth request must be blocked")
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	limiter, _ := testLimiter(t, 1, time.Minute)
	if !limiter.Allow("user-1") {
		t.Fatal("first key should pass")
	}
	if !limiter.Allow("user-2") {
		t.Fatal("second key has its own window")
	}
	if limiter.Allow("user-1") {
		t.Fatal("first key is exhausted")
	}
}

func TestLimiterWindowExpires(t *testing.T) {
	limiter, server := testLimiter(t, 1, 50*time.Millisecond)
	if !limiter.Allow("user-1") {
		t.Fatal("first request should pass")
	}
	if limiter.Allow("user-1") {
		t.Fatal("second request in the same window must be blocked")
	}
	server.FastForward(100 * time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	if !limiter.Allow("user-1") {
		t.Fatal("a new window should admit the request")
	}
}

func TestLimiterFailsClosed(t *testing.T) {
	limiter, server := testLimiter(t, 5, time.Minute)
	server.Close()
	if limiter.Allow("user-1") {
		t.Fatal("redis failure must deny the request")
	}
}

func TestLimiterNilPassesThrough(t *testing.T) {
	var limiter *Limiter
	if !limiter.Allow("anyone") {
		t.Fatal("nil limiter disables limiting")
	}
}

func TestLimiterValidation(t *testing.T) {
	if _, err := New("", "", "p", 10, time.Minute); err == nil {
		t.Fatal("empty addr must be rejected")
	}
	if _, err := New("localhost:6379", "", "p", 0, time.Minute); err == nil {
		t.Fatal("zero limit must be rejected")
	}
	if _, err := New("localhost:6379", "", "p", 10, 0); err == nil {
		t.Fatal("zero window must be rejected")
	}
}

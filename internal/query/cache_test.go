package query

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCacheGetSetExpiry(t *testing.T) {
	current := time.Unix(1000, 0)
	cache := NewCache()
	cache.now = func() time.Time { return current }

	cache.Set("users:list:a", "payload", time.Minute)
	if data, ok := cache.Get("users:list:a"); !ok || data != "payload" {
		t.Fatalf("expected fresh hit, got %v %v", data, ok)
	}

	current = current.Add(time.Minute + time.Second)
	if _, ok := cache.Get("users:list:a"); ok {
		t.Fatal("expected expired entry to miss")
	}
	if cache.Len() != 0 {
		t.Fatalf("expired entry must be dropped on read, len=%d", cache.Len())
	}
}

func TestCacheDefaultTTL(t *testing.T) {
	current := time.Unix(1000, 0)
	cache := NewCache()
	cache.now = func() time.Time { return current }

	cache.Set("k", 1, 0)
	current = current.Add(DefaultTTL - time.Second)
	if _, ok := cache.Get("k"); !ok {
		t.Fatal("entry should live until the default ttl")
	}
	current = current.Add(2 * time.Second)
	if _, ok := cache.Get("k"); ok {
		t.Fatal("entry should expire after the default ttl")
	}
}

func TestCacheGetOrLoadSingleflight(t *testing.T) {
	cache := NewCache()
	var calls int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := cache.GetOrLoad("users:list:x", time.Minute, func() (interface{}, error) {
				atomic.AddInt32(&calls, 1)
				time.Sleep(10 * time.Millisecond)
				return "result", nil
			})
			if err != nil || data != "result" {
				t.Errorf("unexpected result %v %v", data, err)
			}
		}()
	}
	wg.Wait()
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected one load, got %d", got)
	}
}

func TestCacheGetOrLoadErrorNotCached(t *testing.T) {
	cache := NewCache()
	boom := errors.New("db down")
	if _, err := cache.GetOrLoad("k", time.Minute, func() (interface{}, error) {
		return nil, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}
	if cache.Len() != 0 {
		t.Fatal("failed loads must not populate the cache")
	}
}

func TestCacheInvalidateSubstring(t *testing.T) {
	cache := NewCache()
	cache.Set("users:list:page1", 1, time.Minute)
	cache.Set("users:list:page2", 2, time.Minute)
	cache.Set("schools:list", 3, time.Minute)

	if removed := cache.Invalidate("users:"); removed != 2 {
		t.Fatalf("expected 2 removals, got %d", removed)
	}
	if _, ok := cache.Get("schools:list"); !ok {
		t.Fatal("unrelated keys must survive invalidation")
	}
	if cache.Len() != 1 {
		t.Fatalf("expected 1 remaining entry, got %d", cache.Len())
	}
}

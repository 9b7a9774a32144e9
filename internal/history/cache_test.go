package history

import (
	"testing"
	"time"
)

func TestCacheKeyShapes(t *testing.T) {
	tests := []struct {
		name string
		id   string
		q    PageQuery
		want string
	}{
		{"recent", "abc123", PageQuery{Limit: 10, Recent: true}, "recent_abc123"},
		{"initial page", "abc123", PageQuery{Limit: 50}, "abc123_50_initial"},
		{"cursor page", "abc123", PageQuery{Limit: 20, BeforeMessageID: "m7"}, "abc123_20_m7"},
	}

	for _, tt := range tests {
		if got := CacheKey(tt.id, tt.q); got != tt.want {
			t.Errorf("%s: CacheKey = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestCachePutGet(t *testing.T) {
	cache := NewTTLCache()

	key := CacheKey("conv1", PageQuery{Limit: 50})
	if _, ok := cache.Get(key); ok {
		t.Fatal("expected miss on empty cache")
	}

	page := Page{Messages: []Message{{ID: "m1", Role: "user", Content: "hi"}}, HasMore: true}
	cache.Put(key, page)

	got, ok := cache.Get(key)
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if len(got.Messages) != 1 || got.Messages[0].ID != "m1" || !got.HasMore {
		t.Errorf("unexpected cached page: %+v", got)
	}
}

func TestCacheExpiryClasses(t *testing.T) {
	cache := NewTTLCacheWithTTLs(30*time.Second, 5*time.Minute)

	now := time.Now()
	cache.SetClock(func() time.Time { return now })

	recentKey := CacheKey("conv1", PageQuery{Limit: 10, Recent: true})
	fullKey := CacheKey("conv1", PageQuery{Limit: 50})
	cache.Put(recentKey, Page{})
	cache.Put(fullKey, Page{})

	// Both fresh.
	if _, ok := cache.Get(recentKey); !ok {
		t.Error("recent entry should be fresh")
	}
	if _, ok := cache.Get(fullKey); !ok {
		t.Error("full entry should be fresh")
	}

	// Past the short TTL only the full-class entry survives.
	now = now.Add(31 * time.Second)
	if _, ok := cache.Get(recentKey); ok {
		t.Error("recent entry should have expired")
	}
	if _, ok := cache.Get(fullKey); !ok {
		t.Error("full entry should still be fresh")
	}

	// Past the long TTL everything is gone.
	now = now.Add(5 * time.Minute)
	if _, ok := cache.Get(fullKey); ok {
		t.Error("full entry should have expired")
	}
}

func TestCacheOverwrite(t *testing.T) {
	cache := NewTTLCache()

	key := CacheKey("conv1", PageQuery{Limit: 50})
	cache.Put(key, Page{HasMore: false})
	cache.Put(key, Page{HasMore: true})

	got, ok := cache.Get(key)
	if !ok {
		t.Fatal("expected hit")
	}
	if !got.HasMore {
		t.Error("expected last write to win")
	}
	if cache.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", cache.Len())
	}
}

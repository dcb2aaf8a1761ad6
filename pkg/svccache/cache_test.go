package svccache

import (
	"testing"
	"time"

	"github.com/Omarrvv/final-bot-sub003/pkg/config"
)

func testCacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:        true,
		TTLSeconds:     300,
		MaxEntries:     3,
		EvictionPolicy: "lru",
	}
}

func TestKeyIsOrderIndependent(t *testing.T) {
	a := Key("get_weather", map[string]string{"city": "cairo", "units": "metric"})
	b := Key("get_weather", map[string]string{"units": "metric", "city": "cairo"})
	if a != b {
		t.Errorf("keys differ for identical params: %q vs %q", a, b)
	}
	if a == Key("get_weather", map[string]string{"city": "luxor", "units": "metric"}) {
		t.Error("different params produced the same key")
	}
	if got := Key("ping", nil); got != "ping" {
		t.Errorf("parameterless key = %q, want %q", got, "ping")
	}
}

func TestGetSetRoundTrip(t *testing.T) {
	c := New(testCacheConfig())

	key := Key("get_exchange_rate", map[string]string{"currency": "EGP"})
	if _, ok := c.Get(key); ok {
		t.Fatal("unexpected hit on empty cache")
	}
	c.Set(key, "48.5")
	got, ok := c.Get(key)
	if !ok || got != "48.5" {
		t.Fatalf("Get() = (%q, %v), want (\"48.5\", true)", got, ok)
	}
}

func TestDisabledCacheNeverHits(t *testing.T) {
	cfg := testCacheConfig()
	cfg.Enabled = false
	c := New(cfg)

	c.Set("k", "v")
	if _, ok := c.Get("k"); ok {
		t.Error("disabled cache returned a hit")
	}
	if c.Len() != 0 {
		t.Errorf("disabled cache stored %d entries", c.Len())
	}
}

func TestTTLExpiry(t *testing.T) {
	c := New(testCacheConfig())
	c.ttl = 10 * time.Millisecond

	c.Set("k", "v")
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry served as a hit")
	}
}

func TestEvictionAtCapacity(t *testing.T) {
	c := New(testCacheConfig())

	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("c", "3")

	// Touch a and c so b is the LRU victim.
	c.Get("a")
	c.Get("c")
	c.Set("d", "4")

	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("expected %q to survive eviction", key)
		}
	}
}

func TestVictimSelection(t *testing.T) {
	base := time.Now()
	entries := map[string]*Entry{
		"old-many-hits": {Key: "old-many-hits", StoredAt: base.Add(-3 * time.Minute), LastAccessAt: base, HitCount: 9},
		"new-no-hits":   {Key: "new-no-hits", StoredAt: base, LastAccessAt: base.Add(-2 * time.Minute), HitCount: 0},
		"mid":           {Key: "mid", StoredAt: base.Add(-1 * time.Minute), LastAccessAt: base.Add(-1 * time.Minute), HitCount: 3},
	}

	tests := []struct {
		name   string
		policy string
		want   string
	}{
		{"fifo picks oldest stored", "fifo", "old-many-hits"},
		{"lru picks least recently accessed", "lru", "new-no-hits"},
		{"lfu picks fewest hits", "lfu", "new-no-hits"},
		{"unknown name falls back to lru", "second-chance", "new-no-hits"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			victim := selectVictim(entries, policyFor(tt.policy))
			if victim == nil || victim.Key != tt.want {
				t.Errorf("selectVictim() = %+v, want key %q", victim, tt.want)
			}
		})
	}

	if victim := selectVictim(nil, policyFor("lru")); victim != nil {
		t.Errorf("selectVictim(nil) = %+v, want nil", victim)
	}
}

func TestLFUBreaksTiesByAccessTime(t *testing.T) {
	base := time.Now()
	entries := map[string]*Entry{
		"stale": {Key: "stale", LastAccessAt: base.Add(-time.Hour), HitCount: 2},
		"fresh": {Key: "fresh", LastAccessAt: base, HitCount: 2},
	}

	victim := selectVictim(entries, policyFor("lfu"))
	if victim == nil || victim.Key != "stale" {
		t.Errorf("selectVictim() = %+v, want the staler of the tied entries", victim)
	}
}

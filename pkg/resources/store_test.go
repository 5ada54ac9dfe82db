package resources

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestStaticStoreLookup(t *testing.T) {
	s := NewStaticStore()
	ctx := context.Background()

	us, err := s.Lookup(ctx, "US", "en")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if len(us) == 0 {
		t.Fatal("no resources for US/en")
	}
	foundHotline := false
	for _, r := range us {
		if r.Kind == KindHotline && r.Contact == "988" {
			foundHotline = true
		}
		if r.Language != "en" {
			t.Errorf("US/en lookup returned %s resource", r.Language)
		}
	}
	if !foundHotline {
		t.Error("US/en lookup missing the 988 lifeline")
	}
}

func TestStaticStoreLanguageFallback(t *testing.T) {
	s := NewStaticStore()

	// UK has no Spanish entries: English is the fallback, never an empty set.
	uk, err := s.Lookup(context.Background(), "UK", "es")
	if err != nil {
		t.Fatal(err)
	}
	if len(uk) == 0 {
		t.Fatal("language fallback returned nothing")
	}
}

func TestStaticStoreUnknownRegionFallsBackToGlobal(t *testing.T) {
	s := NewStaticStore()
	out, err := s.Lookup(context.Background(), "ZZ", "en")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) == 0 {
		t.Fatal("unknown region should fall back to global resources")
	}
	for _, r := range out {
		if r.Region != "GLOBAL" {
			t.Errorf("unknown region returned %s resource", r.Region)
		}
	}
}

// countingStore counts pass-throughs so cache hits are observable.
type countingStore struct {
	inner Store
	calls int
}

func (c *countingStore) Lookup(ctx context.Context, region, language string) ([]Resource, error) {
	c.calls++
	return c.inner.Lookup(ctx, region, language)
}

func TestCachedStoreReadThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	counting := &countingStore{inner: NewStaticStore()}
	cached := NewCachedStoreWithClient(counting, rdb, time.Minute)
	ctx := context.Background()

	first, err := cached.Lookup(ctx, "US", "en")
	if err != nil {
		t.Fatalf("first lookup failed: %v", err)
	}
	second, err := cached.Lookup(ctx, "US", "en")
	if err != nil {
		t.Fatalf("second lookup failed: %v", err)
	}

	if counting.calls != 1 {
		t.Errorf("source calls = %d, want 1 (second lookup should hit cache)", counting.calls)
	}
	if len(first) != len(second) {
		t.Errorf("cached result differs: %d vs %d resources", len(first), len(second))
	}
}

func TestCachedStoreExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	counting := &countingStore{inner: NewStaticStore()}
	cached := NewCachedStoreWithClient(counting, rdb, time.Second)
	ctx := context.Background()

	if _, err := cached.Lookup(ctx, "UK", "en"); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(2 * time.Second)
	if _, err := cached.Lookup(ctx, "UK", "en"); err != nil {
		t.Fatal(err)
	}

	if counting.calls != 2 {
		t.Errorf("source calls = %d, want 2 after TTL expiry", counting.calls)
	}
}

func TestCachedStoreSurvivesRedisOutage(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cached := NewCachedStoreWithClient(&countingStore{inner: NewStaticStore()}, rdb, time.Minute)

	mr.Close()

	out, err := cached.Lookup(context.Background(), "US", "en")
	if err != nil {
		t.Fatalf("lookup should bypass a dead cache, got %v", err)
	}
	if len(out) == 0 {
		t.Fatal("lookup returned nothing during cache outage")
	}
}

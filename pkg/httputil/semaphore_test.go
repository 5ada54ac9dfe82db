package httputil

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestSemaphoreTryAcquire(t *testing.T) {
	s := NewSemaphore(2)

	if !s.TryAcquire() {
		t.Fatal("first TryAcquire should succeed")
	}
	if !s.TryAcquire() {
		t.Fatal("second TryAcquire should succeed")
	}
	if s.TryAcquire() {
		t.Fatal("third TryAcquire should fail at capacity")
	}
	if s.DroppedCount() != 1 {
		t.Errorf("DroppedCount = %d, want 1", s.DroppedCount())
	}

	s.Release()
	if !s.TryAcquire() {
		t.Fatal("TryAcquire after Release should succeed")
	}
}

func TestSemaphoreAcquireRespectsContext(t *testing.T) {
	s := NewSemaphore(1)
	if err := s.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := s.Acquire(ctx); err == nil {
		t.Fatal("Acquire at capacity should fail when context expires")
	}
}

func TestSemaphoreConcurrentUse(t *testing.T) {
	s := NewSemaphore(4)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			time.Sleep(time.Millisecond)
			s.Release()
		}()
	}
	wg.Wait()

	if s.InUse() != 0 {
		t.Errorf("InUse = %d after all released, want 0", s.InUse())
	}
	if s.Available() != 4 {
		t.Errorf("Available = %d, want 4", s.Available())
	}
}

func TestClientTiers(t *testing.T) {
	if Client(TierDispatch).Timeout != 5*time.Second {
		t.Errorf("dispatch tier timeout = %v", Client(TierDispatch).Timeout)
	}
	if Client(TierMedium).Timeout != 30*time.Second {
		t.Errorf("medium tier timeout = %v", Client(TierMedium).Timeout)
	}
	// Same tier must return the same pooled client.
	if Client(TierDispatch) != DispatchClient() {
		t.Error("tier clients should be singletons")
	}
}

package connmgr

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/voxroom/voxroom/internal/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestManager_CeilingRejectsWithoutSideEffects(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1000, 0)}
	m := New(clk, 2)

	if !m.Add("a", models.ConnectionMetadata{}) || !m.Add("b", models.ConnectionMetadata{}) {
		t.Fatalf("expected admissions below the ceiling")
	}
	if m.Add("c", models.ConnectionMetadata{}) {
		t.Fatalf("expected rejection at the ceiling")
	}
	if got := m.Count(); got != 2 {
		t.Fatalf("rejected add must not change the table: count=%d", got)
	}
}

func TestManager_ReAddIsIdempotent(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1000, 0)}
	m := New(clk, 1)

	if !m.Add("a", models.ConnectionMetadata{}) {
		t.Fatalf("expected admission")
	}
	// Re-adding the same id at the ceiling must still succeed.
	if !m.Add("a", models.ConnectionMetadata{}) {
		t.Fatalf("re-add of existing id should succeed")
	}
	if got := m.Count(); got != 1 {
		t.Fatalf("re-add must not duplicate: count=%d", got)
	}
}

func TestManager_RemoveReportsPresence(t *testing.T) {
	m := New(&fakeClock{now: time.Unix(0, 0)}, 10)
	m.Add("a", models.ConnectionMetadata{})

	if !m.Remove("a") {
		t.Fatalf("expected removal of tracked connection")
	}
	if m.Remove("a") {
		t.Fatalf("expected false for already-removed connection")
	}
}

func TestManager_Stats(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1000, 0)}
	m := New(clk, 5)

	m.Add("a", models.ConnectionMetadata{})
	clk.Advance(10 * time.Second)
	m.Add("b", models.ConnectionMetadata{})
	clk.Advance(10 * time.Second)

	s := m.Stats()
	if s.Total != 2 || s.Max != 5 || s.Available != 3 {
		t.Fatalf("unexpected stats: %+v", s)
	}
	if !s.Oldest.Equal(time.Unix(1000, 0)) {
		t.Fatalf("oldest = %v", s.Oldest)
	}
	if !s.Newest.Equal(time.Unix(1010, 0)) {
		t.Fatalf("newest = %v", s.Newest)
	}
	if s.AvgAge != 15*time.Second {
		t.Fatalf("avg age = %v", s.AvgAge)
	}
}

func TestManager_CleanupIdle(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	m := New(clk, 10)

	m.Add("stale", models.ConnectionMetadata{})
	clk.Advance(2 * time.Minute)
	m.Add("fresh", models.ConnectionMetadata{})

	if removed := m.CleanupIdle(time.Minute); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if m.Count() != 1 {
		t.Fatalf("count = %d, want 1", m.Count())
	}

	// Touch keeps a connection alive across the sweep.
	clk.Advance(2 * time.Minute)
	m.Touch("fresh")
	if removed := m.CleanupIdle(10 * time.Minute); removed != 0 {
		t.Fatalf("removed = %d, want 0", removed)
	}
}

func TestManager_ConcurrentAddsRespectCeiling(t *testing.T) {
	m := New(&fakeClock{now: time.Unix(0, 0)}, 10)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Add(fmt.Sprintf("conn-%d", i), models.ConnectionMetadata{})
		}(i)
	}
	wg.Wait()

	if got := m.Count(); got != 10 {
		t.Fatalf("count = %d, want 10", got)
	}
}

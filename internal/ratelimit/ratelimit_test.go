package ratelimit

import (
	"testing"
	"time"
)

func TestAllow_WithinBudget(t *testing.T) {
	l := New(3, time.Minute)

	for i := 0; i < 3; i++ {
		ok, _ := l.Allow("1.2.3.4")
		if !ok {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}

	ok, retry := l.Allow("1.2.3.4")
	if ok {
		t.Fatal("fourth attempt should be rejected")
	}
	if retry <= 0 || retry > time.Minute {
		t.Errorf("retry-after = %v, want within (0, 1m]", retry)
	}
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	l := New(1, time.Minute)

	if ok, _ := l.Allow("a"); !ok {
		t.Fatal("first attempt for a should be allowed")
	}
	if ok, _ := l.Allow("b"); !ok {
		t.Fatal("first attempt for b should be allowed")
	}
	if ok, _ := l.Allow("a"); ok {
		t.Fatal("second attempt for a should be rejected")
	}
}

func TestAllow_WindowSlides(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := New(2, time.Minute)
	l.now = func() time.Time { return clock }

	l.Allow("k")
	clock = clock.Add(30 * time.Second)
	l.Allow("k")

	if ok, _ := l.Allow("k"); ok {
		t.Fatal("third attempt inside the window should be rejected")
	}

	// The first attempt falls out of the window; one slot frees up.
	clock = clock.Add(31 * time.Second)
	if ok, _ := l.Allow("k"); !ok {
		t.Fatal("attempt after the oldest expired should be allowed")
	}
	if ok, _ := l.Allow("k"); ok {
		t.Fatal("budget should be exhausted again")
	}
}

func TestAllow_RetryAfterTracksOldestAttempt(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := New(1, time.Minute)
	l.now = func() time.Time { return clock }

	l.Allow("k")
	clock = clock.Add(40 * time.Second)

	_, retry := l.Allow("k")
	if retry != 20*time.Second {
		t.Errorf("retry-after = %v, want 20s", retry)
	}
}

func TestPrune_DropsIdleKeys(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := New(5, time.Minute)
	l.now = func() time.Time { return clock }

	l.Allow("stale")
	clock = clock.Add(30 * time.Second)
	l.Allow("fresh")

	clock = clock.Add(45 * time.Second)
	l.Prune()

	if _, ok := l.entries["stale"]; ok {
		t.Error("stale key should have been pruned")
	}
	if _, ok := l.entries["fresh"]; !ok {
		t.Error("fresh key should survive the prune")
	}
}

package ratelimit

import (
	"testing"
	"time"
)

func TestLimiterBurstThenRefill(t *testing.T) {
	l := New(1, 2)
	now := time.Date(2025, 10, 17, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatalf("expected burst of 2")
	}
	if l.Allow("a") {
		t.Fatalf("expected third request to be limited")
	}
	if !l.Allow("b") {
		t.Fatalf("keys must be independent")
	}

	now = now.Add(time.Second)
	if !l.Allow("a") {
		t.Fatalf("expected refill after one second")
	}
}

func TestLimiterDisabled(t *testing.T) {
	l := New(0, 0)
	for i := 0; i < 100; i++ {
		if !l.Allow("a") {
			t.Fatalf("expected unlimited")
		}
	}
}

func TestLimiterPrune(t *testing.T) {
	l := New(1, 1)
	now := time.Date(2025, 10, 17, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	l.Allow("a")
	now = now.Add(time.Hour)
	if n := l.Prune(); n != 1 {
		t.Fatalf("expected 1 pruned, got %d", n)
	}
}

func TestLimiterPrunesLazily(t *testing.T) {
	l := New(1, 1)
	now := time.Date(2025, 10, 17, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	l.Allow("a")
	l.Allow("b")
	now = now.Add(time.Hour)
	l.Allow("c")
	if len(l.m) != 1 {
		t.Fatalf("expected idle keys dropped, have %d", len(l.m))
	}
}

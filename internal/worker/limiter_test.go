package worker

import (
	"context"
	"testing"
	"time"
)

func TestNewLimiter_Defaults(t *testing.T) {
	l := NewLimiter(10, 0)
	if l.defaultBurst != 5 {
		t.Errorf("expected default burst 5, got %d", l.defaultBurst)
	}

	unlimited := NewLimiter(0, 1)
	for i := 0; i < 100; i++ {
		if !unlimited.Allow("postgres") {
			t.Fatalf("unlimited limiter denied request %d", i)
		}
	}
}

func TestLimiter_AllowPerKey(t *testing.T) {
	l := NewLimiter(0.001, 2)

	if !l.Allow("postgres") || !l.Allow("postgres") {
		t.Fatal("expected burst of 2 to be allowed")
	}
	if l.Allow("postgres") {
		t.Error("expected third request to be throttled")
	}

	// Keys have independent buckets
	if !l.Allow("redis") {
		t.Error("expected a fresh key to be allowed")
	}
}

func TestLimiter_SetRate(t *testing.T) {
	l := NewLimiter(0.001, 1)
	l.SetRate("jsonl", 1, 10)

	for i := 0; i < 5; i++ {
		if !l.Allow("jsonl") {
			t.Fatalf("expected custom burst to allow request %d", i)
		}
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	l := NewLimiter(0.001, 1)
	l.Allow("postgres") // drain the bucket

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "postgres"); err == nil {
		t.Error("expected wait to fail once the context expires")
	}
}

func TestLimiter_Wait(t *testing.T) {
	l := NewLimiter(100, 1)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Wait(context.Background(), "jsonl"); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("expected throttling after the burst, took %v", elapsed)
	}
}

package http

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsWithinBudget(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(3, 3, time.Minute)

	current := time.Unix(0, 0)
	rl.now = func() time.Time {
		return current
	}

	key := "1.2.3.4"

	for i := 0; i < 3; i++ {
		if !rl.Allow(key) {
			t.Fatalf("expected request %d to be allowed", i+1)
		}
	}

	if rl.Allow(key) {
		t.Fatalf("expected fourth request to be denied")
	}

	current = current.Add(time.Second)

	if !rl.Allow(key) {
		t.Fatalf("expected request after refill to be allowed")
	}
}

func TestRateLimiterTracksClientsIndependently(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1, 1, time.Minute)

	current := time.Unix(100, 0)
	rl.now = func() time.Time {
		return current
	}

	if !rl.Allow("a") {
		t.Fatalf("expected first request from a to be allowed")
	}
	if rl.Allow("a") {
		t.Fatalf("expected second request from a to be denied")
	}
	if !rl.Allow("b") {
		t.Fatalf("expected b to have its own budget")
	}
}

func TestRateLimiterPrunesIdleClients(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1, 1, time.Minute)

	current := time.Unix(1_000, 0)
	rl.now = func() time.Time {
		return current
	}

	rl.Allow("idle")
	rl.Allow("")
	if rl.trackedClients() != 2 {
		t.Fatalf("expected two tracked clients, got %d", rl.trackedClients())
	}

	current = current.Add(2 * time.Minute)
	rl.Allow("fresh")

	if rl.trackedClients() != 1 {
		t.Fatalf("expected idle clients to be pruned, got %d tracked", rl.trackedClients())
	}
}

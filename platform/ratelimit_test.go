package platform

import (
	"testing"
	"time"

	"github.com/cityzenmag/socialhub/model"
)

func TestRateLimiterExhaustion(t *testing.T) {
	r := NewRateLimiter(model.PlatformTwitter, 3)

	for i := 0; i < 3; i++ {
		if err := r.Take(); err != nil {
			t.Fatalf("request %d should be allowed: %v", i+1, err)
		}
	}

	err := r.Take()
	if err == nil {
		t.Fatal("fourth request should be rejected")
	}
	if !IsKind(err, KindRateLimit) {
		t.Errorf("rejection kind = %q, want %q", KindOf(err), KindRateLimit)
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	r := NewRateLimiter(model.PlatformFacebook, 2)
	r.SetClock(func() time.Time { return clock })

	if err := r.Take(); err != nil {
		t.Fatalf("first take: %v", err)
	}
	if err := r.Take(); err != nil {
		t.Fatalf("second take: %v", err)
	}
	if err := r.Take(); err == nil {
		t.Fatal("window should be exhausted")
	}

	// Just short of an hour: still exhausted.
	clock = clock.Add(59 * time.Minute)
	if err := r.Take(); err == nil {
		t.Fatal("window should still be exhausted before the hour elapses")
	}

	// Past the hour: a full fresh window.
	clock = clock.Add(2 * time.Minute)
	for i := 0; i < 2; i++ {
		if err := r.Take(); err != nil {
			t.Fatalf("take %d after window reset: %v", i+1, err)
		}
	}
	if err := r.Take(); err == nil {
		t.Fatal("fresh window should also be bounded")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	for _, limit := range []int{0, -5} {
		r := NewRateLimiter(model.PlatformYouTube, limit)
		for i := 0; i < 1000; i++ {
			if err := r.Take(); err != nil {
				t.Fatalf("limit %d should disable the limiter, got %v", limit, err)
			}
		}
		if got := r.Remaining(); got != -1 {
			t.Errorf("Remaining() with limit %d = %d, want -1", limit, got)
		}
	}

	var nilLimiter *RateLimiter
	if err := nilLimiter.Take(); err != nil {
		t.Errorf("nil limiter Take() = %v, want nil", err)
	}
}

func TestRateLimiterRemaining(t *testing.T) {
	r := NewRateLimiter(model.PlatformTwitter, 5)

	if got := r.Remaining(); got != 5 {
		t.Fatalf("fresh Remaining() = %d, want 5", got)
	}
	for i := 0; i < 2; i++ {
		if err := r.Take(); err != nil {
			t.Fatalf("take: %v", err)
		}
	}
	if got := r.Remaining(); got != 3 {
		t.Errorf("Remaining() after 2 takes = %d, want 3", got)
	}
}

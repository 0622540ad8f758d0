package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 1 {
		t.Errorf("expected burst 1 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1) // 100 rps, burst 1
	ctx := context.Background()

	if err := limiter.Wait(ctx, "https://sih-backend-881i.onrender.com/encode/"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	// Different host should also work
	if err := limiter.Wait(ctx, "https://sih-backend-seven.vercel.app/search/"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	limiter := NewLimiter(1, 1)
	url := "http://backend.local/encode/"

	if err := limiter.Wait(context.Background(), url); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// Same host, other path shares the bucket
	if limiter.Allow("http://backend.local/case_save/") {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}

	if !limiter.Allow("http://catalog.local/search/") {
		t.Errorf("expected allow for other host")
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	limiter := NewLimiter(0.1, 1)
	url := "http://backend.local/"

	if !limiter.Allow(url) {
		t.Fatal("first request should pass")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(ctx, url); err == nil {
		t.Error("expected wait to fail once the context expires")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 50; i++ {
		if !limiter.Allow("http://backend.local/") {
			t.Fatalf("request %d limited with limiting disabled", i)
		}
	}

	var nilLimiter *Limiter
	if err := nilLimiter.Wait(context.Background(), "http://backend.local/"); err != nil {
		t.Errorf("nil limiter should never block: %v", err)
	}
	if !nilLimiter.Allow("::bad") {
		t.Error("nil limiter should allow everything")
	}
}

func TestLimiter_SetHostRate(t *testing.T) {
	limiter := NewLimiter(10, 10) // fast default
	host := "slow.onrender.com"

	limiter.SetHostRate(host, 0.1, 1)

	if !limiter.Allow("https://" + host + "/encode/") {
		t.Errorf("first request should pass")
	}
	if limiter.Allow("https://" + host + "/encode/") {
		t.Errorf("second request should fail")
	}
	if !limiter.Allow("https://fast.vercel.app/") {
		t.Errorf("other host should pass")
	}
}

func TestHostOf(t *testing.T) {
	host, err := hostOf("http://example.com:8080/foo")
	if err != nil {
		t.Fatalf("hostOf failed: %v", err)
	}
	if host != "example.com:8080" {
		t.Errorf("expected example.com:8080, got %s", host)
	}

	if _, err := hostOf("::invalid"); err == nil {
		t.Errorf("expected error for invalid URL")
	}
	if _, err := hostOf("/relative/path"); err == nil {
		t.Errorf("expected error for URL without host")
	}
}

package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowSeparatesHosts(t *testing.T) {
	l := New(1, 1)

	if !l.Allow("https://a.example.com/feed") {
		t.Error("first request to a host should be admitted")
	}
	if l.Allow("https://a.example.com/other") {
		t.Error("second immediate request to same host should be denied")
	}
	if !l.Allow("https://b.example.com/feed") {
		t.Error("a different host has its own budget")
	}
}

func TestWaitRespectsContext(t *testing.T) {
	l := New(0.001, 1)

	// Burn the burst.
	if !l.Allow("https://slow.example.com/feed") {
		t.Fatal("burst should admit the first request")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "https://slow.example.com/feed"); err == nil {
		t.Error("Wait should fail when the context expires first")
	}
}

func TestWaitInvalidURL(t *testing.T) {
	l := New(1, 1)
	if err := l.Wait(context.Background(), "://not-a-url"); err == nil {
		t.Error("expected parse error")
	}
}

func TestSetHostRate(t *testing.T) {
	l := New(0.001, 1)
	l.SetHostRate("fast.example.com", 1000, 100)

	for i := 0; i < 10; i++ {
		if !l.Allow("https://fast.example.com/feed") {
			t.Fatalf("override rate should admit request %d", i)
		}
	}
}

package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestAllowed(t *testing.T) {
	var robotsFetches int32
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&robotsFetches, 1)
		fmt.Fprint(w, "User-agent: *\nDisallow: /private/\n")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	checker := NewRobotsChecker("worldbrief-test", 5*time.Second)
	ctx := context.Background()

	if !checker.Allowed(ctx, server.URL+"/feed.xml") {
		t.Error("public path should be allowed")
	}
	if checker.Allowed(ctx, server.URL+"/private/feed.xml") {
		t.Error("disallowed path should be blocked")
	}
	if got := atomic.LoadInt32(&robotsFetches); got != 1 {
		t.Errorf("robots.txt should be fetched once per host, got %d", got)
	}
}

func TestAllowedMissingRobots(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	checker := NewRobotsChecker("worldbrief-test", 5*time.Second)
	if !checker.Allowed(context.Background(), server.URL+"/feed.xml") {
		t.Error("a missing robots.txt allows everything")
	}
}

func TestAllowedUnreachableHost(t *testing.T) {
	checker := NewRobotsChecker("worldbrief-test", 100*time.Millisecond)
	if !checker.Allowed(context.Background(), "http://127.0.0.1:1/feed.xml") {
		t.Error("unreachable robots.txt allows by default")
	}
}

func TestCrawlDelay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nCrawl-delay: 2\n")
	}))
	defer server.Close()

	checker := NewRobotsChecker("worldbrief-test", 5*time.Second)
	if got := checker.CrawlDelay(context.Background(), server.URL+"/feed.xml"); got != 2*time.Second {
		t.Errorf("CrawlDelay = %v", got)
	}
}

func TestClear(t *testing.T) {
	var fetches int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fetches, 1)
		fmt.Fprint(w, "User-agent: *\nDisallow:\n")
	}))
	defer server.Close()

	checker := NewRobotsChecker("worldbrief-test", 5*time.Second)
	ctx := context.Background()

	checker.Allowed(ctx, server.URL+"/a")
	checker.Clear()
	checker.Allowed(ctx, server.URL+"/b")

	if got := atomic.LoadInt32(&fetches); got != 2 {
		t.Errorf("expected refetch after Clear, got %d fetches", got)
	}
}

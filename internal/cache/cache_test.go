package cache

import (
	"strings"
	"testing"
	"time"
)

func TestKeyDeterministic(t *testing.T) {
	a := Key("fr:en:Bonjour")
	b := Key("fr:en:Bonjour")
	if a != b {
		t.Errorf("same content must produce the same key: %q vs %q", a, b)
	}
	if a == Key("fr:en:Bonsoir") {
		t.Error("different content must produce different keys")
	}
	if !strings.HasPrefix(a, "worldbrief:v1:") {
		t.Errorf("key missing namespace prefix: %q", a)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	key := Key("test")
	if _, found := c.Get(key); found {
		t.Error("empty cache should miss")
	}

	if err := c.Set(key, []byte("value"), 0); err != nil {
		t.Fatal(err)
	}
	got, found := c.Get(key)
	if !found || string(got) != "value" {
		t.Errorf("Get = %q, %v", got, found)
	}

	if err := c.Delete(key); err != nil {
		t.Fatal(err)
	}
	if _, found := c.Get(key); found {
		t.Error("deleted entry should miss")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(10*time.Millisecond, time.Minute)

	key := Key("expiring")
	if err := c.Set(key, []byte("value"), 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)

	if _, found := c.Get(key); found {
		t.Error("expired entry should miss")
	}
}

func TestDiskCache(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	key := Key("disk-test")
	if err := c.Set(key, []byte("persisted"), 0); err != nil {
		t.Fatal(err)
	}

	got, found := c.Get(key)
	if !found || string(got) != "persisted" {
		t.Errorf("Get = %q, %v", got, found)
	}

	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, found := c.Get(key); found {
		t.Error("cleared cache should miss")
	}
}

func TestDiskCacheExpiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	key := Key("stale")
	if err := c.Set(key, []byte("old"), 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)

	if _, found := c.Get(key); found {
		t.Error("expired disk entry should miss")
	}
}

func TestLayeredCachePromotes(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Minute)

	key := Key("layered")
	if err := c.Set(key, []byte("both layers"), 0); err != nil {
		t.Fatal(err)
	}

	// A fresh layered cache over the same directory finds the disk copy.
	c2 := NewLayeredCache(time.Minute, dir, time.Minute)
	got, found := c2.Get(key)
	if !found || string(got) != "both layers" {
		t.Errorf("Get = %q, %v", got, found)
	}

	// The hit must now be served from memory as well.
	got, found = c2.memory.Get(key)
	if !found || string(got) != "both layers" {
		t.Error("disk hit should be promoted to memory")
	}
}

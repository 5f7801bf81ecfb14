package diskcache

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRoundTrip(t *testing.T) {
	cache := New(t.TempDir(), time.Hour, nil)
	if err := cache.Set("key one", []byte("value")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok := cache.Get("key one")
	if !ok {
		t.Fatal("expected hit")
	}
	if string(got) != "value" {
		t.Fatalf("got %q", got)
	}
}

func TestMiss(t *testing.T) {
	cache := New(t.TempDir(), time.Hour, nil)
	if _, ok := cache.Get("absent"); ok {
		t.Fatal("expected miss")
	}
}

func TestTTLExpiry(t *testing.T) {
	dir := t.TempDir()
	cache := New(dir, time.Minute, nil)
	if err := cache.Set("key", []byte("value")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Age the entry past the TTL.
	stale := time.Now().Add(-2 * time.Minute)
	path := filepath.Join(dir, url.QueryEscape("key"))
	if err := os.Chtimes(path, stale, stale); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	if _, ok := cache.Get("key"); ok {
		t.Fatal("stale entry served")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("stale entry not evicted")
	}
}

func TestDisabledCache(t *testing.T) {
	cache := New("", time.Hour, nil)
	if err := cache.Set("key", []byte("value")); err != nil {
		t.Fatalf("disabled Set must be a no-op: %v", err)
	}
	if _, ok := cache.Get("key"); ok {
		t.Fatal("disabled cache must always miss")
	}
}

func TestKeysWithUnsafeCharacters(t *testing.T) {
	cache := New(t.TempDir(), time.Hour, nil)
	key := "season=1&series=lost/../../etc"
	if err := cache.Set(key, []byte("x")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok := cache.Get(key); !ok {
		t.Fatal("expected hit for escaped key")
	}
}

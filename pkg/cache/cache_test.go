package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "workshop:item:1", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	data, hit, err := c.Get(ctx, "workshop:item:1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if hit || data != nil {
		t.Errorf("Get() = %q, %v; nothing is ever stored", data, hit)
	}
	if err := c.Delete(ctx, "workshop:item:1"); err != nil {
		t.Errorf("Delete() failed: %v", err)
	}
}

func TestKeyers(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"default", NewDefaultKeyer().ItemKey("463939057"), "workshop:item:463939057"},
		{"scoped", NewScopedKeyer(NewDefaultKeyer(), "test:").ItemKey("1"), "test:workshop:item:1"},
		{"scoped nil inner", NewScopedKeyer(nil, "p:").ItemKey("1"), "p:workshop:item:1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("ItemKey() = %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	if _, hit, err := c.Get(ctx, "k"); err != nil || hit {
		t.Fatalf("Get() on empty cache = %v, %v", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if !hit {
		t.Fatal("Get() returned false for existing key")
	}
	if string(data) != "v" {
		t.Errorf("Get() = %q, want %q", data, "v")
	}

	// returned slices are copies
	data[0] = 'x'
	if data, _, _ = c.Get(ctx, "k"); string(data) != "v" {
		t.Errorf("stored value changed to %q", data)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, hit, _ = c.Get(ctx, "k"); hit {
		t.Error("Get() returned true after Delete")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := t0
	c.now = func() time.Time { return now }

	c.Set(ctx, "short", []byte("a"), time.Minute)
	c.Set(ctx, "forever", []byte("b"), 0)

	now = now.Add(59 * time.Second)
	if _, hit, _ := c.Get(ctx, "short"); !hit {
		t.Error("entry should be fresh before its TTL")
	}

	now = now.Add(time.Second)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("entry should expire once its TTL has elapsed")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after expired read", c.Len())
	}

	now = now.Add(365 * 24 * time.Hour)
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("ttl 0 should never expire")
	}
}

func TestMemoryCachePrune(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := t0
	c.now = func() time.Time { return now }

	c.Set(ctx, "a", []byte("1"), time.Minute)
	c.Set(ctx, "b", []byte("2"), time.Minute)
	c.Set(ctx, "c", []byte("3"), time.Hour)

	now = now.Add(2 * time.Minute)
	n, err := c.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Prune() = %d, want 2", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestMemoryCacheClosed(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	c.Set(ctx, "k", []byte("v"), 0)
	c.Close()

	if _, _, err := c.Get(ctx, "k"); !errors.Is(err, ErrClosed) {
		t.Errorf("Get() error = %v, want ErrClosed", err)
	}
	if err := c.Set(ctx, "k", []byte("v"), 0); !errors.Is(err, ErrClosed) {
		t.Errorf("Set() error = %v, want ErrClosed", err)
	}
}

func TestMemoryCacheConcurrent(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set(ctx, "shared", []byte("same"), time.Millisecond)
				c.Get(ctx, "shared")
			}
		}()
	}
	wg.Wait()
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache() failed: %v", err)
	}
	if c.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", c.Dir(), dir)
	}

	if err := c.Set(ctx, "workshop:item:1", []byte(`{"id":"1"}`), time.Hour); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	data, hit, err := c.Get(ctx, "workshop:item:1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if !hit {
		t.Fatal("Get() returned false for existing key")
	}
	if string(data) != `{"id":"1"}` {
		t.Errorf("Get() = %s", data)
	}

	c2, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache() failed: %v", err)
	}
	if _, hit, _ := c2.Get(ctx, "workshop:item:1"); !hit {
		t.Error("entries should persist across instances")
	}

	if err := c.Delete(ctx, "workshop:item:1"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "workshop:item:1"); hit {
		t.Error("Get() returned true after Delete")
	}
	if err := c.Delete(ctx, "workshop:item:1"); err != nil {
		t.Errorf("Delete() of missing key failed: %v", err)
	}
}

func TestFileCacheExpired(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() failed: %v", err)
	}
	now := t0
	c.now = func() time.Time { return now }

	c.Set(ctx, "k", []byte("v"), time.Minute)
	now = now.Add(time.Minute)

	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get() returned true for expired entry")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Errorf("expired entry should be removed on read, stat err = %v", err)
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() failed: %v", err)
	}

	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, hit, err := c.Get(ctx, "k")
	if err != nil {
		t.Errorf("Get() on corrupt entry failed: %v", err)
	}
	if hit {
		t.Error("corrupt entry should be a clean miss")
	}
}

func TestFileCachePrune(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() failed: %v", err)
	}
	now := t0
	c.now = func() time.Time { return now }

	c.Set(ctx, "stale", []byte("a"), time.Minute)
	c.Set(ctx, "fresh", []byte("b"), time.Hour)
	c.Set(ctx, "forever", []byte("c"), 0)
	corrupt := c.path("corrupt")
	if err := os.MkdirAll(filepath.Dir(corrupt), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(corrupt, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}

	now = now.Add(2 * time.Minute)
	n, err := c.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Prune() = %d, want 2 (stale and corrupt)", n)
	}

	for _, key := range []string{"fresh", "forever"} {
		if _, hit, _ := c.Get(ctx, key); !hit {
			t.Errorf("%s should survive Prune", key)
		}
	}
	if _, err := os.Stat(filepath.Dir(c.path("stale"))); !os.IsNotExist(err) {
		t.Errorf("empty fan-out directory should be removed, stat err = %v", err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache() failed: %v", err)
	}

	for _, key := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, key, []byte(key), 0); err != nil {
			t.Fatalf("Set(%q) failed: %v", key, err)
		}
	}
	n, err := c.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("fan-out directories should be removed, found %d entries", len(entries))
	}

	n, err = c.Clear(ctx)
	if err != nil {
		t.Fatalf("second Clear() failed: %v", err)
	}
	if n != 0 {
		t.Errorf("second Clear() = %d, want 0", n)
	}
}

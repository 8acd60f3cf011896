package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	mc := NewMemoryCache(time.Minute, 0)
	defer mc.Close()
	ctx := context.Background()

	payload := []byte{0x44, 0x49, 0x43, 0x4d}
	if err := mc.Set(ctx, "k", payload, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Mutating the caller's slice must not leak into the cache
	payload[0] = 0

	got, err := mc.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got[0] != 0x44 {
		t.Errorf("Cached payload was mutated: %v", got)
	}

	// Neither may mutating a returned payload
	got[1] = 0
	again, _ := mc.Get(ctx, "k")
	if again[1] != 0x49 {
		t.Errorf("Returned payload aliases the cache: %v", again)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache(time.Minute, 0)
	defer mc.Close()
	ctx := context.Background()

	mc.Set(ctx, "k", []byte("v"), -time.Second)

	if _, err := mc.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected cache miss for expired key, got %v", err)
	}
	exists, _ := mc.Exists(ctx, "k")
	if exists {
		t.Error("Expired key should not exist")
	}
}

func TestMemoryCacheClearPattern(t *testing.T) {
	mc := NewMemoryCache(time.Minute, 0)
	defer mc.Close()
	ctx := context.Background()

	mc.Set(ctx, ImageKey("dicomweb:https://a.example/1.dcm"), []byte("a"), time.Minute)
	mc.Set(ctx, ImageKey("dicomweb:https://a.example/2.dcm"), []byte("b"), time.Minute)
	mc.Set(ctx, "other", []byte("c"), time.Minute)

	if err := mc.Clear(ctx, ImagePrefix+"*"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if mc.Len() != 1 {
		t.Errorf("Expected 1 remaining entry, got %d", mc.Len())
	}
	if ok, _ := mc.Exists(ctx, "other"); !ok {
		t.Error("Unrelated key should survive Clear")
	}
}

func TestImageKeyStable(t *testing.T) {
	a := ImageKey("dicomweb:https://example.org/image.dcm")
	b := ImageKey("dicomweb:https://example.org/image.dcm")
	c := ImageKey("dicomweb:https://example.org/other.dcm")

	if a != b {
		t.Error("ImageKey should be deterministic")
	}
	if a == c {
		t.Error("Different image IDs should not share a key")
	}
}

func TestMemoryCacheCloseTwice(t *testing.T) {
	mc := NewMemoryCache(time.Minute, 0)
	mc.Close()
	mc.Close()
}

func TestMemoryCacheSizeBound(t *testing.T) {
	mc := NewMemoryCache(time.Minute, 10)
	defer mc.Close()
	ctx := context.Background()

	mc.Set(ctx, "a", []byte("aaaa"), time.Minute)
	mc.Set(ctx, "b", []byte("bbbb"), time.Hour)
	mc.Set(ctx, "c", []byte("cccc"), time.Hour)

	if ok, _ := mc.Exists(ctx, "a"); ok {
		t.Error("Soonest-expiring entry should have been evicted")
	}
	if ok, _ := mc.Exists(ctx, "c"); !ok {
		t.Error("Newest entry should be stored")
	}
	if mc.Size() > 10 {
		t.Errorf("Cache exceeded its budget: %d bytes", mc.Size())
	}

	mc.Set(ctx, "huge", make([]byte, 11), time.Hour)
	if ok, _ := mc.Exists(ctx, "huge"); ok {
		t.Error("Oversized payload should not be stored")
	}

	mc.Set(ctx, "b", []byte("bb"), time.Hour)
	mc.Delete(ctx, "c")
	if mc.Size() != 2 {
		t.Errorf("Expected 2 bytes after overwrite and delete, got %d", mc.Size())
	}
}

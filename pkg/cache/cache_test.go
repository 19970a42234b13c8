package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileCache_RoundTrip(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("value"), 0); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	data, ok, err := c.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get() = (%v, %v), want hit", ok, err)
	}
	if string(data) != "value" {
		t.Errorf("Get() = %q, want %q", data, "value")
	}
}

func TestFileCache_Miss(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_, ok, err := c.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if ok {
		t.Error("Get() reported a hit for an absent key")
	}
}

func TestFileCache_Expiry(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("v"), time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	_, ok, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if ok {
		t.Error("expired entry still served")
	}
}

func TestFileCache_CorruptEntry(t *testing.T) {
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.path("k"), []byte("{garbage"), 0644); err != nil {
		t.Fatal(err)
	}
	_, ok, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if ok {
		t.Error("corrupt entry served as a hit")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("corrupt entry not removed")
	}
}

func TestFileCache_Delete(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("deleted key still present")
	}
	// Deleting again must not error.
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete() on absent key error: %v", err)
	}
}

func TestFileCache_Clear(t *testing.T) {
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("cache dir has %d entries after Clear, want 0", len(entries))
	}
}

func TestFileCache_ShardedLayout(t *testing.T) {
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	rel, err := filepath.Rel(dir, c.path("k"))
	if err != nil {
		t.Fatal(err)
	}
	shard := filepath.Dir(rel)
	if len(shard) != 2 {
		t.Errorf("shard dir = %q, want two hex chars", shard)
	}
}

func TestNullCache(t *testing.T) {
	c := NewNullCache()
	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if _, ok, err := c.Get(ctx, "k"); ok || err != nil {
		t.Errorf("Get() = (%v, %v), want miss", ok, err)
	}
}

func TestKeys_Stable(t *testing.T) {
	a := LayoutKey(42, 110, 100)
	b := LayoutKey(42, 110, 100)
	if a != b {
		t.Errorf("LayoutKey not deterministic: %s vs %s", a, b)
	}
	if a == LayoutKey(42, 120, 100) {
		t.Error("LayoutKey ignores spacing")
	}
	if a == LayoutKey(43, 110, 100) {
		t.Error("LayoutKey ignores fingerprint")
	}
}

func TestExpandedHash_OrderIndependent(t *testing.T) {
	a := ExpandedHash([]string{"x", "y", "z"})
	b := ExpandedHash([]string{"z", "x", "y"})
	if a != b {
		t.Errorf("ExpandedHash order dependent: %s vs %s", a, b)
	}
	if a == ExpandedHash([]string{"x", "y"}) {
		t.Error("ExpandedHash ignores membership")
	}
}

func TestFrameKey_Inputs(t *testing.T) {
	h := ExpandedHash([]string{"main"})
	base := FrameKey(1, h, 3000)
	if base != FrameKey(1, h, 3000) {
		t.Error("FrameKey not deterministic")
	}
	if base == FrameKey(1, h, 100) {
		t.Error("FrameKey ignores chunk size")
	}
	if base == FrameKey(2, h, 3000) {
		t.Error("FrameKey ignores fingerprint")
	}
}

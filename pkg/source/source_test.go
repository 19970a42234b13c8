package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/canopyviz/canopy/pkg/tree"
)

func TestReadRecords(t *testing.T) {
	const input = `[
	  {"id": "main", "name": "Main Node", "description": "Root of the hierarchy", "parent": {"level-1": "main"}},
	  {"id": "1", "name": "Branch 1", "parent": {"level-1": "main", "level-2": "1"}}
	]`

	records, err := ReadRecords(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadRecords() error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0].Name != "Main Node" || records[0].Parent["level-1"] != "main" {
		t.Errorf("records[0] = %+v", records[0])
	}
}

func TestReadRecords_Invalid(t *testing.T) {
	if _, err := ReadRecords(strings.NewReader("{not json")); err == nil {
		t.Error("ReadRecords() accepted malformed input")
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	records := Generate(GenOptions{Branches: 2, NodesPerBranch: 10})

	if err := WriteRecords(records, path); err != nil {
		t.Fatalf("WriteRecords() error: %v", err)
	}
	got, err := LoadRecords(path)
	if err != nil {
		t.Fatalf("LoadRecords() error: %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("len = %d, want %d", len(got), len(records))
	}
	for i := range records {
		if got[i].ID != records[i].ID {
			t.Fatalf("record %d id = %s, want %s", i, got[i].ID, records[i].ID)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate(DefaultGenOptions())
	b := Generate(DefaultGenOptions())
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Name != b[i].Name {
			t.Fatalf("record %d differs across runs", i)
		}
	}
}

func TestGenerate_BuildsSingleRootedTree(t *testing.T) {
	records := Generate(DefaultGenOptions())
	tr := tree.Build(records)

	root, ok := tr.Root()
	if !ok {
		t.Fatal("generated data has no root")
	}
	if root.ID != "main" {
		t.Errorf("root = %s, want main", root.ID)
	}
	if len(tr.LevelIDs(0)) != 1 {
		t.Errorf("level 0 has %d nodes, want 1", len(tr.LevelIDs(0)))
	}
	if got := len(tr.LevelIDs(1)); got != 4 {
		t.Errorf("level 1 has %d nodes, want 4 branches", got)
	}
	// Everything must be reachable when fully expanded.
	visible := tree.ComputeVisible(tr, tree.ExpandAll(tr))
	if len(visible) != tr.NodeCount() {
		t.Errorf("reachable = %d, want %d", len(visible), tr.NodeCount())
	}
	// 4 branches × (4 + 16 + 64 + 128) intermediates/leaves + root + branches.
	if got := tr.NodeCount(); got != 853 {
		t.Errorf("NodeCount() = %d, want 853", got)
	}
}

func TestGenerate_CapCountsLeavesOnly(t *testing.T) {
	// The per-branch cap applies to leaf nodes; intermediates are free.
	records := Generate(GenOptions{Branches: 2, NodesPerBranch: 20})

	leaves := 0
	for _, r := range records {
		if strings.HasPrefix(r.Name, "name-") {
			leaves++
		}
	}
	if leaves != 40 {
		t.Errorf("leaf count = %d, want 40 (20 per branch)", leaves)
	}
	// root + 2×(1 branch + 1 level-3 + 3 level-4 + 10 level-5 + 20 leaves)
	if len(records) != 71 {
		t.Errorf("len(records) = %d, want 71", len(records))
	}
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.json")
	if err := os.WriteFile(path, []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan struct{}, 1)
	w := NewWatcher(path, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}, WithDebounce(50*time.Millisecond))

	if err := w.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte(`[{"id":"main"}]`), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification within 5s")
	}
}

func TestWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.json")
	if err := os.WriteFile(path, []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan struct{}, 1)
	w := NewWatcher(path, func() { changed <- struct{}{} }, WithDebounce(30*time.Millisecond))
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
		t.Error("notified for a sibling file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_CloseThenStart(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "x.json"), func() {})
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := w.Start(); err != ErrWatcherClosed {
		t.Errorf("Start() after Close = %v, want ErrWatcherClosed", err)
	}
}

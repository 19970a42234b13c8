package tree

import (
	"slices"
	"testing"
)

// twoNode is the minimal hierarchy: a root and one child, each record
// restating the full chain down to itself.
func twoNode() []Record {
	return []Record{
		{ID: "main", Name: "Main Node", Parent: map[string]string{"level-0": "main"}},
		{ID: "main.1", Parent: map[string]string{"level-0": "main", "level-1": "main.1"}},
	}
}

func TestBuild_TwoNodes(t *testing.T) {
	tr := Build(twoNode())

	if tr.NodeCount() != 2 {
		t.Fatalf("NodeCount() = %d, want 2", tr.NodeCount())
	}

	root, ok := tr.Node("main")
	if !ok {
		t.Fatal("root node missing")
	}
	if root.Level != 0 || root.ParentID != "" {
		t.Errorf("root = {level:%d parent:%q}, want {level:0 parent:\"\"}", root.Level, root.ParentID)
	}
	if !slices.Equal(root.Children, []string{"main.1"}) {
		t.Errorf("root.Children = %v, want [main.1]", root.Children)
	}

	child, ok := tr.Node("main.1")
	if !ok {
		t.Fatal("child node missing")
	}
	if child.Level != 1 || child.ParentID != "main" {
		t.Errorf("child = {level:%d parent:%q}, want {level:1 parent:main}", child.Level, child.ParentID)
	}
	if len(child.Children) != 0 {
		t.Errorf("child.Children = %v, want empty", child.Children)
	}
}

func TestBuild_PlaceholderMetadata(t *testing.T) {
	// "b" appears only inside a chain and never as its own record,
	// so it gets deterministic placeholder metadata.
	records := []Record{
		{ID: "c", Parent: map[string]string{"level-1": "a", "level-2": "b", "level-3": "c"}},
		{ID: "a", Name: "Alpha", Description: "top", Parent: map[string]string{"level-1": "a"}},
	}
	tr := Build(records)

	b, ok := tr.Node("b")
	if !ok {
		t.Fatal("node b missing")
	}
	if b.Label != "Node b" {
		t.Errorf("b.Label = %q, want %q", b.Label, "Node b")
	}
	if b.Description != "Description for b" {
		t.Errorf("b.Description = %q, want %q", b.Description, "Description for b")
	}

	// Metadata is indexed over the whole collection before chains are
	// walked, so a's record applies even though the chain saw it first.
	a, _ := tr.Node("a")
	if a.Label != "Alpha" || a.Description != "top" {
		t.Errorf("a = {%q, %q}, want {Alpha, top}", a.Label, a.Description)
	}
}

func TestBuild_ConflictingChains(t *testing.T) {
	// The first chain pins "x" at level 1 under "a". The second chain
	// claims x at level 2 under "b"; it must not re-parent or re-level
	// x, only add the extra child edge b→x.
	records := []Record{
		{ID: "x", Parent: map[string]string{"level-1": "a", "level-2": "x"}},
		{ID: "x2", Parent: map[string]string{"level-1": "a", "level-2": "b", "level-3": "x"}},
	}
	tr := Build(records)

	x, _ := tr.Node("x")
	if x.Level != 1 {
		t.Errorf("x.Level = %d, want 1 (first writer wins)", x.Level)
	}
	if x.ParentID != "a" {
		t.Errorf("x.ParentID = %q, want a (first writer wins)", x.ParentID)
	}

	b, _ := tr.Node("b")
	if !slices.Contains(b.Children, "x") {
		t.Errorf("b.Children = %v, want to contain x", b.Children)
	}
}

func TestBuild_DuplicateEdgesRejected(t *testing.T) {
	// Every record under the same parent restates the parent chain, so
	// the same (parent, child) pair is seen many times. It must be
	// linked exactly once, preserving insertion order.
	records := []Record{
		{ID: "1", Parent: map[string]string{"level-1": "main", "level-2": "1"}},
		{ID: "1.1", Parent: map[string]string{"level-1": "main", "level-2": "1", "level-3": "1.1"}},
		{ID: "1.2", Parent: map[string]string{"level-1": "main", "level-2": "1", "level-3": "1.2"}},
		{ID: "2", Parent: map[string]string{"level-1": "main", "level-2": "2"}},
	}
	tr := Build(records)

	root, _ := tr.Node("main")
	if !slices.Equal(root.Children, []string{"1", "2"}) {
		t.Errorf("root.Children = %v, want [1 2]", root.Children)
	}
	one, _ := tr.Node("1")
	if !slices.Equal(one.Children, []string{"1.1", "1.2"}) {
		t.Errorf("1.Children = %v, want [1.1 1.2]", one.Children)
	}
}

func TestBuild_SkipsRecordsWithoutChains(t *testing.T) {
	records := []Record{
		{ID: "orphan"}, // no parent map: contributes nothing
		{ID: "main", Parent: map[string]string{"level-1": "main"}},
	}
	tr := Build(records)

	if tr.NodeCount() != 1 {
		t.Errorf("NodeCount() = %d, want 1", tr.NodeCount())
	}
	if _, ok := tr.Node("orphan"); ok {
		t.Error("orphan record created a node, want skipped")
	}
}

func TestBuild_Empty(t *testing.T) {
	tr := Build(nil)
	if tr.NodeCount() != 0 {
		t.Errorf("NodeCount() = %d, want 0", tr.NodeCount())
	}
	if _, ok := tr.Root(); ok {
		t.Error("Root() found a root in an empty tree")
	}
}

func TestBuild_LevelIndex(t *testing.T) {
	records := []Record{
		{ID: "main", Parent: map[string]string{"level-1": "main"}},
		{ID: "a", Parent: map[string]string{"level-1": "main", "level-2": "a"}},
		{ID: "b", Parent: map[string]string{"level-1": "main", "level-2": "b"}},
		{ID: "a.1", Parent: map[string]string{"level-1": "main", "level-2": "a", "level-3": "a.1"}},
	}
	tr := Build(records)

	if got := tr.LevelIDs(1); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("LevelIDs(1) = %v, want [a b]", got)
	}
	if got := tr.Levels(); !slices.Equal(got, []int{0, 1, 2}) {
		t.Errorf("Levels() = %v, want [0 1 2]", got)
	}
	if got := tr.MaxLevel(); got != 2 {
		t.Errorf("MaxLevel() = %d, want 2", got)
	}
}

func TestBuild_Idempotent(t *testing.T) {
	records := twoNode()
	a := Build(records)
	b := Build(records)

	if !slices.Equal(a.IDs(), b.IDs()) {
		t.Fatalf("IDs differ: %v vs %v", a.IDs(), b.IDs())
	}
	for _, id := range a.IDs() {
		na, _ := a.Node(id)
		nb, _ := b.Node(id)
		if na.Level != nb.Level || na.ParentID != nb.ParentID || !slices.Equal(na.Children, nb.Children) {
			t.Errorf("node %s differs between builds", id)
		}
	}
}

func TestBuildCache(t *testing.T) {
	var c BuildCache
	records := twoNode()

	first := c.Build(records)
	second := c.Build(records)
	if first != second {
		t.Error("same collection rebuilt, want cached tree")
	}

	other := twoNode()
	third := c.Build(other)
	if third == first {
		t.Error("different collection returned cached tree, want rebuild")
	}

	c.Invalidate()
	fourth := c.Build(other)
	if fourth == third {
		t.Error("Invalidate() did not force a rebuild")
	}
}

package tree

import (
	"fmt"
	"slices"
	"testing"

	"pgregory.net/rapid"
)

// recordsGen draws a random record collection. Chains share a common
// root and reuse ids across records, so first-writer-wins conflicts and
// duplicate edges actually occur.
func recordsGen() *rapid.Generator[[]Record] {
	return rapid.Custom(func(t *rapid.T) []Record {
		idPool := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-z][a-z0-9]{0,3}`), 2, 12, rapid.ID[string]).Draw(t, "ids")
		n := rapid.IntRange(1, 20).Draw(t, "n")

		records := make([]Record, 0, n)
		for i := 0; i < n; i++ {
			depth := rapid.IntRange(1, 5).Draw(t, fmt.Sprintf("depth%d", i))
			parent := make(map[string]string, depth)
			parent["level-1"] = idPool[0] // shared root
			for d := 2; d <= depth; d++ {
				pick := rapid.IntRange(0, len(idPool)-1).Draw(t, fmt.Sprintf("pick%d_%d", i, d))
				parent[fmt.Sprintf("level-%d", d)] = idPool[pick]
			}
			records = append(records, Record{ID: idPool[len(idPool)-1], Parent: parent})
		}
		return records
	})
}

func TestBuildIdempotenceProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		records := recordsGen().Draw(t, "records")
		a := Build(records)
		b := Build(records)

		if !slices.Equal(a.IDs(), b.IDs()) {
			t.Fatalf("id order differs: %v vs %v", a.IDs(), b.IDs())
		}
		for _, id := range a.IDs() {
			na, _ := a.Node(id)
			nb, _ := b.Node(id)
			if na.Level != nb.Level || na.ParentID != nb.ParentID || !slices.Equal(na.Children, nb.Children) {
				t.Fatalf("node %s differs between identical builds", id)
			}
		}
	})
}

func TestChildListsDistinctProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		records := recordsGen().Draw(t, "records")
		tr := Build(records)

		for _, id := range tr.IDs() {
			n, _ := tr.Node(id)
			seen := make(map[string]bool, len(n.Children))
			for _, c := range n.Children {
				if seen[c] {
					t.Fatalf("node %s has duplicate child %s", id, c)
				}
				seen[c] = true
			}
		}
	})
}

func TestAncestorGatingProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		records := recordsGen().Draw(t, "records")
		tr := Build(records)
		root, ok := tr.Root()
		if !ok {
			t.Skip("rootless tree")
		}

		// Random expanded subset.
		expanded := ExpandedSet{}
		for _, id := range tr.IDs() {
			if rapid.Bool().Draw(t, "exp_"+id) {
				expanded[id] = struct{}{}
			}
		}

		visible := ComputeVisible(tr, expanded)
		if !visible.Has(root.ID) {
			t.Fatal("root not visible")
		}
		for id := range visible {
			if id == root.ID {
				continue
			}
			n, _ := tr.Node(id)
			if !visible.Has(n.ParentID) {
				t.Fatalf("visible node %s has hidden parent %s", id, n.ParentID)
			}
			if !expanded.Has(n.ParentID) {
				t.Fatalf("visible node %s has collapsed parent %s", id, n.ParentID)
			}
		}
	})
}

func TestVisibilityMonotonicityProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		records := recordsGen().Draw(t, "records")
		tr := Build(records)
		if _, ok := tr.Root(); !ok {
			t.Skip("rootless tree")
		}

		subset := ExpandedSet{}
		for _, id := range tr.IDs() {
			if rapid.Bool().Draw(t, "sub_"+id) {
				subset[id] = struct{}{}
			}
		}

		some := ComputeVisible(tr, subset)
		all := ComputeVisible(tr, ExpandAll(tr))
		for id := range some {
			if !all.Has(id) {
				t.Fatalf("node %s visible under subset but not under ExpandAll", id)
			}
		}
	})
}

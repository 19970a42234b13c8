package layout

import (
	"reflect"
	"testing"

	"pgregory.net/rapid"

	"github.com/canopyviz/canopy/pkg/tree"
)

func smallTree() *tree.Tree {
	return tree.Build([]tree.Record{
		{ID: "main", Parent: map[string]string{"level-0": "main"}},
		{ID: "a", Parent: map[string]string{"level-0": "main", "level-1": "a"}},
		{ID: "b", Parent: map[string]string{"level-0": "main", "level-1": "b"}},
	})
}

func TestCompute_Grid(t *testing.T) {
	positions := Compute(smallTree(), 110, 100)

	tests := []struct {
		id   string
		want Position
	}{
		{"main", Position{X: 0, Y: 0}},
		{"a", Position{X: -55, Y: 100}},
		{"b", Position{X: 55, Y: 100}},
	}
	for _, tt := range tests {
		got, ok := positions[tt.id]
		if !ok {
			t.Fatalf("no position for %s", tt.id)
		}
		if got != tt.want {
			t.Errorf("positions[%s] = %+v, want %+v", tt.id, got, tt.want)
		}
	}
}

func TestCompute_EmptyTree(t *testing.T) {
	positions := Compute(tree.Build(nil), 110, 100)
	if len(positions) != 0 {
		t.Errorf("len(positions) = %d, want 0", len(positions))
	}
}

func TestCompute_Deterministic(t *testing.T) {
	tr := smallTree()
	first := Compute(tr, 110, 100)
	for i := 0; i < 10; i++ {
		if got := Compute(tr, 110, 100); !reflect.DeepEqual(got, first) {
			t.Fatalf("Compute() unstable across calls")
		}
	}
}

func TestFingerprint(t *testing.T) {
	a := tree.Build([]tree.Record{
		{ID: "main", Parent: map[string]string{"level-0": "main"}},
		{ID: "x", Parent: map[string]string{"level-0": "main", "level-1": "x"}},
	})
	b := tree.Build([]tree.Record{
		// Same ids reached through differently-keyed chains.
		{ID: "x", Parent: map[string]string{"level-3": "main", "level-7": "x"}},
	})
	c := tree.Build([]tree.Record{
		{ID: "main", Parent: map[string]string{"level-0": "main"}},
	})

	if Fingerprint(a) != Fingerprint(b) {
		t.Error("trees with identical id sets have different fingerprints")
	}
	if Fingerprint(a) == Fingerprint(c) {
		t.Error("trees with different id sets share a fingerprint")
	}
}

func TestEngine_Cache(t *testing.T) {
	e := NewEngine()
	tr := smallTree()

	first := e.Layout(tr)
	if !e.CacheHit(tr) {
		t.Error("CacheHit() = false after Layout")
	}

	// Structurally identical rebuild: cache must hold.
	same := smallTree()
	second := e.Layout(same)
	if !reflect.DeepEqual(first, second) {
		t.Error("cached layout differs from recomputed layout")
	}

	// Structural change: cache must miss.
	grown := tree.Build([]tree.Record{
		{ID: "main", Parent: map[string]string{"level-0": "main"}},
		{ID: "a", Parent: map[string]string{"level-0": "main", "level-1": "a"}},
		{ID: "b", Parent: map[string]string{"level-0": "main", "level-1": "b"}},
		{ID: "c", Parent: map[string]string{"level-0": "main", "level-1": "c"}},
	})
	if e.CacheHit(grown) {
		t.Error("CacheHit() = true for a structurally different tree")
	}
	third := e.Layout(grown)
	if len(third) != 4 {
		t.Errorf("len(layout) = %d, want 4", len(third))
	}

	e.Invalidate()
	if e.CacheHit(grown) {
		t.Error("CacheHit() = true after Invalidate")
	}
}

func TestEngine_Spacing(t *testing.T) {
	e := NewEngine(WithSpacing(50, 20))
	positions := e.Layout(smallTree())

	if got := positions["a"]; got != (Position{X: -25, Y: 20}) {
		t.Errorf("positions[a] = %+v, want {-25 20}", got)
	}
}

func TestLayoutDeterminismProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 40).Draw(t, "n")
		records := make([]tree.Record, 0, n+1)
		records = append(records, tree.Record{ID: "root", Parent: map[string]string{"level-1": "root"}})
		parentOf := []string{"root"}
		for i := 0; i < n; i++ {
			id := rapid.StringMatching(`[a-z]{1,4}`).Draw(t, "id")
			pick := rapid.IntRange(0, len(parentOf)-1).Draw(t, "pick")
			records = append(records, tree.Record{ID: id, Parent: map[string]string{
				"level-1": "root",
				"level-2": parentOf[pick],
				"level-3": id,
			}})
			parentOf = append(parentOf, id)
		}

		tr := tree.Build(records)
		a := Compute(tr, DefaultSpacingX, DefaultSpacingY)
		b := Compute(tree.Build(records), DefaultSpacingX, DefaultSpacingY)
		if !reflect.DeepEqual(a, b) {
			t.Fatal("layout differs across identical builds")
		}
	})
}

package wire

import (
	"slices"
	"strings"
	"testing"

	"github.com/canopyviz/canopy/pkg/materialize"
	"github.com/canopyviz/canopy/pkg/tree"
)

func sampleTree() *tree.Tree {
	return tree.Build([]tree.Record{
		{ID: "main", Name: "Main Node", Description: "Root of the hierarchy", Parent: map[string]string{"level-1": "main"}},
		{ID: "1", Name: "Branch 1", Parent: map[string]string{"level-1": "main", "level-2": "1"}},
		{ID: "1.1", Parent: map[string]string{"level-1": "main", "level-2": "1", "level-3": "1.1"}},
	})
}

func TestTreeRoundTrip(t *testing.T) {
	original := sampleTree()

	data, err := MarshalTree(original)
	if err != nil {
		t.Fatalf("MarshalTree() error: %v", err)
	}

	doc, err := ReadTreeDoc(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("ReadTreeDoc() error: %v", err)
	}
	restored := doc.ToTree()

	if !slices.Equal(restored.IDs(), original.IDs()) {
		t.Fatalf("restored ids = %v, want %v", restored.IDs(), original.IDs())
	}
	for _, id := range original.IDs() {
		a, _ := original.Node(id)
		b, _ := restored.Node(id)
		if a.Level != b.Level || a.ParentID != b.ParentID || a.Label != b.Label {
			t.Errorf("node %s: restored {%d %q %q}, want {%d %q %q}",
				id, b.Level, b.ParentID, b.Label, a.Level, a.ParentID, a.Label)
		}
		if !slices.Equal(a.Children, b.Children) {
			t.Errorf("node %s: restored children %v, want %v", id, b.Children, a.Children)
		}
	}
}

func TestRestore_PreservesConflictingLevels(t *testing.T) {
	// A first-writer-wins build can leave a node whose level is not
	// parent level + 1. Restore must carry it verbatim.
	states := []tree.NodeState{
		{ID: "a", Level: 0, Children: []string{"x"}},
		{ID: "x", Level: 4, ParentID: "a"},
	}
	restored := tree.Restore(states)

	x, ok := restored.Node("x")
	if !ok {
		t.Fatal("x missing after restore")
	}
	if x.Level != 4 || x.ParentID != "a" {
		t.Errorf("x = {level:%d parent:%q}, want {level:4 parent:a}", x.Level, x.ParentID)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	frame := Frame{
		Nodes: []materialize.NodeDescriptor{
			{ID: "main", Label: "Main", Expanded: true, HasChildren: true},
		},
		Edges:    []materialize.EdgeDescriptor{{ID: "main-1", Source: "main", Target: "1"}},
		Progress: 40,
	}

	data, err := MarshalFrame(frame)
	if err != nil {
		t.Fatalf("MarshalFrame() error: %v", err)
	}
	got, err := UnmarshalFrame(data)
	if err != nil {
		t.Fatalf("UnmarshalFrame() error: %v", err)
	}

	if got.Progress != 40 || len(got.Nodes) != 1 || len(got.Edges) != 1 {
		t.Errorf("round-tripped frame = %+v", got)
	}
	if got.Nodes[0].ID != "main" || !got.Nodes[0].Expanded {
		t.Errorf("round-tripped node = %+v", got.Nodes[0])
	}
}

func TestToDOT(t *testing.T) {
	tr := sampleTree()

	dot := ToDOT(tr, DOTOptions{})
	for _, want := range []string{`"main"`, `"1" -> "1.1"`, `"main" -> "1"`} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %s:\n%s", want, dot)
		}
	}
}

func TestToDOT_VisibleOnly(t *testing.T) {
	tr := sampleTree()
	visible := tree.ComputeVisible(tr, tree.NewExpandedSet("main")) // 1.1 hidden

	dot := ToDOT(tr, DOTOptions{Visible: visible})
	if strings.Contains(dot, `"1.1"`) {
		t.Errorf("DOT contains hidden node:\n%s", dot)
	}
	if !strings.Contains(dot, `"main" -> "1"`) {
		t.Errorf("DOT missing visible edge:\n%s", dot)
	}
}

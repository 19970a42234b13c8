package cli

import (
	"testing"
	"time"

	"github.com/canopyviz/canopy/pkg/source"
	"github.com/canopyviz/canopy/pkg/tree"
)

func newTestTreeModel(t *testing.T) *treeModel {
	t.Helper()
	records := source.Generate(source.GenOptions{Branches: 2, NodesPerBranch: 20})
	return newTreeModel(tree.Build(records), treeModelOptions{chunk: 5})
}

// drainFrames feeds arriving frames through Update until the model
// reaches progress 100 or the deadline passes.
func drainFrames(t *testing.T, m *treeModel, timeout time.Duration) *treeModel {
	t.Helper()
	deadline := time.After(timeout)
	for m.progress < 100 {
		select {
		case f := <-m.frames:
			model, _ := m.Update(frameMsg(f))
			m = model.(*treeModel)
		case <-deadline:
			t.Fatalf("no terminal frame within %s, stuck at %d%%", timeout, m.progress)
		}
	}
	return m
}

func TestViewModel_TerminalFrameDelivered(t *testing.T) {
	m := newTestTreeModel(t)
	m.expanded = tree.ExpandAll(m.tree)
	m.refresh()
	defer m.mat.Cancel()

	m = drainFrames(t, m, 5*time.Second)

	// Every batch must land; the terminal frame carries the full view.
	if len(m.rows) != m.tree.NodeCount() {
		t.Errorf("rows after terminal frame = %d, want %d", len(m.rows), m.tree.NodeCount())
	}
	if m.progress != 100 {
		t.Errorf("progress = %d, want 100", m.progress)
	}
}

func TestViewModel_StaleGenerationDiscarded(t *testing.T) {
	m := newTestTreeModel(t)

	// Start a large materialization, then immediately replace it with
	// the collapsed view. Frames from the first generation may still
	// arrive but must not commit.
	m.expanded = tree.ExpandAll(m.tree)
	m.refresh()
	m.expanded = tree.CollapseAll(m.tree)
	m.refresh()
	defer m.mat.Cancel()

	m = drainFrames(t, m, 5*time.Second)

	want := len(tree.ComputeVisible(m.tree, m.expanded))
	if len(m.rows) != want {
		t.Errorf("rows = %d, want collapsed view of %d", len(m.rows), want)
	}
}

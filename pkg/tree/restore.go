package tree

// NodeState is the full serialized state of one node, used to restore a
// tree exactly as it was built, including first-writer-wins levels that
// disagree with the parent chain's depth.
type NodeState struct {
	ID          string
	Label       string
	Description string
	Level       int
	ParentID    string
	Children    []string
}

// Restore rebuilds a tree from node states listed in creation order.
// Unlike Build, nothing is derived: levels, parents, and child order
// are taken verbatim. Duplicate ids and duplicate children are dropped,
// keeping the first occurrence, so a restored tree always satisfies the
// same invariants as a built one.
func Restore(states []NodeState) *Tree {
	t := newTree()
	for _, s := range states {
		if s.ID == "" {
			continue
		}
		if _, exists := t.nodes[s.ID]; exists {
			continue
		}
		t.add(s.ID, s.Label, s.Description, s.Level, s.ParentID)
	}
	for _, s := range states {
		for _, c := range s.Children {
			if _, ok := t.nodes[s.ID]; !ok {
				break
			}
			if _, ok := t.nodes[c]; !ok || c == s.ID {
				continue
			}
			t.link(s.ID, c)
		}
	}
	return t
}

package tree

// VisibleSet is the set of node ids currently reachable under an
// expand/collapse state. It is a pure function of (Tree, ExpandedSet);
// order is not part of its contract.
type VisibleSet map[string]struct{}

// Has reports whether id is visible.
func (s VisibleSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// ComputeVisible resolves the reachable node set: the root is always
// visible, and a node's children become visible only while the node is
// a member of expanded. Nodes behind a collapsed ancestor are never
// reached. A tree without a root yields an empty set, not an error.
//
// The traversal is an iterative breadth-first walk with an explicit
// queue; chain depth can approach node count, so recursion is off the
// table. A node can be linked under more than one parent (later chains
// contribute extra child edges), so membership in the result doubles as
// the enqueue guard: each id is enqueued at most once, and cross-link
// cycles terminate.
func ComputeVisible(t *Tree, expanded ExpandedSet) VisibleSet {
	visible := make(VisibleSet)
	root, ok := t.Root()
	if !ok {
		return visible
	}

	queue := make([]string, 0, len(expanded)+1)
	queue = append(queue, root.ID)
	visible[root.ID] = struct{}{}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if !expanded.Has(id) {
			continue
		}
		for _, child := range t.Children(id) {
			if visible.Has(child) {
				continue
			}
			visible[child] = struct{}{}
			queue = append(queue, child)
		}
	}
	return visible
}

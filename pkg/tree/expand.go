package tree

import "maps"

// ExpandedSet is the set of node ids currently open. It is mutated only
// through Toggle, ExpandAll, and CollapseAll, all of which return a new
// set and leave their input untouched.
type ExpandedSet map[string]struct{}

// NewExpandedSet creates an expanded set containing the given ids.
func NewExpandedSet(ids ...string) ExpandedSet {
	s := make(ExpandedSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is expanded.
func (s ExpandedSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the member ids in unspecified order.
func (s ExpandedSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	return ids
}

// Toggle flips membership of id and returns the resulting set.
// Toggling an id with no children is harmless: visibility does not
// change, so callers need not pre-filter by HasChildren.
func Toggle(s ExpandedSet, id string) ExpandedSet {
	out := make(ExpandedSet, len(s)+1)
	maps.Copy(out, s)
	if _, ok := out[id]; ok {
		delete(out, id)
	} else {
		out[id] = struct{}{}
	}
	return out
}

// ExpandAll returns an expanded set containing every id in the tree.
func ExpandAll(t *Tree) ExpandedSet {
	s := make(ExpandedSet, t.NodeCount())
	for _, id := range t.order {
		s[id] = struct{}{}
	}
	return s
}

// CollapseAll returns an expanded set containing only the root id, so
// that exactly the root remains visible. For a rootless tree the result
// is empty.
func CollapseAll(t *Tree) ExpandedSet {
	root, ok := t.Root()
	if !ok {
		return ExpandedSet{}
	}
	return NewExpandedSet(root.ID)
}

package tree

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrNoRoot is returned by operations that require a level-0 node
	// when the tree has none. Most consumers treat this as an empty
	// result instead of an error; see ComputeVisible.
	ErrNoRoot = errors.New("tree has no root node")

	// ErrUnknownNode is returned when an operation references an id
	// that does not exist in the tree.
	ErrUnknownNode = errors.New("unknown node")
)

// Node is a single vertex of the reconstructed hierarchy.
//
// Level and ParentID are fixed when the node is first created and never
// change afterwards, regardless of what later chains claim (first-writer-wins).
// Children grows during the build pass only; after Build returns, nodes
// are immutable.
type Node struct {
	ID          string
	Label       string
	Description string
	Level       int    // 0-based depth, fixed at creation
	ParentID    string // empty for the root, fixed at creation
	Children    []string
	Order       int // creation-order index across the whole tree
}

// ChildCount returns the number of distinct children.
func (n *Node) ChildCount() int { return len(n.Children) }

// HasChildren reports whether the node has at least one child.
func (n *Node) HasChildren() bool { return len(n.Children) > 0 }

// Tree is the canonical node map plus a level index enabling O(1)
// per-level iteration. It is mutated only by the builder during a single
// build pass and is read-only afterwards; no locking is needed because
// there is no parallel mutation.
type Tree struct {
	nodes  map[string]*Node
	levels map[int][]string    // level → ids in creation order
	order  []string            // all ids in creation order
	edges  map[string]struct{} // "<parent>\x00<child>" pairs already linked
}

func newTree() *Tree {
	return &Tree{
		nodes:  make(map[string]*Node),
		levels: make(map[int][]string),
		edges:  make(map[string]struct{}),
	}
}

// add creates a node with fixed level and parent. The caller guarantees
// the id is not yet present.
func (t *Tree) add(id, label, description string, level int, parentID string) *Node {
	n := &Node{
		ID:          id,
		Label:       label,
		Description: description,
		Level:       level,
		ParentID:    parentID,
		Order:       len(t.order),
	}
	t.nodes[id] = n
	t.levels[level] = append(t.levels[level], id)
	t.order = append(t.order, id)
	return n
}

// link appends child to parent's child list exactly once per distinct
// (parent, child) pair. Insertion order is preserved; duplicates are
// silently rejected.
func (t *Tree) link(parentID, childID string) {
	key := parentID + "\x00" + childID
	if _, dup := t.edges[key]; dup {
		return
	}
	t.edges[key] = struct{}{}
	t.nodes[parentID].Children = append(t.nodes[parentID].Children, childID)
}

// Node returns the node with the given id, or nil and false if absent.
func (t *Tree) Node(id string) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Root returns the unique level-0 node. The second return is false when
// the tree is empty or no chain ever produced a level-0 node.
func (t *Tree) Root() (*Node, bool) {
	ids := t.levels[0]
	if len(ids) == 0 {
		return nil, false
	}
	return t.nodes[ids[0]], true
}

// NodeCount returns the number of nodes in the tree.
func (t *Tree) NodeCount() int { return len(t.nodes) }

// EdgeCount returns the number of distinct parent→child links.
func (t *Tree) EdgeCount() int { return len(t.edges) }

// IDs returns all node ids in creation order. The returned slice is a
// copy and safe to modify.
func (t *Tree) IDs() []string { return slices.Clone(t.order) }

// LevelIDs returns the ids assigned to the given level, in creation
// order. Returns nil for an empty level. The returned slice must be
// treated as read-only.
func (t *Tree) LevelIDs(level int) []string { return t.levels[level] }

// Levels returns all populated level indices in ascending order.
func (t *Tree) Levels() []int {
	return slices.Sorted(maps.Keys(t.levels))
}

// MaxLevel returns the deepest populated level, or 0 for an empty tree.
func (t *Tree) MaxLevel() int {
	max := 0
	for l := range t.levels {
		if l > max {
			max = l
		}
	}
	return max
}

// Children returns the ordered child ids of a node. Returns nil for
// leaves and unknown ids. The returned slice must be treated as read-only.
func (t *Tree) Children(id string) []string {
	if n, ok := t.nodes[id]; ok {
		return n.Children
	}
	return nil
}

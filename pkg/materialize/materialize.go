// Package materialize converts a resolved tree view into render-ready
// descriptor lists, committed in cancellable, fixed-size batches.
//
// Committing tens of thousands of descriptors in one go stalls whatever
// loop hosts the presentation layer, so the full candidate lists are
// computed up front and then handed to the output callback as growing
// cumulative prefixes, one batch per scheduling turn. A new request
// cancels any in-flight sequence before the first batch of the new one;
// stale batches never commit.
package materialize

import (
	"fmt"

	"github.com/canopyviz/canopy/pkg/layout"
	"github.com/canopyviz/canopy/pkg/tree"
)

// DefaultChunkSize is the number of node descriptors committed per batch.
const DefaultChunkSize = 3000

// NodeDescriptor is one render-ready node.
type NodeDescriptor struct {
	ID          string          `json:"id" bson:"id"`
	Label       string          `json:"label" bson:"label"`
	Description string          `json:"description,omitempty" bson:"description,omitempty"`
	Position    layout.Position `json:"position" bson:"position"`
	Expanded    bool            `json:"expanded" bson:"expanded"`
	HasChildren bool            `json:"has_children" bson:"has_children"`
}

// EdgeDescriptor is one render-ready edge between two visible nodes.
type EdgeDescriptor struct {
	ID     string `json:"id" bson:"id"` // "<source>-<target>"
	Source string `json:"source" bson:"source"`
	Target string `json:"target" bson:"target"`
}

// OnBatch receives each cumulative commit: the node and edge prefixes
// so far plus the monotonic progress percentage (0..100). The slices
// are shared across calls and must not be mutated by the receiver.
type OnBatch func(nodes []NodeDescriptor, edges []EdgeDescriptor, progress int)

// Candidates computes the full descriptor lists for the visible portion
// of the tree. Nodes appear in creation order, which guarantees every
// edge's source precedes its target (a parent is always created before
// its children). Edges are restricted to pairs with both endpoints
// visible and are ordered by target.
func Candidates(t *tree.Tree, visible tree.VisibleSet, positions map[string]layout.Position, expanded tree.ExpandedSet) ([]NodeDescriptor, []EdgeDescriptor) {
	nodes := make([]NodeDescriptor, 0, len(visible))
	edges := make([]EdgeDescriptor, 0, len(visible))

	for _, id := range t.IDs() {
		if !visible.Has(id) {
			continue
		}
		n, _ := t.Node(id)
		nodes = append(nodes, NodeDescriptor{
			ID:          n.ID,
			Label:       n.Label,
			Description: n.Description,
			Position:    positions[n.ID],
			Expanded:    expanded.Has(n.ID),
			HasChildren: n.HasChildren(),
		})
		if n.ParentID != "" && visible.Has(n.ParentID) {
			edges = append(edges, EdgeDescriptor{
				ID:     fmt.Sprintf("%s-%s", n.ParentID, n.ID),
				Source: n.ParentID,
				Target: n.ID,
			})
		}
	}
	return nodes, edges
}

// Prefix returns the cumulative slices exposed by batch k (1-based) for
// the given chunk size, plus the progress percentage after that batch.
// The node prefix is nodes[0, k·chunk); the edge prefix contains only
// edges whose target already lies within the node prefix - never a
// disjoint partial union. Progress is floor(committed/total·100) and is
// 100 for an empty candidate set.
func Prefix(nodes []NodeDescriptor, edges []EdgeDescriptor, chunk, k int) ([]NodeDescriptor, []EdgeDescriptor, int) {
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	if k < 1 {
		k = 1
	}

	end := k * chunk
	if end > len(nodes) {
		end = len(nodes)
	}

	inPrefix := make(map[string]struct{}, end)
	for _, n := range nodes[:end] {
		inPrefix[n.ID] = struct{}{}
	}
	eend := 0
	for eend < len(edges) {
		if _, ok := inPrefix[edges[eend].Target]; !ok {
			break
		}
		eend++
	}

	progress := 100
	if len(nodes) > 0 {
		progress = end * 100 / len(nodes)
	}
	return nodes[:end], edges[:eend], progress
}

// BatchCount returns how many commits a candidate set of n nodes takes
// at the given chunk size. An empty set still takes one (empty,
// progress-100) commit.
func BatchCount(n, chunk int) int {
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	if n == 0 {
		return 1
	}
	return (n + chunk - 1) / chunk
}

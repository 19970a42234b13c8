// Package layout computes deterministic fixed-grid positions for a tree.
//
// Placement depends on tree structure alone: nodes are grouped by level
// and laid out left to right in creation order, each level centered on
// x = 0. Label size, subtree width, and the current expand/collapse
// state are deliberately ignored; this is grid placement, not general
// graph drawing. Because the input is structural only, positions are
// cached against an xxhash fingerprint of the id set and survive any
// number of visibility changes.
package layout

import "github.com/canopyviz/canopy/pkg/tree"

// Default spacing between grid slots, in canvas units.
const (
	DefaultSpacingX = 110.0
	DefaultSpacingY = 100.0
)

// Position is a fixed canvas coordinate for one node.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Compute places every node of the tree on the grid. For a level with n
// nodes the total width is (n-1)·sx; node i sits at
// x = -width/2 + i·sx, y = level·sy. Within a level, nodes are ordered
// by creation order, never by map iteration order, so repeated calls
// yield identical maps. An empty tree yields an empty map.
func Compute(t *tree.Tree, sx, sy float64) map[string]Position {
	positions := make(map[string]Position, t.NodeCount())
	for _, level := range t.Levels() {
		ids := t.LevelIDs(level)
		width := float64(len(ids)-1) * sx
		for i, id := range ids {
			positions[id] = Position{
				X: -width/2 + float64(i)*sx,
				Y: float64(level) * sy,
			}
		}
	}
	return positions
}

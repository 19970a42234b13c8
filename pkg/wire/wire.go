// Package wire defines the serialization formats for canopy data.
//
// Three documents cross process boundaries:
//
//   - [TreeDoc]: the reconstructed hierarchy (nodes with levels, parents,
//     ordered children), for files, the HTTP API, and snapshot storage
//   - [Frame]: one materialized commit (node/edge descriptors + progress),
//     the contract consumed by presentation layers
//   - [Snapshot]: a named saved view (tree + expanded ids)
//
// All types carry json and bson tags so the same structs serve files,
// API responses, and the MongoDB snapshot store.
package wire

import (
	"fmt"
	"io"
	"os"
	"time"

	json "github.com/goccy/go-json"

	"github.com/canopyviz/canopy/pkg/materialize"
	"github.com/canopyviz/canopy/pkg/tree"
)

// NodeDoc is the serialized form of one tree node.
type NodeDoc struct {
	ID          string   `json:"id" bson:"id"`
	Label       string   `json:"label,omitempty" bson:"label,omitempty"`
	Description string   `json:"description,omitempty" bson:"description,omitempty"`
	Level       int      `json:"level" bson:"level"`
	ParentID    string   `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
	Children    []string `json:"children,omitempty" bson:"children,omitempty"`
}

// TreeDoc is the canonical serialization of a reconstructed tree.
// Nodes are stored in creation order, which is enough to rebuild the
// level index and to reproduce layout exactly.
type TreeDoc struct {
	Nodes []NodeDoc `json:"nodes" bson:"nodes"`
}

// Frame is one materialized commit: the cumulative node and edge
// prefixes plus the progress percentage. The terminal frame of a
// sequence has Progress == 100 and carries the complete visible view.
type Frame struct {
	Nodes    []materialize.NodeDescriptor `json:"nodes" bson:"nodes"`
	Edges    []materialize.EdgeDescriptor `json:"edges" bson:"edges"`
	Progress int                          `json:"progress" bson:"progress"`
}

// Snapshot is a named saved view: the tree it was taken from and the
// expanded ids at save time.
type Snapshot struct {
	Name     string    `json:"name" bson:"name"`
	SavedAt  time.Time `json:"saved_at" bson:"saved_at"`
	Tree     TreeDoc   `json:"tree" bson:"tree"`
	Expanded []string  `json:"expanded,omitempty" bson:"expanded,omitempty"`
}

// FromTree converts a tree to its serialization format.
func FromTree(t *tree.Tree) TreeDoc {
	doc := TreeDoc{Nodes: make([]NodeDoc, 0, t.NodeCount())}
	for _, id := range t.IDs() {
		n, _ := t.Node(id)
		doc.Nodes = append(doc.Nodes, NodeDoc{
			ID:          n.ID,
			Label:       n.Label,
			Description: n.Description,
			Level:       n.Level,
			ParentID:    n.ParentID,
			Children:    n.Children,
		})
	}
	return doc
}

// ToTree restores the serialized tree exactly, including levels that a
// rebuild from chains could not reproduce.
func (d TreeDoc) ToTree() *tree.Tree {
	states := make([]tree.NodeState, len(d.Nodes))
	for i, n := range d.Nodes {
		states[i] = tree.NodeState{
			ID:          n.ID,
			Label:       n.Label,
			Description: n.Description,
			Level:       n.Level,
			ParentID:    n.ParentID,
			Children:    n.Children,
		}
	}
	return tree.Restore(states)
}

// MarshalTree serializes a tree to pretty-printed JSON bytes.
func MarshalTree(t *tree.Tree) ([]byte, error) {
	return json.MarshalIndent(FromTree(t), "", "  ")
}

// WriteTree writes a tree as JSON to w.
func WriteTree(t *tree.Tree, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromTree(t)); err != nil {
		return fmt.Errorf("encode tree: %w", err)
	}
	return nil
}

// WriteTreeFile writes a tree to a JSON file with 0644 permissions.
func WriteTreeFile(t *tree.Tree, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteTree(t, f)
}

// ReadTreeDoc decodes a TreeDoc from r.
func ReadTreeDoc(r io.Reader) (TreeDoc, error) {
	var doc TreeDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return TreeDoc{}, fmt.Errorf("decode tree: %w", err)
	}
	return doc, nil
}

// ReadTreeFile reads a JSON tree file and rebuilds the tree.
func ReadTreeFile(path string) (*tree.Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	doc, err := ReadTreeDoc(f)
	if err != nil {
		return nil, err
	}
	return doc.ToTree(), nil
}

// MarshalFrame serializes a frame to JSON bytes.
func MarshalFrame(f Frame) ([]byte, error) {
	return json.Marshal(f)
}

// UnmarshalFrame deserializes JSON bytes into a frame.
func UnmarshalFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("unmarshal frame: %w", err)
	}
	return f, nil
}

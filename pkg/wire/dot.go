package wire

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/canopyviz/canopy/pkg/tree"
)

// DOTOptions configures DOT generation.
type DOTOptions struct {
	// Visible restricts output to the given ids. Nil means every node.
	Visible tree.VisibleSet
	// Detailed includes level and description in node labels.
	Detailed bool
}

// ToDOT converts a tree to Graphviz DOT format. Edges follow the
// parent links; with a Visible set, both endpoints must be visible.
// The resulting string can be rendered with [RenderSVG] or [RenderPNG].
func ToDOT(t *tree.Tree, opts DOTOptions) string {
	include := func(id string) bool {
		return opts.Visible == nil || opts.Visible.Has(id)
	}

	var buf bytes.Buffer
	buf.WriteString("digraph canopy {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, id := range t.IDs() {
		if !include(id) {
			continue
		}
		n, _ := t.Node(id)
		label := n.Label
		if opts.Detailed {
			label = fmt.Sprintf("%s\nlevel: %d\n%s", n.Label, n.Level, n.Description)
		}
		fmt.Fprintf(&buf, "  %q [label=%q];\n", n.ID, label)
	}

	buf.WriteString("\n")
	for _, id := range t.IDs() {
		if !include(id) {
			continue
		}
		n, _ := t.Node(id)
		if n.ParentID == "" || !include(n.ParentID) {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", n.ParentID, n.ID)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return renderDOT(ctx, dot, graphviz.SVG)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderDOT(ctx, dot, graphviz.PNG)
}

func renderDOT(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

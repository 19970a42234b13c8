package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canopyviz/canopy/pkg/pipeline"
	"github.com/canopyviz/canopy/pkg/tree"
	"github.com/canopyviz/canopy/pkg/wire"
)

// Export formats.
const (
	formatSVG  = "svg"
	formatPNG  = "png"
	formatDOT  = "dot"
	formatJSON = "json"
)

// exportCommand creates the visualization export command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		data      string
		output    string
		format    string
		expandAll bool
		expanded  []string
		detailed  bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render the tree as SVG, PNG, DOT, or JSON",
		Long:  `Export rebuilds the tree and renders the visible portion. The default view is collapsed to the root and its children; --expanded opens specific nodes and --expand-all opens everything.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			p := newProgress(logger)

			if format == "" {
				format = formatFromPath(output)
			}
			switch format {
			case formatSVG, formatPNG, formatDOT, formatJSON:
			default:
				return fmt.Errorf("invalid format: %q (must be one of: svg, png, dot, json)", format)
			}

			runner, err := c.newRunner(ctx, true)
			if err != nil {
				return err
			}
			defer runner.Close()

			opts := pipeline.Options{
				Data:      c.dataPath(data),
				Expanded:  expanded,
				ExpandAll: expandAll,
				Logger:    logger,
			}
			records, err := runner.Load(ctx, opts)
			if err != nil {
				return err
			}
			t := tree.Build(records)
			visible := tree.ComputeVisible(t, opts.ExpandedSet(t))

			var artifact []byte
			switch format {
			case formatJSON:
				artifact, err = wire.MarshalTree(t)
			case formatDOT:
				artifact = []byte(wire.ToDOT(t, wire.DOTOptions{Visible: visible, Detailed: detailed}))
			case formatSVG:
				dot := wire.ToDOT(t, wire.DOTOptions{Visible: visible, Detailed: detailed})
				artifact, err = wire.RenderSVG(ctx, dot)
			case formatPNG:
				dot := wire.ToDOT(t, wire.DOTOptions{Visible: visible, Detailed: detailed})
				artifact, err = wire.RenderPNG(ctx, dot)
			}
			if err != nil {
				return fmt.Errorf("render %s: %w", format, err)
			}
			if err := os.WriteFile(output, artifact, 0644); err != nil {
				return err
			}

			p.done(fmt.Sprintf("Rendered %d visible nodes", len(visible)))
			printSuccess("Exported %s", format)
			printStats(t.NodeCount(), t.EdgeCount(), false)
			printDetail("visible: %d of %d", len(visible), t.NodeCount())
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "input record file (defaults to config)")
	cmd.Flags().StringVarP(&output, "output", "o", "tree.svg", "output file path")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: svg, png, dot, json (inferred from output path)")
	cmd.Flags().BoolVar(&expandAll, "expand-all", false, "show every node")
	cmd.Flags().StringSliceVar(&expanded, "expanded", nil, "node ids to expand")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include level and description in labels")

	return cmd
}

// formatFromPath infers the export format from the file extension.
func formatFromPath(path string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return formatSVG
	}
	return strings.ToLower(ext)
}

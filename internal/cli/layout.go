package cli

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/canopyviz/canopy/pkg/pipeline"
	"github.com/canopyviz/canopy/pkg/tree"
)

// layoutCommand creates the layout computation command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		data     string
		output   string
		spacingX float64
		spacingY float64
		noCache  bool
		refresh  bool
	)

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Compute grid positions for every node",
		Long:  `Layout rebuilds the tree and assigns each node a fixed grid position: siblings centered around their parent's column, one row per depth level. Positions are cached by the tree's structural fingerprint.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			p := newProgress(logger)

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			opts := pipeline.Options{
				Data:     c.dataPath(data),
				SpacingX: spacingX,
				SpacingY: spacingY,
				Refresh:  refresh,
				CacheTTL: c.cacheTTL(),
				Logger:   logger,
			}
			if spacingX == 0 {
				opts.SpacingX = c.cfg.Layout.SpacingX
			}
			if spacingY == 0 {
				opts.SpacingY = c.cfg.Layout.SpacingY
			}

			records, err := runner.Load(ctx, opts)
			if err != nil {
				return err
			}
			t := tree.Build(records)
			positions, hit, err := runner.ComputeLayoutWithCacheInfo(ctx, t, opts)
			if err != nil {
				return err
			}

			encoded, err := json.MarshalIndent(positions, "", "  ")
			if err != nil {
				return fmt.Errorf("encode positions: %w", err)
			}
			if err := os.WriteFile(output, encoded, 0644); err != nil {
				return err
			}

			p.done(fmt.Sprintf("Positioned %d nodes", len(positions)))
			printSuccess("Computed layout for %d nodes", len(positions))
			printStats(t.NodeCount(), t.EdgeCount(), hit)
			printDetail("spacing: %g × %g", opts.SpacingX, opts.SpacingY)
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "input record file (defaults to config)")
	cmd.Flags().StringVarP(&output, "output", "o", "positions.json", "output file path")
	cmd.Flags().Float64Var(&spacingX, "spacing-x", 0, "horizontal grid spacing (defaults to config)")
	cmd.Flags().Float64Var(&spacingY, "spacing-y", 0, "vertical grid spacing (defaults to config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even if cached")

	return cmd
}

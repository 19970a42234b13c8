package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canopyviz/canopy/pkg/pipeline"
	"github.com/canopyviz/canopy/pkg/tree"
	"github.com/canopyviz/canopy/pkg/wire"
)

// buildCommand creates the tree reconstruction command.
func (c *CLI) buildCommand() *cobra.Command {
	var (
		data    string
		output  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Reconstruct the tree from flat records",
		Long:  `Build reads a flat record file, reassembles the hierarchy from each record's parent chain, and writes the resulting tree as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			p := newProgress(logger)

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			records, err := runner.Load(ctx, pipeline.Options{Data: c.dataPath(data), Logger: logger})
			if err != nil {
				return err
			}
			t := tree.Build(records)

			if err := wire.WriteTreeFile(t, output); err != nil {
				return err
			}

			p.done(fmt.Sprintf("Rebuilt %d nodes", t.NodeCount()))
			printSuccess("Rebuilt tree from %d records", len(records))
			printStats(t.NodeCount(), t.EdgeCount(), false)
			printDetail("levels: %d", t.MaxLevel()+1)
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "input record file (defaults to config)")
	cmd.Flags().StringVarP(&output, "output", "o", "tree.json", "output file path")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the artifact cache")

	return cmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canopyviz/canopy/pkg/source"
)

// genCommand creates the sample data generator command.
func (c *CLI) genCommand() *cobra.Command {
	var (
		output         string
		branches       int
		nodesPerBranch int
	)

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a deterministic sample record file",
		Long:  `Gen writes a sample hierarchy in raw record form: a root node, a configurable number of branches, and fanned-out subtrees with every record restating its full parent chain.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			p := newProgress(logger)

			records := source.Generate(source.GenOptions{
				Branches:       branches,
				NodesPerBranch: nodesPerBranch,
			})
			if err := source.WriteRecords(records, output); err != nil {
				return fmt.Errorf("write records: %w", err)
			}

			p.done(fmt.Sprintf("Generated %d records", len(records)))
			printSuccess("Wrote %d records", len(records))
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "records.json", "output file path")
	cmd.Flags().IntVar(&branches, "branches", 4, "number of top-level branches")
	cmd.Flags().IntVar(&nodesPerBranch, "nodes-per-branch", 500, "maximum nodes per branch")

	return cmd
}

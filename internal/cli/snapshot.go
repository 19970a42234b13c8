package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/canopyviz/canopy/pkg/errors"
	"github.com/canopyviz/canopy/pkg/pipeline"
	"github.com/canopyviz/canopy/pkg/tree"
	"github.com/canopyviz/canopy/pkg/wire"
)

// snapshotCommand creates the snapshot management command.
func (c *CLI) snapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage saved view snapshots",
	}

	cmd.AddCommand(c.snapshotSaveCommand())
	cmd.AddCommand(c.snapshotListCommand())
	cmd.AddCommand(c.snapshotShowCommand())
	cmd.AddCommand(c.snapshotDeleteCommand())

	return cmd
}

// snapshotSaveCommand creates the "snapshot save" subcommand.
func (c *CLI) snapshotSaveCommand() *cobra.Command {
	var (
		data      string
		expanded  []string
		expandAll bool
	)

	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save the current tree and view as a named snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			name := args[0]

			if err := errors.ValidateSnapshotName(name); err != nil {
				return err
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

			st, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close(context.Background())

			snap := wire.Snapshot{
				Name:     name,
				SavedAt:  time.Now().UTC(),
				Tree:     wire.FromTree(t),
				Expanded: opts.ExpandedSet(t).IDs(),
			}
			if err := st.Save(ctx, snap); err != nil {
				return err
			}

			printSuccess("Saved snapshot %q", name)
			printStats(t.NodeCount(), t.EdgeCount(), false)
			printDetail("expanded: %d nodes", len(snap.Expanded))
			return nil
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "input record file (defaults to config)")
	cmd.Flags().StringSliceVar(&expanded, "expanded", nil, "node ids to record as expanded")
	cmd.Flags().BoolVar(&expandAll, "expand-all", false, "record every node as expanded")

	return cmd
}

// snapshotListCommand creates the "snapshot list" subcommand.
func (c *CLI) snapshotListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close(context.Background())

			names, err := st.List(ctx)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				printInfo("No snapshots saved")
				return nil
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}
}

// snapshotShowCommand creates the "snapshot show" subcommand.
func (c *CLI) snapshotShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a snapshot's summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close(context.Background())

			snap, err := st.Load(ctx, args[0])
			if err != nil {
				return err
			}
			t := snap.Tree.ToTree()
			visible := tree.ComputeVisible(t, tree.NewExpandedSet(snap.Expanded...))

			printKeyValue("name", snap.Name)
			printKeyValue("saved", snap.SavedAt.Local().Format(time.RFC822))
			printKeyValue("nodes", fmt.Sprintf("%d", t.NodeCount()))
			printKeyValue("expanded", fmt.Sprintf("%d", len(snap.Expanded)))
			printKeyValue("visible", fmt.Sprintf("%d", len(visible)))
			return nil
		},
	}
}

// snapshotDeleteCommand creates the "snapshot delete" subcommand.
func (c *CLI) snapshotDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close(context.Background())

			if err := st.Delete(ctx, args[0]); err != nil {
				return err
			}
			printSuccess("Deleted snapshot %q", args[0])
			return nil
		},
	}
}

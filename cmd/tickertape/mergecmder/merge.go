package mergecmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/tickertape/pkg/merkle"
)

const mergeLongDesc string = `Merge one or more transcript databases into a target.

Content-addressing makes this a simple union: nodes that already
exist in the target are skipped (deduped by hash).

Examples:
  tickertape merge --sqlite merged.db alice.db bob.db`

const mergeShortDesc string = "Merge transcript databases"

type mergeCommander struct {
	sqlitePath string
}

func NewMergeCmd() *cobra.Command {
	cmder := &mergeCommander{}

	cmd := &cobra.Command{
		Use:   "merge [sources...]",
		Short: mergeShortDesc,
		Long:  mergeLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args)
		},
	}

	cmd.Flags().StringVarP(&cmder.sqlitePath, "sqlite", "s", "", "Path to target SQLite database")
	_ = cmd.MarkFlagRequired("sqlite")

	return cmd
}

func (c *mergeCommander) run(ctx context.Context, cmd *cobra.Command, sources []string) error {
	target, err := merkle.NewSQLiteStorer(c.sqlitePath)
	if err != nil {
		return fmt.Errorf("could not open target database %s: %w", c.sqlitePath, err)
	}
	defer target.Close()

	var totalNew, totalDuped int

	for _, srcPath := range sources {
		srcNew, srcDuped, err := mergeFrom(ctx, target, srcPath)
		if err != nil {
			return err
		}
		totalNew += srcNew
		totalDuped += srcDuped

		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d new, %d already existed\n", srcPath, srcNew, srcDuped)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Merged %d new nodes from %d sources (%d already existed) into %s\n",
		totalNew, len(sources), totalDuped, c.sqlitePath)

	return nil
}

// mergeFrom copies every node of srcPath into target. List returns nodes in
// insertion order, so parents land before their children.
func mergeFrom(ctx context.Context, target merkle.Storer, srcPath string) (int, int, error) {
	source, err := merkle.NewSQLiteStorer(srcPath)
	if err != nil {
		return 0, 0, fmt.Errorf("could not open source database %s: %w", srcPath, err)
	}
	defer source.Close()

	nodes, err := source.List(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("could not list nodes from %s: %w", srcPath, err)
	}

	var isNewCount, dupedCount int
	for _, n := range nodes {
		if !n.Verify() {
			return isNewCount, dupedCount, fmt.Errorf("node %s in %s fails hash verification", n.Hash, srcPath)
		}
		isNew, err := target.Put(ctx, n)
		if err != nil {
			return isNewCount, dupedCount, fmt.Errorf("could not put node %s: %w", n.Hash, err)
		}
		if isNew {
			isNewCount++
		} else {
			dupedCount++
		}
	}
	return isNewCount, dupedCount, nil
}

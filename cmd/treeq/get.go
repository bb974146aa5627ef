package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhawalhost/treeq/tool"
)

func newGetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get FILE QUERY",
		Short: "Run a read query against a document file",
		Args:  cobra.ExactArgs(2),
		RunE:  getAction,
	}
	cmd.Flags().StringP("output", "o", "pretty", `output style: "pretty", "compact" or "raw"`)
	cmd.Flags().Bool("follow-symlinks", false, "allow the target file to be a symlink")
	return cmd
}

func getAction(cmd *cobra.Command, args []string) error {
	root, err := cmd.Flags().GetString("root")
	if err != nil {
		return err
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	followSymlinks, err := cmd.Flags().GetBool("follow-symlinks")
	if err != nil {
		return err
	}

	tq := &tool.QueryTool{
		Root:           root,
		FilePath:       args[0],
		Query:          args[1],
		Operation:      tool.OpRead,
		Output:         output,
		FollowSymlinks: followSymlinks,
	}
	out, err := tq.Run(tool.NewSession())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

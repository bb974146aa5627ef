package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhawalhost/treeq/tool"
)

func newSetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set FILE QUERY",
		Short: "Apply an assignment query (.path = value) to a document file",
		Args:  cobra.ExactArgs(2),
		RunE:  setAction,
	}
	cmd.Flags().Bool("backup", true, "keep a .bak copy of the original file")
	cmd.Flags().Bool("follow-symlinks", false, "allow the target file to be a symlink")
	return cmd
}

func setAction(cmd *cobra.Command, args []string) error {
	root, err := cmd.Flags().GetString("root")
	if err != nil {
		return err
	}
	backup, err := cmd.Flags().GetBool("backup")
	if err != nil {
		return err
	}
	followSymlinks, err := cmd.Flags().GetBool("follow-symlinks")
	if err != nil {
		return err
	}

	session := tool.NewSession()

	// writes require the file to have been read in the session first
	read := &tool.QueryTool{
		Root:           root,
		FilePath:       args[0],
		Query:          ".",
		Operation:      tool.OpRead,
		Output:         "compact",
		FollowSymlinks: followSymlinks,
	}
	if _, err := read.Run(session); err != nil {
		return err
	}

	write := &tool.QueryTool{
		Root:           root,
		FilePath:       args[0],
		Query:          args[1],
		Operation:      tool.OpWrite,
		InPlace:        true,
		Backup:         backup,
		FollowSymlinks: followSymlinks,
	}
	out, err := write.Run(session)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

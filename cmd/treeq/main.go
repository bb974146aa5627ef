// treeq queries and edits JSON, YAML and TOML files with a jq-like
// query language.
package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newApp().Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func newApp() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "treeq",
		Short:         "Query and edit JSON, YAML and TOML files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			debug, err := cmd.Flags().GetBool("debug")
			if err != nil {
				return err
			}
			if debug {
				logrus.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().Bool("debug", false, "debug output")
	rootCmd.PersistentFlags().String("root", ".", "directory that file arguments are resolved inside")
	rootCmd.AddCommand(
		newGetCommand(),
		newSetCommand(),
	)
	return rootCmd
}

package cmd

import (
	"github.com/spf13/cobra"

	"pagewatch/internal/reporter"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Show monitored websites and their last scan state",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, closeStore, err := newMonitor(cmd.Context(), settings)
		if err != nil {
			return err
		}
		defer closeStore()

		reporter.NewTableRenderer(cmd.OutOrStdout()).RenderWebsites(m.Websites())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"pagewatch/internal/util"
)

var removeCmd = &cobra.Command{
	Use:     "remove <url>",
	Aliases: []string{"rm"},
	Short:   "Stop monitoring a website",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, closeStore, err := newMonitor(cmd.Context(), settings)
		if err != nil {
			return err
		}
		defer closeStore()

		url, err := util.NormalizeURL(args[0])
		if err != nil {
			return err
		}
		if err := m.Remove(cmd.Context(), url); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", url)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

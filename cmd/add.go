package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pagewatch/internal/util"
)

var addFile string

var addCmd = &cobra.Command{
	Use:   "add [url]...",
	Short: "Start monitoring one or more websites",
	Long: `Add URLs to the monitored set. URLs without a scheme get https://.
URLs that are already monitored are skipped. Use -f to read one URL per line
from a file; blank lines and lines starting with # are ignored.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		urls := append([]string(nil), args...)
		if addFile != "" {
			data, err := os.ReadFile(addFile)
			if err != nil {
				return fmt.Errorf("failed to read url file: %w", err)
			}
			urls = append(urls, util.SplitLines(string(data))...)
		}
		if len(urls) == 0 {
			return errors.New("no URLs given; pass them as arguments or with -f")
		}

		m, closeStore, err := newMonitor(cmd.Context(), settings)
		if err != nil {
			return err
		}
		defer closeStore()

		added, err := m.Add(cmd.Context(), urls)
		for _, u := range added {
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", u)
		}
		if skipped := len(urls) - len(added); skipped > 0 && err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Skipped %d already monitored\n", skipped)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addFile, "file", "f", "", "File containing a list of URLs to add")
}

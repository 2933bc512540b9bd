package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pagewatch/internal/history"
	"pagewatch/internal/reporter"
	"pagewatch/internal/util"
)

var (
	historyURL   string
	historySince string
	historyLimit int
	historyXLSX  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded scan history",
	Long: `History prints rows from the CSV history log, oldest first.
--since accepts a duration such as 24h or an RFC3339 timestamp.
--xlsx writes the selected rows to a spreadsheet instead of printing them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := history.Filter{Limit: historyLimit}
		if historyURL != "" {
			u, err := util.NormalizeURL(historyURL)
			if err != nil {
				return err
			}
			filter.URL = u
		}
		if historySince != "" {
			since, err := parseSince(historySince, time.Now())
			if err != nil {
				return err
			}
			filter.Since = since
		}

		records, err := history.NewLog(settings.Storage.HistoryFile).Read(cmd.Context())
		if err != nil {
			return err
		}
		records = filter.Apply(records)

		if historyXLSX != "" {
			if err := history.ExportXLSX(records, historyXLSX); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", len(records), historyXLSX)
			return nil
		}

		reporter.NewTableRenderer(cmd.OutOrStdout()).RenderHistory(records)
		return nil
	},
}

// parseSince accepts either a look-back duration or an absolute RFC3339 time.
func parseSince(s string, now time.Time) (time.Time, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return now.Add(-d), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since %q: want a duration like 24h or an RFC3339 time", s)
	}
	return t, nil
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVar(&historyURL, "url", "", "Only show rows for this URL")
	historyCmd.Flags().StringVar(&historySince, "since", "", "Only show rows newer than this (duration or RFC3339)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Show at most the last N rows")
	historyCmd.Flags().StringVar(&historyXLSX, "xlsx", "", "Export the rows to an XLSX file")
}

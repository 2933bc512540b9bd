package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pagewatch/internal/reporter"
)

var jsonOutput string

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Check every monitored website once",
	Long: `The scan command fetches every monitored website, compares its fingerprint
with the stored one, saves the new state and appends one history row per URL.
Websites that fail to load are reported but do not fail the command.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		m, closeStore, err := newMonitor(ctx, settings)
		if err != nil {
			return err
		}
		defer closeStore()

		report, scanErr := m.Scan(ctx)
		if report == nil {
			return scanErr
		}
		reporter.NewTableRenderer(cmd.OutOrStdout()).RenderScan(report)

		if jsonOutput != "" {
			exporter, err := reporter.NewJSONExporter(jsonOutput)
			if err != nil {
				return err
			}
			if err := exporter.Export(report); err != nil {
				return err
			}
		}
		return scanErr
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVar(&jsonOutput, "json", "", "Also write the scan report as JSON to this path")
}

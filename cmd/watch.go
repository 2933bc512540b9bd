package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pagewatch/internal/metrics"
	"pagewatch/internal/monitor"
	"pagewatch/internal/reporter"
	"pagewatch/internal/schedule"
)

const shutdownTimeout = 5 * time.Second

var (
	watchSchedule string
	metricsAddr   string
	skipFirstScan bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Scan monitored websites on a schedule",
	Long: `Watch runs a scan immediately and then on every tick of the schedule
(a 5-field cron expression or a descriptor such as "@every 15m"). A tick that
fires while a scan is still running is skipped. Set --metrics-addr to expose
Prometheus metrics on /metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		recorder := metrics.New()
		m, closeStore, err := newMonitor(ctx, settings, monitor.WithMetrics(recorder))
		if err != nil {
			return err
		}
		defer closeStore()

		table := reporter.NewTableRenderer(cmd.OutOrStdout())
		job := func(ctx context.Context) {
			// Pick up websites added by other invocations.
			if err := m.Reload(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to reload state, skipping scan")
				return
			}
			report, err := m.Scan(ctx)
			if report != nil {
				table.RenderScan(report)
			}
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("Scan failed")
			}
		}

		runner, err := schedule.New(settings.Watch.Schedule, job)
		if err != nil {
			return err
		}

		if addr := settings.Metrics.Addr; addr != "" {
			srv := serveMetrics(addr, recorder)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				srv.Shutdown(shutdownCtx)
			}()
		}

		if !skipFirstScan {
			job(ctx)
		}
		return runner.Run(ctx)
	},
}

// serveMetrics starts the Prometheus endpoint in the background.
func serveMetrics(addr string, recorder *metrics.Recorder) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", addr).Msg("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server failed")
		}
	}()
	return srv
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "", "Cron expression or descriptor, e.g. \"@every 15m\" (overrides config)")
	watchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Address for the Prometheus /metrics endpoint, e.g. :9090")
	watchCmd.Flags().BoolVar(&skipFirstScan, "no-initial-scan", false, "Wait for the first tick instead of scanning at startup")
}

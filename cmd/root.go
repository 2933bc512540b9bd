// Package cmd contains the command-line interface logic for pagewatch.
// It uses the Cobra library to create the CLI.
package cmd

import (
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"pagewatch/internal/config"
	"pagewatch/internal/logger"
)

// Version is printed by --version.
const Version = "1.0.0"

var (
	configFile  string
	stateFile   string
	historyFile string
	logLevel    string

	// settings is populated before any subcommand runs.
	settings  config.Settings
	logCloser io.Closer

	rootCmd = &cobra.Command{
		Use:   "pagewatch",
		Short: "pagewatch detects content changes on web pages.",
		Long: `pagewatch fetches a list of web pages, fingerprints their content and
records every change in a CSV history log.`,
		Version:           Version,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logCloser != nil {
				logCloser.Close()
			}
		},
	}
)

// flagKeys maps command-line flags to the config keys they override.
var flagKeys = map[string]string{
	"state":        "storage.state_file",
	"history":      "storage.history_file",
	"log-level":    "log.level",
	"schedule":     "watch.schedule",
	"metrics-addr": "metrics.addr",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to the configuration file (default is ./pagewatch.yaml)")
	rootCmd.PersistentFlags().StringVar(&stateFile, "state", "", "Path to the JSON state file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&historyFile, "history", "", "Path to the CSV history file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// initConfig loads .env, the config file, environment variables and flags,
// then sets up the logger.
func initConfig(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}

	v := config.New(configFile)
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = v.BindPFlag(key, f)
		}
	})
	if bindErr != nil {
		return bindErr
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	settings = cfg

	closer, err := logger.Setup(cfg.Log)
	if err != nil {
		return err
	}
	logCloser = closer

	if used := v.ConfigFileUsed(); used != "" {
		log.Debug().Str("path", used).Msg("Using config file")
	}
	return nil
}

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/service/engine"
	"github.com/oshokin/alarm-clock/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// databasePath overrides the alarm database location.
	databasePath string

	// rootCmd represents the base command for running the wake engine.
	rootCmd = &cobra.Command{
		Use:   "alarm-engine [listen-address]",
		Short: "Run the wake engine daemon.",
		Long: `Starts the wake engine: it installs wake triggers for every active alarm,
fires sessions when they arrive, runs the wrist-companion handshake and keeps
the alert sounding until a dismissal challenge is completed.

The control API listens on the configured engine address; only its port is
used for binding (e.g. :7410). A listen address argument overrides the
configuration (e.g. :7500, 0.0.0.0:7410).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &engine.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				DatabasePath:  databasePath,
			}

			return engine.Run(ctx, options)
		},
	}
)

// Execute runs the alarm-engine CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().
		StringVarP(&databasePath, "database", "d", "", "path to the alarm database (defaults to configuration)")
}

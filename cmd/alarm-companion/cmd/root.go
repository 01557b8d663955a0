package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/service/companion"
	"github.com/oshokin/alarm-clock/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// wornState is the simulated worn-state probe answer.
	wornState string
	// autoAckDelay acknowledges wrist alerts back to the engine after this delay.
	autoAckDelay time.Duration

	// rootCmd represents the base command for running the companion agent.
	rootCmd = &cobra.Command{
		Use:   "alarm-companion [listen-address]",
		Short: "Run the wrist-companion agent.",
		Long: `Starts the companion agent that answers the engine's handshake probes and
receives wrist alerts. Worn state is simulated via the --worn flag; with
--auto-ack set, every wrist alert is acknowledged back to the engine after
the given delay, as a wearer dismissing it from the wrist would.

The agent listens on the configured companion address; only its port is used
for binding. A listen address argument overrides the configuration.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &companion.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				Worn:          wornState,
				AutoAckDelay:  autoAckDelay,
			}

			return companion.Run(ctx, options)
		},
	}
)

// Execute runs the alarm-companion CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&wornState, "worn", "w", "worn", "simulated worn state: worn, not_worn or unknown")
	rootCmd.Flags().
		DurationVarP(&autoAckDelay, "auto-ack", "a", 0, "acknowledge wrist alerts after this delay (0 disables)")
}

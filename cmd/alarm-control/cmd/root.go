package cmd

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/service/control"
	"github.com/oshokin/alarm-clock/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// engineAddress overrides the configured engine address.
	engineAddress string

	// saveOpts collects the flags of the save subcommand.
	saveOpts control.SaveOptions
	// historyLimit bounds the history subcommand output.
	historyLimit int

	// rootCmd represents the base command of the operator CLI.
	rootCmd = &cobra.Command{
		Use:   "alarm-control",
		Short: "Manage alarms and sessions on a running wake engine.",
		Long: `Operator CLI for the wake engine: manage alarm definitions, send session
commands to the currently ringing alarm, inspect engine health and watch
dismissal broadcasts.`,
	}
)

// commandContext sets up graceful shutdown handling.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}

// commonOptions builds the options shared by every subcommand.
func commonOptions() *control.Options {
	return &control.Options{
		ConfigPath:    configPath,
		EngineAddress: engineAddress,
	}
}

// parseAlarmID parses the positional alarm identifier argument.
func parseAlarmID(arg string) (int64, error) {
	return strconv.ParseInt(arg, 10, 64)
}

// Execute runs the alarm-control CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits,funlen // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVarP(&engineAddress, "engine", "e", "", "engine address override (defaults to configuration)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the standing alarms.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := commandContext()
			defer stop()

			return control.RunList(ctx, commonOptions())
		},
	}

	saveCmd := &cobra.Command{
		Use:   "save <alarm-id>",
		Short: "Insert or replace an alarm definition.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := commandContext()
			defer stop()

			alarmID, err := parseAlarmID(args[0])
			if err != nil {
				return err
			}

			saveOpts.ID = alarmID

			return control.RunSave(ctx, commonOptions(), &saveOpts)
		},
	}
	saveCmd.Flags().StringVarP(&saveOpts.Time, "time", "t", "", "trigger time, HH:MM (required)")
	saveCmd.Flags().StringVarP(&saveOpts.Days, "days", "d", "", "repeat days, e.g. mon,wed,fri (empty = one-shot)")
	saveCmd.Flags().StringVarP(&saveOpts.Sound, "sound", "s", "", "alert sound (empty = platform default)")
	saveCmd.Flags().StringVarP(&saveOpts.Label, "label", "l", "", "alarm label")
	saveCmd.Flags().StringVar(&saveOpts.Challenge, "challenge", "math",
		"dismissal challenge: math, memory, scan, object or focus")
	saveCmd.Flags().IntVar(&saveOpts.Difficulty, "difficulty", 1, "math challenge difficulty, 1..3")
	saveCmd.Flags().IntVar(&saveOpts.TargetLength, "target-length", 0, "memory challenge sequence length")
	saveCmd.Flags().StringVar(&saveOpts.ExpectedCode, "expected-code", "", "scan challenge: exact code to match")
	saveCmd.Flags().IntVar(&saveOpts.UniqueCodes, "unique-codes", 0, "scan challenge: distinct codes required")
	saveCmd.Flags().StringVar(&saveOpts.TargetLabel, "target-label", "", "object challenge: detection target")
	saveCmd.Flags().Float64Var(&saveOpts.MinConfidence, "min-confidence", 0, "object challenge: acceptance threshold")
	saveCmd.Flags().DurationVar(&saveOpts.Duration, "duration", 0, "focus challenge: countdown duration")
	saveCmd.Flags().BoolVar(&saveOpts.OneShot, "one-shot", false, "store in the one-shot table")
	saveCmd.Flags().BoolVar(&saveOpts.Inactive, "inactive", false, "save the alarm disabled")
	_ = saveCmd.MarkFlagRequired("time")

	enableCmd := &cobra.Command{
		Use:   "enable <alarm-id>",
		Short: "Enable a standing alarm.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := commandContext()
			defer stop()

			alarmID, err := parseAlarmID(args[0])
			if err != nil {
				return err
			}

			return control.RunSetActive(ctx, commonOptions(), alarmID, true)
		},
	}

	disableCmd := &cobra.Command{
		Use:   "disable <alarm-id>",
		Short: "Disable a standing alarm.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := commandContext()
			defer stop()

			alarmID, err := parseAlarmID(args[0])
			if err != nil {
				return err
			}

			return control.RunSetActive(ctx, commonOptions(), alarmID, false)
		},
	}

	fireCmd := &cobra.Command{
		Use:   "fire <alarm-id>",
		Short: "Deliver a manual fire signal.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := commandContext()
			defer stop()

			alarmID, err := parseAlarmID(args[0])
			if err != nil {
				return err
			}

			return control.RunFire(ctx, commonOptions(), alarmID)
		},
	}

	commandCmd := &cobra.Command{
		Use:   "command <alarm-id> <stop|pause|resume|companion_ack>",
		Short: "Send a session command to the ringing alarm.",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := commandContext()
			defer stop()

			alarmID, err := parseAlarmID(args[0])
			if err != nil {
				return err
			}

			return control.RunCommand(ctx, commonOptions(), alarmID, args[1])
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Check the engine process and RPC health.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := commandContext()
			defer stop()

			return control.RunStatus(ctx, commonOptions())
		},
	}

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch dismissal broadcasts until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := commandContext()
			defer stop()

			return control.RunWatch(ctx, commonOptions())
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent wake events.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := commandContext()
			defer stop()

			return control.RunHistory(ctx, commonOptions(), historyLimit)
		},
	}
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of events to show")

	rootCmd.AddCommand(listCmd, saveCmd, enableCmd, disableCmd, fireCmd, commandCmd, statusCmd, watchCmd, historyCmd)
}

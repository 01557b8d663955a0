package control

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/go-redis/redis/v8"
	"github.com/mitchellh/go-ps"

	"github.com/oshokin/alarm-clock/internal/api/grpc/wire"
	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/notify"
)

// engineProcessName is the engine binary name looked for by status.
const engineProcessName = "alarm-engine"

// errNoRedisAddress is returned when watch runs without a configured Redis.
var errNoRedisAddress = errors.New("watch requires a Redis address in the settings file")

// Options controls the alarm-control CLI and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// EngineAddress provides an optional engine address override.
	EngineAddress string
}

// SaveOptions describes one alarm definition for the save command.
type SaveOptions struct {
	// ID is the stable alarm identifier.
	ID int64
	// Time is the wall-clock trigger time, "HH:MM".
	Time string
	// Days is a comma-separated weekday list; empty means one-shot.
	Days string
	// Sound names the alert sound; empty selects the platform default.
	Sound string
	// Label is the human-readable alarm name.
	Label string
	// Challenge is the dismissal challenge kind.
	Challenge string
	// Difficulty tunes the math challenge (1..3).
	Difficulty int
	// TargetLength is the memory challenge's final sequence length.
	TargetLength int
	// ExpectedCode puts the scan challenge into specific-code mode.
	ExpectedCode string
	// UniqueCodes puts the scan challenge into unique-count mode.
	UniqueCodes int
	// TargetLabel is the object challenge's detection target.
	TargetLabel string
	// MinConfidence is the object challenge's acceptance threshold.
	MinConfidence float64
	// Duration is the focus challenge's countdown.
	Duration time.Duration
	// OneShot stores the alarm in the one-shot table.
	OneShot bool
	// Inactive saves the alarm disabled.
	Inactive bool
}

// dial loads the settings and connects to the engine control API.
func dial(ctx context.Context, opts *Options) (*Client, *config.Config, error) {
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load settings: %w", err)
	}

	address := settings.EngineAddress
	if opts.EngineAddress != "" {
		address = opts.EngineAddress
	}

	client, err := Dial(ctx, address, WithCallTimeout(settings.Timeout))
	if err != nil {
		return nil, nil, err
	}

	return client, settings, nil
}

// RunList prints every standing alarm.
func RunList(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alarm-control")

	client, _, err := dial(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	alarms, err := client.ListAlarms(ctx)
	if err != nil {
		return err
	}

	if len(alarms) == 0 {
		fmt.Println("no alarms configured")

		return nil
	}

	for _, a := range alarms {
		state := color.New(color.FgGreen).Sprint("active")
		if !a.IsActive {
			state = color.New(color.FgYellow).Sprint("disabled")
		}

		fmt.Printf("%4d  %02d:%02d  %-24s  %-8s  %s  %s\n",
			a.ID, a.Hour, a.Minute, formatDays(a.RepeatDays), state, a.Challenge.Kind, a.Label)
	}

	return nil
}

// RunSave inserts or replaces an alarm definition.
func RunSave(ctx context.Context, opts *Options, save *SaveOptions) error {
	ctx = logger.WithName(ctx, "alarm-control")

	tod, err := parseTimeOfDay(save.Time)
	if err != nil {
		return err
	}

	days, err := parseWeekdays(save.Days)
	if err != nil {
		return err
	}

	payload := wire.AlarmPayload{
		ID:       save.ID,
		Hour:     tod.Hour,
		Minute:   tod.Minute,
		IsActive: !save.Inactive,
		Sound:    save.Sound,
		Label:    save.Label,
		Challenge: wire.ChallengePayload{
			Kind:           strings.ToLower(save.Challenge),
			Difficulty:     save.Difficulty,
			TargetLength:   save.TargetLength,
			ExpectedCode:   save.ExpectedCode,
			UniqueCodeGoal: save.UniqueCodes,
			TargetLabel:    save.TargetLabel,
			MinConfidence:  save.MinConfidence,
			DurationSec:    int64(save.Duration / time.Second),
		},
	}

	for _, day := range days {
		payload.RepeatDays = append(payload.RepeatDays, int(day))
	}

	client, _, err := dial(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	if err = client.SaveAlarm(ctx, payload, save.OneShot); err != nil {
		return err
	}

	fmt.Printf("alarm %d saved\n", save.ID)

	return nil
}

// RunSetActive enables or disables a standing alarm.
func RunSetActive(ctx context.Context, opts *Options, alarmID int64, active bool) error {
	ctx = logger.WithName(ctx, "alarm-control")

	client, _, err := dial(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	if err = client.SetActive(ctx, alarmID, active); err != nil {
		return err
	}

	verb := "enabled"
	if !active {
		verb = "disabled"
	}

	fmt.Printf("alarm %d %s\n", alarmID, verb)

	return nil
}

// RunFire delivers a manual fire signal.
func RunFire(ctx context.Context, opts *Options, alarmID int64) error {
	ctx = logger.WithName(ctx, "alarm-control")

	client, _, err := dial(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	if err = client.Fire(ctx, alarmID); err != nil {
		return err
	}

	fmt.Printf("fire signal sent for alarm %d\n", alarmID)

	return nil
}

// RunCommand sends a session command to the engine.
func RunCommand(ctx context.Context, opts *Options, alarmID int64, command string) error {
	ctx = logger.WithName(ctx, "alarm-control")

	cmd, err := parseSessionCommand(command)
	if err != nil {
		return err
	}

	client, _, err := dial(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	applied, err := client.Command(ctx, alarmID, cmd)
	if err != nil {
		return err
	}

	if !applied {
		fmt.Printf("%s: alarm %d is not the current session\n",
			color.New(color.FgYellow).Sprint("ignored"), alarmID)

		return nil
	}

	fmt.Printf("%s %s for alarm %d\n", color.New(color.FgGreen).Sprint("applied"), cmd, alarmID)

	return nil
}

// RunStatus checks the engine process and its RPC health.
func RunStatus(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alarm-control")

	running, err := engineProcessRunning()
	if err != nil {
		logger.Warnf(ctx, "process scan failed: %v", err)
	}

	if running {
		fmt.Printf("engine process: %s\n", color.New(color.FgGreen).Sprint("running"))
	} else {
		fmt.Printf("engine process: %s\n", color.New(color.FgRed).Sprint("not found"))
	}

	client, _, err := dial(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	status, err := client.Status(ctx)
	if err != nil {
		fmt.Printf("control API:    %s (%v)\n", color.New(color.FgRed).Sprint("unreachable"), err)

		return nil
	}

	fmt.Printf("control API:    %s\n", color.New(color.FgGreen).Sprint("healthy"))

	if status.SessionAlarmID == 0 {
		fmt.Println("session:        none")
	} else {
		fmt.Printf("session:        alarm %d, %s\n", status.SessionAlarmID, status.Playback)
	}

	return nil
}

// RunWatch subscribes to the dismissal broadcast channel and prints every
// confirmed dismissal until the context is cancelled.
func RunWatch(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alarm-control")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if settings.RedisAddress == "" {
		return errNoRedisAddress
	}

	client := redis.NewClient(&redis.Options{Addr: settings.RedisAddress})
	defer client.Close()

	dismissals, err := notify.SubscribeDismissals(ctx, client)
	if err != nil {
		return fmt.Errorf("subscribe dismissals: %w", err)
	}

	fmt.Println("watching dismissals, Ctrl+C to stop")

	for {
		select {
		case <-ctx.Done():
			return nil
		case alarmID, ok := <-dismissals:
			if !ok {
				return nil
			}

			fmt.Printf("%s  alarm %d dismissed at %s\n",
				color.New(color.FgGreen).Sprint("✓"), alarmID, time.Now().Format(time.Kitchen))
		}
	}
}

// RunHistory prints recent wake events, newest first.
func RunHistory(ctx context.Context, opts *Options, limit int) error {
	ctx = logger.WithName(ctx, "alarm-control")

	client, _, err := dial(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	events, err := client.History(ctx, limit)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		fmt.Println("no wake events recorded")

		return nil
	}

	for _, event := range events {
		fmt.Printf("%s  alarm %4d  %-8s  %s\n",
			event.CompletedAt.Local().Format("2006-01-02 15:04"),
			event.AlarmID, event.Challenge, event.Label)
	}

	return nil
}

// engineProcessRunning scans the process table for the engine binary.
func engineProcessRunning() (bool, error) {
	processList, err := ps.Processes()
	if err != nil {
		return false, fmt.Errorf("list processes: %w", err)
	}

	for _, process := range processList {
		name := strings.TrimSuffix(process.Executable(), ".exe")
		if name == engineProcessName {
			return true, nil
		}
	}

	return false, nil
}

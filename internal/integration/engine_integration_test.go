package integration

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-clock/internal/api/grpc/wire"
	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/service/control"
	"github.com/oshokin/alarm-clock/internal/service/engine"
)

// reservePort grabs a free loopback address for a test server.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// startEngine boots the real wake engine with a temporary config and
// database. Redis and the companion are left unconfigured; the engine
// degrades to immediate local audio, which is what the test wants.
func startEngine(t *testing.T, addr string) (stop func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	cfgPath := filepath.Join(t.TempDir(), "settings.yaml")

	require.NoError(t, config.Save(cfgPath, &config.Config{
		EngineAddress: addr,
		DatabasePath:  filepath.Join(t.TempDir(), "alarms.db"),
		Timeout:       3 * time.Second,
	}))

	go func() {
		options := &engine.Options{ConfigPath: cfgPath}

		_ = engine.Run(ctx, options) //nolint:errcheck // Shutdown errors are irrelevant to the test.
	}()

	return func() {
		cancel()
		time.Sleep(100 * time.Millisecond)
	}
}

// TestEngine_Roundtrip boots the real engine and exercises the control API
// end to end: alarm CRUD, a manual fire, session commands and history.
func TestEngine_Roundtrip(t *testing.T) {
	t.Parallel()

	addr := reservePort(t)
	stop := startEngine(t, addr)

	defer stop()

	ctx := context.Background()

	client, err := control.Dial(ctx, addr, control.WithCallTimeout(3*time.Second))
	require.NoError(t, err)

	defer func() {
		_ = client.Close()
	}()

	// Wait for the control API to come up.
	require.Eventually(t, func() bool {
		_, listErr := client.ListAlarms(ctx)

		return listErr == nil
	}, 5*time.Second, 50*time.Millisecond)

	payload := wire.AlarmPayload{
		ID:         42,
		Hour:       6,
		Minute:     45,
		RepeatDays: []int{int(time.Monday)},
		IsActive:   true,
		Label:      "Gym",
		Challenge:  wire.ChallengePayload{Kind: string(alarm.ChallengeMath), Difficulty: 2},
	}
	require.NoError(t, client.SaveAlarm(ctx, payload, false))

	alarms, err := client.ListAlarms(ctx)
	require.NoError(t, err)
	require.Len(t, alarms, 1)
	require.Equal(t, payload, alarms[0])

	// A manual fire starts a session; without a companion configured the
	// alarm rings immediately.
	require.NoError(t, client.Fire(ctx, 42))

	require.Eventually(t, func() bool {
		status, statusErr := client.Status(ctx)

		return statusErr == nil && status.SessionAlarmID == 42
	}, 5*time.Second, 50*time.Millisecond)

	// Commands for another alarm are ignored; for the ringing one, applied.
	applied, err := client.Command(ctx, 7, wire.CommandStop)
	require.NoError(t, err)
	require.False(t, applied)

	applied, err = client.Command(ctx, 42, wire.CommandStop)
	require.NoError(t, err)
	require.True(t, applied)

	require.Eventually(t, func() bool {
		status, statusErr := client.Status(ctx)

		return statusErr == nil && status.SessionAlarmID == 0
	}, 5*time.Second, 50*time.Millisecond)

	// Stopping without completing a challenge leaves no history behind.
	events, err := client.History(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, events)

	require.NoError(t, client.SetActive(ctx, 42, false))

	alarms, err = client.ListAlarms(ctx)
	require.NoError(t, err)
	require.False(t, alarms[0].IsActive)
}

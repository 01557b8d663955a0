package engine

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/oshokin/alarm-clock/internal/api/grpc/wire"
	"github.com/oshokin/alarm-clock/internal/companion"
	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/notify"
	"github.com/oshokin/alarm-clock/internal/orchestrator"
	"github.com/oshokin/alarm-clock/internal/repository/firecache"
	"github.com/oshokin/alarm-clock/internal/repository/store"
	"github.com/oshokin/alarm-clock/internal/scheduler"
)

// Options controls the alarm-engine process and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the
	// control API.
	ListenAddress string
	// DatabasePath provides an optional database path override.
	DatabasePath string
}

// ErrNoEngineAddress indicates missing engine address configuration.
var ErrNoEngineAddress = errors.New("no engine address configured")

// Run starts the wake engine daemon and blocks until the context is
// cancelled. It hosts the trigger scheduler, the firing dispatcher, the
// session orchestrator and the gRPC control API.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alarm-engine")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	listenAddress, err := resolveListenAddress(settings.EngineAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	databasePath := settings.DatabasePath
	if opts.DatabasePath != "" {
		databasePath = opts.DatabasePath
	}

	st, err := store.Open(databasePath)
	if err != nil {
		return fmt.Errorf("open alarm store: %w", err)
	}
	defer st.Close()

	// Redis backs the recent-fire cache and the dismissal broadcast. The
	// engine still wakes people without it, so a missing Redis degrades
	// instead of failing the whole daemon.
	var (
		cache     orchestrator.RecentFires
		publisher orchestrator.DismissalPublisher
	)

	if settings.RedisAddress != "" {
		client := redis.NewClient(&redis.Options{Addr: settings.RedisAddress})
		defer client.Close()

		pingCtx, cancel := context.WithTimeout(ctx, settings.Timeout)
		if pingErr := client.Ping(pingCtx).Err(); pingErr != nil {
			logger.Warnf(ctx, "Redis unavailable, running without recent-fire cache and broadcasts: %v", pingErr)
		} else {
			cache = firecache.New(client, settings.FireCacheTTL)
			publisher = notify.NewBroadcaster(client)
		}

		cancel()
	}

	var messenger companion.Messenger

	if settings.CompanionAddress != "" {
		client, dialErr := companion.Dial(ctx, settings.CompanionAddress,
			companion.WithProbeTimeout(settings.Handshake.ProbeTimeout),
			companion.WithCallTimeout(settings.Timeout),
		)
		if dialErr != nil {
			return fmt.Errorf("dial companion: %w", dialErr)
		}

		defer client.Close()

		messenger = client
	}

	sessions := orchestrator.New(
		st,
		publisher,
		messenger,
		orchestrator.LogPlayer{},
		orchestrator.LogPresenter{},
		settings.Handshake,
	)

	// The scheduler fires into the dispatcher, and the dispatcher re-arms
	// through the scheduler; the closure breaks the construction cycle.
	var dispatcher *orchestrator.Dispatcher

	triggers := scheduler.New(func(alarmID int64) {
		logger.Infof(ctx, "trigger arrived for alarm %d", alarmID)
		dispatcher.HandleFire(ctx, alarmID)
	})
	dispatcher = orchestrator.NewDispatcher(st, cache, triggers, sessions)

	// Store mutations request a reconcile; the buffered channel collapses
	// bursts into one synchronize pass.
	syncRequests := make(chan struct{}, 1)
	st.SetChangeListener(func() {
		select {
		case syncRequests <- struct{}{}:
		default:
		}
	})

	if err = synchronizeTriggers(ctx, st, triggers); err != nil {
		logger.Warnf(ctx, "initial trigger synchronization incomplete: %v", err)
	}

	triggers.Start()

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	grpcServer := grpc.NewServer()
	wire.RegisterEngineServer(grpcServer, newAPIServer(st, sessions, dispatcher))

	logger.InfoKV(ctx, "Wake engine listening",
		"listen_address", listenAddress,
		"database_path", databasePath,
		"companion_address", settings.CompanionAddress,
	)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if serveErr := grpcServer.Serve(lis); serveErr != nil && !errors.Is(serveErr, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", serveErr)
		}

		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()

		return nil
	})

	group.Go(func() error {
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-syncRequests:
				if syncErr := synchronizeTriggers(ctx, st, triggers); syncErr != nil {
					logger.Warnf(ctx, "trigger synchronization incomplete: %v", syncErr)
				}
			}
		}
	})

	err = group.Wait()

	triggers.Stop(context.Background())
	dispatcher.Wait()
	sessions.Shutdown(context.Background())

	logger.Info(ctx, "Wake engine stopped")

	return err
}

// synchronizeTriggers reconciles the installed triggers against the store.
func synchronizeTriggers(ctx context.Context, st store.Store, triggers *scheduler.TriggerScheduler) error {
	defs, err := st.ListAlarms(ctx)
	if err != nil {
		return fmt.Errorf("list alarms: %w", err)
	}

	return triggers.Synchronize(ctx, defs)
}

// resolveListenAddress determines the listen address for the control API.
// An override is used directly; otherwise the port is extracted from the
// configured engine address so the daemon binds on all interfaces.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoEngineAddress
	}

	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid engine address format %q: %w", configAddr, err)
	}

	return ":" + port, nil
}

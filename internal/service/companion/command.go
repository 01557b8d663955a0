package companion

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/oshokin/alarm-clock/internal/api/grpc/wire"
	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/logger"
)

// Options controls the alarm-companion process and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override.
	ListenAddress string
	// Worn is the simulated worn state: worn, not_worn or unknown.
	Worn string
	// AutoAckDelay acknowledges wrist alerts back to the engine after this
	// delay; zero disables auto-ack.
	AutoAckDelay time.Duration
}

// Errors surfaced by the companion agent configuration.
var (
	ErrNoCompanionAddress = errors.New("no companion address configured")
	ErrNoEngineAddress    = errors.New("auto-ack requires an engine address")
	ErrInvalidWornState   = errors.New("worn state must be worn, not_worn or unknown")
)

// Run starts the companion agent and blocks until the context is cancelled.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alarm-companion")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	listenAddress, err := resolveListenAddress(settings.CompanionAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	worn, err := parseWornState(opts.Worn)
	if err != nil {
		return err
	}

	// Auto-ack needs a way back to the engine's session command channel.
	var engine *wire.EngineClient

	if opts.AutoAckDelay > 0 {
		if settings.EngineAddress == "" {
			return ErrNoEngineAddress
		}

		conn, dialErr := grpc.NewClient(settings.EngineAddress, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if dialErr != nil {
			return fmt.Errorf("dial engine: %w", dialErr)
		}

		defer conn.Close()

		engine = wire.NewEngineClient(conn)
	}

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	grpcServer := grpc.NewServer()
	wire.RegisterCompanionServer(grpcServer, newService(worn, opts.AutoAckDelay, engine))

	logger.InfoKV(ctx, "Companion agent listening",
		"listen_address", listenAddress,
		"worn_state", worn,
		"auto_ack_delay", opts.AutoAckDelay,
	)

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down companion agent")
		grpcServer.GracefulStop()
		close(done)
	}()

	if err = grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "Companion agent stopped")

	return nil
}

// parseWornState validates the simulated worn state; empty means worn, the
// useful default for exercising the handshake.
func parseWornState(value string) (wire.WornState, error) {
	switch wire.WornState(value) {
	case "":
		return wire.WornStateWorn, nil
	case wire.WornStateWorn, wire.WornStateNotWorn, wire.WornStateUnknown:
		return wire.WornState(value), nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidWornState, value)
	}
}

// resolveListenAddress determines the agent's listen address. An override is
// used directly; otherwise the port is extracted from the configured
// companion address.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoCompanionAddress
	}

	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid companion address format %q: %w", configAddr, err)
	}

	return ":" + port, nil
}

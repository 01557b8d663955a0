package companion

import (
	"context"
	"time"

	"github.com/oshokin/alarm-clock/internal/api/grpc/wire"
	"github.com/oshokin/alarm-clock/internal/logger"
)

// service answers the engine's handshake probes and simulates the wrist
// alert. Worn state comes from configuration; real sensor input lives on the
// watch hardware, not here.
type service struct {
	// worn is the answer given to every worn-state probe.
	worn wire.WornState
	// autoAckDelay, when positive, acknowledges the wrist alert back to the
	// engine after this delay, as a wearer dismissing it would.
	autoAckDelay time.Duration
	// engine sends the acknowledgement; nil disables auto-ack.
	engine *wire.EngineClient
}

// newService wires the companion service implementation.
func newService(worn wire.WornState, autoAckDelay time.Duration, engine *wire.EngineClient) *service {
	return &service{
		worn:         worn,
		autoAckDelay: autoAckDelay,
		engine:       engine,
	}
}

// Ping answers the connectivity probe.
func (s *service) Ping(ctx context.Context, _ *wire.PingRequest) (*wire.PingResponse, error) {
	logger.Debug(ctx, "Connectivity probe answered")

	return &wire.PingResponse{Reachable: true}, nil
}

// WornState answers the worn-state probe.
func (s *service) WornState(ctx context.Context, _ *wire.WornStateRequest) (*wire.WornStateResponse, error) {
	logger.DebugKV(ctx, "Worn-state probe answered", "state", s.worn)

	return &wire.WornStateResponse{State: s.worn}, nil
}

// NotifyStart starts the simulated wrist alert. With auto-ack configured, the
// alert is dismissed after the delay and the engine is told so.
func (s *service) NotifyStart(ctx context.Context, req *wire.NotifyStartRequest) (*wire.NotifyStartResponse, error) {
	logger.InfoKV(ctx, "Wrist alert started", "alarm_id", req.AlarmID, "label", req.Label)

	if s.autoAckDelay > 0 && s.engine != nil {
		alarmID := req.AlarmID

		time.AfterFunc(s.autoAckDelay, func() {
			ackCtx := context.Background()

			request := &wire.CommandRequest{
				AlarmID: alarmID,
				Command: wire.CommandCompanionAck,
			}

			if _, err := s.engine.Command(ackCtx, request); err != nil {
				logger.Warnf(ackCtx, "failed to acknowledge wrist alert for alarm %d: %v", alarmID, err)

				return
			}

			logger.Infof(ackCtx, "wrist alert for alarm %d acknowledged", alarmID)
		})
	}

	return &wire.NotifyStartResponse{}, nil
}

package engine

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oshokin/alarm-clock/internal/api/grpc/wire"
	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/orchestrator"
	"github.com/oshokin/alarm-clock/internal/repository/store"
)

// defaultHistoryLimit bounds History responses when the client sends none.
const defaultHistoryLimit = 20

// apiServer exposes the engine over the control API. It is unexported to
// keep the transport decoupled from the implementation.
type apiServer struct {
	// store persists alarm definitions and history.
	store store.Store
	// sessions is the live session owner.
	sessions *orchestrator.Orchestrator
	// dispatcher handles manual fire signals.
	dispatcher *orchestrator.Dispatcher
}

// newAPIServer wires the control API implementation.
func newAPIServer(
	st store.Store,
	sessions *orchestrator.Orchestrator,
	dispatcher *orchestrator.Dispatcher,
) *apiServer {
	return &apiServer{
		store:      st,
		sessions:   sessions,
		dispatcher: dispatcher,
	}
}

// Command applies a session command to the current session.
func (s *apiServer) Command(ctx context.Context, req *wire.CommandRequest) (*wire.CommandResponse, error) {
	applied := s.sessions.Command(ctx, req.AlarmID, req.Command)
	if !applied {
		logger.Debugf(ctx, "command %q ignored, alarm %d is not the current session", req.Command, req.AlarmID)
	}

	return &wire.CommandResponse{Applied: applied}, nil
}

// Fire delivers a manual fire signal through the regular dispatch pipeline.
func (s *apiServer) Fire(ctx context.Context, req *wire.FireRequest) (*wire.FireResponse, error) {
	s.dispatcher.HandleFire(ctx, req.AlarmID)

	return &wire.FireResponse{}, nil
}

// SaveAlarm inserts or replaces a definition.
func (s *apiServer) SaveAlarm(ctx context.Context, req *wire.SaveAlarmRequest) (*wire.SaveAlarmResponse, error) {
	def := wire.ToDefinition(req.Alarm)
	if !def.Time.Valid() {
		return nil, status.Errorf(codes.InvalidArgument, "invalid time of day %s", def.Time)
	}

	var err error
	if req.OneShot {
		err = s.store.SaveOneShot(ctx, def)
	} else {
		err = s.store.SaveAlarm(ctx, def)
	}

	if err != nil {
		return nil, status.Errorf(codes.Internal, "save alarm: %v", err)
	}

	return &wire.SaveAlarmResponse{}, nil
}

// SetActive flips a standing alarm's active flag.
func (s *apiServer) SetActive(ctx context.Context, req *wire.SetActiveRequest) (*wire.SetActiveResponse, error) {
	if err := s.store.SetActive(ctx, req.AlarmID, req.Active); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, status.Errorf(codes.NotFound, "alarm %d not found", req.AlarmID)
		}

		return nil, status.Errorf(codes.Internal, "set active: %v", err)
	}

	return &wire.SetActiveResponse{}, nil
}

// ListAlarms lists every standing alarm.
func (s *apiServer) ListAlarms(ctx context.Context, _ *wire.ListAlarmsRequest) (*wire.ListAlarmsResponse, error) {
	defs, err := s.store.ListAlarms(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "list alarms: %v", err)
	}

	resp := &wire.ListAlarmsResponse{Alarms: make([]wire.AlarmPayload, 0, len(defs))}
	for _, def := range defs {
		resp.Alarms = append(resp.Alarms, wire.ToAlarmPayload(def))
	}

	return resp, nil
}

// Status describes the current session.
func (s *apiServer) Status(_ context.Context, _ *wire.StatusRequest) (*wire.StatusResponse, error) {
	alarmID, playback := s.sessions.Status()

	return &wire.StatusResponse{
		SessionAlarmID: alarmID,
		Playback:       string(playback),
	}, nil
}

// History returns recent wake events, newest first.
func (s *apiServer) History(ctx context.Context, req *wire.HistoryRequest) (*wire.HistoryResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	events, err := s.store.ListWakeEvents(ctx, limit)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "list wake events: %v", err)
	}

	resp := &wire.HistoryResponse{Events: make([]wire.WakeEventPayload, 0, len(events))}
	for _, event := range events {
		resp.Events = append(resp.Events, wire.ToWakeEventPayload(event))
	}

	return resp, nil
}

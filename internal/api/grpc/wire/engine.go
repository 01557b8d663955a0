package wire

import (
	"context"

	"google.golang.org/grpc"
)

// EngineServiceName is the fully qualified engine control service name.
const EngineServiceName = "alarmclock.v1.Engine"

// Full method names of the engine control service.
const (
	EngineCommandMethod    = "/" + EngineServiceName + "/Command"
	EngineFireMethod       = "/" + EngineServiceName + "/Fire"
	EngineSaveAlarmMethod  = "/" + EngineServiceName + "/SaveAlarm"
	EngineSetActiveMethod  = "/" + EngineServiceName + "/SetActive"
	EngineListAlarmsMethod = "/" + EngineServiceName + "/ListAlarms"
	EngineStatusMethod     = "/" + EngineServiceName + "/Status"
	EngineHistoryMethod    = "/" + EngineServiceName + "/History"
)

// EngineServer is implemented by the wake engine daemon.
type EngineServer interface {
	// Command applies a session command (stop/pause/resume/companion_ack).
	Command(ctx context.Context, req *CommandRequest) (*CommandResponse, error)
	// Fire delivers a manual fire signal.
	Fire(ctx context.Context, req *FireRequest) (*FireResponse, error)
	// SaveAlarm inserts or replaces a definition.
	SaveAlarm(ctx context.Context, req *SaveAlarmRequest) (*SaveAlarmResponse, error)
	// SetActive flips an alarm's active flag.
	SetActive(ctx context.Context, req *SetActiveRequest) (*SetActiveResponse, error)
	// ListAlarms lists the standing alarms.
	ListAlarms(ctx context.Context, req *ListAlarmsRequest) (*ListAlarmsResponse, error)
	// Status describes the current session.
	Status(ctx context.Context, req *StatusRequest) (*StatusResponse, error)
	// History returns recent wake events.
	History(ctx context.Context, req *HistoryRequest) (*HistoryResponse, error)
}

// RegisterEngineServer wires an implementation into a gRPC server.
func RegisterEngineServer(s *grpc.Server, srv EngineServer) {
	s.RegisterService(&engineServiceDesc, srv)
}

//nolint:gochecknoglobals // Service descriptors are static by nature.
var engineServiceDesc = grpc.ServiceDesc{
	ServiceName: EngineServiceName,
	HandlerType: (*EngineServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Command", Handler: engineCommandHandler},
		{MethodName: "Fire", Handler: engineFireHandler},
		{MethodName: "SaveAlarm", Handler: engineSaveAlarmHandler},
		{MethodName: "SetActive", Handler: engineSetActiveHandler},
		{MethodName: "ListAlarms", Handler: engineListAlarmsHandler},
		{MethodName: "Status", Handler: engineStatusHandler},
		{MethodName: "History", Handler: engineHistoryHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "internal/api/grpc/wire/engine.go",
}

//nolint:gochecknoglobals // Static handler table entries.
var (
	engineCommandHandler = unaryHandler(EngineCommandMethod, EngineServer.Command)
	engineFireHandler    = unaryHandler(EngineFireMethod, EngineServer.Fire)

	engineSaveAlarmHandler = unaryHandler(EngineSaveAlarmMethod, EngineServer.SaveAlarm)
	engineSetActiveHandler = unaryHandler(EngineSetActiveMethod, EngineServer.SetActive)

	engineListAlarmsHandler = unaryHandler(EngineListAlarmsMethod, EngineServer.ListAlarms)
	engineStatusHandler     = unaryHandler(EngineStatusMethod, EngineServer.Status)
	engineHistoryHandler    = unaryHandler(EngineHistoryMethod, EngineServer.History)
)

// EngineClient calls the engine control service over an established connection.
type EngineClient struct {
	conn grpc.ClientConnInterface
}

// NewEngineClient returns a client over the provided connection.
func NewEngineClient(conn grpc.ClientConnInterface) *EngineClient {
	return &EngineClient{conn: conn}
}

// Command applies a session command.
func (c *EngineClient) Command(
	ctx context.Context, req *CommandRequest, opts ...grpc.CallOption,
) (*CommandResponse, error) {
	out := new(CommandResponse)
	if err := c.conn.Invoke(ctx, EngineCommandMethod, req, out, withJSON(opts)...); err != nil {
		return nil, err
	}

	return out, nil
}

// Fire delivers a manual fire signal.
func (c *EngineClient) Fire(ctx context.Context, req *FireRequest, opts ...grpc.CallOption) (*FireResponse, error) {
	out := new(FireResponse)
	if err := c.conn.Invoke(ctx, EngineFireMethod, req, out, withJSON(opts)...); err != nil {
		return nil, err
	}

	return out, nil
}

// SaveAlarm inserts or replaces a definition.
func (c *EngineClient) SaveAlarm(
	ctx context.Context, req *SaveAlarmRequest, opts ...grpc.CallOption,
) (*SaveAlarmResponse, error) {
	out := new(SaveAlarmResponse)
	if err := c.conn.Invoke(ctx, EngineSaveAlarmMethod, req, out, withJSON(opts)...); err != nil {
		return nil, err
	}

	return out, nil
}

// SetActive flips an alarm's active flag.
func (c *EngineClient) SetActive(
	ctx context.Context, req *SetActiveRequest, opts ...grpc.CallOption,
) (*SetActiveResponse, error) {
	out := new(SetActiveResponse)
	if err := c.conn.Invoke(ctx, EngineSetActiveMethod, req, out, withJSON(opts)...); err != nil {
		return nil, err
	}

	return out, nil
}

// ListAlarms lists the standing alarms.
func (c *EngineClient) ListAlarms(
	ctx context.Context, req *ListAlarmsRequest, opts ...grpc.CallOption,
) (*ListAlarmsResponse, error) {
	out := new(ListAlarmsResponse)
	if err := c.conn.Invoke(ctx, EngineListAlarmsMethod, req, out, withJSON(opts)...); err != nil {
		return nil, err
	}

	return out, nil
}

// Status describes the current session.
func (c *EngineClient) Status(ctx context.Context, req *StatusRequest, opts ...grpc.CallOption) (*StatusResponse, error) {
	out := new(StatusResponse)
	if err := c.conn.Invoke(ctx, EngineStatusMethod, req, out, withJSON(opts)...); err != nil {
		return nil, err
	}

	return out, nil
}

// History returns recent wake events.
func (c *EngineClient) History(
	ctx context.Context, req *HistoryRequest, opts ...grpc.CallOption,
) (*HistoryResponse, error) {
	out := new(HistoryResponse)
	if err := c.conn.Invoke(ctx, EngineHistoryMethod, req, out, withJSON(opts)...); err != nil {
		return nil, err
	}

	return out, nil
}

package wire

import (
	"context"

	"google.golang.org/grpc"
)

// CompanionServiceName is the fully qualified companion service name.
const CompanionServiceName = "alarmclock.v1.Companion"

// Full method names of the companion service.
const (
	CompanionPingMethod        = "/" + CompanionServiceName + "/Ping"
	CompanionWornStateMethod   = "/" + CompanionServiceName + "/WornState"
	CompanionNotifyStartMethod = "/" + CompanionServiceName + "/NotifyStart"
)

// CompanionServer is implemented by the wrist companion agent.
type CompanionServer interface {
	// Ping answers the connectivity probe.
	Ping(ctx context.Context, req *PingRequest) (*PingResponse, error)
	// WornState answers the worn-state probe.
	WornState(ctx context.Context, req *WornStateRequest) (*WornStateResponse, error)
	// NotifyStart starts the wrist alert for a firing alarm.
	NotifyStart(ctx context.Context, req *NotifyStartRequest) (*NotifyStartResponse, error)
}

// RegisterCompanionServer wires an implementation into a gRPC server.
func RegisterCompanionServer(s *grpc.Server, srv CompanionServer) {
	s.RegisterService(&companionServiceDesc, srv)
}

//nolint:gochecknoglobals // Service descriptors are static by nature.
var companionServiceDesc = grpc.ServiceDesc{
	ServiceName: CompanionServiceName,
	HandlerType: (*CompanionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: companionPingHandler},
		{MethodName: "WornState", Handler: companionWornStateHandler},
		{MethodName: "NotifyStart", Handler: companionNotifyStartHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "internal/api/grpc/wire/companion.go",
}

//nolint:gochecknoglobals // Static handler table entries.
var (
	companionPingHandler        = unaryHandler(CompanionPingMethod, CompanionServer.Ping)
	companionWornStateHandler   = unaryHandler(CompanionWornStateMethod, CompanionServer.WornState)
	companionNotifyStartHandler = unaryHandler(CompanionNotifyStartMethod, CompanionServer.NotifyStart)
)

// CompanionClient calls the companion service over an established connection.
type CompanionClient struct {
	conn grpc.ClientConnInterface
}

// NewCompanionClient returns a client over the provided connection.
func NewCompanionClient(conn grpc.ClientConnInterface) *CompanionClient {
	return &CompanionClient{conn: conn}
}

// Ping answers the connectivity probe.
func (c *CompanionClient) Ping(ctx context.Context, req *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	out := new(PingResponse)
	if err := c.conn.Invoke(ctx, CompanionPingMethod, req, out, withJSON(opts)...); err != nil {
		return nil, err
	}

	return out, nil
}

// WornState answers the worn-state probe.
func (c *CompanionClient) WornState(
	ctx context.Context, req *WornStateRequest, opts ...grpc.CallOption,
) (*WornStateResponse, error) {
	out := new(WornStateResponse)
	if err := c.conn.Invoke(ctx, CompanionWornStateMethod, req, out, withJSON(opts)...); err != nil {
		return nil, err
	}

	return out, nil
}

// NotifyStart starts the wrist alert for a firing alarm.
func (c *CompanionClient) NotifyStart(
	ctx context.Context, req *NotifyStartRequest, opts ...grpc.CallOption,
) (*NotifyStartResponse, error) {
	out := new(NotifyStartResponse)
	if err := c.conn.Invoke(ctx, CompanionNotifyStartMethod, req, out, withJSON(opts)...); err != nil {
		return nil, err
	}

	return out, nil
}

package companion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/oshokin/alarm-clock/internal/api/grpc/wire"
	"github.com/oshokin/alarm-clock/internal/config"
)

// Messenger abstracts the companion wire operations used by the handshake.
type Messenger interface {
	// Reachable probes companion connectivity within the client's probe timeout.
	Reachable(ctx context.Context) (bool, error)
	// WornState probes whether the companion is on the wrist.
	WornState(ctx context.Context) (wire.WornState, error)
	// NotifyStart tells the companion to alert the wearer for the alarm.
	NotifyStart(ctx context.Context, alarmID int64, label string) error
}

// Client is the gRPC-backed Messenger.
type Client struct {
	// conn is the underlying gRPC connection to the companion agent.
	conn *grpc.ClientConn
	// api is the companion service client over conn.
	api *wire.CompanionClient

	// probeTimeout bounds the connectivity probe.
	probeTimeout time.Duration
	// callTimeout is the default timeout for the remaining calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithProbeTimeout bounds the connectivity probe.
func WithProbeTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.probeTimeout = timeout
		}
	}
}

// WithCallTimeout sets a default timeout for non-probe calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial establishes a gRPC connection to the companion agent.
// Note: this uses insecure transport credentials; both ends sit on the same
// trusted personal network.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial companion: %w", err)
	}

	client := &Client{
		conn:         conn,
		api:          wire.NewCompanionClient(conn),
		probeTimeout: config.DefaultProbeTimeout,
		callTimeout:  config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// Reachable probes companion connectivity. A transport error or an elapsed
// probe timeout yields (false, err); the caller treats both as "not reachable".
func (c *Client) Reachable(ctx context.Context) (bool, error) {
	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	resp, err := c.api.Ping(probeCtx, &wire.PingRequest{})
	if err != nil {
		return false, fmt.Errorf("connectivity probe: %w", err)
	}

	return resp.Reachable, nil
}

// WornState probes whether the companion is on the wrist. Errors map to
// WornStateUnknown at the call site.
func (c *Client) WornState(ctx context.Context) (wire.WornState, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	resp, err := c.api.WornState(callCtx, &wire.WornStateRequest{})
	if err != nil {
		return wire.WornStateUnknown, fmt.Errorf("worn-state probe: %w", err)
	}

	return resp.State, nil
}

// NotifyStart tells the companion to alert the wearer for the alarm.
func (c *Client) NotifyStart(ctx context.Context, alarmID int64, label string) error {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	request := &wire.NotifyStartRequest{
		AlarmID: alarmID,
		Label:   label,
	}

	if _, err := c.api.NotifyStart(callCtx, request); err != nil {
		return fmt.Errorf("notify start: %w", err)
	}

	return nil
}

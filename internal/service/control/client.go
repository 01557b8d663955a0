package control

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

// Client wraps the engine control API with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the engine.
	conn *grpc.ClientConn
	// api is the engine control service client over conn.
	api *wire.EngineClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// ClientOption configures client behaviour.
type ClientOption func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial establishes a gRPC connection to the wake engine.
// Note: this uses insecure transport credentials; both ends sit on the same
// trusted personal network.
func Dial(_ context.Context, address string, opts ...ClientOption) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial engine: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         wire.NewEngineClient(conn),
		callTimeout: config.DefaultTimeout,
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

// ListAlarms lists the standing alarms.
func (c *Client) ListAlarms(ctx context.Context) ([]wire.AlarmPayload, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.ListAlarms(callCtx, &wire.ListAlarmsRequest{})
	if err != nil {
		return nil, fmt.Errorf("list alarms: %w", err)
	}

	return resp.Alarms, nil
}

// SaveAlarm inserts or replaces a definition.
func (c *Client) SaveAlarm(ctx context.Context, payload wire.AlarmPayload, oneShot bool) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	request := &wire.SaveAlarmRequest{
		Alarm:   payload,
		OneShot: oneShot,
	}

	if _, err := c.api.SaveAlarm(callCtx, request); err != nil {
		return fmt.Errorf("save alarm: %w", err)
	}

	return nil
}

// SetActive flips a standing alarm's active flag.
func (c *Client) SetActive(ctx context.Context, alarmID int64, active bool) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	request := &wire.SetActiveRequest{
		AlarmID: alarmID,
		Active:  active,
	}

	if _, err := c.api.SetActive(callCtx, request); err != nil {
		return fmt.Errorf("set active: %w", err)
	}

	return nil
}

// Fire delivers a manual fire signal.
func (c *Client) Fire(ctx context.Context, alarmID int64) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err := c.api.Fire(callCtx, &wire.FireRequest{AlarmID: alarmID}); err != nil {
		return fmt.Errorf("fire alarm: %w", err)
	}

	return nil
}

// Command applies a session command.
func (c *Client) Command(ctx context.Context, alarmID int64, command wire.SessionCommand) (bool, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	request := &wire.CommandRequest{
		AlarmID: alarmID,
		Command: command,
	}

	resp, err := c.api.Command(callCtx, request)
	if err != nil {
		return false, fmt.Errorf("send command: %w", err)
	}

	return resp.Applied, nil
}

// Status queries the engine's session state.
func (c *Client) Status(ctx context.Context) (*wire.StatusResponse, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.Status(callCtx, &wire.StatusRequest{})
	if err != nil {
		return nil, fmt.Errorf("query status: %w", err)
	}

	return resp, nil
}

// History returns recent wake events, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]wire.WakeEventPayload, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.History(callCtx, &wire.HistoryRequest{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	return resp.Events, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}

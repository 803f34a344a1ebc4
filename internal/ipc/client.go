package ipc

import (
	"context"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// dialTimeout bounds connecting to the daemon socket.
const dialTimeout = 2 * time.Second

// Client talks JSON-RPC to a running transporter over its Unix socket.
type Client struct {
	rpc *rpc.Client
}

// Dial connects to the IPC server listening at path.
func Dial(ctx context.Context, path string) (*Client, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, err
	}
	return &Client{rpc: rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	if c == nil || c.rpc == nil {
		return nil
	}
	return c.rpc.Close()
}

// Status retrieves the daemon status.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	return call[StatusResponse](ctx, c, "Status", StatusRequest{})
}

// History returns up to limit transfer history entries, newest first.
func (c *Client) History(ctx context.Context, limit int) (*HistoryResponse, error) {
	return call[HistoryResponse](ctx, c, "History", HistoryRequest{Limit: limit})
}

// TestNotification asks the daemon to send a test notification.
func (c *Client) TestNotification(ctx context.Context) (*TestNotificationResponse, error) {
	return call[TestNotificationResponse](ctx, c, "TestNotification", TestNotificationRequest{})
}

// call issues method asynchronously so that a cancelled ctx abandons the
// wait. The reply of an abandoned call is discarded by net/rpc.
func call[Resp any](ctx context.Context, c *Client, method string, req any) (*Resp, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	resp := new(Resp)
	pending := c.rpc.Go(ServiceName+"."+method, req, resp, make(chan *rpc.Call, 1))
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", method, ctx.Err())
	case done := <-pending.Done:
		if done.Error != nil {
			return nil, done.Error
		}
		return resp, nil
	}
}

package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) call(method string, req, resp any) error {
	return c.client.Call(ServiceName+"."+method, req, resp)
}

// Stop asks the daemon process to shut down.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.call("Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call("Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobList returns ledger records matching req.
func (c *Client) JobList(req JobListRequest) (*JobListResponse, error) {
	var resp JobListResponse
	if err := c.call("JobList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Statuses returns the daemon's resolved status catalog.
func (c *Client) Statuses() (*StatusesResponse, error) {
	var resp StatusesResponse
	if err := c.call("Statuses", StatusesRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Viewers returns the viewer installations the daemon found.
func (c *Client) Viewers() (*ViewersResponse, error) {
	var resp ViewersResponse
	if err := c.call("Viewers", ViewersRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Emit publishes an event through the daemon's hub.
func (c *Client) Emit(req EmitRequest) (*EmitResponse, error) {
	var resp EmitResponse
	if err := c.call("Emit", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail returns log events from the daemon.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.call("LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification sends a test mail via the daemon.
func (c *Client) TestNotification(to string) (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.call("TestNotification", TestNotificationRequest{To: to}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
)

var (
	// ErrRemote wraps an error message returned by the server.
	ErrRemote = errors.New("rpc error")
	ErrClosed = errors.New("rpc client closed")
)

// Client is safe for concurrent use; calls on one connection are
// serialised. A call that fails on the wire drops the connection and the
// next call dials again, so a late reply can never be read as the answer
// to a later request.
type Client struct {
	addr    string
	conn    net.Conn
	encoder *json.Encoder
	decoder *json.Decoder
	mu      sync.Mutex
	nextID  int64
	closed  bool
}

func Dial(ctx context.Context, addr string) (*Client, error) {
	c := &Client{addr: addr}
	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", c.addr, err)
	}
	c.conn = conn
	c.encoder = json.NewEncoder(conn)
	c.decoder = json.NewDecoder(conn)
	return nil
}

// reset discards the connection after a transport failure.
func (c *Client) reset() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = nil
	c.encoder = nil
	c.decoder = nil
}

// Call invokes method with params and decodes the reply into result, which
// may be nil. ctx's deadline bounds the round trip.
func (c *Client) Call(ctx context.Context, method string, params, result any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encoding params: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.conn == nil {
		if err := c.connect(ctx); err != nil {
			return err
		}
	}

	deadline, _ := ctx.Deadline()
	_ = c.conn.SetDeadline(deadline)

	c.nextID++
	req := Request{ID: c.nextID, Method: method, Params: raw}
	if err := c.encoder.Encode(req); err != nil {
		c.reset()
		return fmt.Errorf("sending %s: %w", method, err)
	}
	var resp Response
	if err := c.decoder.Decode(&resp); err != nil {
		c.reset()
		return fmt.Errorf("reading %s reply: %w", method, err)
	}
	if resp.ID != req.ID {
		c.reset()
		return fmt.Errorf("reply id %d does not match request id %d", resp.ID, req.ID)
	}
	if resp.Error != "" {
		return fmt.Errorf("%w: %s", ErrRemote, resp.Error)
	}
	if result != nil && len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, result); err != nil {
			return fmt.Errorf("decoding %s reply: %w", method, err)
		}
	}
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/aether-shell/aether/internal/models"
)

// ErrNotConnected is returned when a request is sent on a closed connection
var ErrNotConnected = errors.New("not connected")

// Connection manages the Unix domain socket connection to the daemon
type Connection struct {
	socketPath string
	conn       net.Conn
	reader     *bufio.Reader
	timeout    time.Duration
}

// NewConnection creates a new connection instance
func NewConnection(socketPath string, timeout time.Duration) *Connection {
	return &Connection{
		socketPath: socketPath,
		timeout:    timeout,
	}
}

// Connect establishes the Unix domain socket connection
func (c *Connection) Connect() error {
	var err error
	c.conn, err = net.Dial("unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("failed to connect to socket %s: %w", c.socketPath, err)
	}
	c.reader = bufio.NewReader(c.conn)
	return nil
}

// Close closes the connection
func (c *Connection) Close() error {
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// IsConnected returns true if the connection is established
func (c *Connection) IsConnected() bool {
	return c.conn != nil
}

func (c *Connection) write(req *models.MessageEnvelope) error {
	if c.conn == nil {
		return ErrNotConnected
	}

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	// Send with newline delimiter
	data = append(data, '\n')
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("failed to write request: %w", err)
	}
	return nil
}

// readEnvelope reads one line. A zero deadline keeps whatever deadline the
// connection already has.
func (c *Connection) readEnvelope(deadline time.Time) (*models.MessageEnvelope, error) {
	if !deadline.IsZero() {
		if err := c.conn.SetReadDeadline(deadline); err != nil {
			return nil, fmt.Errorf("failed to set read deadline: %w", err)
		}
	}

	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var envelope models.MessageEnvelope
	if err := json.Unmarshal(line, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &envelope, nil
}

// readResponse skips interleaved events until the response arrives
func (c *Connection) readResponse(deadline time.Time) (*models.Response, error) {
	for {
		envelope, err := c.readEnvelope(deadline)
		if err != nil {
			return nil, err
		}

		switch envelope.Type {
		case models.TypeEvent:
			continue
		case models.TypeResponse:
			if envelope.Response == nil {
				return nil, fmt.Errorf("response envelope has nil response")
			}
			return envelope.Response, nil
		default:
			return nil, fmt.Errorf("expected response, got %s", envelope.Type)
		}
	}
}

// SendRequest sends a request and waits for the response
func (c *Connection) SendRequest(ctx context.Context, req *models.MessageEnvelope) (*models.Response, error) {
	// Apply timeout if not already set
	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.write(req); err != nil {
		return nil, err
	}

	// Read response with context cancellation support
	respChan := make(chan *models.Response, 1)
	errChan := make(chan error, 1)

	go func() {
		resp, err := c.readResponse(time.Now().Add(c.timeout))
		if err != nil {
			errChan <- err
			return
		}
		respChan <- resp
	}()

	select {
	case <-ctx.Done():
		// Abandon the connection so a late response cannot answer the next request
		c.conn.SetReadDeadline(time.Now())
		select {
		case <-errChan:
		case <-respChan:
		}
		c.Close()
		return nil, fmt.Errorf("request cancelled or timed out: %w", ctx.Err())
	case err := <-errChan:
		return nil, err
	case resp := <-respChan:
		return resp, nil
	}
}

// Stream sends req and then delivers every event that follows to fn until
// ctx is cancelled or the server closes the connection.
func (c *Connection) Stream(ctx context.Context, req *models.MessageEnvelope, fn func(*models.Event)) error {
	if err := c.write(req); err != nil {
		return err
	}

	resp, err := c.readResponse(time.Now().Add(c.timeout))
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("server error: %s", resp.GetError())
	}

	if err := c.conn.SetReadDeadline(time.Time{}); err != nil {
		return err
	}
	// Unblock the reader when the caller gives up
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		envelope, err := c.readEnvelope(time.Time{})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if envelope.Type == models.TypeEvent && envelope.Event != nil {
			fn(envelope.Event)
		}
	}
}

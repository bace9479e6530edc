// Package client is the Go side of the session protocol: it creates a
// session's named pipes, performs the setup handshake over the server's
// control pipe and then issues one request per call.
//
// A Client is safe for concurrent use, but requests are serialised: the
// protocol allows a single outstanding request per session.
package client

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/iliyamo/event-management-system/internal/protocol"
	"github.com/iliyamo/event-management-system/internal/stream"
)

// ErrClosed is returned by calls made after Quit.
var ErrClosed = errors.New("client: session closed")

// Client is one open session.
type Client struct {
	mu sync.Mutex

	id       int32
	reqPath  string
	respPath string

	req  *os.File
	resp *os.File
	enc  *protocol.Encoder
	dec  *protocol.Decoder
}

// Setup creates the request and response pipes, asks the server listening
// on serverPath for a session and waits until a worker picks it up.  It
// blocks while every worker is busy.
func Setup(reqPath, respPath, serverPath string) (*Client, error) {
	enc := protocol.NewEncoder()
	if err := (protocol.SetupRequest{RequestPath: reqPath, ResponsePath: respPath}).Encode(enc); err != nil {
		return nil, err
	}

	if err := stream.MakeFIFO(respPath); err != nil {
		return nil, err
	}
	if err := stream.MakeFIFO(reqPath); err != nil {
		_ = os.Remove(respPath)
		return nil, err
	}

	c := &Client{reqPath: reqPath, respPath: respPath, enc: enc}
	if err := c.handshake(serverPath); err != nil {
		c.release()
		return nil, err
	}
	return c, nil
}

func (c *Client) handshake(serverPath string) error {
	server, err := os.OpenFile(serverPath, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("connect to server pipe: %w", err)
	}
	err = c.enc.Flush(server)
	_ = server.Close()
	if err != nil {
		return fmt.Errorf("send setup: %w", err)
	}

	// The worker opens the request pipe first, so this order cannot deadlock.
	if c.req, err = os.OpenFile(c.reqPath, os.O_WRONLY, 0); err != nil {
		return fmt.Errorf("open request pipe: %w", err)
	}
	if c.resp, err = os.OpenFile(c.respPath, os.O_RDONLY, 0); err != nil {
		return fmt.Errorf("open response pipe: %w", err)
	}
	c.dec = protocol.NewDecoder(c.resp)

	if c.id, err = c.dec.ReadInt(); err != nil {
		return fmt.Errorf("read session id: %w", err)
	}
	return nil
}

// release closes both endpoints and removes the pipes.
func (c *Client) release() {
	if c.req != nil {
		_ = c.req.Close()
		c.req = nil
	}
	if c.resp != nil {
		_ = c.resp.Close()
		c.resp = nil
	}
	_ = os.Remove(c.reqPath)
	_ = os.Remove(c.respPath)
}

// SessionID returns the id the server assigned to this session.
func (c *Client) SessionID() int32 { return c.id }

// Quit ends the session, closes both endpoints and removes the pipes.
// Calling Quit twice returns ErrClosed.
func (c *Client) Quit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.req == nil {
		return ErrClosed
	}
	err := c.send(protocol.QuitRequest{SessionID: c.id})
	c.release()
	return err
}

// Create asks for a new event and returns the server's result code.
func (c *Client) Create(eventID uint32, rows, cols uint64) (int32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.send(protocol.CreateRequest{SessionID: c.id, EventID: eventID, Rows: rows, Cols: cols}); err != nil {
		return protocol.ResultFailed, err
	}
	return c.result()
}

// Reserve asks for seats under a single reservation and returns the result
// code.  Between one and protocol.MaxReservationSize seats may be requested.
func (c *Client) Reserve(eventID uint32, seats []protocol.Seat) (int32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.send(protocol.ReserveRequest{SessionID: c.id, EventID: eventID, Seats: seats}); err != nil {
		return protocol.ResultFailed, err
	}
	return c.result()
}

// Show returns the event's seat grid.  The grid is nil unless the result
// code is protocol.ResultOK.
func (c *Client) Show(eventID uint32) (int32, *protocol.ShowResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.send(protocol.ShowRequest{SessionID: c.id, EventID: eventID}); err != nil {
		return protocol.ResultFailed, nil, err
	}
	code, show, err := c.dec.ReadShow()
	if err != nil {
		return protocol.ResultFailed, nil, fmt.Errorf("read show response: %w", err)
	}
	return code, show, nil
}

// List returns every event id in creation order.  The result code is
// protocol.ResultNoEvents when the store is empty.
func (c *Client) List() (int32, *protocol.ListResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.send(protocol.ListRequest{SessionID: c.id}); err != nil {
		return protocol.ResultFailed, nil, err
	}
	code, list, err := c.dec.ReadList()
	if err != nil {
		return protocol.ResultFailed, nil, fmt.Errorf("read list response: %w", err)
	}
	return code, list, nil
}

func (c *Client) send(r protocol.Request) error {
	if c.req == nil {
		return ErrClosed
	}
	c.enc.Reset()
	if err := r.Encode(c.enc); err != nil {
		return err
	}
	if err := c.enc.Flush(c.req); err != nil {
		return fmt.Errorf("send %s: %w", r.Op(), err)
	}
	return nil
}

func (c *Client) result() (int32, error) {
	code, err := c.dec.ReadInt()
	if err != nil {
		return protocol.ResultFailed, fmt.Errorf("read result: %w", err)
	}
	return code, nil
}

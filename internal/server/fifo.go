package server

import (
	"fmt"
	"io"
	"os"

	"github.com/iliyamo/event-management-system/internal/stream"
)

// Opener opens the two endpoints of a session.  The server uses FIFOOpener;
// tests substitute in-memory pipes.
type Opener interface {
	OpenRequest(path string) (io.ReadCloser, error)
	OpenResponse(path string) (io.WriteCloser, error)
}

// FIFOOpener opens named pipes created by the client.  Opening blocks until
// the client has opened the other end, exactly like open(2) on a FIFO.
type FIFOOpener struct{}

func (FIFOOpener) OpenRequest(path string) (io.ReadCloser, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open request pipe: %w", err)
	}
	return f, nil
}

func (FIFOOpener) OpenResponse(path string) (io.WriteCloser, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open response pipe: %w", err)
	}
	return f, nil
}

// OpenControl creates the server's control FIFO and opens it read-write, so
// the listener never sees end-of-stream when the last client disconnects.
func OpenControl(path string) (*os.File, error) {
	if err := stream.MakeFIFO(path); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("open control pipe: %w", err)
	}
	return f, nil
}

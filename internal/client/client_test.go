package client_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-management-system/internal/client"
	"github.com/iliyamo/event-management-system/internal/handler"
	"github.com/iliyamo/event-management-system/internal/protocol"
	"github.com/iliyamo/event-management-system/internal/repository"
	"github.com/iliyamo/event-management-system/internal/server"
)

// shortDir returns a scratch directory whose paths fit a protocol path record.
func shortDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "ems")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	if len(filepath.Join(dir, "c0.resp")) >= protocol.PathSize {
		t.Skipf("temp dir %q too long for a %d-byte path record", dir, protocol.PathSize)
	}
	return dir
}

func startServer(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "srv")
	control, err := server.OpenControl(path)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handler.NewSessionHandler(repository.NewEventRepo(0), nil, logger, nil)
	srv := server.New(h, server.WithLogger(logger))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, control) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(3 * time.Second):
			t.Error("server did not stop")
		}
		_ = os.Remove(path)
	})
	return path
}

func TestClient_SessionOverFIFOs(t *testing.T) {
	dir := shortDir(t)
	srv := startServer(t, dir)

	reqPath, respPath := filepath.Join(dir, "c0.req"), filepath.Join(dir, "c0.resp")
	c, err := client.Setup(reqPath, respPath, srv)
	require.NoError(t, err)
	assert.Equal(t, int32(0), c.SessionID())

	code, _, err := c.List()
	require.NoError(t, err)
	assert.Equal(t, protocol.ResultNoEvents, code)

	code, err = c.Create(7, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, protocol.ResultOK, code)

	code, err = c.Reserve(7, []protocol.Seat{{Row: 2, Col: 2}})
	require.NoError(t, err)
	assert.Equal(t, protocol.ResultOK, code)

	code, err = c.Reserve(7, []protocol.Seat{{Row: 1, Col: 1}, {Row: 2, Col: 2}})
	require.NoError(t, err)
	assert.Equal(t, protocol.ResultFailed, code)

	code, show, err := c.Show(7)
	require.NoError(t, err)
	require.Equal(t, protocol.ResultOK, code)
	assert.Equal(t, []uint32{0, 0, 0, 1}, show.Seats)

	code, show, err = c.Show(8)
	require.NoError(t, err)
	assert.Equal(t, protocol.ResultFailed, code)
	assert.Nil(t, show)

	code, list, err := c.List()
	require.NoError(t, err)
	require.Equal(t, protocol.ResultOK, code)
	assert.Equal(t, []uint32{7}, list.EventIDs)

	require.NoError(t, c.Quit())
	assert.NoFileExists(t, reqPath)
	assert.NoFileExists(t, respPath)

	assert.ErrorIs(t, c.Quit(), client.ErrClosed)
	_, err = c.Create(1, 1, 1)
	assert.ErrorIs(t, err, client.ErrClosed)
}

func TestClient_SharedStoreAcrossSessions(t *testing.T) {
	dir := shortDir(t)
	srv := startServer(t, dir)

	a, err := client.Setup(filepath.Join(dir, "a.req"), filepath.Join(dir, "a.resp"), srv)
	require.NoError(t, err)
	b, err := client.Setup(filepath.Join(dir, "b.req"), filepath.Join(dir, "b.resp"), srv)
	require.NoError(t, err)
	assert.NotEqual(t, a.SessionID(), b.SessionID())

	code, err := a.Create(1, 1, 3)
	require.NoError(t, err)
	require.Equal(t, protocol.ResultOK, code)

	code, err = b.Create(1, 5, 5)
	require.NoError(t, err)
	assert.Equal(t, protocol.ResultFailed, code)

	code, err = b.Reserve(1, []protocol.Seat{{Row: 1, Col: 3}})
	require.NoError(t, err)
	assert.Equal(t, protocol.ResultOK, code)

	_, show, err := a.Show(1)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 0, 1}, show.Seats)

	require.NoError(t, a.Quit())
	require.NoError(t, b.Quit())
}

func TestClient_SetupRejectsLongPath(t *testing.T) {
	dir := shortDir(t)
	long := filepath.Join(dir, strings.Repeat("x", protocol.PathSize))

	_, err := client.Setup(long, filepath.Join(dir, "r"), filepath.Join(dir, "srv"))
	assert.ErrorIs(t, err, protocol.ErrPathTooLong)
	assert.NoFileExists(t, long)
}

func TestClient_SetupWithoutServerCleansUp(t *testing.T) {
	dir := shortDir(t)
	reqPath, respPath := filepath.Join(dir, "q"), filepath.Join(dir, "p")

	_, err := client.Setup(reqPath, respPath, filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NoFileExists(t, reqPath)
	assert.NoFileExists(t, respPath)
}

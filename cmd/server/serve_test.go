package main

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-management-system/internal/model"
	"github.com/iliyamo/event-management-system/internal/repository"
)

func TestParseDelay(t *testing.T) {
	d, err := parseDelay("250")
	require.NoError(t, err)
	assert.Equal(t, 250*time.Microsecond, d)

	d, err = parseDelay("0")
	require.NoError(t, err)
	assert.Zero(t, d)

	for _, bad := range []string{"", "-1", "10ms", "4294967296"} {
		_, err := parseDelay(bad)
		assert.Error(t, err, bad)
	}
}

func TestDump(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repository.NewEventRepo(0)

	var out bytes.Buffer
	dump(repo, &out, logger)
	assert.Equal(t, "No events\n", out.String())

	require.NoError(t, repo.Create(3, 1, 2))
	_, err := repo.Reserve(3, []model.SeatRef{{Row: 1, Col: 2}})
	require.NoError(t, err)

	out.Reset()
	dump(repo, &out, logger)
	assert.Equal(t, "Event: 3\n0 1\n", out.String())
}

func TestServeCmd_Args(t *testing.T) {
	cmd := serveCmd()
	assert.Error(t, cmd.Args(cmd, nil))
	assert.Error(t, cmd.Args(cmd, []string{"a", "b", "c"}))
	assert.NoError(t, cmd.Args(cmd, []string{"/tmp/ems"}))
}

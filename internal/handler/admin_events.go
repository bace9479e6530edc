// This file defines handlers for the read-only admin API.  These routes let
// operators inspect the in-memory event table over HTTP without opening a
// session; they never mutate the store.

package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-management-system/internal/repository"
)

// AdminHandler exposes event snapshots as JSON.
type AdminHandler struct {
	Repo *repository.EventRepo // store being inspected
}

// NewAdminHandler constructs an AdminHandler and panics if repo is nil.
func NewAdminHandler(repo *repository.EventRepo) *AdminHandler {
	if repo == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{Repo: repo}
}

// EventView is the JSON shape of a single event.  Seats is the grid split
// into rows; 0 marks a free seat.
type EventView struct {
	ID    uint32     `json:"id"`
	Rows  uint64     `json:"rows"`
	Cols  uint64     `json:"cols"`
	Free  int        `json:"free"`
	Seats [][]uint32 `json:"seats"`
}

// ListEvents handles GET /v1/events.  The response contains an "events"
// array of ids in insertion order; an empty store yields an empty array.
func (h *AdminHandler) ListEvents(c echo.Context) error {
	ids, err := h.Repo.List()
	switch {
	case errors.Is(err, repository.ErrNoEvents):
		ids = []uint32{}
	case err != nil:
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "event store unavailable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"events": ids})
}

// GetEvent handles GET /v1/events/:id and returns the event's seat grid.
func (h *AdminHandler) GetEvent(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ev, err := h.Repo.Show(uint32(id))
	switch {
	case errors.Is(err, repository.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	case err != nil:
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "event store unavailable"})
	}
	free := 0
	for _, s := range ev.Seats {
		if s == 0 {
			free++
		}
	}
	return c.JSON(http.StatusOK, EventView{
		ID:    ev.ID,
		Rows:  ev.Rows,
		Cols:  ev.Cols,
		Free:  free,
		Seats: ev.Grid(),
	})
}

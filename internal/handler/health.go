package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-management-system/internal/repository"
)

// Health returns a health-check handler for load balancers and monitoring
// systems.  It answers "ok" with 200 while the event store is usable and
// 503 once the store has been torn down.
func Health(repo *repository.EventRepo) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := repo.List(); err != nil && !errors.Is(err, repository.ErrNoEvents) {
			return c.String(http.StatusServiceUnavailable, "unavailable")
		}
		return c.String(http.StatusOK, "ok")
	}
}

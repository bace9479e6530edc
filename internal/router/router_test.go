package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-management-system/internal/metrics"
	"github.com/iliyamo/event-management-system/internal/repository"
)

func serve(e *echo.Echo, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRegisterRoutes(t *testing.T) {
	repo := repository.NewEventRepo(0)
	require.NoError(t, repo.Create(4, 1, 2))

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.SessionAdmitted()

	var cached []string
	e := echo.New()
	RegisterRoutes(e, repo, Options{
		Gatherer: reg,
		Cache: func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				cached = append(cached, c.Path())
				return next(c)
			}
		},
	})

	rec := serve(e, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = serve(e, "/v1/events")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"events":[4]}`, rec.Body.String())

	rec = serve(e, "/v1/events/4")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":4,"rows":1,"cols":2,"free":2,"seats":[[0,0]]}`, rec.Body.String())

	rec = serve(e, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ems_sessions_admitted_total 1")

	assert.Equal(t, []string{"/v1/events", "/v1/events/:id"}, cached)
}

func TestRegisterRoutes_WithoutMetrics(t *testing.T) {
	e := echo.New()
	RegisterRoutes(e, repository.NewEventRepo(0), Options{})

	assert.Equal(t, http.StatusNotFound, serve(e, "/metrics").Code)
	assert.Equal(t, http.StatusOK, serve(e, "/v1/events").Code)
}

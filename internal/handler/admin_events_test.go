package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-management-system/internal/model"
	"github.com/iliyamo/event-management-system/internal/repository"
)

func serve(t *testing.T, repo *repository.EventRepo, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h := NewAdminHandler(repo)
	e.GET("/healthz", Health(repo))
	e.GET("/v1/events", h.ListEvents)
	e.GET("/v1/events/:id", h.GetEvent)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestAdmin_ListEvents(t *testing.T) {
	repo := repository.NewEventRepo(0)

	rec := serve(t, repo, "/v1/events")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"events":[]}`, rec.Body.String())

	require.NoError(t, repo.Create(2, 1, 1))
	require.NoError(t, repo.Create(1, 1, 1))
	rec = serve(t, repo, "/v1/events")
	assert.JSONEq(t, `{"events":[2,1]}`, rec.Body.String())
}

func TestAdmin_GetEvent(t *testing.T) {
	repo := repository.NewEventRepo(0)
	require.NoError(t, repo.Create(5, 2, 2))
	_, err := repo.Reserve(5, []model.SeatRef{{Row: 2, Col: 1}})
	require.NoError(t, err)

	rec := serve(t, repo, "/v1/events/5")
	require.Equal(t, http.StatusOK, rec.Code)
	var view EventView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, EventView{ID: 5, Rows: 2, Cols: 2, Free: 3, Seats: [][]uint32{{0, 0}, {1, 0}}}, view)

	assert.Equal(t, http.StatusNotFound, serve(t, repo, "/v1/events/6").Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, repo, "/v1/events/abc").Code)
}

func TestAdmin_Health(t *testing.T) {
	repo := repository.NewEventRepo(0)

	rec := serve(t, repo, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	require.NoError(t, repo.Close())
	assert.Equal(t, http.StatusServiceUnavailable, serve(t, repo, "/healthz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(t, repo, "/v1/events").Code)
}

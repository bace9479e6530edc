// Package router registers the admin HTTP routes on an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/event-management-system/internal/handler"
	"github.com/iliyamo/event-management-system/internal/repository"
)

// Options carries the optional pieces of the admin surface.  Nil
// middleware is skipped; a nil Gatherer leaves /metrics unregistered.
type Options struct {
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
	Gatherer  prometheus.Gatherer
}

// RegisterRoutes mounts the admin routes:
//
//	GET /healthz          liveness of the event store
//	GET /metrics          Prometheus exposition
//	GET /v1/events        ids of every event
//	GET /v1/events/:id    one event's seat grid
//
// The /v1 group is rate limited and cached; health and metrics are not.
func RegisterRoutes(e *echo.Echo, repo *repository.EventRepo, opts Options) {
	e.GET("/healthz", handler.Health(repo))
	if opts.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	admin := handler.NewAdminHandler(repo)
	v1 := e.Group("/v1")
	for _, mw := range []echo.MiddlewareFunc{opts.RateLimit, opts.Cache} {
		if mw != nil {
			v1.Use(mw)
		}
	}
	v1.GET("/events", admin.ListEvents)
	v1.GET("/events/:id", admin.GetEvent)
}

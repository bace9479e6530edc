package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/event-management-system/internal/config"
	"github.com/iliyamo/event-management-system/internal/handler"
	"github.com/iliyamo/event-management-system/internal/metrics"
	"github.com/iliyamo/event-management-system/internal/middleware"
	"github.com/iliyamo/event-management-system/internal/protocol"
	"github.com/iliyamo/event-management-system/internal/repository"
	"github.com/iliyamo/event-management-system/internal/router"
	"github.com/iliyamo/event-management-system/internal/server"
	"github.com/iliyamo/event-management-system/internal/service"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve <pipe_path> [delay_us]",
		Short: "Run the session server",
		Long: `Create the control pipe at pipe_path and serve sessions until SIGINT
or SIGTERM.  delay_us is the simulated access delay, in microseconds,
paid on every event lookup (default 10).

SIGUSR1 prints every event and its seat grid to standard output.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delay := protocol.DefaultAccessDelay
			if len(args) == 2 {
				var err error
				if delay, err = parseDelay(args[1]); err != nil {
					return err
				}
			}
			return runServe(cmd.Context(), args[0], delay)
		},
	}
}

// parseDelay reads a delay in microseconds.  The value must fit an
// unsigned 32-bit integer.
func parseDelay(s string) (time.Duration, error) {
	us, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid delay value or value too large: %q", s)
	}
	return time.Duration(us) * time.Microsecond, nil
}

func runServe(ctx context.Context, pipePath string, delay time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := config.NewLogger(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	repo := repository.NewEventRepo(delay)
	defer repo.Close()

	var notifier handler.Notifier
	if cfg.PublishReservations {
		pub := service.NewPublisher(cfg.AMQPURL, logger)
		defer pub.Close()
		notifier = pub
	}

	sessions := handler.NewSessionHandler(repo, notifier, logger, m)
	// Runs before pub.Close: in-flight notifications finish first.
	defer sessions.Wait()

	srv := server.New(
		sessions,
		server.WithLogger(logger),
		server.WithMetrics(m),
	)

	control, err := server.OpenControl(pipePath)
	if err != nil {
		return err
	}
	defer os.Remove(pipePath)

	logger.Info("server started",
		"pipe", pipePath,
		"delay", delay,
		"workers", protocol.MaxSessionCount,
		"env", cfg.Env,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx, control)
	})
	g.Go(func() error {
		dumpOnSignal(ctx, repo, os.Stdout, logger)
		return nil
	})
	if cfg.AdminAddr != "" {
		e := newAdmin(ctx, cfg, repo, reg, logger)
		g.Go(func() error {
			logger.Info("admin http listening", "addr", cfg.AdminAddr)
			if err := e.Start(cfg.AdminAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("admin http: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return e.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	logger.Info("server stopped")
	return err
}

// newAdmin builds the operator HTTP surface.  Redis is optional: without it
// the cache and the rate limiter pass requests straight through.
func newAdmin(ctx context.Context, cfg config.Config, repo *repository.EventRepo, reg *prometheus.Registry, logger *slog.Logger) *echo.Echo {
	var rdb *redis.Client
	if cfg.Cache.Enabled || cfg.RateLimit.Enabled {
		var err error
		if rdb, err = config.NewRedisClient(ctx); err != nil {
			logger.Warn("redis unavailable, admin cache and rate limit disabled", "err", err)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger.Debug("admin request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))
	if rdb != nil {
		e.Server.RegisterOnShutdown(func() { _ = rdb.Close() })
	}

	router.RegisterRoutes(e, repo, router.Options{
		RateLimit: middleware.NewTokenBucket(cfg.RateLimit, rdb, logger),
		Cache:     middleware.NewRedisCache(cfg.Cache, rdb, logger),
		Gatherer:  reg,
	})
	return e
}

// dumpOnSignal prints the store to w on every SIGUSR1 until ctx is done.
// Workers never see the signal: it is delivered to this goroutine only.
func dumpOnSignal(ctx context.Context, repo *repository.EventRepo, w io.Writer, logger *slog.Logger) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGUSR1)
	defer signal.Stop(sig)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			dump(repo, w, logger)
		}
	}
}

func dump(repo *repository.EventRepo, w io.Writer, logger *slog.Logger) {
	err := repo.Dump(w)
	switch {
	case errors.Is(err, repository.ErrNoEvents):
		fmt.Fprintln(w, "No events")
	case err != nil:
		logger.Warn("event dump failed", "err", err)
	}
}

// Package server runs the session engine: a listener that admits
// session-open requests from the control channel, a bounded admission queue,
// and a fixed pool of workers that each serve one session at a time.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/event-management-system/internal/handler"
	"github.com/iliyamo/event-management-system/internal/metrics"
	"github.com/iliyamo/event-management-system/internal/protocol"
)

// Server wires the listener, admission queue and worker pool together.
type Server struct {
	handler *handler.SessionHandler
	queue   *AdmissionQueue
	opener  Opener
	workers int
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option customises a Server.
type Option func(*Server)

// WithOpener replaces the FIFO opener used for session endpoints.
func WithOpener(o Opener) Option { return func(s *Server) { s.opener = o } }

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.logger = l } }

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option { return func(s *Server) { s.metrics = m } }

// New returns a server with protocol.MaxSessionCount workers and an
// admission queue of the same capacity.
func New(h *handler.SessionHandler, opts ...Option) *Server {
	if h == nil {
		panic("nil session handler passed to server.New")
	}
	s := &Server{
		handler: h,
		opener:  FIFOOpener{},
		workers: protocol.MaxSessionCount,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.queue = NewAdmissionQueue(s.workers, s.metrics)
	return s
}

// Queue exposes the admission queue.
func (s *Server) Queue() *AdmissionQueue { return s.queue }

// Run serves session-open requests read from control until ctx is cancelled
// or the control channel fails.  On return the control channel is closed,
// the admission queue is closed, and every worker has finished; sessions in
// progress have their endpoints closed under them.
func (s *Server) Run(ctx context.Context, control io.ReadCloser) error {
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < s.workers; i++ {
		worker := i
		g.Go(func() error {
			s.work(ctx, worker)
			return nil
		})
	}
	g.Go(func() error {
		return s.listen(ctx, control)
	})
	g.Go(func() error {
		<-ctx.Done()
		s.queue.Close()
		_ = control.Close()
		return nil
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// listen reads setup frames from the control channel and admits them.
func (s *Server) listen(ctx context.Context, control io.Reader) error {
	log := s.logger.With("component", "listener")
	dec := protocol.NewDecoder(control)
	for {
		op, err := dec.ReadOp()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, os.ErrClosed) {
				return ctx.Err()
			}
			log.Error("control channel read failed", "err", err)
			return err
		}
		if op != protocol.OpSetup {
			log.Warn("unexpected op on control channel", "op", op.String())
			s.metrics.ProtocolError()
			continue
		}

		req, err := dec.ReadSetupBody()
		if errors.Is(err, protocol.ErrInvalidPath) {
			// Both records are fixed width, so the stream is still aligned.
			log.Warn("setup frame with invalid path discarded")
			s.metrics.ProtocolError()
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error("control channel read failed", "err", err)
			return err
		}

		id, err := s.queue.Enqueue(SessionRequest{
			ID:           -1,
			RequestPath:  req.RequestPath,
			ResponsePath: req.ResponsePath,
		})
		if err != nil {
			return ctx.Err()
		}
		log.Debug("session admitted", "session_id", id, "request_path", req.RequestPath, "response_path", req.ResponsePath)
	}
}

package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/iliyamo/event-management-system/internal/protocol"
	"github.com/iliyamo/event-management-system/internal/stream"
)

// work takes admitted sessions off the queue until it is closed.
func (s *Server) work(ctx context.Context, worker int) {
	log := s.logger.With("component", "worker", "worker", worker)
	for {
		req, ok := s.queue.Dequeue()
		if !ok {
			return
		}
		s.serve(ctx, log.With("session_id", req.ID), req)
	}
}

type endpoints struct {
	in  io.ReadCloser
	out io.WriteCloser
	err error
}

// open opens the request pipe, then the response pipe: the order in which
// the client opens them.  Opening a FIFO blocks until the peer shows up, so
// the opens run on their own goroutine and a shutdown abandons them; late
// endpoints are closed as soon as they arrive.
func (s *Server) open(ctx context.Context, sr SessionRequest) (io.ReadCloser, io.WriteCloser, error) {
	ch := make(chan endpoints, 1)
	go func() {
		in, err := s.opener.OpenRequest(sr.RequestPath)
		if err != nil {
			ch <- endpoints{err: err}
			return
		}
		out, err := s.opener.OpenResponse(sr.ResponsePath)
		if err != nil {
			_ = in.Close()
			ch <- endpoints{err: err}
			return
		}
		ch <- endpoints{in: in, out: out}
	}()

	select {
	case ep := <-ch:
		return ep.in, ep.out, ep.err
	case <-ctx.Done():
		go func() {
			if ep := <-ch; ep.err == nil {
				_ = ep.in.Close()
				_ = ep.out.Close()
			}
		}()
		return nil, nil, ctx.Err()
	}
}

// serve runs one session from open to termination.
func (s *Server) serve(ctx context.Context, log *slog.Logger, sr SessionRequest) {
	in, out, err := s.open(ctx, sr)
	if err != nil {
		log.Warn("session dropped", "err", err)
		return
	}

	var once sync.Once
	closeAll := func() {
		once.Do(func() {
			_ = in.Close()
			_ = out.Close()
		})
	}
	// Shutdown unblocks a worker parked in a read on an idle session.
	stop := context.AfterFunc(ctx, closeAll)
	defer func() {
		stop()
		closeAll()
	}()

	enc := protocol.NewEncoder()
	enc.EncodeSessionID(sr.ID)
	if err := enc.Flush(out); err != nil {
		log.Warn("session id not delivered", "err", err)
		return
	}

	s.metrics.SessionStarted()
	defer s.metrics.SessionEnded()
	log.Info("session started")
	defer log.Info("session terminated")

	dec := protocol.NewDecoder(in)
	for {
		req, err := dec.ReadRequest()
		switch {
		case err == nil:
		case protocol.IsUnknownOp(err):
			log.Warn("unknown op code skipped", "err", err)
			s.metrics.ProtocolError()
			continue
		case errors.Is(err, io.EOF):
			log.Debug("client closed request pipe")
			return
		default:
			if ctx.Err() == nil {
				log.Warn("request read failed", "err", err)
				s.metrics.ProtocolError()
				enc.EncodeResult(protocol.ResultFailed)
				_ = enc.Flush(out)
			}
			return
		}

		quit := s.handler.Handle(ctx, sr.ID, req, enc)
		if err := enc.Flush(out); err != nil {
			if !stream.IsClosed(err) {
				log.Warn("response write failed", "err", err)
			}
			return
		}
		if quit {
			return
		}
	}
}

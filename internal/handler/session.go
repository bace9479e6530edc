package handler

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/iliyamo/event-management-system/internal/metrics"
	"github.com/iliyamo/event-management-system/internal/model"
	"github.com/iliyamo/event-management-system/internal/protocol"
	"github.com/iliyamo/event-management-system/internal/repository"
)

// notifyTimeout bounds a single Notifier call.
const notifyTimeout = 2 * time.Second

// Notifier is told about every successful reservation.  It is called on its
// own goroutine so a slow broker never delays the client's response;
// implementations must be safe for concurrent use.
type Notifier interface {
	ReservationConfirmed(ctx context.Context, sessionID int32, res model.Reservation) error
}

// SessionHandler turns decoded requests into event store calls and encodes
// the framed response.  One handler is shared by every worker.
type SessionHandler struct {
	Repo     *repository.EventRepo
	Notifier Notifier // optional
	Logger   *slog.Logger
	Metrics  *metrics.Metrics // optional

	notifying sync.WaitGroup
}

// NewSessionHandler constructs a handler and panics if the store is nil.
func NewSessionHandler(repo *repository.EventRepo, notifier Notifier, logger *slog.Logger, m *metrics.Metrics) *SessionHandler {
	if repo == nil {
		panic("nil repository passed to NewSessionHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{Repo: repo, Notifier: notifier, Logger: logger, Metrics: m}
}

// ResultCode maps a store error onto the wire result code.
func ResultCode(err error) int32 {
	switch {
	case err == nil:
		return protocol.ResultOK
	case errors.Is(err, repository.ErrNoEvents):
		return protocol.ResultNoEvents
	default:
		return protocol.ResultFailed
	}
}

// Handle serves one request of session sessionID, appending the response
// frame to enc.  It reports whether the session should end.  Requests whose
// session id does not match are answered with ResultFailed.
func (h *SessionHandler) Handle(ctx context.Context, sessionID int32, req protocol.Request, enc *protocol.Encoder) (quit bool) {
	log := h.Logger.With("session_id", sessionID, "op", req.Op().String())
	start := time.Now()
	var err error

	switch r := req.(type) {
	case protocol.QuitRequest:
		if r.SessionID != sessionID {
			log.Warn("quit carries foreign session id", "frame_session_id", r.SessionID)
		}
		return true

	case protocol.SetupRequest:
		// Setup belongs on the control channel; nothing is written back.
		log.Warn("setup frame on session channel discarded")
		h.Metrics.ProtocolError()
		return false

	case protocol.CreateRequest:
		if err = h.checkSession(sessionID, r.SessionID); err == nil {
			err = h.Repo.Create(r.EventID, r.Rows, r.Cols)
		}
		enc.EncodeResult(ResultCode(err))

	case protocol.ReserveRequest:
		if err = h.checkSession(sessionID, r.SessionID); err == nil {
			err = h.reserve(ctx, sessionID, r)
		}
		enc.EncodeResult(ResultCode(err))

	case protocol.ShowRequest:
		var ev model.Event
		if err = h.checkSession(sessionID, r.SessionID); err == nil {
			ev, err = h.Repo.Show(r.EventID)
		}
		if err != nil {
			enc.EncodeResult(ResultCode(err))
			break
		}
		enc.EncodeShow(protocol.ShowResponse{Rows: ev.Rows, Cols: ev.Cols, Seats: ev.Seats})

	case protocol.ListRequest:
		var ids []uint32
		if err = h.checkSession(sessionID, r.SessionID); err == nil {
			ids, err = h.Repo.List()
		}
		if err != nil {
			enc.EncodeResult(ResultCode(err))
			break
		}
		enc.EncodeList(protocol.ListResponse{EventIDs: ids})
	}

	code := ResultCode(err)
	h.Metrics.Request(req.Op().String(), strconv.Itoa(int(code)), time.Since(start))
	if err != nil {
		log.Debug("request failed", "code", code, "err", err)
	}
	return false
}

var errSessionMismatch = errors.New("frame session id does not match session")

func (h *SessionHandler) checkSession(want, got int32) error {
	if want == got {
		return nil
	}
	h.Metrics.ProtocolError()
	h.Logger.Warn("frame carries foreign session id", "session_id", want, "frame_session_id", got)
	return errSessionMismatch
}

func (h *SessionHandler) reserve(ctx context.Context, sessionID int32, r protocol.ReserveRequest) error {
	seats := make([]model.SeatRef, len(r.Seats))
	for i, s := range r.Seats {
		seats[i] = model.SeatRef{Row: s.Row, Col: s.Col}
	}
	res, err := h.Repo.Reserve(r.EventID, seats)
	if err != nil || h.Notifier == nil {
		return err
	}
	h.notifying.Add(1)
	go func() {
		defer h.notifying.Done()
		h.notify(context.WithoutCancel(ctx), sessionID, res)
	}()
	return nil
}

// Wait blocks until every pending notification has finished.  Each one is
// bounded by notifyTimeout.
func (h *SessionHandler) Wait() {
	h.notifying.Wait()
}

// notify never changes the client's result code.
func (h *SessionHandler) notify(ctx context.Context, sessionID int32, res model.Reservation) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	if err := h.Notifier.ReservationConfirmed(ctx, sessionID, res); err != nil {
		h.Logger.Warn("reservation notification failed", "session_id", sessionID, "event_id", res.EventID, "err", err)
	}
}

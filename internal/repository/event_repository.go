package repository

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/iliyamo/event-management-system/internal/model"
)

// MaxEventSeats bounds rows*cols for a single event.
const MaxEventSeats = 1 << 24

// event is the live record behind an id.  Its seat grid and reservation
// counter change only while mu is held; the table lock in EventRepo is never
// needed for that.
type event struct {
	mu           sync.Mutex
	id           uint32
	rows         uint64
	cols         uint64
	seats        []uint32 // row-major, 0 = free
	reservations uint32
}

func (e *event) index(row, col uint64) uint64 { return (row-1)*e.cols + col - 1 }

// EventRepo is the in-memory event table.  Structural changes (insert,
// teardown) take the table's writer lock; lookups and full traversals take
// its reader lock.  Seat mutation is synchronised per event, so reservations
// against different events never contend with each other.
type EventRepo struct {
	mu     sync.RWMutex
	events []*event // insertion order, used by List and Dump
	byID   map[uint32]*event
	closed bool

	// delay simulates costly storage access on every lookup by id.
	delay time.Duration
}

// NewEventRepo returns an empty, initialised store whose lookups each sleep
// for delay before searching.
func NewEventRepo(delay time.Duration) *EventRepo {
	return &EventRepo{
		byID:  make(map[uint32]*event),
		delay: delay,
	}
}

// AccessDelay reports the configured per-lookup delay.
func (r *EventRepo) AccessDelay() time.Duration { return r.delay }

// lookup must be called with r.mu held in either mode.
func (r *EventRepo) lookup(id uint32) *event {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	return r.byID[id]
}

// find resolves id under the reader lock and releases the table before the
// caller touches the event.
func (r *EventRepo) find(id uint32) (*event, error) {
	if r == nil {
		return nil, ErrNotInitialized
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ErrNotInitialized
	}
	ev := r.lookup(id)
	if ev == nil {
		return nil, ErrEventNotFound
	}
	return ev, nil
}

// Create appends a new event with an all-free rows×cols grid.  It fails with
// ErrEventExists when the id is taken and ErrInvalidDimensions when either
// dimension is zero or the grid would exceed MaxEventSeats.
func (r *EventRepo) Create(id uint32, rows, cols uint64) error {
	if r == nil {
		return ErrNotInitialized
	}
	if rows == 0 || cols == 0 || rows > MaxEventSeats || cols > MaxEventSeats/rows {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, rows, cols)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrNotInitialized
	}
	if r.lookup(id) != nil {
		return fmt.Errorf("%w: %d", ErrEventExists, id)
	}
	ev := &event{
		id:    id,
		rows:  rows,
		cols:  cols,
		seats: make([]uint32, rows*cols),
	}
	r.events = append(r.events, ev)
	r.byID[id] = ev
	return nil
}

// Reserve stamps every requested seat with a fresh reservation id.  The call
// is all-or-nothing: if any coordinate is out of range or any seat is already
// occupied, the grid is left untouched.  Listing the same seat twice in one
// call is allowed; it is stamped once.
func (r *EventRepo) Reserve(id uint32, seats []model.SeatRef) (model.Reservation, error) {
	if len(seats) == 0 {
		return model.Reservation{}, ErrNoSeats
	}
	ev, err := r.find(id)
	if err != nil {
		return model.Reservation{}, err
	}

	ev.mu.Lock()
	defer ev.mu.Unlock()

	for _, s := range seats {
		if s.Row < 1 || s.Row > ev.rows || s.Col < 1 || s.Col > ev.cols {
			return model.Reservation{}, fmt.Errorf("%w: (%d,%d) in %dx%d", ErrSeatOutOfRange, s.Row, s.Col, ev.rows, ev.cols)
		}
	}
	for _, s := range seats {
		if ev.seats[ev.index(s.Row, s.Col)] != 0 {
			return model.Reservation{}, fmt.Errorf("%w: (%d,%d)", ErrSeatTaken, s.Row, s.Col)
		}
	}

	ev.reservations++
	resID := ev.reservations
	for _, s := range seats {
		ev.seats[ev.index(s.Row, s.Col)] = resID
	}
	return model.Reservation{
		EventID:       id,
		ReservationID: resID,
		Seats:         append([]model.SeatRef(nil), seats...),
	}, nil
}

// Show returns a snapshot of the event's dimensions and seat grid.
func (r *EventRepo) Show(id uint32) (model.Event, error) {
	ev, err := r.find(id)
	if err != nil {
		return model.Event{}, err
	}
	return ev.snapshot(), nil
}

func (e *event) snapshot() model.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return model.Event{
		ID:    e.id,
		Rows:  e.rows,
		Cols:  e.cols,
		Seats: append([]uint32(nil), e.seats...),
	}
}

// List returns every event id in insertion order, or ErrNoEvents when the
// table is empty.  The reader lock is held for the whole walk; per-event
// locks are not taken.
func (r *EventRepo) List() ([]uint32, error) {
	if r == nil {
		return nil, ErrNotInitialized
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ErrNotInitialized
	}
	if len(r.events) == 0 {
		return nil, ErrNoEvents
	}
	ids := make([]uint32, len(r.events))
	for i, ev := range r.events {
		ids[i] = ev.id
	}
	return ids, nil
}

// Dump writes every event to w as
//
//	Event: <id>
//	<row 1 reservation ids, space separated>
//	...
//
// It holds the reader lock for the walk and each event's own lock while its
// grid is printed.
func (r *EventRepo) Dump(w io.Writer) error {
	if r == nil {
		return ErrNotInitialized
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrNotInitialized
	}
	if len(r.events) == 0 {
		return ErrNoEvents
	}

	bw := bufio.NewWriter(w)
	for _, ev := range r.events {
		snap := ev.snapshot()
		fmt.Fprintf(bw, "Event: %d\n", snap.ID)
		for _, row := range snap.Grid() {
			for c, seat := range row {
				if c > 0 {
					bw.WriteByte(' ')
				}
				bw.WriteString(strconv.FormatUint(uint64(seat), 10))
			}
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

// Close tears the store down.  Every later call fails with ErrNotInitialized.
func (r *EventRepo) Close() error {
	if r == nil {
		return ErrNotInitialized
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrNotInitialized
	}
	r.closed = true
	r.events = nil
	r.byID = nil
	return nil
}

package server

import (
	"errors"
	"sync"

	"github.com/iliyamo/event-management-system/internal/metrics"
)

// ErrQueueClosed is returned by Enqueue once the queue has been closed.
var ErrQueueClosed = errors.New("admission queue closed")

// SessionRequest is a pending session-open request.  ID is assigned by
// Enqueue; the listener leaves it at -1.
type SessionRequest struct {
	ID           int32
	RequestPath  string
	ResponsePath string
}

// AdmissionQueue is a bounded FIFO ring of pending sessions guarded by a
// mutex and two condition variables.  Enqueue blocks while the ring is
// full, Dequeue while it is empty; neither spins.
type AdmissionQueue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	ring  []SessionRequest
	head  int // next slot to dequeue
	count int

	// nextID is handed out at insertion time and never reused: ids are
	// nonces, not slots.
	nextID int32
	closed bool

	metrics *metrics.Metrics
}

// NewAdmissionQueue returns a queue holding at most capacity requests.
func NewAdmissionQueue(capacity int, m *metrics.Metrics) *AdmissionQueue {
	if capacity < 1 {
		panic("admission queue capacity must be positive")
	}
	q := &AdmissionQueue{
		ring:    make([]SessionRequest, capacity),
		metrics: m,
	}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// Enqueue inserts req at the tail, waiting while the queue is full, and
// returns the session id assigned to it.
func (q *AdmissionQueue) Enqueue(req SessionRequest) (int32, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == len(q.ring) && !q.closed {
		q.notFull.Wait()
	}
	if q.closed {
		return -1, ErrQueueClosed
	}

	req.ID = q.nextID
	q.nextID++
	q.ring[(q.head+q.count)%len(q.ring)] = req
	q.count++
	q.metrics.SessionAdmitted()
	q.metrics.QueueDepth(q.count)

	q.notEmpty.Signal()
	return req.ID, nil
}

// Dequeue removes the head request, waiting while the queue is empty.  It
// returns false once the queue is closed; requests still queued at that
// point are dropped.
func (q *AdmissionQueue) Dequeue() (SessionRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if q.closed {
		return SessionRequest{}, false
	}

	req := q.ring[q.head]
	q.ring[q.head] = SessionRequest{}
	q.head = (q.head + 1) % len(q.ring)
	q.count--
	q.metrics.QueueDepth(q.count)

	q.notFull.Signal()
	return req, true
}

// Len returns the number of queued requests.
func (q *AdmissionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap returns the queue capacity.
func (q *AdmissionQueue) Cap() int { return len(q.ring) }

// Close wakes every waiter.  Subsequent Enqueue calls fail and Dequeue
// returns false.  Close is idempotent.
func (q *AdmissionQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

// Package service provides functions to publish domain events to RabbitMQ.
// Errors are logged and returned so callers can ignore failures without
// interrupting the session they are serving.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/event-management-system/internal/model"
	q "github.com/iliyamo/event-management-system/internal/queue"
)

// ErrPublisherClosed is returned by publishes made after Close.
var ErrPublisherClosed = errors.New("publisher closed")

// Publisher sends ReservationConfirmedEvent messages to the
// reservation.confirmed queue.  The broker connection is dialled lazily and
// re-dialled after any failure, so a broker outage costs only the messages
// published while it lasts.
type Publisher struct {
	url    string
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	closed bool
}

// NewPublisher returns a Publisher for the broker at url.  No connection is
// made until the first publish.
func NewPublisher(url string, logger *slog.Logger) *Publisher {
	return &Publisher{
		url:    url,
		logger: logger.With("component", "reservation-publisher"),
		now:    time.Now,
	}
}

// ReservationConfirmed publishes res as a persistent JSON message.
func (p *Publisher) ReservationConfirmed(ctx context.Context, sessionID int32, res model.Reservation) error {
	body, err := json.Marshal(NewConfirmedEvent(sessionID, res, p.now()))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPublisherClosed
	}

	ch, err := p.channel()
	if err != nil {
		p.logger.Warn("rabbitmq: connect failed", "err", err)
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    p.now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", q.ReservationQueueName, false, false, pub); err != nil {
		p.logger.Warn("rabbitmq: publish failed", "err", err)
		p.reset()
		return err
	}
	return nil
}

// channel returns the open channel, dialling and declaring the queue when
// needed.  p.mu must be held.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(q.ReservationQueueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection.  Later publishes fail with
// ErrPublisherClosed instead of dialling again.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.reset()
	return nil
}

// NewConfirmedEvent builds the message body for a successful reservation.
func NewConfirmedEvent(sessionID int32, res model.Reservation, at time.Time) q.ReservationConfirmedEvent {
	seats := make([]q.SeatRef, len(res.Seats))
	for i, s := range res.Seats {
		seats[i] = q.SeatRef{Row: s.Row, Col: s.Col}
	}
	return q.ReservationConfirmedEvent{
		EventID:       res.EventID,
		ReservationID: res.ReservationID,
		SessionID:     sessionID,
		Seats:         seats,
		ConfirmedAt:   at.UTC().Format(time.RFC3339),
	}
}

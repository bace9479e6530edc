package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AuditLogName is the file, inside the audit directory, that receives one
// line per confirmed reservation.
const AuditLogName = "reservations.log"

// StartReservationConsumer connects to RabbitMQ, declares the
// reservation.confirmed queue (durable), and appends every message to
// <dir>/reservations.log.  It runs a reconnect loop with exponential backoff
// and only returns when ctx is cancelled.  Messages that cannot be handled
// are rejected without requeue so a poison message cannot spin the loop.
func StartReservationConsumer(ctx context.Context, url, dir string, logger *slog.Logger) error {
	logger = logger.With("component", "reservation-consumer")
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			logger.Warn("failed to dial broker", "err", err, "retry_in", backoff)
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, dir, logger)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("consume loop ended, reconnecting", "err", err)
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, dir string, logger *slog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.Warn("set QoS failed", "err", err)
	}

	if _, err := ch.QueueDeclare(ReservationQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.ConsumeWithContext(ctx, ReservationQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := HandleMessage(dir, d.Body); err != nil {
			logger.Error("handle message failed", "err", err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// HandleMessage decodes one ReservationConfirmedEvent and appends it to the
// audit log in dir.
func HandleMessage(dir string, body []byte) error {
	var ev ReservationConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, AuditLogName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as a single human-friendly log line.
func FormatLine(ev ReservationConfirmedEvent) string {
	seats := make([]string, len(ev.Seats))
	for i, s := range ev.Seats {
		seats[i] = fmt.Sprintf("(%d,%d)", s.Row, s.Col)
	}
	return fmt.Sprintf("[%s] Reservation confirmed | event_id=%d | reservation_id=%d | session_id=%d | seats=[%s]\n",
		ev.ConfirmedAt, ev.EventID, ev.ReservationID, ev.SessionID, strings.Join(seats, ","))
}

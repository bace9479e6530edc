// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationQueueName is the durable queue carrying confirmed reservations.
const ReservationQueueName = "reservation.confirmed"

// ReservationConfirmedEvent is published when a reserve call succeeds.  It
// carries enough information for downstream consumers to log or notify
// without querying the server.
type ReservationConfirmedEvent struct {
	EventID       uint32    `json:"event_id"`
	ReservationID uint32    `json:"reservation_id"`
	SessionID     int32     `json:"session_id"`
	Seats         []SeatRef `json:"seats"`
	ConfirmedAt   string    `json:"confirmed_at"`
}

// SeatRef is a 1-based seat coordinate as it appears in the message body.
type SeatRef struct {
	Row uint64 `json:"row"`
	Col uint64 `json:"col"`
}

// Package repository defines error types that are reused across the event
// store. These sentinel values allow higher layers such as the session
// handlers to distinguish between failure scenarios: the wire protocol
// collapses almost all of them into result code 1, but logs and the admin
// API keep the distinction.
package repository

import "errors"

// ErrNotInitialized is returned by every operation on a store that was never
// constructed or has been closed.
var ErrNotInitialized = errors.New("event store not initialized")

// ErrEventNotFound is returned when no event has the requested id.
var ErrEventNotFound = errors.New("event not found")

// ErrEventExists is returned by Create when the id is already in use.
var ErrEventExists = errors.New("event already exists")

// ErrInvalidDimensions is returned by Create for zero rows or columns, or for
// grids too large to allocate.
var ErrInvalidDimensions = errors.New("invalid event dimensions")

// ErrNoSeats is returned by Reserve when the request names no seats.
var ErrNoSeats = errors.New("no seats requested")

// ErrSeatOutOfRange is returned by Reserve when a coordinate lies outside
// the event's grid.
var ErrSeatOutOfRange = errors.New("seat out of range")

// ErrSeatTaken is returned by Reserve when a requested seat is already
// occupied.
var ErrSeatTaken = errors.New("seat already reserved")

// ErrNoEvents is returned by List when the store holds no events.
var ErrNoEvents = errors.New("no events")

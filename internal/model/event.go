package model

// Event is a point-in-time copy of a stored event.  The store hands out
// snapshots instead of its live records so that callers can encode or
// render them without holding any lock.
//
// Fields:
//
//	ID    – caller-assigned event identifier.
//	Rows  – number of seat rows (>= 1).
//	Cols  – number of seats per row (>= 1).
//	Seats – row-major grid of reservation ids; 0 marks a free seat.
type Event struct {
	ID    uint32
	Rows  uint64
	Cols  uint64
	Seats []uint32
}

// Seat returns the reservation id at the 1-based coordinate (row, col).
// The coordinate must lie inside the grid.
func (e Event) Seat(row, col uint64) uint32 {
	return e.Seats[(row-1)*e.Cols+col-1]
}

// Grid returns the seats split into rows, convenient for JSON rendering.
func (e Event) Grid() [][]uint32 {
	grid := make([][]uint32, e.Rows)
	for r := range grid {
		start := uint64(r) * e.Cols
		grid[r] = e.Seats[start : start+e.Cols]
	}
	return grid
}

// Reservation describes one successful reserve call.  Every seat listed was
// stamped with the same ReservationID, which is unique only within its event.
//
// Fields:
//
//	EventID       – event the seats belong to.
//	ReservationID – per-event, monotonically increasing tag.
//	Seats         – the 1-based (row, col) pairs that were reserved.
type Reservation struct {
	EventID       uint32
	ReservationID uint32
	Seats         []SeatRef
}

// SeatRef is a 1-based seat coordinate.
type SeatRef struct {
	Row uint64 `json:"row"`
	Col uint64 `json:"col"`
}

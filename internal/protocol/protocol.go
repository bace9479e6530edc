// Package protocol defines the binary frames exchanged between clients and
// the event management server. Every frame starts with a one-byte op code and
// continues with fixed-width fields; integers use the host's native byte
// order, and path fields are fixed-size, null-padded records.
//
// Field widths:
//
//	int  (session id, result code) – 4 bytes, signed
//	uint (event id, reservation id) – 4 bytes, unsigned
//	size (rows, cols, counts, seat coordinates) – 8 bytes, unsigned
//	path – PathSize bytes, null padded
package protocol

import (
	"encoding/binary"
	"fmt"
	"time"
)

const (
	// PathSize is the width of a path record in a SetupSession frame,
	// including the terminating null byte.
	PathSize = 40

	// MaxSessionCount is both the size of the worker pool and the capacity
	// of the admission queue.
	MaxSessionCount = 8

	// MaxReservationSize bounds the number of seats in one ReserveSeats
	// frame.
	MaxReservationSize = 256

	// DefaultAccessDelay is the simulated cost of every event lookup.
	DefaultAccessDelay = 10 * time.Microsecond
)

// Field sizes in bytes.
const (
	intSize  = 4
	uintSize = 4
	sizeSize = 8
)

// byteOrder is shared by encoder and decoder so client and server agree.
var byteOrder = binary.NativeEndian

// OpCode is the discriminant leading every request frame.
type OpCode byte

const (
	OpSetup   OpCode = 1
	OpQuit    OpCode = 2
	OpCreate  OpCode = 3
	OpReserve OpCode = 4
	OpShow    OpCode = 5
	OpList    OpCode = 6
)

// String returns the lowercase operation name, used in logs and metric labels.
func (op OpCode) String() string {
	switch op {
	case OpSetup:
		return "setup"
	case OpQuit:
		return "quit"
	case OpCreate:
		return "create"
	case OpReserve:
		return "reserve"
	case OpShow:
		return "show"
	case OpList:
		return "list"
	}
	return fmt.Sprintf("op(%d)", byte(op))
}

// Result codes written at the head of every response.
const (
	ResultOK       int32 = 0
	ResultFailed   int32 = 1
	ResultNoEvents int32 = 2
)

package protocol

import (
	"errors"
	"fmt"
)

// ErrPathTooLong is returned when a channel path does not fit a PathSize
// record together with its null terminator.
var ErrPathTooLong = errors.New("protocol: path too long")

// ErrInvalidPath is returned for empty paths or paths containing a null byte.
var ErrInvalidPath = errors.New("protocol: invalid path")

// ErrTooManySeats is returned when a reservation names more than
// MaxReservationSize seats.
var ErrTooManySeats = errors.New("protocol: too many seats in reservation")

// ErrEmptyReservation is returned when a reservation names no seats at all.
var ErrEmptyReservation = errors.New("protocol: reservation without seats")

// ErrResponseTooLarge guards client-side decoding against absurd counts.
var ErrResponseTooLarge = errors.New("protocol: response too large")

// UnknownOpError reports a frame whose discriminant is not a known OpCode.
// Only the op code byte has been consumed when it is returned.
type UnknownOpError struct {
	Op OpCode
}

func (e *UnknownOpError) Error() string {
	return fmt.Sprintf("protocol: unknown op code %d", byte(e.Op))
}

// IsUnknownOp reports whether err is an *UnknownOpError.
func IsUnknownOp(err error) bool {
	var target *UnknownOpError
	return errors.As(err, &target)
}

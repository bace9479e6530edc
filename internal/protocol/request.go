package protocol

import "errors"

// Request is one decoded request frame.
type Request interface {
	Op() OpCode
	// Encode appends the complete frame, op code included.
	Encode(e *Encoder) error
}

// Seat is a 1-based (row, col) seat coordinate.
type Seat struct {
	Row uint64
	Col uint64
}

// SetupRequest opens a session. It travels on the server's control channel.
type SetupRequest struct {
	RequestPath  string
	ResponsePath string
}

func (SetupRequest) Op() OpCode { return OpSetup }

func (r SetupRequest) Encode(e *Encoder) error {
	e.WriteOp(OpSetup)
	if err := e.WritePath(r.RequestPath); err != nil {
		return err
	}
	return e.WritePath(r.ResponsePath)
}

// QuitRequest ends a session.
type QuitRequest struct {
	SessionID int32
}

func (QuitRequest) Op() OpCode { return OpQuit }

func (r QuitRequest) Encode(e *Encoder) error {
	e.WriteOp(OpQuit)
	e.WriteInt(r.SessionID)
	return nil
}

// CreateRequest asks for a new event with a rows×cols seat grid.
type CreateRequest struct {
	SessionID int32
	EventID   uint32
	Rows      uint64
	Cols      uint64
}

func (CreateRequest) Op() OpCode { return OpCreate }

func (r CreateRequest) Encode(e *Encoder) error {
	e.WriteOp(OpCreate)
	e.WriteInt(r.SessionID)
	e.WriteUint(r.EventID)
	e.WriteSize(r.Rows)
	e.WriteSize(r.Cols)
	return nil
}

// ReserveRequest asks for a set of seats under one reservation. On the wire
// all row indices precede all column indices.
type ReserveRequest struct {
	SessionID int32
	EventID   uint32
	Seats     []Seat
}

func (ReserveRequest) Op() OpCode { return OpReserve }

func (r ReserveRequest) Encode(e *Encoder) error {
	if len(r.Seats) == 0 {
		return ErrEmptyReservation
	}
	if len(r.Seats) > MaxReservationSize {
		return ErrTooManySeats
	}
	e.WriteOp(OpReserve)
	e.WriteInt(r.SessionID)
	e.WriteUint(r.EventID)
	e.WriteSize(uint64(len(r.Seats)))
	for _, s := range r.Seats {
		e.WriteSize(s.Row)
	}
	for _, s := range r.Seats {
		e.WriteSize(s.Col)
	}
	return nil
}

// ShowRequest asks for an event's dimensions and seat grid.
type ShowRequest struct {
	SessionID int32
	EventID   uint32
}

func (ShowRequest) Op() OpCode { return OpShow }

func (r ShowRequest) Encode(e *Encoder) error {
	e.WriteOp(OpShow)
	e.WriteInt(r.SessionID)
	e.WriteUint(r.EventID)
	return nil
}

// ListRequest asks for every event id in insertion order.
type ListRequest struct {
	SessionID int32
}

func (ListRequest) Op() OpCode { return OpList }

func (r ListRequest) Encode(e *Encoder) error {
	e.WriteOp(OpList)
	e.WriteInt(r.SessionID)
	return nil
}

// ReadRequest decodes the next frame from a session's request channel.
//
// io.EOF means the client closed the channel between frames. An
// *UnknownOpError means only the op code byte was consumed. Any other error
// leaves the stream at an undefined position.
func (d *Decoder) ReadRequest() (Request, error) {
	op, err := d.ReadOp()
	if err != nil {
		return nil, err
	}
	req, err := d.readBody(op)
	if err != nil {
		if IsUnknownOp(err) {
			return nil, err
		}
		return nil, midFrame(err)
	}
	return req, nil
}

func (d *Decoder) readBody(op OpCode) (Request, error) {
	switch op {
	case OpSetup:
		return d.readSetup()
	case OpQuit:
		id, err := d.ReadInt()
		return QuitRequest{SessionID: id}, err
	case OpCreate:
		return d.readCreate()
	case OpReserve:
		return d.readReserve()
	case OpShow:
		var r ShowRequest
		var err error
		if r.SessionID, err = d.ReadInt(); err != nil {
			return nil, err
		}
		r.EventID, err = d.ReadUint()
		return r, err
	case OpList:
		id, err := d.ReadInt()
		return ListRequest{SessionID: id}, err
	}
	return nil, &UnknownOpError{Op: op}
}

// ReadSetupBody reads the two path records that follow an OpSetup byte on the
// control channel.
func (d *Decoder) ReadSetupBody() (SetupRequest, error) {
	r, err := d.readSetup()
	if err != nil {
		return SetupRequest{}, midFrame(err)
	}
	return r, nil
}

// readSetup always consumes both records before reporting ErrInvalidPath, so
// a bad path never leaves the stream misaligned.
func (d *Decoder) readSetup() (SetupRequest, error) {
	var r SetupRequest
	reqPath, reqErr := d.ReadPath()
	if reqErr != nil && !errors.Is(reqErr, ErrInvalidPath) {
		return r, reqErr
	}
	respPath, respErr := d.ReadPath()
	if respErr != nil && !errors.Is(respErr, ErrInvalidPath) {
		return r, respErr
	}
	r = SetupRequest{RequestPath: reqPath, ResponsePath: respPath}
	if reqErr != nil {
		return r, reqErr
	}
	return r, respErr
}

func (d *Decoder) readCreate() (CreateRequest, error) {
	var r CreateRequest
	var err error
	if r.SessionID, err = d.ReadInt(); err != nil {
		return r, err
	}
	if r.EventID, err = d.ReadUint(); err != nil {
		return r, err
	}
	if r.Rows, err = d.ReadSize(); err != nil {
		return r, err
	}
	r.Cols, err = d.ReadSize()
	return r, err
}

func (d *Decoder) readReserve() (ReserveRequest, error) {
	var r ReserveRequest
	var err error
	if r.SessionID, err = d.ReadInt(); err != nil {
		return r, err
	}
	if r.EventID, err = d.ReadUint(); err != nil {
		return r, err
	}
	n, err := d.ReadSize()
	if err != nil {
		return r, err
	}
	// The seat arrays cannot be skipped without trusting n, so an oversized
	// count desynchronises the stream and ends the session.
	if n > MaxReservationSize {
		return r, ErrTooManySeats
	}
	rows, err := d.ReadSizes(int(n))
	if err != nil {
		return r, err
	}
	cols, err := d.ReadSizes(int(n))
	if err != nil {
		return r, err
	}
	r.Seats = make([]Seat, n)
	for i := range r.Seats {
		r.Seats[i] = Seat{Row: rows[i], Col: cols[i]}
	}
	return r, nil
}

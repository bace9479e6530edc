package protocol

// maxGridCells bounds how many seat ids a client will accept in a single
// ShowEvent response.
const maxGridCells = 1 << 24

// ShowResponse is the payload following a successful ShowEvent result code.
type ShowResponse struct {
	Rows  uint64
	Cols  uint64
	Seats []uint32 // row-major, len = Rows*Cols
}

// ListResponse is the payload following a successful ListEvents result code.
type ListResponse struct {
	EventIDs []uint32
}

// EncodeSessionID appends the handshake reply: the bare session id, without a
// result code.
func (e *Encoder) EncodeSessionID(id int32) { e.WriteInt(id) }

// EncodeResult appends a bare result code.
func (e *Encoder) EncodeResult(code int32) { e.WriteInt(code) }

// EncodeShow appends a successful ShowEvent response.
func (e *Encoder) EncodeShow(r ShowResponse) {
	e.WriteInt(ResultOK)
	e.WriteSize(r.Rows)
	e.WriteSize(r.Cols)
	for _, s := range r.Seats {
		e.WriteUint(s)
	}
}

// EncodeList appends a successful ListEvents response.
func (e *Encoder) EncodeList(r ListResponse) {
	e.WriteInt(ResultOK)
	e.WriteSize(uint64(len(r.EventIDs)))
	for _, id := range r.EventIDs {
		e.WriteUint(id)
	}
}

// ReadShow reads a ShowEvent response. The payload is nil unless the code is
// ResultOK.
func (d *Decoder) ReadShow() (int32, *ShowResponse, error) {
	code, err := d.ReadInt()
	if err != nil || code != ResultOK {
		return code, nil, err
	}
	var r ShowResponse
	if r.Rows, err = d.ReadSize(); err != nil {
		return code, nil, midFrame(err)
	}
	if r.Cols, err = d.ReadSize(); err != nil {
		return code, nil, midFrame(err)
	}
	if r.Rows != 0 && r.Cols > maxGridCells/r.Rows {
		return code, nil, ErrResponseTooLarge
	}
	if r.Seats, err = d.ReadUints(int(r.Rows * r.Cols)); err != nil {
		return code, nil, midFrame(err)
	}
	return code, &r, nil
}

// ReadList reads a ListEvents response. The payload is nil unless the code is
// ResultOK.
func (d *Decoder) ReadList() (int32, *ListResponse, error) {
	code, err := d.ReadInt()
	if err != nil || code != ResultOK {
		return code, nil, err
	}
	n, err := d.ReadSize()
	if err != nil {
		return code, nil, midFrame(err)
	}
	if n > maxGridCells {
		return code, nil, ErrResponseTooLarge
	}
	ids, err := d.ReadUints(int(n))
	if err != nil {
		return code, nil, midFrame(err)
	}
	return code, &ListResponse{EventIDs: ids}, nil
}

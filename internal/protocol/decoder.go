package protocol

import (
	"bytes"
	"io"

	"github.com/iliyamo/event-management-system/internal/stream"
)

// Decoder reads fixed-width fields from a byte stream. Reads always go
// through stream.ReadFull, so partial transfers are resumed and a stream that
// ends mid-field surfaces as stream.ErrShortRead.
type Decoder struct {
	r       io.Reader
	scratch [PathSize]byte
}

// NewDecoder wraps r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

func (d *Decoder) fill(n int) ([]byte, error) {
	b := d.scratch[:n]
	if _, err := stream.ReadFull(d.r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// midFrame turns a clean EOF into ErrShortRead: once the op code was read,
// the stream must not end before the frame does.
func midFrame(err error) error {
	if err == io.EOF {
		return stream.ErrShortRead
	}
	return err
}

// ReadOp reads a single op code byte. io.EOF means the peer closed the
// stream on a frame boundary.
func (d *Decoder) ReadOp() (OpCode, error) {
	b, err := d.fill(1)
	if err != nil {
		return 0, err
	}
	return OpCode(b[0]), nil
}

// ReadInt reads a 4-byte signed integer.
func (d *Decoder) ReadInt() (int32, error) {
	b, err := d.fill(intSize)
	if err != nil {
		return 0, err
	}
	return int32(byteOrder.Uint32(b)), nil
}

// ReadUint reads a 4-byte unsigned integer.
func (d *Decoder) ReadUint() (uint32, error) {
	b, err := d.fill(uintSize)
	if err != nil {
		return 0, err
	}
	return byteOrder.Uint32(b), nil
}

// ReadSize reads an 8-byte size.
func (d *Decoder) ReadSize() (uint64, error) {
	b, err := d.fill(sizeSize)
	if err != nil {
		return 0, err
	}
	return byteOrder.Uint64(b), nil
}

// ReadPath reads a PathSize record and returns the text before the first
// null byte.
func (d *Decoder) ReadPath() (string, error) {
	b, err := d.fill(PathSize)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	if len(b) == 0 {
		return "", ErrInvalidPath
	}
	return string(b), nil
}

// ReadSizes reads n consecutive sizes.
func (d *Decoder) ReadSizes(n int) ([]uint64, error) {
	out := make([]uint64, n)
	for i := range out {
		v, err := d.ReadSize()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ReadUints reads n consecutive unsigned integers.
func (d *Decoder) ReadUints(n int) ([]uint32, error) {
	out := make([]uint32, n)
	for i := range out {
		v, err := d.ReadUint()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

package protocol

import (
	"bytes"
	"io"

	"github.com/iliyamo/event-management-system/internal/stream"
)

// Encoder appends fixed-width fields to an internal buffer. A frame is built
// completely in memory and then flushed with a single WriteFull so that a
// frame is never interleaved with another writer's bytes.
type Encoder struct {
	buf []byte
}

// NewEncoder creates an encoder with a small initial capacity.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 64)}
}

// Reset empties the encoder, keeping its buffer.
func (e *Encoder) Reset() { e.buf = e.buf[:0] }

// Bytes returns the encoded bytes. The slice is valid until the next write.
func (e *Encoder) Bytes() []byte { return e.buf }

// WriteOp appends an op code.
func (e *Encoder) WriteOp(op OpCode) { e.buf = append(e.buf, byte(op)) }

// WriteInt appends a 4-byte signed integer.
func (e *Encoder) WriteInt(v int32) { e.buf = byteOrder.AppendUint32(e.buf, uint32(v)) }

// WriteUint appends a 4-byte unsigned integer.
func (e *Encoder) WriteUint(v uint32) { e.buf = byteOrder.AppendUint32(e.buf, v) }

// WriteSize appends an 8-byte size.
func (e *Encoder) WriteSize(v uint64) { e.buf = byteOrder.AppendUint64(e.buf, v) }

// WritePath appends p as a null-padded PathSize record.
func (e *Encoder) WritePath(p string) error {
	if p == "" || bytes.IndexByte([]byte(p), 0) >= 0 {
		return ErrInvalidPath
	}
	if len(p) >= PathSize {
		return ErrPathTooLong
	}
	var rec [PathSize]byte
	copy(rec[:], p)
	e.buf = append(e.buf, rec[:]...)
	return nil
}

// Flush writes the encoded frame to w and resets the encoder.
func (e *Encoder) Flush(w io.Writer) error {
	_, err := stream.WriteFull(w, e.buf)
	e.Reset()
	return err
}

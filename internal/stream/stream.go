// Package stream provides full-read and full-write primitives over arbitrary
// byte-stream handles such as named pipes. The helpers know nothing about
// framing: they only guarantee that a transfer either completes, stops at a
// clean end-of-stream, or reports why it could not.
package stream

import (
	"errors"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// ErrShortRead is returned by ReadFull when the peer closed the stream after
// some, but not all, of the requested bytes arrived.
var ErrShortRead = errors.New("stream: short read")

// ReadFull reads exactly len(buf) bytes from r. Interrupted reads are resumed.
//
// It returns the number of bytes copied and:
//   - nil when buf was filled
//   - io.EOF when the stream ended before the first byte
//   - ErrShortRead when the stream ended part way through buf
//   - the underlying error for any other failure
func ReadFull(r io.Reader, buf []byte) (int, error) {
	done := 0
	for done < len(buf) {
		n, err := r.Read(buf[done:])
		done += n
		if err == nil {
			if n == 0 {
				// A zero-byte read without error is treated as end of stream,
				// the same way read(2) reports it on a pipe.
				return done, endOfStream(done)
			}
			continue
		}
		if IsInterrupted(err) {
			continue
		}
		if errors.Is(err, io.EOF) {
			if done == len(buf) {
				return done, nil
			}
			return done, endOfStream(done)
		}
		return done, err
	}
	return done, nil
}

// WriteFull writes all of buf to w, resuming after interrupted or partial
// writes. Any other failure (including the peer hanging up) is returned.
func WriteFull(w io.Writer, buf []byte) (int, error) {
	done := 0
	for done < len(buf) {
		n, err := w.Write(buf[done:])
		done += n
		if err != nil {
			if IsInterrupted(err) {
				continue
			}
			return done, err
		}
		if n == 0 {
			return done, io.ErrShortWrite
		}
	}
	return done, nil
}

func endOfStream(done int) error {
	if done == 0 {
		return io.EOF
	}
	return ErrShortRead
}

// IsInterrupted reports whether err is a signal interruption (EINTR) after
// which the same transfer should simply be retried.  EAGAIN is not retried:
// on a non-blocking handle that the runtime cannot poll, retrying would spin.
// Pollable *os.File handles never surface EAGAIN; the runtime parks instead.
func IsInterrupted(err error) bool {
	return errors.Is(err, unix.EINTR)
}

// IsClosed reports whether err means the other end of the stream is gone or
// the handle itself was closed. Such errors end a session; they are not
// retried.
func IsClosed(err error) bool {
	switch {
	case errors.Is(err, io.EOF),
		errors.Is(err, ErrShortRead),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, os.ErrClosed),
		errors.Is(err, unix.EPIPE),
		errors.Is(err, unix.ECONNRESET):
		return true
	}
	return false
}

// Package qwire frames the catalog protocol.
//
// Every unit on the wire is a frame:
//
//	kind   uint8          1 = int, 2 = text
//	length uint32         big endian payload length
//	payload [length]byte
//
// An int frame carries exactly four bytes, a little endian int32, matching
// the four byte selectors and ids of the legacy protocol. A text frame
// carries at most MaxTextLen bytes.
package qwire

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Kind identifies the payload type of a frame.
type Kind uint8

const (
	KindInt  Kind = 0x01
	KindText Kind = 0x02
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

const (
	// MaxTextLen is the largest text payload accepted or sent.
	MaxTextLen = 1024

	intLen    = 4
	headerLen = 5
)

// ErrUnexpectedKind is returned when a frame of another kind arrives than
// the one being read. The frame has been consumed, so the stream is still in
// sync and the caller may continue.
var ErrUnexpectedKind = errors.New("qwire: unexpected frame kind")

// FrameSizeError is returned for a frame whose length is not allowed for its
// kind. The stream cannot be resynchronized after it.
type FrameSizeError struct {
	Kind Kind
	Size uint32
}

func (e FrameSizeError) Error() string {
	return fmt.Sprintf("qwire: invalid %s frame length %d", e.Kind, e.Size)
}

// Frame is one decoded frame.
type Frame struct {
	Kind    Kind
	Payload []byte
}

// Conn reads and writes frames on a byte stream.
// Reads must come from a single goroutine; writes may be concurrent.
type Conn struct {
	r *bufio.Reader
	w io.Writer

	hdr [headerLen]byte

	writeMu sync.Mutex
}

// NewConn returns a Conn over rw.
func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{
		r: bufio.NewReader(rw),
		w: rw,
	}
}

// ReadFrame reads the next frame. It returns io.EOF only if the stream ends
// cleanly between frames. A frame of unknown kind is skipped and reported as
// ErrUnexpectedKind.
func (c *Conn) ReadFrame() (Frame, error) {
	if _, err := io.ReadFull(c.r, c.hdr[:]); err != nil {
		return Frame{}, err
	}
	kind := Kind(c.hdr[0])
	size := binary.BigEndian.Uint32(c.hdr[1:])

	switch kind {
	case KindInt:
		if size != intLen {
			return Frame{}, FrameSizeError{Kind: kind, Size: size}
		}
	case KindText:
		if size > MaxTextLen {
			return Frame{}, FrameSizeError{Kind: kind, Size: size}
		}
	default:
		if size > MaxTextLen {
			return Frame{}, FrameSizeError{Kind: kind, Size: size}
		}
		if _, err := io.CopyN(io.Discard, c.r, int64(size)); err != nil {
			return Frame{}, unexpectedEOF(err)
		}
		return Frame{}, ErrUnexpectedKind
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(c.r, payload); err != nil {
		return Frame{}, unexpectedEOF(err)
	}
	return Frame{Kind: kind, Payload: payload}, nil
}

// ReadInt reads an int frame.
func (c *Conn) ReadInt() (int32, error) {
	f, err := c.ReadFrame()
	if err != nil {
		return 0, err
	}
	if f.Kind != KindInt {
		return 0, ErrUnexpectedKind
	}
	return int32(binary.LittleEndian.Uint32(f.Payload)), nil
}

// ReadText reads a text frame.
func (c *Conn) ReadText() (string, error) {
	f, err := c.ReadFrame()
	if err != nil {
		return "", err
	}
	if f.Kind != KindText {
		return "", ErrUnexpectedKind
	}
	return string(f.Payload), nil
}

// WriteInt writes v as an int frame.
func (c *Conn) WriteInt(v int32) error {
	var b [headerLen + intLen]byte
	b[0] = byte(KindInt)
	binary.BigEndian.PutUint32(b[1:], intLen)
	binary.LittleEndian.PutUint32(b[headerLen:], uint32(v))
	return c.write(b[:])
}

// WriteText writes s as a text frame.
func (c *Conn) WriteText(s string) error {
	if len(s) > MaxTextLen {
		return FrameSizeError{Kind: KindText, Size: uint32(len(s))}
	}
	b := make([]byte, headerLen+len(s))
	b[0] = byte(KindText)
	binary.BigEndian.PutUint32(b[1:], uint32(len(s)))
	copy(b[headerLen:], s)
	return c.write(b)
}

func (c *Conn) write(b []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.w.Write(b)
	return err
}

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

package qwire

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)


func TestIntAndText(t *testing.T) {
	var buf bytes.Buffer
	c := NewConn(&buf)

	if err := c.WriteInt(2); err != nil {
		t.Fatal(err)
	}
	if err := c.WriteText("admin admin"); err != nil {
		t.Fatal(err)
	}
	if err := c.WriteInt(-7); err != nil {
		t.Fatal(err)
	}
	if err := c.WriteText(""); err != nil {
		t.Fatal(err)
	}

	want := []byte{0x01, 0, 0, 0, 4, 2, 0, 0, 0}
	if !bytes.HasPrefix(buf.Bytes(), want) {
		t.Fatalf("int frame = %x, want prefix %x", buf.Bytes()[:9], want)
	}

	if v, err := c.ReadInt(); err != nil || v != 2 {
		t.Fatalf("ReadInt = %d, %v", v, err)
	}
	if s, err := c.ReadText(); err != nil || s != "admin admin" {
		t.Fatalf("ReadText = %q, %v", s, err)
	}
	if v, err := c.ReadInt(); err != nil || v != -7 {
		t.Fatalf("ReadInt = %d, %v", v, err)
	}
	if s, err := c.ReadText(); err != nil || s != "" {
		t.Fatalf("ReadText empty = %q, %v", s, err)
	}
	if _, err := c.ReadInt(); err != io.EOF {
		t.Fatalf("ReadInt at end = %v, want io.EOF", err)
	}
}

func TestPartialReads(t *testing.T) {
	var buf bytes.Buffer
	w := NewConn(&buf)
	w.WriteInt(3)
	w.WriteText("12 rest")

	// One byte per Read call.
	r := NewConn(struct {
		io.Reader
		io.Writer
	}{iotest.OneByteReader(&buf), io.Discard})
	if v, err := r.ReadInt(); err != nil || v != 3 {
		t.Fatalf("ReadInt = %d, %v", v, err)
	}
	if s, err := r.ReadText(); err != nil || s != "12 rest" {
		t.Fatalf("ReadText = %q, %v", s, err)
	}
}

func TestUnexpectedKind(t *testing.T) {
	var buf bytes.Buffer
	c := NewConn(&buf)
	c.WriteText("1")
	c.WriteInt(4)
	// Unknown kind with a small payload.
	buf.Write([]byte{0x09, 0, 0, 0, 2, 'h', 'i'})
	c.WriteText("after")

	if _, err := c.ReadInt(); !errors.Is(err, ErrUnexpectedKind) {
		t.Fatalf("ReadInt on text = %v", err)
	}
	if _, err := c.ReadText(); !errors.Is(err, ErrUnexpectedKind) {
		t.Fatalf("ReadText on int = %v", err)
	}
	if _, err := c.ReadText(); !errors.Is(err, ErrUnexpectedKind) {
		t.Fatalf("ReadText on unknown kind = %v", err)
	}
	if s, err := c.ReadText(); err != nil || s != "after" {
		t.Fatalf("stream out of sync: %q, %v", s, err)
	}
}

func TestFrameSize(t *testing.T) {
	var buf bytes.Buffer
	c := NewConn(&buf)
	if err := c.WriteText(strings.Repeat("x", MaxTextLen+1)); err == nil {
		t.Fatal("WriteText accepted oversize text")
	}

	buf.Write([]byte{0x02, 0, 0, 0x10, 0})
	var fse FrameSizeError
	if _, err := c.ReadText(); !errors.As(err, &fse) || fse.Size != 0x1000 {
		t.Fatalf("ReadText oversize = %v", err)
	}

	buf.Reset()
	buf.Write([]byte{0x01, 0, 0, 0, 2, 1, 0})
	if _, err := c.ReadInt(); !errors.As(err, &fse) || fse.Kind != KindInt {
		t.Fatalf("ReadInt short = %v", err)
	}
}

func TestTruncatedFrame(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x02, 0, 0, 0, 5, 'a', 'b'})
	c := NewConn(&buf)
	if _, err := c.ReadText(); err != io.ErrUnexpectedEOF {
		t.Fatalf("ReadText truncated = %v, want io.ErrUnexpectedEOF", err)
	}

	buf.Reset()
	buf.Write([]byte{0x01, 0})
	c = NewConn(&buf)
	if _, err := c.ReadInt(); err != io.ErrUnexpectedEOF {
		t.Fatalf("ReadInt truncated header = %v, want io.ErrUnexpectedEOF", err)
	}
}

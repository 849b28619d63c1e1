package framing

import (
	"bytes"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"testing/iotest"
)

// testCodecs is a map of codec name to factory function
var testCodecs = map[string]func(int) IFrameCodec{
	NameDelimiter: NewDelimiterCodec,
	NameLength:    NewLengthCodec,
}

func TestSplit(t *testing.T) {
	buf := []byte("LIST\r\n\r\nGET a\r\n\r\nDEL")

	frame, rest, ok := Split(buf, 0)
	if !ok || string(frame) != "LIST" {
		t.Fatalf("expected first frame LIST, got %q (ok=%v)", frame, ok)
	}
	frame, rest, ok = Split(rest, 0)
	if !ok || string(frame) != "GET a" {
		t.Fatalf("expected second frame, got %q (ok=%v)", frame, ok)
	}
	if _, rest, ok = Split(rest, 0); ok || string(rest) != "DEL" {
		t.Fatalf("expected incomplete tail DEL, got %q (ok=%v)", rest, ok)
	}

	// resuming the scan right before the end still finds a split terminator
	partial := []byte("GET a\r\n")
	from := len(partial) - len(Terminator) + 1
	full := append(partial, []byte("\r\n")...)
	if frame, _, ok := Split(full, from); !ok || string(frame) != "GET a" {
		t.Fatalf("terminator split across reads not found, got %q (ok=%v)", frame, ok)
	}
}

func TestRoundTrip(t *testing.T) {
	payloads := [][]byte{
		[]byte("LIST"),
		[]byte("GET file.txt"),
		{},
		bytes.Repeat([]byte("a"), 3<<20),
	}

	for name, factory := range testCodecs {
		t.Run(name, func(t *testing.T) {
			codec := factory(0)
			var stream bytes.Buffer
			for _, p := range payloads {
				if err := codec.WriteFrame(&stream, p); err != nil {
					t.Fatalf("write failed: %v", err)
				}
			}

			reader := codec.NewReader(&stream)
			for i, want := range payloads {
				got, err := reader.ReadFrame()
				if err != nil {
					t.Fatalf("frame %d: read failed: %v", i, err)
				}
				if !bytes.Equal(got, want) {
					t.Fatalf("frame %d: got %d bytes, want %d bytes", i, len(got), len(want))
				}
			}
			if _, err := reader.ReadFrame(); err != io.EOF {
				t.Fatalf("expected io.EOF after last frame, got %v", err)
			}
		})
	}
}

func TestOneByteReads(t *testing.T) {
	for name, factory := range testCodecs {
		t.Run(name, func(t *testing.T) {
			codec := factory(0)
			var stream bytes.Buffer
			_ = codec.WriteFrame(&stream, []byte("UPLOAD a.txt aGVsbG8="))
			_ = codec.WriteFrame(&stream, []byte("DELETE a.txt"))

			reader := codec.NewReader(iotest.OneByteReader(&stream))
			for _, want := range []string{"UPLOAD a.txt aGVsbG8=", "DELETE a.txt"} {
				got, err := reader.ReadFrame()
				if err != nil {
					t.Fatalf("read failed: %v", err)
				}
				if string(got) != want {
					t.Fatalf("got %q, want %q", got, want)
				}
			}
		})
	}
}

func TestTerminatorSplitAcrossWrites(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	go func() {
		defer client.Close()
		// the terminator arrives in two separate writes
		_, _ = client.Write([]byte("LIST\r\n"))
		_, _ = client.Write([]byte("\r\n"))
	}()

	reader := NewDelimiterCodec(0).NewReader(server)
	frame, err := reader.ReadFrame()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(frame) != "LIST" {
		t.Fatalf("got %q, want LIST", frame)
	}
	if _, err := reader.ReadFrame(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestMultipleFramesInOneRead(t *testing.T) {
	input := strings.NewReader("LIST\r\n\r\nGET a\r\n\r\nDELETE a\r\n\r\n")
	reader := NewDelimiterCodec(0).NewReader(input)

	for _, want := range []string{"LIST", "GET a", "DELETE a"} {
		got, err := reader.ReadFrame()
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if string(got) != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	}
}

func TestEarlierFramesStayValid(t *testing.T) {
	reader := NewDelimiterCodec(0).NewReader(iotest.HalfReader(strings.NewReader("first\r\n\r\nsecond\r\n\r\n")))

	first, err := reader.ReadFrame()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if _, err := reader.ReadFrame(); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(first) != "first" {
		t.Fatalf("first frame was overwritten: %q", first)
	}
}

func TestUnexpectedEOF(t *testing.T) {
	for name, factory := range testCodecs {
		t.Run(name, func(t *testing.T) {
			codec := factory(0)
			var stream bytes.Buffer
			_ = codec.WriteFrame(&stream, []byte("GET incomplete"))
			truncated := stream.Bytes()[:stream.Len()-2]

			_, err := codec.NewReader(bytes.NewReader(truncated)).ReadFrame()
			if err != io.ErrUnexpectedEOF {
				t.Fatalf("expected io.ErrUnexpectedEOF, got %v", err)
			}
		})
	}
}

func TestMaxFrameSize(t *testing.T) {
	for name, factory := range testCodecs {
		t.Run(name, func(t *testing.T) {
			var stream bytes.Buffer
			_ = factory(0).WriteFrame(&stream, bytes.Repeat([]byte("x"), 1024))

			_, err := factory(100).NewReader(&stream).ReadFrame()
			if !errors.Is(err, ErrFrameTooLarge) {
				t.Fatalf("expected ErrFrameTooLarge, got %v", err)
			}
		})
	}

	// an endless stream without terminator is cut off
	endless := io.LimitReader(iotest.OneByteReader(bytes.NewReader(bytes.Repeat([]byte("y"), 1<<16))), 1<<16)
	if _, err := NewDelimiterCodec(512).NewReader(endless).ReadFrame(); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge for unterminated stream, got %v", err)
	}
}

func TestDelimiterRejectsTerminatorInPayload(t *testing.T) {
	var stream bytes.Buffer
	err := NewDelimiterCodec(0).WriteFrame(&stream, []byte("a\r\n\r\nb"))
	if !errors.Is(err, ErrTerminatorInPayload) {
		t.Fatalf("expected ErrTerminatorInPayload, got %v", err)
	}
	if stream.Len() != 0 {
		t.Fatalf("nothing should be written, got %d bytes", stream.Len())
	}
}

func TestNewFrameCodec(t *testing.T) {
	for _, name := range []string{NameDelimiter, NameLength} {
		codec, err := NewFrameCodec(name, 0)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", name, err)
		}
		if codec.GetName() != name {
			t.Errorf("got codec %s, want %s", codec.GetName(), name)
		}
	}
	if _, err := NewFrameCodec("morse", 0); err == nil {
		t.Error("expected error for unknown codec")
	}
}

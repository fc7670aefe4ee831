package protocol

import (
	"bytes"
	"chat-relay/errors"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrame_RoundTrip(t *testing.T) {
	req := require.New(t)

	payloads := map[string][]byte{
		"empty":       {},
		"text":        []byte(`{"type":"CHAT","content":"hello"}`),
		"binary":      {0x00, 0xff, 0x10, 0x00, 0x7f},
		"one MiB":     bytes.Repeat([]byte("a"), 1<<20),
		"at the cap":  bytes.Repeat([]byte{0x42}, MaxPayloadSize),
		"utf8 runes":  []byte("héllo wörld ✓"),
		"just header": {0x00, 0x00, 0x00, 0x04},
	}

	for name, payload := range payloads {
		var buf bytes.Buffer
		req.NoError(WriteFrame(&buf, payload), name)
		req.Equal(HeaderSize+len(payload), buf.Len(), name)

		got, err := ReadFrame(&buf)
		req.NoError(err, name)
		req.Equal(len(payload), len(got), name)
		req.True(bytes.Equal(payload, got), name)
		req.Zero(buf.Len(), name)
	}
}

func TestFrame_Header_Is_BigEndian(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer

	req.NoError(WriteFrame(&buf, []byte("abc")))

	req.Equal([]byte{0, 0, 0, 3, 'a', 'b', 'c'}, buf.Bytes())
}

func TestFrame_Consecutive_Frames(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer

	// Given two frames written back to back
	req.NoError(WriteFrame(&buf, []byte("first")))
	req.NoError(WriteFrame(&buf, []byte("second")))

	// Then they are read back in order
	first, err := ReadFrame(&buf)
	req.NoError(err)
	req.Equal("first", string(first))
	second, err := ReadFrame(&buf)
	req.NoError(err)
	req.Equal("second", string(second))

	// And a third read hits the end of the stream
	_, err = ReadFrame(&buf)
	req.ErrorIs(err, io.EOF)
}

// countingReader records how many bytes were requested from it.
type countingReader struct {
	r         io.Reader
	requested int
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.requested += len(p)
	return c.r.Read(p)
}

func TestFrame_Rejects_Oversize_Without_Reading_Payload(t *testing.T) {
	req := require.New(t)

	// Given a header declaring one byte more than the ceiling
	var header [HeaderSize]byte
	binary.BigEndian.PutUint32(header[:], MaxPayloadSize+1)
	reader := &countingReader{r: io.MultiReader(bytes.NewReader(header[:]), bytes.NewReader(make([]byte, 64)))}

	// When the frame is read
	payload, err := ReadFrame(reader)

	// Then it fails as a protocol violation
	req.ErrorIs(err, errors.ErrFrameTooLarge)
	req.Nil(payload)
	// And only the header was requested
	req.Equal(HeaderSize, reader.requested)
}

func TestFrame_Rejects_Max_Uint32_Length(t *testing.T) {
	req := require.New(t)
	r := bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff})

	_, err := ReadFrame(r)

	req.ErrorIs(err, errors.ErrFrameTooLarge)
}

func TestFrame_Write_Rejects_Oversize(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer

	err := WriteFrame(&buf, make([]byte, MaxPayloadSize+1))

	req.ErrorIs(err, errors.ErrFrameTooLarge)
	req.Zero(buf.Len())
}

func TestFrame_Short_Reads(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected error
	}{
		{name: "closed before header", input: nil, expected: io.EOF},
		{name: "truncated header", input: []byte{0, 0}, expected: io.ErrUnexpectedEOF},
		{name: "truncated payload", input: []byte{0, 0, 0, 5, 'a', 'b'}, expected: io.ErrUnexpectedEOF},
		{name: "missing payload", input: []byte{0, 0, 0, 1}, expected: io.EOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadFrame(bytes.NewReader(tt.input))
			require.ErrorIs(t, err, tt.expected)
		})
	}
}

// trickleReader hands out one byte per call.
type trickleReader struct{ data []byte }

func (r *trickleReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	p[0] = r.data[0]
	r.data = r.data[1:]
	return 1, nil
}

// trickleWriter accepts at most two bytes per call.
type trickleWriter struct {
	buf   bytes.Buffer
	calls int
}

func (w *trickleWriter) Write(p []byte) (int, error) {
	w.calls++
	if len(p) > 2 {
		p = p[:2]
	}
	return w.buf.Write(p)
}

func TestFrame_Partial_IO_Is_Retried(t *testing.T) {
	req := require.New(t)
	writer := &trickleWriter{}

	// When the writer only accepts two bytes at a time
	req.NoError(WriteFrame(writer, []byte("hello")))

	// Then the whole frame still makes it through
	req.Equal([]byte{0, 0, 0, 5, 'h', 'e', 'l', 'l', 'o'}, writer.buf.Bytes())
	req.Greater(writer.calls, 2)

	// And a reader handing out one byte at a time reassembles it
	payload, err := ReadFrame(&trickleReader{data: writer.buf.Bytes()})
	req.NoError(err)
	req.Equal("hello", string(payload))
}

// stalledWriter never makes progress and never reports an error.
type stalledWriter struct{}

func (stalledWriter) Write([]byte) (int, error) { return 0, nil }

func TestFrame_Write_Fails_Without_Progress(t *testing.T) {
	req := require.New(t)

	err := WriteFrame(stalledWriter{}, []byte("x"))

	req.ErrorIs(err, io.ErrShortWrite)
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestFrame_Write_Fails_On_Connection_Error(t *testing.T) {
	req := require.New(t)

	err := WriteFrame(brokenWriter{}, []byte("x"))

	req.ErrorIs(err, io.ErrClosedPipe)
}

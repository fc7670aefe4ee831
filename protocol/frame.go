// Package protocol implements the relay wire format: length-prefixed frames
// carrying flat textual event records.
package protocol

import (
	"chat-relay/errors"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// HeaderSize is the size of the big-endian length prefix.
	HeaderSize = 4
	// MaxPayloadSize bounds the declared length of a frame (10 MiB).
	MaxPayloadSize = 10 << 20
)

// WriteFrame writes the length prefix followed by the payload.
// Partial writes are retried for as long as the writer makes progress.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxPayloadSize {
		return fmt.Errorf("%w: %d bytes", errors.ErrFrameTooLarge, len(payload))
	}
	var header [HeaderSize]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if err := writeFull(w, header[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if err := writeFull(w, payload); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads exactly one frame. A declared length above MaxPayloadSize
// is rejected before anything is allocated for the payload.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read frame header: %w", err)
	}
	size := binary.BigEndian.Uint32(header[:])
	if size > MaxPayloadSize {
		return nil, fmt.Errorf("%w: declared %d bytes", errors.ErrFrameTooLarge, size)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload: %w", err)
	}
	return payload, nil
}

func writeFull(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		if n <= 0 {
			return io.ErrShortWrite
		}
		b = b[n:]
	}
	return nil
}

package runtime

import (
	"bufio"
	"chat-relay/errors"
	"context"
	stderrors "errors"
	"io"
	"net"
	"strings"
	"time"
)

// MaxHandshakeLength bounds the display-name line sent before any frame.
const MaxHandshakeLength = 1024

// admission is a connection whose handshake completed and that waits for
// the hub to register it.
type admission struct {
	conn net.Conn
	name string
}

// handshake reads the display-name line, then hands the connection to the hub.
// The connection is closed when the handshake fails or the relay stops first.
func (r *Relay) handshake(ctx context.Context, conn net.Conn) {
	defer r.wg.Done()

	if r.config.HandshakeTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(r.config.HandshakeTimeout))
	}
	// Interrupt a pending read as soon as the relay stops.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Unix(1, 0))
	})
	defer stop()

	reader := bufio.NewReaderSize(conn, MaxHandshakeLength)
	name, err := readHandshake(reader)
	if err != nil {
		r.log.Debug("Handshake failed", "remote", conn.RemoteAddr().String(), "error", err)
		r.metrics.IncrHandshakeFailures()
		_ = conn.Close()
		return
	}
	if !stop() {
		// The relay stopped while the line was being read.
		_ = conn.Close()
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	select {
	case r.admissions <- admission{conn: bufferedConn{Conn: conn, reader: reader}, name: name}:
	case <-ctx.Done():
		_ = conn.Close()
	}
}

// readHandshake reads one line and trims its trailing line-ending characters.
// A line cut short by the end of the stream is accepted as long as it is not empty.
func readHandshake(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadSlice('\n')
	switch {
	case err == nil:
	case stderrors.Is(err, bufio.ErrBufferFull):
		return "", errors.ErrHandshakeTooLong
	case stderrors.Is(err, io.EOF) && len(line) > 0:
	default:
		return "", err
	}
	return strings.TrimRight(string(line), "\r\n"), nil
}

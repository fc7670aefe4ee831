// Package client is the interactive peer of the relay: it sends the display
// name, then multiplexes keyboard input and incoming frames on one loop.
package client

import (
	"bufio"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/protocol"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
)

// Session is one connection to the relay under a display name.
type Session struct {
	log       *slog.Logger
	conn      net.Conn
	name      string
	renderer  *Renderer
	closeOnce sync.Once
}

// Dial connects to the relay at address and announces name.
func Dial(ctx context.Context, log *slog.Logger, address, name string, renderer *Renderer) (*Session, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("could not connect to server at %s: %w", address, err)
	}
	s := NewSession(log, conn, name, renderer)
	if err := s.Handshake(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	renderer.Info("Connected to " + address)
	return s, nil
}

func NewSession(log *slog.Logger, conn net.Conn, name string, renderer *Renderer) *Session {
	return &Session{log: log, conn: conn, name: name, renderer: renderer}
}

// Handshake sends the display-name line.
func (s *Session) Handshake() error {
	if _, err := io.WriteString(s.conn, s.name+"\n"); err != nil {
		return fmt.Errorf("%w: handshake: %w", errors.ErrSendFailed, err)
	}
	return nil
}

// Send frames content as a chat message.
func (s *Session) Send(content string) error {
	if err := protocol.WriteFrame(s.conn, protocol.Encode(domain.Chat, s.name, content)); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrSendFailed, err)
	}
	return nil
}

func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.conn.Close()
		s.renderer.Info("Disconnected")
	})
	return err
}

// Run renders incoming events and sends input lines until the user types
// quit or exit, the input ends, ctx is canceled or the connection fails.
// The connection is closed on return.
func (s *Session) Run(ctx context.Context, input io.Reader) error {
	defer s.Close()
	stop := make(chan struct{})
	defer close(stop)

	frames := make(chan protocol.Message)
	readErr := make(chan error, 1)
	go s.readFrames(frames, readErr, stop)

	lines := make(chan string)
	inputErr := make(chan error, 1)
	go readLines(input, lines, inputErr, stop)

	s.renderer.Info("Connected as " + s.name)
	s.renderer.Plain("Type your messages (type 'quit' to exit):")
	s.renderer.Plain("----------------------------------------")

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-frames:
			s.renderer.Render(msg)
		case err := <-readErr:
			s.renderer.Error("Connection lost")
			return fmt.Errorf("%w: %w", errors.ErrConnectionLost, err)
		case line := <-lines:
			if line == "quit" || line == "exit" {
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := s.Send(line); err != nil {
				s.renderer.Error("Send failed")
				return err
			}
		case err := <-inputErr:
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			return nil
		}
	}
}

func (s *Session) readFrames(frames chan<- protocol.Message, failure chan<- error, stop <-chan struct{}) {
	for {
		payload, err := protocol.ReadFrame(s.conn)
		if err != nil {
			failure <- err
			return
		}
		msg := protocol.Decode(payload)
		s.log.Debug("Frame received", "type", msg.KindOrChat(), "sender", msg.Sender)
		select {
		case frames <- msg:
		case <-stop:
			return
		}
	}
}

func readLines(input io.Reader, lines chan<- string, done chan<- error, stop <-chan struct{}) {
	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		select {
		case lines <- strings.TrimRight(scanner.Text(), "\r"):
		case <-stop:
			return
		}
	}
	done <- scanner.Err()
}

package e2e

import (
	"chat-relay/domain"
	"chat-relay/protocol"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
)

type BaseRelaySuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseRelaySuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.RelayAddr == "" {
		s.T().Skip("RELAY_ADDR is not set, no relay to test against")
	}
}

// Step prints a colorized header for a scenario step in the logs.
func (s *BaseRelaySuite) Step(t *testing.T, name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)
}

// Participant is a raw protocol client of the relay under test.
type Participant struct {
	s    *BaseRelaySuite
	t    *testing.T
	Name string
	conn net.Conn
}

// Join connects name to the relay and consumes the roster it receives.
func (s *BaseRelaySuite) Join(t *testing.T, name string) (*Participant, protocol.Message) {
	s.Step(t, "Join as "+name)
	conn, err := net.DialTimeout("tcp", s.Config.RelayAddr, s.Config.Timeout)
	s.Require().NoError(err, "Failed to connect to relay at "+s.Config.RelayAddr)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = io.WriteString(conn, name+"\n")
	s.Require().NoError(err)

	p := &Participant{s: s, t: t, Name: name, conn: conn}
	roster := p.Expect(domain.UserList)
	return p, roster
}

func (p *Participant) Say(content string) {
	payload := protocol.Encode(domain.Chat, p.Name, content)
	p.trace(">>", payload)
	p.s.Require().NoError(protocol.WriteFrame(p.conn, payload))
}

// Expect reads frames until one of the given kind arrives.
// Frames of other kinds, such as traffic from unrelated clients, are skipped.
func (p *Participant) Expect(kind domain.Kind) protocol.Message {
	deadline := time.Now().Add(p.s.Config.Timeout)
	p.s.Require().NoError(p.conn.SetReadDeadline(deadline))
	for {
		payload, err := protocol.ReadFrame(p.conn)
		p.s.Require().NoError(err, "%s waited for %s", p.Name, kind)
		p.trace("<<", payload)
		if msg := protocol.Decode(payload); msg.KindOrChat() == kind {
			return msg
		}
	}
}

// ExpectFrom waits for an event of kind sent by sender.
func (p *Participant) ExpectFrom(kind domain.Kind, sender string) protocol.Message {
	for {
		msg := p.Expect(kind)
		if msg.Sender == sender {
			return msg
		}
	}
}

// Drop closes the connection without any goodbye.
func (p *Participant) Drop() {
	p.s.Step(p.t, p.Name+" drops the connection")
	p.s.Require().NoError(p.conn.Close())
}

func (p *Participant) trace(direction string, payload []byte) {
	if p.s.Config.DebugFrames {
		p.t.Logf("%s %s %s", p.Name, direction, payload)
	}
}

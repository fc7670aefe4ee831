package runtime

import (
	"bufio"
	"chat-relay/domain"
	"net"
	"sync"
	"time"
)

// Participant is one connected client. It exclusively owns its connection.
type Participant struct {
	ID       domain.ParticipantID
	Name     string
	JoinedAt time.Time

	conn      net.Conn
	closeOnce sync.Once
	closeErr  error
}

func newParticipant(conn net.Conn, name string) *Participant {
	return &Participant{
		ID:       domain.NewParticipantID(),
		Name:     name,
		JoinedAt: time.Now().UTC(),
		conn:     conn,
	}
}

// Close releases the connection. Only the first call has an effect.
func (p *Participant) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.conn.Close()
	})
	return p.closeErr
}

func (p *Participant) RemoteAddr() string {
	if addr := p.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

func (p *Participant) entry() domain.RosterEntry {
	return domain.RosterEntry{
		ID:         p.ID,
		Name:       p.Name,
		RemoteAddr: p.RemoteAddr(),
		JoinedAt:   p.JoinedAt,
	}
}

// bufferedConn reads through the reader used for the handshake line, so that
// frame bytes which arrived together with the line are not lost.
type bufferedConn struct {
	net.Conn
	reader *bufio.Reader
}

func (c bufferedConn) Read(p []byte) (int, error) {
	return c.reader.Read(p)
}

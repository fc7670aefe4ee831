package runtime

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"net"
	"slices"
	"sync"

	"github.com/samber/lo"
)

// Registry is the insertion-ordered roster of connected participants.
//
// Participants are referenced by their stable ID, never by position, so a
// removal never invalidates another reference. The relay mutates the roster
// from its single hub goroutine; the lock only protects concurrent readers
// such as the debug server and the heartbeat.
type Registry struct {
	mu           sync.RWMutex
	participants []*Participant
	byID         map[domain.ParticipantID]*Participant
}

func NewRegistry() *Registry {
	return &Registry{
		byID: make(map[domain.ParticipantID]*Participant),
	}
}

// Add appends a participant for conn and returns its identifier.
// A connection can only be registered once.
func (r *Registry) Add(conn net.Conn, name string) (domain.ParticipantID, error) {
	p, err := r.add(conn, name)
	if err != nil {
		return domain.ParticipantID{}, err
	}
	return p.ID, nil
}

func (r *Registry) add(conn net.Conn, name string) (*Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.participants {
		if sameConn(existing.conn, conn) {
			return nil, errors.ErrConnectionRegistered
		}
	}
	p := newParticipant(conn, name)
	r.participants = append(r.participants, p)
	r.byID[p.ID] = p
	return p, nil
}

// Remove deletes the participant and returns its display name.
// The relative order of the remaining participants is preserved.
func (r *Registry) Remove(id domain.ParticipantID) (string, bool) {
	p, ok := r.take(id)
	if !ok {
		return "", false
	}
	return p.Name, true
}

func (r *Registry) take(id domain.ParticipantID) (*Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	delete(r.byID, id)
	r.participants = slices.DeleteFunc(r.participants, func(candidate *Participant) bool {
		return candidate.ID == id
	})
	return p, true
}

func (r *Registry) Get(id domain.ParticipantID) (*Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	return p, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants)
}

// Names returns the display names in join order.
func (r *Registry) Names() []string {
	return lo.Map(r.list(), func(p *Participant, _ int) string {
		return p.Name
	})
}

// ForEach visits every participant in join order, skipping except when set.
// It iterates over a snapshot, so visit may add or remove participants.
func (r *Registry) ForEach(except *domain.ParticipantID, visit func(p *Participant)) {
	for _, p := range r.list() {
		if except != nil && p.ID == *except {
			continue
		}
		visit(p)
	}
}

// Snapshot returns a read-only view of the roster in join order.
func (r *Registry) Snapshot() []domain.RosterEntry {
	return lo.Map(r.list(), func(p *Participant, _ int) domain.RosterEntry {
		return p.entry()
	})
}

// Drain empties the registry and hands every participant to the caller.
func (r *Registry) Drain() []*Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	drained := r.participants
	r.participants = nil
	r.byID = make(map[domain.ParticipantID]*Participant)
	return drained
}

func (r *Registry) list() []*Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.participants)
}

func sameConn(a, b net.Conn) bool {
	if a == b {
		return true
	}
	if buffered, ok := a.(bufferedConn); ok {
		return sameConn(buffered.Conn, b)
	}
	if buffered, ok := b.(bufferedConn); ok {
		return sameConn(a, buffered.Conn)
	}
	return false
}

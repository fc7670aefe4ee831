// Package runtime hosts the relay: the hub goroutine that owns the roster,
// the per-connection readers feeding it, and the broadcast fan-out.
package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/protocol"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"
)

const (
	acceptBackoff   = 50 * time.Millisecond
	shutdownContent = "Server is shutting down"
)

// RelayConfig tunes the relay. Zero durations disable the matching deadline.
type RelayConfig struct {
	RoomName         string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	// MaxContentLength caps chat content in runes, 0 means unlimited.
	MaxContentLength int
}

type inbound struct {
	id      domain.ParticipantID
	payload []byte
}

type departure struct {
	id  domain.ParticipantID
	err error
}

// Relay accepts participants and relays their messages to each other.
//
// A single hub goroutine (Serve) registers participants, removes them and
// writes every frame; acceptor, handshake and reader goroutines only hand it
// work through unbuffered channels. Participants therefore observe events in
// the order the hub processed them.
type Relay struct {
	log       *slog.Logger
	registry  *Registry
	metrics   *observability.RelayMetrics
	moderator contract.Moderator
	config    RelayConfig

	admissions chan admission
	inbound    chan inbound
	departures chan departure

	running atomic.Bool
	wg      sync.WaitGroup
}

func NewRelay(log *slog.Logger, registry *Registry, metrics *observability.RelayMetrics, config RelayConfig) *Relay {
	return &Relay{
		log:        log,
		registry:   registry,
		metrics:    metrics,
		config:     config,
		admissions: make(chan admission),
		inbound:    make(chan inbound),
		departures: make(chan departure),
	}
}

// WithModerator makes the relay censor chat content before broadcasting it.
func (r *Relay) WithModerator(moderator contract.Moderator) *Relay {
	r.moderator = moderator
	return r
}

// Serve runs the hub until ctx is canceled or the listener breaks.
// It closes the listener and every participant connection before returning.
// A broken listener is reported as errors.ErrReadinessFailure; a canceled
// context is a clean stop and returns nil.
func (r *Relay) Serve(ctx context.Context, listener net.Listener) error {
	if !r.running.CompareAndSwap(false, true) {
		return errors.ErrRelayRunning
	}
	defer r.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	acceptErr := make(chan error, 1)
	r.wg.Add(1)
	go r.accept(ctx, listener, acceptErr)

	r.log.Info("Relay listening", "room", r.config.RoomName, "address", listener.Addr().String())

	var err error
	for err == nil {
		select {
		case <-ctx.Done():
			r.log.Info("Relay stopping", "room", r.config.RoomName)
			r.shutdown(cancel, listener)
			return nil
		case acceptFailure := <-acceptErr:
			err = fmt.Errorf("%w: %w", errors.ErrReadinessFailure, acceptFailure)
		case a := <-r.admissions:
			r.admit(ctx, a)
		case in := <-r.inbound:
			r.receive(in)
		case d := <-r.departures:
			r.depart(d)
		}
	}
	r.log.Error("Relay stopped", "room", r.config.RoomName, "error", err)
	r.shutdown(cancel, listener)
	return err
}

// accept loops on the listener. Transient accept errors are logged and
// retried; a closed listener ends the loop and is reported on failure.
func (r *Relay) accept(ctx context.Context, listener net.Listener, failure chan<- error) {
	defer r.wg.Done()
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if stderrors.Is(err, net.ErrClosed) {
				failure <- err
				return
			}
			r.log.Error("Accept failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(acceptBackoff):
			}
			continue
		}
		r.wg.Add(1)
		go r.handshake(ctx, conn)
	}
}

// admit registers a participant, announces it to the others and sends it the roster.
func (r *Relay) admit(ctx context.Context, a admission) {
	name := a.name
	if name == "" {
		name = domain.AnonymousName()
	}
	p, err := r.registry.add(a.conn, name)
	if err != nil {
		r.log.Error("Registration failed", "participant", name, "error", err)
		_ = a.conn.Close()
		return
	}
	r.metrics.SetParticipants(r.registry.Len())
	r.log.Info("New client connected", "participant", name, "remote", p.RemoteAddr(), "room", r.config.RoomName)

	r.Broadcast(domain.Event{Kind: domain.Join, Sender: name, Content: domain.JoinedContent(name)}, &p.ID)
	roster := domain.Event{
		Kind:    domain.UserList,
		Sender:  domain.ServerSender,
		Content: strings.Join(r.registry.Names(), ", "),
	}
	if err := r.deliver(p, protocol.EncodeEvent(roster)); err != nil {
		r.log.Debug("Roster delivery failed", "participant", name, "error", err)
		r.metrics.IncrDeliveryFailures()
	}

	r.wg.Add(1)
	go r.read(ctx, p)
}

// read forwards the participant's frames to the hub until a read fails.
func (r *Relay) read(ctx context.Context, p *Participant) {
	defer r.wg.Done()
	for {
		payload, err := protocol.ReadFrame(p.conn)
		if err != nil {
			select {
			case r.departures <- departure{id: p.ID, err: err}:
			case <-ctx.Done():
			}
			return
		}
		select {
		case r.inbound <- inbound{id: p.ID, payload: payload}:
		case <-ctx.Done():
			return
		}
	}
}

// receive relays one chat message. The sender is always the registry name:
// a sender field carried by the payload is ignored.
func (r *Relay) receive(in inbound) {
	p, ok := r.registry.Get(in.id)
	if !ok {
		return
	}
	r.metrics.IncrFramesReceived()

	msg := protocol.Decode(in.payload)
	if msg.Content == "" {
		return
	}
	if kind := msg.KindOrChat(); kind.IsStatus() || !kind.Valid() {
		r.log.Debug("Relaying as chat", "participant", p.Name, "type", kind)
	}
	content := msg.Content
	if limit := r.config.MaxContentLength; limit > 0 && utf8.RuneCountInString(content) > limit {
		r.log.Warn("Message rejected", "participant", p.Name, "length", utf8.RuneCountInString(content))
		rejection := domain.Event{
			Kind:    domain.Error,
			Sender:  domain.ServerSender,
			Content: fmt.Sprintf("message exceeds %d characters", limit),
		}
		if err := r.deliver(p, protocol.EncodeEvent(rejection)); err != nil {
			r.metrics.IncrDeliveryFailures()
		}
		return
	}
	if r.moderator != nil {
		var censored []string
		content, censored = r.moderator.Censor(content)
		if len(censored) > 0 {
			r.log.Info("Message censored", "participant", p.Name, "words", len(censored))
		}
	}

	r.log.Info("Message relayed",
		"participant", p.Name,
		"content", content,
		"room", r.config.RoomName,
		"lang", moderation.DetectLanguage(content))
	r.Broadcast(domain.Event{Kind: domain.Chat, Sender: p.Name, Content: content}, &p.ID)
}

// depart removes a participant whose connection failed and tells the others.
func (r *Relay) depart(d departure) {
	p, ok := r.registry.take(d.id)
	if !ok {
		return
	}
	r.metrics.SetParticipants(r.registry.Len())
	r.metrics.IncrDisconnects()

	r.Broadcast(domain.Event{Kind: domain.Leave, Sender: p.Name, Content: domain.LeftContent(p.Name)}, nil)
	_ = p.Close()
	r.log.Info("Client disconnected", "participant", p.Name, "reason", d.err)
}

// shutdown tells the participants the relay is going away, then releases
// the listener and every connection and waits for the goroutines.
func (r *Relay) shutdown(cancel context.CancelFunc, listener net.Listener) {
	r.Broadcast(domain.Event{Kind: domain.System, Sender: domain.ServerSender, Content: shutdownContent}, nil)
	cancel()
	_ = listener.Close()
	for _, p := range r.registry.Drain() {
		_ = p.Close()
	}
	r.metrics.SetParticipants(0)
	r.wg.Wait()
}

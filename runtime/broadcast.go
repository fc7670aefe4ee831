package runtime

import (
	"chat-relay/domain"
	"chat-relay/protocol"
	"fmt"
	"time"
)

// Broadcast frames evt once and writes it to every participant except exclude.
// It returns the number of successful deliveries. A failed write is counted
// but never removes the participant: its reader notices the broken connection.
func (r *Relay) Broadcast(evt domain.Event, exclude *domain.ParticipantID) int {
	payload := protocol.EncodeEvent(evt)
	delivered := 0
	r.registry.ForEach(exclude, func(p *Participant) {
		if err := r.deliver(p, payload); err != nil {
			r.log.Debug("Delivery failed", "participant", p.Name, "type", evt.Kind, "error", err)
			r.metrics.IncrDeliveryFailures()
			return
		}
		delivered++
	})
	r.metrics.IncrEventsBroadcast(evt.Kind)
	return delivered
}

// deliver writes one frame to p, bounded by the configured write timeout.
func (r *Relay) deliver(p *Participant, payload []byte) error {
	if r.config.WriteTimeout > 0 {
		_ = p.conn.SetWriteDeadline(time.Now().Add(r.config.WriteTimeout))
		defer func() { _ = p.conn.SetWriteDeadline(time.Time{}) }()
	}
	if err := protocol.WriteFrame(p.conn, payload); err != nil {
		return fmt.Errorf("deliver to %s: %w", p.Name, err)
	}
	return nil
}

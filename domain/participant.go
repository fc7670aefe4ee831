// Package domain contains core concepts of the chat relay.
// This file defines Participant identity and the roster view.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// ServerSender is the sender attributed to events generated by the relay itself.
const ServerSender = "Server"

// ParticipantID identifies a participant for its whole lifetime,
// independently of its position in the roster.
type ParticipantID = uuid.UUID

func NewParticipantID() ParticipantID {
	return uuid.New()
}

// RosterEntry is a read-only view of one registered participant.
type RosterEntry struct {
	ID         ParticipantID
	Name       string
	RemoteAddr string
	JoinedAt   time.Time
}

// AnonymousName is the placeholder given to a participant that announced an empty name.
func AnonymousName() string {
	return fmt.Sprintf("Anonymous_%d", rand.IntN(1000))
}

func JoinedContent(name string) string { return name + " joined the chat" }

func LeftContent(name string) string { return name + " left the chat" }

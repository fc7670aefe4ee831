// Package domain contains core concepts of the chat relay.
// This file defines the Event record exchanged between relay and participants.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// Kind is the event type carried in the "type" field of a payload.
// The zero value means the type was absent from a decoded payload.
type Kind string

const (
	Chat     Kind = "CHAT"
	Join     Kind = "JOIN"
	Leave    Kind = "LEAVE"
	// UserList content is the bare roster joined with ", " (no "Online users: "
	// prefix); clients add their own label when rendering it.
	UserList Kind = "USER_LIST"
	System   Kind = "SYSTEM"
	Error    Kind = "ERROR"
)

// Kinds lists every known kind in protocol order.
var Kinds = []Kind{Chat, Join, Leave, UserList, System, Error}

func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsStatus reports whether the kind is rendered as a status line rather than a chat line.
func (k Kind) IsStatus() bool {
	switch k {
	case Join, Leave, UserList, System, Error:
		return true
	default:
		return false
	}
}

func (k Kind) String() string { return string(k) }

// Event is the logical message exchanged between peers.
// Timestamp is assigned when the event is encoded, never before.
type Event struct {
	Kind      Kind
	Sender    string
	Content   string
	Timestamp time.Time
}

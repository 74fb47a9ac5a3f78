// This file defines Message events and related rules.
// Messages are immutable and validated by the domain.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable chat event. CreatedAt is assigned
// server-side at the moment of durable append, never by clients.
// Index is the message's position in the owning channel's log.
type Message struct {
	ID        uuid.UUID
	ChannelID ChannelID
	Sender    string
	Text      string
	Index     uint64
	CreatedAt time.Time
}

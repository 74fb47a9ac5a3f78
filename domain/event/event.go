// Package event defines the closed set of domain events fanned out to
// connected sessions.
package event

import (
	"time"

	"github.com/google/uuid"

	"chat-system/domain"
)

type DomainEvent interface {
	ChannelID() domain.ChannelID
}

// MessagePosted is emitted after a message has been durably appended to a
// channel's log.
type MessagePosted struct {
	ID      uuid.UUID
	Channel domain.ChannelID
	Sender  string
	Text    string
	Index   uint64
	At      time.Time
}

func (e MessagePosted) ChannelID() domain.ChannelID { return e.Channel }

// MemberJoined is a best-effort presence notice. It is not persisted as a
// Message.
type MemberJoined struct {
	Channel  domain.ChannelID
	Username string
	At       time.Time
}

func (e MemberJoined) ChannelID() domain.ChannelID { return e.Channel }

type MemberLeft struct {
	Channel  domain.ChannelID
	Username string
	At       time.Time
}

func (e MemberLeft) ChannelID() domain.ChannelID { return e.Channel }

func FromMessage(m domain.Message) MessagePosted {
	return MessagePosted{
		ID:      m.ID,
		Channel: m.ChannelID,
		Sender:  m.Sender,
		Text:    m.Text,
		Index:   m.Index,
		At:      m.CreatedAt,
	}
}

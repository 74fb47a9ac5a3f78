// Package ws carries the live-connection surface: one Session per
// websocket client, speaking a closed tagged-variant protocol decoded once
// at this boundary.
package ws

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"chat-system/domain/event"
	"chat-system/errors"
)

const (
	EventJoin    = "join"
	EventLeave   = "leave"
	EventSend    = "send"
	EventMessage = "message"

	systemSender = "System"
)

var validate = validator.New()

// Envelope is the wire frame for every inbound and outbound event.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type JoinPayload struct {
	ChannelID string `json:"channelId" validate:"required"`
	Username  string `json:"username" validate:"required"`
}

type LeavePayload struct {
	ChannelID string `json:"channelId" validate:"required"`
	Username  string `json:"username" validate:"required"`
}

type SendPayload struct {
	ChannelID string `json:"channelId" validate:"required"`
	Sender    string `json:"sender" validate:"required"`
	Text      string `json:"text" validate:"required"`
}

// MessagePayload is the single outbound shape, used for chat messages and
// system notices alike, as the reference client expects.
type MessagePayload struct {
	ChannelID string    `json:"channelId"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// DecodeInbound parses and validates one wire frame into its typed variant.
// Unknown event tags and malformed payloads are errors for the caller to
// log and discard; they never terminate the connection.
func DecodeInbound(data []byte) (any, error) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidInput, err)
	}

	switch envelope.Event {
	case EventJoin:
		return decodePayload[JoinPayload](envelope.Data)
	case EventLeave:
		return decodePayload[LeavePayload](envelope.Data)
	case EventSend:
		return decodePayload[SendPayload](envelope.Data)
	default:
		return nil, fmt.Errorf("%w: unknown event %q", errors.ErrInvalidInput, envelope.Event)
	}
}

func decodePayload[T any](data json.RawMessage) (T, error) {
	var payload T
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, fmt.Errorf("%w: %v", errors.ErrInvalidInput, err)
	}
	if err := validate.Struct(payload); err != nil {
		return payload, fmt.Errorf("%w: %v", errors.ErrInvalidInput, err)
	}
	return payload, nil
}

// EncodeEvent renders a domain event as an outbound frame. Presence notices
// become messages from the system sender.
func EncodeEvent(e event.DomainEvent) ([]byte, error) {
	var payload MessagePayload
	switch evt := e.(type) {
	case event.MessagePosted:
		payload = MessagePayload{
			ChannelID: string(evt.Channel),
			Sender:    evt.Sender,
			Text:      evt.Text,
			Timestamp: evt.At,
		}
	case event.MemberJoined:
		payload = MessagePayload{
			ChannelID: string(evt.Channel),
			Sender:    systemSender,
			Text:      fmt.Sprintf("%s has joined the channel.", evt.Username),
			Timestamp: evt.At,
		}
	case event.MemberLeft:
		payload = MessagePayload{
			ChannelID: string(evt.Channel),
			Sender:    systemSender,
			Text:      fmt.Sprintf("%s has left the channel.", evt.Username),
			Timestamp: evt.At,
		}
	default:
		return nil, fmt.Errorf("%w: unsupported event %T", errors.ErrInvalidInput, e)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: EventMessage, Data: data})
}

package runtime

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"

	"chat-system/contract"
	"chat-system/domain"
	"chat-system/domain/event"
	"chat-system/errors"
	"chat-system/moderation"
	"chat-system/observability"
	"chat-system/repositories"
)

// Gateway is the single entry point for channel messaging on both the
// synchronous request path and the live-connection path. Per channel, the
// order in which sends are accepted is the order in which messages hit the
// log and the order in which they are broadcast.
type Gateway struct {
	log           *slog.Logger
	channels      repositories.IChannelRepository
	messages      repositories.IMessageRepository
	registry      contract.IRegistry
	moderator     *moderation.Moderator
	metrics       *observability.Metrics
	indexEvents   chan event.MessagePosted
	locks         *channelLocks
	maxTextLength int
}

func NewGateway(
	log *slog.Logger,
	channels repositories.IChannelRepository,
	messages repositories.IMessageRepository,
	registry contract.IRegistry,
	moderator *moderation.Moderator,
	metrics *observability.Metrics,
	indexBufferSize, maxTextLength int,
) *Gateway {
	return &Gateway{
		log:           log,
		channels:      channels,
		messages:      messages,
		registry:      registry,
		moderator:     moderator,
		metrics:       metrics,
		indexEvents:   make(chan event.MessagePosted, indexBufferSize),
		locks:         newChannelLocks(),
		maxTextLength: maxTextLength,
	}
}

// IndexEvents exposes the append feed consumed by the search index worker.
func (g *Gateway) IndexEvents() <-chan event.MessagePosted {
	return g.indexEvents
}

// SendMessage validates and censors the text, appends it to the channel's
// log, then fans it out. The channel lock is held across append and
// broadcast; the append is durable and visible to List before any session
// hears about it, so a client polling right after a broadcast never sees a
// shorter history than what was delivered.
func (g *Gateway) SendMessage(ctx context.Context, channelID domain.ChannelID, sender, text string) (domain.Message, error) {
	if strings.TrimSpace(string(channelID)) == "" ||
		strings.TrimSpace(sender) == "" ||
		strings.TrimSpace(text) == "" {
		return domain.Message{}, errors.ErrInvalidInput
	}
	if g.maxTextLength > 0 && len(text) > g.maxTextLength {
		return domain.Message{}, errors.ErrInvalidInput
	}

	sanitized, censoredWords := g.moderator.Censor(text)
	if len(censoredWords) > 0 {
		info := whatlanggo.Detect(text)
		g.log.Warn("message censored",
			"channel_id", channelID,
			"sender", sender,
			"words", len(censoredWords),
			"lang", info.Lang.Iso6391())
	}

	lock := g.locks.get(channelID)
	lock.Lock()
	defer lock.Unlock()

	msg, err := g.messages.AppendMessage(channelID, sender, sanitized)
	if err != nil {
		return domain.Message{}, err
	}
	g.metrics.MessagesAppended.Add(1)

	evt := event.FromMessage(msg)
	g.registry.Broadcast(ctx, channelID, evt)
	g.dispatchIndex(evt)
	return msg, nil
}

// LoadHistory is a thin pass-through to the message log.
func (g *Gateway) LoadHistory(channelID domain.ChannelID) ([]domain.Message, error) {
	return g.messages.ListMessages(channelID)
}

func (g *Gateway) CreateChannel(groupID domain.GroupID, name string) (domain.Channel, error) {
	if strings.TrimSpace(string(groupID)) == "" || strings.TrimSpace(name) == "" {
		return domain.Channel{}, errors.ErrInvalidInput
	}
	return g.channels.CreateChannel(groupID, name)
}

// DeleteChannel commits the deletion under the channel lock, so an in-flight
// append either completes before the channel disappears or fails with
// ErrChannelNotFound afterwards. It never interleaves with a partial log.
func (g *Gateway) DeleteChannel(channelID domain.ChannelID) error {
	lock := g.locks.get(channelID)
	lock.Lock()
	defer lock.Unlock()

	if err := g.channels.DeleteChannel(channelID); err != nil {
		return err
	}
	g.locks.forget(channelID)
	return nil
}

func (g *Gateway) GetChannel(channelID domain.ChannelID) (domain.Channel, error) {
	return g.channels.GetChannel(channelID)
}

func (g *Gateway) ChannelsByGroup(groupID domain.GroupID) ([]domain.Channel, error) {
	return g.channels.ChannelsByGroup(groupID)
}

// AddChannelMember and RemoveChannelMember maintain the persisted member
// list, which is distinct from live room membership in the registry.
func (g *Gateway) AddChannelMember(channelID domain.ChannelID, username string) (domain.Channel, error) {
	if strings.TrimSpace(username) == "" {
		return domain.Channel{}, errors.ErrInvalidInput
	}
	return g.channels.AddMember(channelID, username)
}

func (g *Gateway) RemoveChannelMember(channelID domain.ChannelID, username string) (domain.Channel, error) {
	return g.channels.RemoveMember(channelID, username)
}

// JoinChannel registers the session in the room, then announces the join to
// everyone in it (the joiner included, as the reference client expects).
// The notice is best-effort and never persisted.
func (g *Gateway) JoinChannel(ctx context.Context, channelID domain.ChannelID, username, sessionID string, sink contract.EventSink) error {
	if _, err := g.channels.GetChannel(channelID); err != nil {
		return err
	}
	g.registry.Join(channelID, sessionID, sink)
	g.registry.Broadcast(ctx, channelID, event.MemberJoined{
		Channel:  channelID,
		Username: username,
		At:       time.Now().UTC(),
	})
	g.metrics.NoticesSent.Add(1)
	return nil
}

func (g *Gateway) LeaveChannel(ctx context.Context, channelID domain.ChannelID, username, sessionID string) {
	g.registry.Leave(channelID, sessionID)
	g.registry.Broadcast(ctx, channelID, event.MemberLeft{
		Channel:  channelID,
		Username: username,
		At:       time.Now().UTC(),
	})
	g.metrics.NoticesSent.Add(1)
}

// DropSession releases every room membership the session holds. The
// transport layer calls it exactly once per disconnection.
func (g *Gateway) DropSession(sessionID string) {
	g.registry.DropSession(sessionID)
}

// dispatchIndex feeds the search indexer without ever blocking the send
// path. The index is eventually consistent with the log; a full queue only
// costs search freshness.
func (g *Gateway) dispatchIndex(evt event.MessagePosted) {
	select {
	case g.indexEvents <- evt:
	default:
		g.metrics.IndexEventsDropped.Add(1)
		g.log.Warn("index queue full, dropping event", "channel_id", evt.Channel)
	}
}

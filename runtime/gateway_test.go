package runtime

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"chat-system/domain/event"
	"chat-system/errors"
	"chat-system/moderation"
	"chat-system/observability"
	"chat-system/repositories"
)

type gatewayFixture struct {
	gateway  *Gateway
	registry *Registry
	metrics  *observability.Metrics
	channels repositories.ChannelRepository
	messages repositories.MessageRepository
}

func newGatewayFixture(t *testing.T) gatewayFixture {
	t.Helper()
	req := require.New(t)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	metrics := observability.NewMetrics()
	registry := NewRegistry(log, metrics)
	channels := repositories.NewChannelRepository(db, log)
	messages := repositories.NewMessageRepository(db, log, nil)

	moderator, err := moderation.NewModerator([]string{"badger", "snake"}, '*')
	req.NoError(err)

	gateway := NewGateway(log, channels, messages, registry, moderator, metrics, 16, 512)
	return gatewayFixture{
		gateway:  gateway,
		registry: registry,
		metrics:  metrics,
		channels: channels,
		messages: messages,
	}
}

func Test_SendMessage_Persists_And_Broadcasts(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)
	ctx := context.Background()

	// Given a channel with one connected session
	channel, err := f.gateway.CreateChannel("g1", "General")
	req.NoError(err)
	sink := &recordingSink{}
	req.NoError(f.gateway.JoinChannel(ctx, channel.ID, "alice", "session-a", sink))
	joinNotices := len(sink.events)

	// When alice sends a message
	msg, err := f.gateway.SendMessage(ctx, channel.ID, "alice", "hi everyone")
	req.NoError(err)
	req.Equal(uint64(0), msg.Index)

	// Then it is durable
	history, err := f.gateway.LoadHistory(channel.ID)
	req.NoError(err)
	req.Len(history, 1)
	req.Equal("hi everyone", history[0].Text)

	// And delivered to the session
	req.Len(sink.events, joinNotices+1)
	posted, ok := sink.events[len(sink.events)-1].(event.MessagePosted)
	req.True(ok)
	req.Equal("hi everyone", posted.Text)
	req.Equal(msg.ID, posted.ID)

	// And queued for indexing
	select {
	case evt := <-f.gateway.IndexEvents():
		req.Equal(msg.ID, evt.ID)
	default:
		t.Fatal("expected an index event")
	}
}

func Test_SendMessage_Validation(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)
	ctx := context.Background()

	channel, err := f.gateway.CreateChannel("g1", "General")
	req.NoError(err)

	_, err = f.gateway.SendMessage(ctx, channel.ID, "alice", "   ")
	req.ErrorIs(err, errors.ErrInvalidInput)

	_, err = f.gateway.SendMessage(ctx, channel.ID, "", "hello")
	req.ErrorIs(err, errors.ErrInvalidInput)

	_, err = f.gateway.SendMessage(ctx, channel.ID, "alice", strings.Repeat("x", 513))
	req.ErrorIs(err, errors.ErrInvalidInput)

	_, err = f.gateway.SendMessage(ctx, "404", "alice", "hello")
	req.ErrorIs(err, errors.ErrChannelNotFound)
}

func Test_SendMessage_Censors_Before_Persisting(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)
	ctx := context.Background()

	channel, err := f.gateway.CreateChannel("g1", "General")
	req.NoError(err)
	sink := &recordingSink{}
	req.NoError(f.gateway.JoinChannel(ctx, channel.ID, "alice", "session-a", sink))

	// When a blacklisted word is sent
	msg, err := f.gateway.SendMessage(ctx, channel.ID, "alice", "look a badger here")
	req.NoError(err)

	// Then both the log and the broadcast carry the censored form
	req.Equal("look a ****** here", msg.Text)
	history, err := f.gateway.LoadHistory(channel.ID)
	req.NoError(err)
	req.Equal("look a ****** here", history[0].Text)

	posted := sink.events[len(sink.events)-1].(event.MessagePosted)
	req.Equal("look a ****** here", posted.Text)
}

func Test_Disconnected_Session_Stops_Receiving(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)
	ctx := context.Background()

	channel, err := f.gateway.CreateChannel("g1", "General")
	req.NoError(err)

	// Given two connected sessions
	sinkA := &recordingSink{}
	sinkB := &recordingSink{}
	req.NoError(f.gateway.JoinChannel(ctx, channel.ID, "alice", "session-a", sinkA))
	req.NoError(f.gateway.JoinChannel(ctx, channel.ID, "bob", "session-b", sinkB))

	// When a message is sent, both receive it
	_, err = f.gateway.SendMessage(ctx, channel.ID, "alice", "first")
	req.NoError(err)

	// When bob disconnects and a second message is sent
	f.gateway.DropSession("session-b")
	_, err = f.gateway.SendMessage(ctx, channel.ID, "alice", "second")
	req.NoError(err)

	countPosted := func(events []event.DomainEvent) int {
		n := 0
		for _, e := range events {
			if _, ok := e.(event.MessagePosted); ok {
				n++
			}
		}
		return n
	}

	// Then only alice saw the second one
	req.Equal(2, countPosted(sinkA.events))
	req.Equal(1, countPosted(sinkB.events))
}

func Test_Join_Announces_To_The_Room(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)
	ctx := context.Background()

	channel, err := f.gateway.CreateChannel("g1", "General")
	req.NoError(err)

	// Given alice already in the room
	sinkA := &recordingSink{}
	req.NoError(f.gateway.JoinChannel(ctx, channel.ID, "alice", "session-a", sinkA))

	// When bob joins
	sinkB := &recordingSink{}
	req.NoError(f.gateway.JoinChannel(ctx, channel.ID, "bob", "session-b", sinkB))

	// Then both hear the notice, bob included
	joined, ok := sinkA.events[len(sinkA.events)-1].(event.MemberJoined)
	req.True(ok)
	req.Equal("bob", joined.Username)
	req.Len(sinkB.events, 1)

	// Joining an unknown channel fails without registering anything
	req.ErrorIs(f.gateway.JoinChannel(ctx, "404", "carol", "session-c", &recordingSink{}), errors.ErrChannelNotFound)
}

func Test_Leave_Announces_After_Removal(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)
	ctx := context.Background()

	channel, err := f.gateway.CreateChannel("g1", "General")
	req.NoError(err)

	sinkA := &recordingSink{}
	sinkB := &recordingSink{}
	req.NoError(f.gateway.JoinChannel(ctx, channel.ID, "alice", "session-a", sinkA))
	req.NoError(f.gateway.JoinChannel(ctx, channel.ID, "bob", "session-b", sinkB))

	// When bob leaves
	f.gateway.LeaveChannel(ctx, channel.ID, "bob", "session-b")

	// Then alice hears it and bob does not
	left, ok := sinkA.events[len(sinkA.events)-1].(event.MemberLeft)
	req.True(ok)
	req.Equal("bob", left.Username)
	for _, e := range sinkB.events {
		_, isLeft := e.(event.MemberLeft)
		req.False(isLeft)
	}
}

func Test_Delete_Channel_Rejects_Later_Sends(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)
	ctx := context.Background()

	channel, err := f.gateway.CreateChannel("g1", "Doomed")
	req.NoError(err)
	_, err = f.gateway.SendMessage(ctx, channel.ID, "alice", "hello")
	req.NoError(err)

	req.NoError(f.gateway.DeleteChannel(channel.ID))

	_, err = f.gateway.SendMessage(ctx, channel.ID, "alice", "anyone?")
	req.ErrorIs(err, errors.ErrChannelNotFound)
	req.ErrorIs(f.gateway.DeleteChannel(channel.ID), errors.ErrChannelNotFound)
}

// Concurrent senders to one channel serialize behind the channel lock and
// produce one definite total order.
func Test_Concurrent_Sends_Total_Order(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)
	ctx := context.Background()

	channel, err := f.gateway.CreateChannel("g1", "Busy")
	req.NoError(err)

	const senders = 4
	const perSender = 10
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perSender; j++ {
				_, sendErr := f.gateway.SendMessage(ctx, channel.ID, "alice", "hello")
				require.NoError(t, sendErr)
			}
		}()
	}
	wg.Wait()

	history, err := f.gateway.LoadHistory(channel.ID)
	req.NoError(err)
	req.Len(history, senders*perSender)
	for i, msg := range history {
		req.Equal(uint64(i), msg.Index)
	}
}

func Test_Channel_Member_Management(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)

	channel, err := f.gateway.CreateChannel("g1", "General")
	req.NoError(err)

	updated, err := f.gateway.AddChannelMember(channel.ID, "alice")
	req.NoError(err)
	req.True(updated.HasMember("alice"))

	_, err = f.gateway.AddChannelMember(channel.ID, "  ")
	req.ErrorIs(err, errors.ErrInvalidInput)

	updated, err = f.gateway.RemoveChannelMember(channel.ID, "alice")
	req.NoError(err)
	req.False(updated.HasMember("alice"))
}

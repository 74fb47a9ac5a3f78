package repositories

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"chat-system/domain"
	"chat-system/errors"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Append_Multiple_Messages_Keeps_Order(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	channels := NewChannelRepository(db, slog.Default())
	repository := NewMessageRepository(db, slog.Default(), nil)

	// Given an existing channel
	channel, err := channels.CreateChannel("g1", "General")
	req.NoError(err)

	// When three messages are appended
	senders := []string{"Alice", "Bob", "Clara"}
	for _, sender := range senders {
		_, err = repository.AppendMessage(channel.ID, sender, "this message will self destruct in 5 seconds")
		req.NoError(err)
	}

	// Then the log returns them in append order with contiguous indexes
	fetched, err := repository.ListMessages(channel.ID)
	req.NoError(err)
	req.Len(fetched, len(senders))
	for i, msg := range fetched {
		req.Equal(senders[i], msg.Sender)
		req.Equal(uint64(i), msg.Index)
		req.Equal(channel.ID, msg.ChannelID)
	}
}

func Test_Append_Multiple_Messages_And_Limit(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	channels := NewChannelRepository(db, slog.Default())
	limit := 2
	repository := NewMessageRepository(db, slog.Default(), &limit)

	channel, err := channels.CreateChannel("g1", "General")
	req.NoError(err)

	for _, sender := range []string{"Alice", "Bob", "Clara"} {
		_, err = repository.AppendMessage(channel.ID, sender, "hello")
		req.NoError(err)
	}

	// Then only the most recent messages survive the limit
	fetched, err := repository.ListMessages(channel.ID)
	req.NoError(err)
	req.Len(fetched, limit)
	req.Equal("Bob", fetched[0].Sender)
	req.Equal("Clara", fetched[1].Sender)
}

func Test_Append_To_Unknown_Channel_Fails(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewMessageRepository(db, slog.Default(), nil)

	_, err := repository.AppendMessage("404", "Alice", "hello")
	req.ErrorIs(err, errors.ErrChannelNotFound)

	_, err = repository.ListMessages("404")
	req.ErrorIs(err, errors.ErrChannelNotFound)
}

func Test_List_Empty_Channel_Returns_Empty(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	channels := NewChannelRepository(db, slog.Default())
	repository := NewMessageRepository(db, slog.Default(), nil)

	channel, err := channels.CreateChannel("g1", "Quiet")
	req.NoError(err)

	fetched, err := repository.ListMessages(channel.ID)
	req.NoError(err)
	req.Empty(fetched)
}

// Appends to different channels touch disjoint keys and never conflict.
func Test_Append_Parallel_Channels(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	channels := NewChannelRepository(db, slog.Default())
	repository := NewMessageRepository(db, slog.Default(), nil)

	first, err := channels.CreateChannel("g1", "General")
	req.NoError(err)
	second, err := channels.CreateChannel("g1", "Random")
	req.NoError(err)

	const perChannel = 20
	var wg sync.WaitGroup
	for _, id := range []domain.ChannelID{first.ID, second.ID} {
		wg.Add(1)
		go func(channelID domain.ChannelID) {
			defer wg.Done()
			for i := 0; i < perChannel; i++ {
				_, appendErr := repository.AppendMessage(channelID, "Alice", "hello")
				require.NoError(t, appendErr)
			}
		}(id)
	}
	wg.Wait()

	for _, id := range []domain.ChannelID{first.ID, second.ID} {
		fetched, listErr := repository.ListMessages(id)
		req.NoError(listErr)
		req.Len(fetched, perChannel)
		for i, msg := range fetched {
			req.Equal(uint64(i), msg.Index)
		}
	}
}

func Test_Append_After_Delete_Fails(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	channels := NewChannelRepository(db, slog.Default())
	repository := NewMessageRepository(db, slog.Default(), nil)

	channel, err := channels.CreateChannel("g1", "Doomed")
	req.NoError(err)
	_, err = repository.AppendMessage(channel.ID, "Alice", "last words")
	req.NoError(err)

	// When the channel is deleted
	req.NoError(channels.DeleteChannel(channel.ID))

	// Then further appends are rejected instead of resurrecting the log
	_, err = repository.AppendMessage(channel.ID, "Alice", "anyone there?")
	req.ErrorIs(err, errors.ErrChannelNotFound)
}

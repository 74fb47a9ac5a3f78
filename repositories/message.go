//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chat-system/domain"
	"chat-system/errors"
)

type IMessageRepository interface {
	AppendMessage(channelID domain.ChannelID, sender, text string) (domain.Message, error)
	ListMessages(channelID domain.ChannelID) ([]domain.Message, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// diskMessage is the stored form of a message.
type diskMessage struct {
	ID      string    `json:"id"`
	Channel string    `json:"channel"`
	Sender  string    `json:"sender"`
	Text    string    `json:"text"`
	Index   uint64    `json:"index"`
	At      time.Time `json:"at"`
}

// AppendMessage durably records a message at the tail of the channel's log.
// The channel existence check, the log-index bump, and the record write all
// share one transaction: an append racing a committed deletion fails with
// ErrChannelNotFound instead of resurrecting part of the log.
//
// Callers must serialize appends to the same channel (the gateway holds a
// per-channel lock); a violation surfaces as a Badger conflict error, never
// as a corrupted log. Appends to different channels touch disjoint keys and
// proceed in parallel.
func (m MessageRepository) AppendMessage(channelID domain.ChannelID, sender, text string) (domain.Message, error) {
	var msg domain.Message
	err := m.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(channelKey(channelID)); err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrChannelNotFound
			}
			return err
		}

		index, err := nextLogIndex(txn, channelID)
		if err != nil {
			return err
		}

		msg = domain.Message{
			ID:        uuid.New(),
			ChannelID: channelID,
			Sender:    sender,
			Text:      text,
			Index:     index,
			CreatedAt: time.Now().UTC(),
		}
		data, err := json.Marshal(fromMessage(msg))
		if err != nil {
			return err
		}
		if err = txn.Set(messageKey(channelID, index, msg.ID.String()), data); err != nil {
			return err
		}
		return txn.Set(messageSeqKey(channelID), []byte(strconv.FormatUint(index+1, 10)))
	})
	return msg, err
}

// ListMessages returns the channel's full log in append order. An existing
// channel with no messages yields an empty slice, not an error. When a
// message limit is configured, only the most recent messages are returned.
func (m MessageRepository) ListMessages(channelID domain.ChannelID) ([]domain.Message, error) {
	var diskMessages []diskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get(channelKey(channelID)); err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrChannelNotFound
			}
			return err
		}

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := messagePrefix(channelID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var dm diskMessage
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &dm)
			})
			if err != nil {
				return err
			}
			diskMessages = append(diskMessages, dm)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if m.limitMessages != nil && len(diskMessages) > *m.limitMessages {
		diskMessages = diskMessages[len(diskMessages)-*m.limitMessages:]
	}
	return toMessages(diskMessages)
}

func nextLogIndex(txn *badger.Txn, channelID domain.ChannelID) (uint64, error) {
	item, err := txn.Get(messageSeqKey(channelID))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var index uint64
	err = item.Value(func(val []byte) error {
		index, err = strconv.ParseUint(string(val), 10, 64)
		return err
	})
	return index, err
}

func fromMessage(msg domain.Message) diskMessage {
	return diskMessage{
		ID:      msg.ID.String(),
		Channel: string(msg.ChannelID),
		Sender:  msg.Sender,
		Text:    msg.Text,
		Index:   msg.Index,
		At:      msg.CreatedAt,
	}
}

func toMessages(diskMessages []diskMessage) ([]domain.Message, error) {
	messages := make([]domain.Message, 0, len(diskMessages))
	for _, dm := range diskMessages {
		parsedID, err := uuid.Parse(dm.ID)
		if err != nil {
			return nil, err
		}
		messages = append(messages, domain.Message{
			ID:        parsedID,
			ChannelID: domain.ChannelID(dm.Channel),
			Sender:    dm.Sender,
			Text:      dm.Text,
			Index:     dm.Index,
			CreatedAt: dm.At.UTC(),
		})
	}
	return messages, nil
}

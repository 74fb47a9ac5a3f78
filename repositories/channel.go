//go:generate go run go.uber.org/mock/mockgen -source=channel.go -destination=../mocks/mock_channel_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	"chat-system/domain"
	"chat-system/errors"
)

type IChannelRepository interface {
	CreateChannel(groupID domain.GroupID, name string) (domain.Channel, error)
	GetChannel(id domain.ChannelID) (domain.Channel, error)
	DeleteChannel(id domain.ChannelID) error
	ChannelsByGroup(groupID domain.GroupID) ([]domain.Channel, error)
	AddMember(id domain.ChannelID, username string) (domain.Channel, error)
	RemoveMember(id domain.ChannelID, username string) (domain.Channel, error)
}

type ChannelRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewChannelRepository(db *badger.DB, log *slog.Logger) ChannelRepository {
	return ChannelRepository{db: db, log: log}
}

// CreateChannel mints a new channel identifier from the store-scoped counter
// and persists the record. Counter read and record write share one
// transaction so two concurrent creations can never mint the same id.
func (c ChannelRepository) CreateChannel(groupID domain.GroupID, name string) (domain.Channel, error) {
	var channel domain.Channel
	err := c.db.Update(func(txn *badger.Txn) error {
		next, err := nextCounter(txn, []byte(channelSeqKey))
		if err != nil {
			return err
		}
		channel = domain.Channel{
			ID:        domain.ChannelID(strconv.FormatUint(next, 10)),
			Name:      name,
			GroupID:   groupID,
			Members:   []string{},
			CreatedAt: time.Now().UTC(),
		}
		data, err := json.Marshal(channel)
		if err != nil {
			return err
		}
		if err = txn.Set(channelKey(channel.ID), data); err != nil {
			return err
		}
		return txn.Set([]byte(channelSeqKey), []byte(strconv.FormatUint(next+1, 10)))
	})
	return channel, err
}

func (c ChannelRepository) GetChannel(id domain.ChannelID) (domain.Channel, error) {
	var channel domain.Channel
	err := c.db.View(func(txn *badger.Txn) error {
		return readChannel(txn, id, &channel)
	})
	return channel, err
}

// DeleteChannel removes the channel record, its whole message log, and its
// log counter in a single transaction. Once this commits, appends to the
// channel fail with ErrChannelNotFound; the log is never left partially
// deleted.
func (c ChannelRepository) DeleteChannel(id domain.ChannelID) error {
	return c.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(channelKey(id)); err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrChannelNotFound
			}
			return err
		}
		if err := txn.Delete(channelKey(id)); err != nil {
			return err
		}
		if err := txn.Delete(messageSeqKey(id)); err != nil {
			return err
		}

		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := messagePrefix(id)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := txn.Delete(it.Item().KeyCopy(nil)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c ChannelRepository) ChannelsByGroup(groupID domain.GroupID) ([]domain.Channel, error) {
	var channels []domain.Channel
	err := c.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("channel:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var channel domain.Channel
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &channel)
			})
			if err != nil {
				return err
			}
			if channel.GroupID == groupID {
				channels = append(channels, channel)
			}
		}
		return nil
	})
	return channels, err
}

func (c ChannelRepository) AddMember(id domain.ChannelID, username string) (domain.Channel, error) {
	return c.updateMembers(id, func(members []string) []string {
		return lo.Union(members, []string{username})
	})
}

func (c ChannelRepository) RemoveMember(id domain.ChannelID, username string) (domain.Channel, error) {
	return c.updateMembers(id, func(members []string) []string {
		return lo.Without(members, username)
	})
}

func (c ChannelRepository) updateMembers(id domain.ChannelID, apply func([]string) []string) (domain.Channel, error) {
	var channel domain.Channel
	err := c.db.Update(func(txn *badger.Txn) error {
		if err := readChannel(txn, id, &channel); err != nil {
			return err
		}
		channel.Members = apply(channel.Members)
		data, err := json.Marshal(channel)
		if err != nil {
			return err
		}
		return txn.Set(channelKey(id), data)
	})
	return channel, err
}

func readChannel(txn *badger.Txn, id domain.ChannelID, out *domain.Channel) error {
	item, err := txn.Get(channelKey(id))
	if err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrChannelNotFound
		}
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

// nextCounter reads a numeric counter key, defaulting to 1 when absent.
func nextCounter(txn *badger.Txn, key []byte) (uint64, error) {
	item, err := txn.Get(key)
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	var next uint64
	err = item.Value(func(val []byte) error {
		next, err = strconv.ParseUint(string(val), 10, 64)
		return err
	})
	return next, err
}

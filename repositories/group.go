//go:generate go run go.uber.org/mock/mockgen -source=group.go -destination=../mocks/mock_group_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"chat-system/domain"
	"chat-system/errors"
)

type IGroupRepository interface {
	CreateGroup(name, admin string) (domain.Group, error)
	GetGroup(id domain.GroupID) (domain.Group, error)
	ListGroups() ([]domain.Group, error)
	AddChannel(id domain.GroupID, channelID domain.ChannelID) error
	RemoveChannel(id domain.GroupID, channelID domain.ChannelID) error
}

// GroupFileStore keeps groups in a single JSON file, like the user store.
type GroupFileStore struct {
	mu     sync.RWMutex
	path   string
	groups []domain.Group
}

func NewGroupFileStore(path string) (*GroupFileStore, error) {
	store := &GroupFileStore{path: path}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading group store: %w", err)
	}
	if err = json.Unmarshal(data, &store.groups); err != nil {
		return nil, fmt.Errorf("parsing group store: %w", err)
	}
	return store, nil
}

func (s *GroupFileStore) CreateGroup(name, admin string) (domain.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	group := domain.Group{
		ID:       domain.GroupID(uuid.NewString()),
		Name:     name,
		Admins:   []string{admin},
		Channels: []domain.ChannelID{},
	}
	s.groups = append(s.groups, group)
	if err := s.persist(); err != nil {
		return domain.Group{}, err
	}
	return group, nil
}

func (s *GroupFileStore) GetGroup(id domain.GroupID) (domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	group, found := lo.Find(s.groups, func(g domain.Group) bool { return g.ID == id })
	if !found {
		return domain.Group{}, errors.ErrGroupNotFound
	}
	return group, nil
}

func (s *GroupFileStore) ListGroups() ([]domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.Group(nil), s.groups...), nil
}

// AddChannel and RemoveChannel maintain the group's channel list when a
// channel is created or deleted. This is the caller-side half of the
// two-write obligation described in the channel repository.
func (s *GroupFileStore) AddChannel(id domain.GroupID, channelID domain.ChannelID) error {
	return s.updateChannels(id, func(channels []domain.ChannelID) []domain.ChannelID {
		return lo.Union(channels, []domain.ChannelID{channelID})
	})
}

func (s *GroupFileStore) RemoveChannel(id domain.GroupID, channelID domain.ChannelID) error {
	return s.updateChannels(id, func(channels []domain.ChannelID) []domain.ChannelID {
		return lo.Without(channels, channelID)
	})
}

func (s *GroupFileStore) updateChannels(id domain.GroupID, apply func([]domain.ChannelID) []domain.ChannelID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.groups {
		if s.groups[i].ID == id {
			s.groups[i].Channels = apply(s.groups[i].Channels)
			return s.persist()
		}
	}
	return errors.ErrGroupNotFound
}

// persist must be called with the write lock held.
func (s *GroupFileStore) persist() error {
	data, err := json.MarshalIndent(s.groups, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
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

type IUserRepository interface {
	CreateUser(username, email, passwordHash, role string) (domain.User, error)
	GetUser(username string) (domain.User, error)
	DeleteUser(id string) (domain.User, error)
	AddToGroup(username string, groupID domain.GroupID) error
	RemoveFromGroup(username string, groupID domain.GroupID) error
}

// diskUser is the stored form of a user; unlike domain.User it carries the
// password hash.
type diskUser struct {
	ID           string   `json:"id"`
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"passwordHash"`
	Roles        []string `json:"roles"`
	Groups       []string `json:"groups"`
}

// UserFileStore keeps the user directory in a single JSON file, loaded once
// and rewritten on every mutation. It is CRUD glue, not part of the
// messaging core.
type UserFileStore struct {
	mu    sync.RWMutex
	path  string
	users []diskUser
}

func NewUserFileStore(path string) (*UserFileStore, error) {
	store := &UserFileStore{path: path}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading user store: %w", err)
	}
	if err = json.Unmarshal(data, &store.users); err != nil {
		return nil, fmt.Errorf("parsing user store: %w", err)
	}
	return store, nil
}

func (s *UserFileStore) CreateUser(username, email, passwordHash, role string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := lo.Find(s.users, func(u diskUser) bool { return u.Username == username }); found {
		return domain.User{}, errors.ErrUserAlreadyExists
	}

	du := diskUser{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Roles:        []string{role},
		Groups:       []string{},
	}
	s.users = append(s.users, du)
	if err := s.persist(); err != nil {
		return domain.User{}, err
	}
	return toUser(du), nil
}

// Bootstrap seeds the initial Super Admin when the store starts empty, so
// a fresh install always has an account able to create the rest.
func (s *UserFileStore) Bootstrap(username, email, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.users) > 0 {
		return nil
	}
	s.users = append(s.users, diskUser{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Roles:        []string{domain.RoleSuperAdmin},
		Groups:       []string{},
	})
	return s.persist()
}

func (s *UserFileStore) GetUser(username string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	du, found := lo.Find(s.users, func(u diskUser) bool { return u.Username == username })
	if !found {
		return domain.User{}, errors.ErrUserNotFound
	}
	return toUser(du), nil
}

func (s *UserFileStore) DeleteUser(id string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := lo.IndexOf(lo.Map(s.users, func(u diskUser, _ int) string { return u.ID }), id)
	if idx < 0 {
		return domain.User{}, errors.ErrUserNotFound
	}
	deleted := s.users[idx]
	s.users = append(s.users[:idx], s.users[idx+1:]...)
	if err := s.persist(); err != nil {
		return domain.User{}, err
	}
	return toUser(deleted), nil
}

func (s *UserFileStore) AddToGroup(username string, groupID domain.GroupID) error {
	return s.updateGroups(username, func(groups []string) []string {
		return lo.Union(groups, []string{string(groupID)})
	})
}

func (s *UserFileStore) RemoveFromGroup(username string, groupID domain.GroupID) error {
	return s.updateGroups(username, func(groups []string) []string {
		return lo.Without(groups, string(groupID))
	})
}

func (s *UserFileStore) updateGroups(username string, apply func([]string) []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].Username == username {
			s.users[i].Groups = apply(s.users[i].Groups)
			return s.persist()
		}
	}
	return errors.ErrUserNotFound
}

// persist must be called with the write lock held.
func (s *UserFileStore) persist() error {
	data, err := json.MarshalIndent(s.users, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

func toUser(du diskUser) domain.User {
	return domain.User{
		ID:           du.ID,
		Username:     du.Username,
		Email:        du.Email,
		PasswordHash: du.PasswordHash,
		Roles:        du.Roles,
		Groups: lo.Map(du.Groups, func(g string, _ int) domain.GroupID {
			return domain.GroupID(g)
		}),
	}
}

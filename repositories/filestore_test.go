package repositories

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-system/domain"
	"chat-system/errors"
)

func Test_User_Store_Roundtrip(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "users.json")

	store, err := NewUserFileStore(path)
	req.NoError(err)

	// When a user is created
	created, err := store.CreateUser("alice", "alice@chat.local", "hash", domain.RoleUser)
	req.NoError(err)
	req.Equal("alice", created.Username)
	req.Equal([]string{domain.RoleUser}, created.Roles)

	// Then a second store over the same file sees it
	reloaded, err := NewUserFileStore(path)
	req.NoError(err)
	fetched, err := reloaded.GetUser("alice")
	req.NoError(err)
	req.Equal(created.ID, fetched.ID)
	req.Equal("hash", fetched.PasswordHash)
}

func Test_User_Store_Duplicate_And_Missing(t *testing.T) {
	req := require.New(t)
	store, err := NewUserFileStore(filepath.Join(t.TempDir(), "users.json"))
	req.NoError(err)

	_, err = store.CreateUser("alice", "alice@chat.local", "hash", domain.RoleUser)
	req.NoError(err)

	_, err = store.CreateUser("alice", "other@chat.local", "hash", domain.RoleUser)
	req.ErrorIs(err, errors.ErrUserAlreadyExists)

	_, err = store.GetUser("bob")
	req.ErrorIs(err, errors.ErrUserNotFound)

	_, err = store.DeleteUser("no-such-id")
	req.ErrorIs(err, errors.ErrUserNotFound)
}

func Test_User_Store_Group_Membership(t *testing.T) {
	req := require.New(t)
	store, err := NewUserFileStore(filepath.Join(t.TempDir(), "users.json"))
	req.NoError(err)

	_, err = store.CreateUser("alice", "alice@chat.local", "hash", domain.RoleUser)
	req.NoError(err)

	req.NoError(store.AddToGroup("alice", "g1"))
	req.NoError(store.AddToGroup("alice", "g1"))

	user, err := store.GetUser("alice")
	req.NoError(err)
	req.Equal([]domain.GroupID{"g1"}, user.Groups)
	req.True(user.InGroup("g1"))

	req.NoError(store.RemoveFromGroup("alice", "g1"))
	user, err = store.GetUser("alice")
	req.NoError(err)
	req.Empty(user.Groups)

	req.ErrorIs(store.AddToGroup("bob", "g1"), errors.ErrUserNotFound)
}

func Test_User_Store_Bootstrap_Only_When_Empty(t *testing.T) {
	req := require.New(t)
	store, err := NewUserFileStore(filepath.Join(t.TempDir(), "users.json"))
	req.NoError(err)

	// Given an empty store, bootstrap seeds the Super Admin
	req.NoError(store.Bootstrap("super", "super@chat.local", "hash"))
	user, err := store.GetUser("super")
	req.NoError(err)
	req.True(user.HasRole(domain.RoleSuperAdmin))

	// A second bootstrap is a no-op
	req.NoError(store.Bootstrap("super2", "super2@chat.local", "hash"))
	_, err = store.GetUser("super2")
	req.ErrorIs(err, errors.ErrUserNotFound)
}

func Test_Group_Store_Roundtrip(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "groups.json")

	store, err := NewGroupFileStore(path)
	req.NoError(err)

	created, err := store.CreateGroup("engineering", "alice")
	req.NoError(err)
	req.True(created.HasAdmin("alice"))

	req.NoError(store.AddChannel(created.ID, "1"))
	req.NoError(store.AddChannel(created.ID, "1"))
	req.NoError(store.AddChannel(created.ID, "2"))
	req.NoError(store.RemoveChannel(created.ID, "1"))

	reloaded, err := NewGroupFileStore(path)
	req.NoError(err)
	fetched, err := reloaded.GetGroup(created.ID)
	req.NoError(err)
	req.Equal([]domain.ChannelID{"2"}, fetched.Channels)

	groups, err := reloaded.ListGroups()
	req.NoError(err)
	req.Len(groups, 1)

	_, err = store.GetGroup("404")
	req.ErrorIs(err, errors.ErrGroupNotFound)
	req.ErrorIs(store.AddChannel("404", "1"), errors.ErrGroupNotFound)
}

// Package domain contains core concepts of the chat system.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"time"

	"github.com/samber/lo"
)

// ChannelID is an opaque stable identifier minted by the store from a
// monotonically increasing counter.
type ChannelID string

type GroupID string

// Channel is a named ordered message stream scoped to one group.
// Members lists persisted usernames; live-connection membership is tracked
// separately by the registry.
type Channel struct {
	ID        ChannelID `json:"id"`
	Name      string    `json:"name"`
	GroupID   GroupID   `json:"groupId"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c Channel) HasMember(username string) bool {
	return lo.Contains(c.Members, username)
}

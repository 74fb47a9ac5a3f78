package domain

import "github.com/samber/lo"

// Group owns a list of channel identifiers. Keeping that list in sync with
// channel creation and deletion is the caller's two-write obligation, not
// the messaging core's.
type Group struct {
	ID       GroupID     `json:"id"`
	Name     string      `json:"name"`
	Admins   []string    `json:"admins"`
	Channels []ChannelID `json:"channels"`
}

func (g Group) HasAdmin(username string) bool {
	return lo.Contains(g.Admins, username)
}

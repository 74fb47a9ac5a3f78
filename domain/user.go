package domain

import "github.com/samber/lo"

const (
	RoleSuperAdmin = "Super Admin"
	RoleGroupAdmin = "Group Admin"
	RoleUser       = "User"
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	Groups       []GroupID `json:"groups"`
}

func (u User) HasRole(role string) bool {
	return lo.Contains(u.Roles, role)
}

func (u User) InGroup(groupID GroupID) bool {
	return lo.Contains(u.Groups, groupID)
}

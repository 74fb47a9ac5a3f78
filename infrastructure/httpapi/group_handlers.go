package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"chat-system/domain"
	"chat-system/errors"
)

// listGroups returns every group for a Super Admin and only the caller's
// memberships for everyone else.
func (s *Server) listGroups(c *gin.Context) {
	groups, err := s.groups.ListGroups()
	if err != nil {
		fail(c, err)
		return
	}

	if !callerHasRole(c, domain.RoleSuperAdmin) {
		user, err := s.users.GetUser(callerUsername(c))
		if err != nil {
			fail(c, err)
			return
		}
		groups = lo.Filter(groups, func(g domain.Group, _ int) bool {
			return user.InGroup(g.ID)
		})
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "groups": groups})
}

type createGroupRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *Server) createGroup(c *gin.Context) {
	if !callerHasRole(c, domain.RoleSuperAdmin) && !callerHasRole(c, domain.RoleGroupAdmin) {
		fail(c, errors.ErrForbidden)
		return
	}

	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errors.ErrInvalidInput)
		return
	}

	group, err := s.groups.CreateGroup(req.Name, callerUsername(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "group": group})
}

type groupMemberRequest struct {
	Username string `json:"username" binding:"required"`
}

func (s *Server) addUserToGroup(c *gin.Context) {
	groupID := domain.GroupID(c.Param("groupId"))
	group, err := s.groups.GetGroup(groupID)
	if err != nil {
		fail(c, err)
		return
	}
	if !s.canAdminister(c, group) {
		fail(c, errors.ErrForbidden)
		return
	}

	var req groupMemberRequest
	if err = c.ShouldBindJSON(&req); err != nil {
		fail(c, errors.ErrInvalidInput)
		return
	}

	if err = s.users.AddToGroup(req.Username, groupID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "user added to the group"})
}

func (s *Server) removeUserFromGroup(c *gin.Context) {
	groupID := domain.GroupID(c.Param("groupId"))
	group, err := s.groups.GetGroup(groupID)
	if err != nil {
		fail(c, err)
		return
	}
	if !s.canAdminister(c, group) {
		fail(c, errors.ErrForbidden)
		return
	}

	if err = s.users.RemoveFromGroup(c.Param("username"), groupID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "user removed from the group"})
}

// canAdminister allows Super Admins everywhere and Group Admins inside
// their own groups. The gateway itself never checks roles; this layer does.
func (s *Server) canAdminister(c *gin.Context, group domain.Group) bool {
	if callerHasRole(c, domain.RoleSuperAdmin) {
		return true
	}
	return callerHasRole(c, domain.RoleGroupAdmin) && group.HasAdmin(callerUsername(c))
}

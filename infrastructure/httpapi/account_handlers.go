package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-system/auth"
	"chat-system/domain"
	"chat-system/errors"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errors.ErrInvalidInput)
		return
	}

	user, err := s.users.GetUser(req.Username)
	if err != nil {
		fail(c, errors.ErrInvalidCredentials)
		return
	}

	match, err := auth.ComparePassword(req.Password, user.PasswordHash)
	if err != nil || !match {
		fail(c, errors.ErrInvalidCredentials)
		return
	}

	token, err := s.issuer.GenerateToken(user.Username, user.Roles)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "token": token, "user": user})
}

type createUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required,oneof='Super Admin' 'Group Admin' 'User'"`
}

func (s *Server) createUser(c *gin.Context) {
	if !callerHasRole(c, domain.RoleSuperAdmin) {
		fail(c, errors.ErrForbidden)
		return
	}

	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errors.ErrInvalidInput)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	user, err := s.users.CreateUser(req.Username, req.Email, hash, req.Role)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": user})
}

func (s *Server) deleteUser(c *gin.Context) {
	if !callerHasRole(c, domain.RoleSuperAdmin) {
		fail(c, errors.ErrForbidden)
		return
	}

	user, err := s.users.DeleteUser(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": user})
}

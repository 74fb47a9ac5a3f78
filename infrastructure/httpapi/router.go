// Package httpapi exposes the synchronous request surface: account and
// group CRUD glue plus the channel messaging endpoints backed by the
// gateway.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"chat-system/auth"
	"chat-system/errors"
	"chat-system/infrastructure/ws"
	"chat-system/observability"
	"chat-system/repositories"
	"chat-system/runtime"
	"chat-system/search"
)

type Server struct {
	log     *slog.Logger
	gateway *runtime.Gateway
	users   repositories.IUserRepository
	groups  repositories.IGroupRepository
	index   *search.Index
	issuer  auth.TokenIssuer
	metrics *observability.Metrics
}

func NewServer(
	log *slog.Logger,
	gateway *runtime.Gateway,
	users repositories.IUserRepository,
	groups repositories.IGroupRepository,
	index *search.Index,
	issuer auth.TokenIssuer,
	metrics *observability.Metrics,
) *Server {
	return &Server{
		log:     log,
		gateway: gateway,
		users:   users,
		groups:  groups,
		index:   index,
		issuer:  issuer,
		metrics: metrics,
	}
}

func (s *Server) SetupRouter(mode string, wsController *ws.Controller) *gin.Engine {
	if mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Chat system backend is running")
	})
	r.POST("/login", s.login)
	r.GET("/ws", wsController.Handle)

	authed := r.Group("/", auth.Middleware(s.issuer))

	authed.POST("/users", s.createUser)
	authed.DELETE("/users/:id", s.deleteUser)

	authed.GET("/groups", s.listGroups)
	authed.POST("/groups", s.createGroup)
	authed.POST("/groups/:groupId/users", s.addUserToGroup)
	authed.DELETE("/groups/:groupId/users/:username", s.removeUserFromGroup)

	authed.POST("/channels", s.createChannel)
	authed.GET("/groups/:groupId/channels", s.listChannels)
	authed.DELETE("/groups/:groupId/channels/:channelId", s.deleteChannel)
	authed.POST("/groups/:groupId/channels/:channelId/users", s.addUserToChannel)
	authed.DELETE("/groups/:groupId/channels/:channelId/users/:username", s.removeUserFromChannel)

	authed.POST("/channels/:channelId/messages", s.postMessage)
	authed.GET("/channels/:channelId/messages", s.listMessages)
	authed.GET("/channels/:channelId/messages/search", s.searchMessages)

	authed.GET("/stats", s.stats)

	return r
}

// fail renders the uniform failure envelope with the mapped status code.
func fail(c *gin.Context, err error) {
	c.JSON(errors.MapToHTTPStatus(err), gin.H{"ok": false, "message": err.Error()})
}

func callerUsername(c *gin.Context) string {
	return c.GetString(auth.ContextUsername)
}

func callerHasRole(c *gin.Context, role string) bool {
	roles, _ := c.Get(auth.ContextRoles)
	list, ok := roles.([]string)
	return ok && lo.Contains(list, role)
}

package ws

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chat-system/runtime"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Controller struct {
	gateway    *runtime.Gateway
	log        *slog.Logger
	bufferSize int
}

func NewController(gateway *runtime.Gateway, log *slog.Logger, bufferSize int) *Controller {
	return &Controller{gateway: gateway, log: log, bufferSize: bufferSize}
}

// Handle upgrades the request and runs the session until disconnect.
func (ctl *Controller) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		ctl.log.Error("ws upgrade failed", "error", err)
		return
	}

	session := NewSession(uuid.NewString(), conn, ctl.gateway, ctl.log, ctl.bufferSize)
	ctl.log.Info("new ws connection", "session_id", session.ID())
	session.Run(c.Request.Context())
}

package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chat-system/domain"
	"chat-system/errors"
)

type createChannelRequest struct {
	GroupID     string `json:"groupId" binding:"required"`
	ChannelName string `json:"channelName" binding:"required"`
}

// createChannel creates the channel, then adds it to the owning group's
// channel list. The second write is this handler's obligation; the
// messaging core does not attempt cross-store atomicity.
func (s *Server) createChannel(c *gin.Context) {
	var req createChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errors.ErrInvalidInput)
		return
	}

	groupID := domain.GroupID(req.GroupID)
	group, err := s.groups.GetGroup(groupID)
	if err != nil {
		fail(c, err)
		return
	}
	if !s.canAdminister(c, group) {
		fail(c, errors.ErrForbidden)
		return
	}

	channel, err := s.gateway.CreateChannel(groupID, req.ChannelName)
	if err != nil {
		fail(c, err)
		return
	}
	if err = s.groups.AddChannel(groupID, channel.ID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "channel": channel})
}

func (s *Server) listChannels(c *gin.Context) {
	groupID := domain.GroupID(c.Param("groupId"))
	if _, err := s.groups.GetGroup(groupID); err != nil {
		fail(c, err)
		return
	}

	channels, err := s.gateway.ChannelsByGroup(groupID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "channels": channels})
}

func (s *Server) deleteChannel(c *gin.Context) {
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

	channelID := domain.ChannelID(c.Param("channelId"))
	if err = s.gateway.DeleteChannel(channelID); err != nil {
		fail(c, err)
		return
	}
	if err = s.groups.RemoveChannel(groupID, channelID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type channelMemberRequest struct {
	Username string `json:"username" binding:"required"`
}

func (s *Server) addUserToChannel(c *gin.Context) {
	var req channelMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errors.ErrInvalidInput)
		return
	}

	channel, err := s.gateway.GetChannel(domain.ChannelID(c.Param("channelId")))
	if err != nil {
		fail(c, err)
		return
	}
	if channel.HasMember(req.Username) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "channel": channel})
		return
	}

	updated, err := s.gateway.AddChannelMember(channel.ID, req.Username)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "channel": updated})
}

func (s *Server) removeUserFromChannel(c *gin.Context) {
	channelID := domain.ChannelID(c.Param("channelId"))
	updated, err := s.gateway.RemoveChannelMember(channelID, c.Param("username"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "channel": updated})
}

type postMessageRequest struct {
	Sender string `json:"sender" binding:"required"`
	Text   string `json:"text" binding:"required"`
}

// postMessage is the synchronous send path. It goes through the same
// gateway as live sends, so both paths observe one total order per channel.
func (s *Server) postMessage(c *gin.Context) {
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errors.ErrInvalidInput)
		return
	}

	msg, err := s.gateway.SendMessage(c.Request.Context(),
		domain.ChannelID(c.Param("channelId")), req.Sender, req.Text)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": toMessageResponse(msg)})
}

func (s *Server) listMessages(c *gin.Context) {
	messages, err := s.gateway.LoadHistory(domain.ChannelID(c.Param("channelId")))
	if err != nil {
		fail(c, err)
		return
	}

	responses := make([]messageResponse, 0, len(messages))
	for _, msg := range messages {
		responses = append(responses, toMessageResponse(msg))
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "messages": responses})
}

func (s *Server) searchMessages(c *gin.Context) {
	terms := c.Query("q")
	if terms == "" {
		fail(c, errors.ErrInvalidInput)
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		fail(c, errors.ErrInvalidInput)
		return
	}

	channelID := domain.ChannelID(c.Param("channelId"))
	if _, err = s.gateway.GetChannel(channelID); err != nil {
		fail(c, err)
		return
	}

	hits, err := s.index.Search(c.Request.Context(), channelID, terms, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "hits": hits})
}

func (s *Server) stats(c *gin.Context) {
	if !callerHasRole(c, domain.RoleSuperAdmin) {
		fail(c, errors.ErrForbidden)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "stats": s.metrics.Snapshot()})
}

type messageResponse struct {
	ID        string `json:"id"`
	ChannelID string `json:"channelId"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

func toMessageResponse(msg domain.Message) messageResponse {
	return messageResponse{
		ID:        msg.ID.String(),
		ChannelID: string(msg.ChannelID),
		Sender:    msg.Sender,
		Text:      msg.Text,
		Timestamp: msg.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

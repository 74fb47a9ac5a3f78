package e2e

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type testMessagingSuite struct {
	BaseHTTPSuite
}

func TestMessagingSuite(t *testing.T) {
	suite.Run(t, &testMessagingSuite{})
}

func (s *testMessagingSuite) TestFullMessagingFlow() {
	var groupID, channelID string
	// Unique names so the suite can rerun against the same server
	groupName := "e2e-" + uuid.NewString()[:8]

	s.Run("Step 0: Login as admin", func() {
		s.Step("Login")
		s.Login(s.Config.AdminUsername, s.Config.AdminPassword)
	})

	s.Run("Step 1: Create a group and a channel", func() {
		s.Step("Create group " + groupName)
		status, body := s.Call(http.MethodPost, "/groups", map[string]any{"name": groupName})
		s.Require().Equal(http.StatusOK, status)
		groupID = body["group"].(map[string]any)["id"].(string)

		s.Step("Create channel")
		status, body = s.Call(http.MethodPost, "/channels", map[string]any{
			"groupId":     groupID,
			"channelName": "general",
		})
		s.Require().Equal(http.StatusOK, status)
		channelID = body["channel"].(map[string]any)["id"].(string)
	})

	s.Run("Step 2: Post and read back messages", func() {
		s.Step("Post messages")
		for i := 0; i < 3; i++ {
			status, _ := s.Call(http.MethodPost, "/channels/"+channelID+"/messages", map[string]any{
				"sender": s.Config.AdminUsername,
				"text":   fmt.Sprintf("e2e message %d", i),
			})
			s.Require().Equal(http.StatusOK, status)
		}

		s.Step("Read history")
		status, body := s.Call(http.MethodGet, "/channels/"+channelID+"/messages", nil)
		s.Require().Equal(http.StatusOK, status)
		messages := body["messages"].([]any)
		s.Require().Len(messages, 3)
		s.Require().Equal("e2e message 0", messages[0].(map[string]any)["text"])
	})

	s.Run("Step 3: Search finds the indexed messages", func() {
		s.Step("Search")
		s.Require().Eventually(func() bool {
			status, body := s.Call(http.MethodGet,
				"/channels/"+channelID+"/messages/search?q=message&limit=10", nil)
			if status != http.StatusOK {
				return false
			}
			hits, ok := body["hits"].([]any)
			return ok && len(hits) == 3
		}, 10*time.Second, 500*time.Millisecond)
	})

	s.Run("Step 4: Delete the channel", func() {
		s.Step("Delete channel")
		status, _ := s.Call(http.MethodDelete, "/groups/"+groupID+"/channels/"+channelID, nil)
		s.Require().Equal(http.StatusOK, status)

		status, _ = s.Call(http.MethodGet, "/channels/"+channelID+"/messages", nil)
		s.Require().Equal(http.StatusNotFound, status)
	})
}

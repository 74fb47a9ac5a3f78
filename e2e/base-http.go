package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
)

// BaseHTTPSuite drives a running server over its HTTP API. It is skipped
// entirely when SERVER_ADDR is not set, so it never interferes with unit runs.
type BaseHTTPSuite struct {
	suite.Suite
	Config Config
	Token  string
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseHTTPSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerAddr == "" {
		s.T().Skip("SERVER_ADDR not set, skipping e2e suite")
	}
}

// Step prints a colorized header so the suite output reads as a scenario
func (s *BaseHTTPSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// Call performs one JSON request against the running server, logging method,
// path, status and latency, plus full bodies when E2E_DEBUG_JSON is enabled.
func (s *BaseHTTPSuite) Call(method, path string, payload any) (int, map[string]any) {
	var body io.Reader = bytes.NewReader(nil)
	var requestJSON []byte
	if payload != nil {
		var err error
		requestJSON, err = json.MarshalIndent(payload, "", "  ")
		s.Require().NoError(err)
		body = bytes.NewReader(requestJSON)
	}

	req, err := http.NewRequest(method, s.Config.ServerAddr+path, body)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err, "Failed to reach server at "+s.Config.ServerAddr)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	logBuilder := strings.Builder{}
	fmt.Fprintf(&logBuilder, "HTTP %s %s [%d] in %v", method, path, resp.StatusCode, time.Since(start))
	if s.Config.DebugJSON {
		if requestJSON != nil {
			fmt.Fprintln(&logBuilder, "\nREQUEST:")
			fmt.Fprintln(&logBuilder, string(requestJSON))
		}
		fmt.Fprintln(&logBuilder, "RESPONSE:")
		fmt.Fprintln(&logBuilder, string(raw))
	}
	s.T().Log(logBuilder.String())

	var decoded map[string]any
	if len(raw) > 0 {
		s.Require().NoError(json.Unmarshal(raw, &decoded))
	}
	return resp.StatusCode, decoded
}

// Login authenticates and stores the token for subsequent calls.
func (s *BaseHTTPSuite) Login(username, password string) {
	status, body := s.Call(http.MethodPost, "/login", map[string]any{
		"username": username,
		"password": password,
	})
	s.Require().Equal(http.StatusOK, status)
	token, ok := body["token"].(string)
	s.Require().True(ok, "login response carries no token")
	s.Token = token
}

package ws

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chat-system/domain"
	"chat-system/domain/event"
	"chat-system/runtime"
)

var ErrBackpressure = errors.New("backpressure")
var ErrSessionClosed = errors.New("session closed")

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Conn is an indirection over *websocket.Conn to ease testing.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(mt int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
	Close() error
}

// Session is one live client connection. It is owned by the transport
// layer; the registry only holds it as a sink. Its lifecycle is
// Connected -> (Joined)* -> Disconnected, and the disconnect path runs
// exactly once no matter how the connection dies.
type Session struct {
	id      string
	conn    Conn
	gateway *runtime.Gateway
	log     *slog.Logger
	inbox   chan event.DomainEvent

	mu     sync.RWMutex
	closed bool
	drop   sync.Once
}

func NewSession(id string, conn Conn, gateway *runtime.Gateway, log *slog.Logger, bufferSize int) *Session {
	return &Session{
		id:      id,
		conn:    conn,
		gateway: gateway,
		log:     log,
		inbox:   make(chan event.DomainEvent, bufferSize),
	}
}

func (s *Session) ID() string { return s.id }

// Consume is called by the registry during fan-out. It never blocks: a full
// inbox means this session cannot keep up, and an error here gets the
// session dropped rather than slowing the broadcast down.
func (s *Session) Consume(_ context.Context, e event.DomainEvent) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSessionClosed
	}
	select {
	case s.inbox <- e:
		return nil
	default:
		return ErrBackpressure
	}
}

// Run drives the session until the client disconnects or the context ends.
// It blocks the caller (the HTTP handler goroutine) as the read pump.
func (s *Session) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.writePump(ctx)
	s.readPump(ctx)
}

func (s *Session) readPump(ctx context.Context) {
	defer s.disconnect()

	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		s.dispatch(ctx, data)
	}
}

// dispatch handles one inbound frame. A malformed or failing event is
// logged and discarded, never fatal for the connection.
func (s *Session) dispatch(ctx context.Context, data []byte) {
	decoded, err := DecodeInbound(data)
	if err != nil {
		s.log.Warn("discarding bad frame", "session_id", s.id, "error", err)
		return
	}

	switch payload := decoded.(type) {
	case JoinPayload:
		err = s.gateway.JoinChannel(ctx, domain.ChannelID(payload.ChannelID), payload.Username, s.id, s)
	case LeavePayload:
		s.gateway.LeaveChannel(ctx, domain.ChannelID(payload.ChannelID), payload.Username, s.id)
	case SendPayload:
		_, err = s.gateway.SendMessage(ctx, domain.ChannelID(payload.ChannelID), payload.Sender, payload.Text)
	}
	if err != nil {
		s.log.Warn("live event failed", "session_id", s.id, "error", err)
	}
}

func (s *Session) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer s.disconnect()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case evt, ok := <-s.inbox:
			if !ok {
				return
			}
			data, err := EncodeEvent(evt)
			if err != nil {
				s.log.Error("failed to encode event", "session_id", s.id, "error", err)
				continue
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err = s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}

// disconnect is the terminal transition: release every room membership,
// then tear the transport down. Safe to hit from both pumps; only the first
// call does the work.
func (s *Session) disconnect() {
	s.drop.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.inbox)
		s.mu.Unlock()

		s.gateway.DropSession(s.id)
		_ = s.conn.Close()
		s.log.Info("session disconnected", "session_id", s.id)
	})
}

// Package ws serves the web chat over a websocket, one connection per session.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/ann82/dv-assistant-sub003/internal/logging"
	"github.com/ann82/dv-assistant-sub003/internal/model/conversation"
	"github.com/ann82/dv-assistant-sub003/internal/service/assistant"
)

const (
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// readTimeout bounds the silence between inbound messages. It runs from the
// end of the previous turn, not from when the previous message arrived.
var readTimeout = 60 * time.Second

// Handler upgrades requests and runs turns for inbound text messages.
type Handler struct {
	engine   *assistant.Engine
	upgrader websocket.Upgrader
}

func New(engine *assistant.Engine) *Handler {
	return &Handler{
		engine: engine,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionKey}", h.handleWebSocket)
}

type inboundMessage struct {
	Type       string          `json:"type"`
	SessionKey string          `json:"sessionKey"`
	Data       json.RawMessage `json:"data"`
}

// TextMessage carries one caller utterance.
type TextMessage struct {
	Text string `json:"text"`
}

// ConfigMessage changes how replies are rendered for this connection.
type ConfigMessage struct {
	Channel  string `json:"channel"`
	Language string `json:"language"`
}

type outgoingMessage struct {
	Type       string      `json:"type"`
	SessionKey string      `json:"sessionKey,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Timestamp  int64       `json:"timestamp"`
}

type connectionState struct {
	sessionKey string
	channel    conversation.Channel
	language   string
}

func newConnectionState(sessionKey string) *connectionState {
	return &connectionState{
		sessionKey: sessionKey,
		channel:    conversation.ChannelWeb,
		language:   "en-US",
	}
}

func (s *connectionState) apply(cfg ConfigMessage) {
	if cfg.Channel != "" {
		s.channel = conversation.ParseChannel(cfg.Channel)
	}
	if cfg.Language != "" {
		s.language = cfg.Language
	}
}

// conn serialises writes; gorilla allows one concurrent writer.
type conn struct {
	*websocket.Conn
	mu sync.Mutex
}

func (c *conn) send(msg outgoingMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg.Timestamp = time.Now().Unix()
	_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.WriteJSON(msg); err != nil {
		log.Debugf("[websocket] write %s failed: %v", msg.Type, err)
	}
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionKey := chi.URLParam(r, "sessionKey")
	if sessionKey == "" {
		http.Error(w, "sessionKey is required", http.StatusBadRequest)
		return
	}

	raw, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("[websocket] upgrade failed: %v", err)
		return
	}
	c := &conn{Conn: raw}
	defer c.Close()

	log.Infof("[websocket] new connection for session %s", logging.MaskKey(sessionKey))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_ = c.SetReadDeadline(time.Now().Add(readTimeout))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(readTimeout))
	})
	go h.pingLoop(ctx, c)

	state := newConnectionState(sessionKey)
	c.send(outgoingMessage{Type: "connected", SessionKey: sessionKey, Data: map[string]any{
		"channel":  state.channel,
		"language": state.language,
	}})

	for {
		var msg inboundMessage
		if err := c.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnf("[websocket] read error: %v", err)
			}
			return
		}

		if msg.SessionKey != "" && msg.SessionKey != sessionKey {
			h.sendError(c, "session mismatch")
		} else if h.handleMessage(ctx, c, state, &msg) {
			return
		}
		_ = c.SetReadDeadline(time.Now().Add(readTimeout))
	}
}

// handleMessage reports whether the connection should close.
func (h *Handler) handleMessage(ctx context.Context, c *conn, state *connectionState, msg *inboundMessage) bool {
	switch msg.Type {
	case "text":
		var text TextMessage
		if err := json.Unmarshal(msg.Data, &text); err != nil || text.Text == "" {
			h.sendError(c, "invalid text payload")
			return false
		}
		reply, err := h.engine.HandleUtterance(ctx, assistant.Request{
			SessionKey: state.sessionKey,
			Utterance:  text.Text,
			Channel:    state.channel,
			Language:   state.language,
		})
		if err != nil {
			h.sendError(c, err.Error())
			return false
		}
		c.send(outgoingMessage{Type: "reply", SessionKey: state.sessionKey, Data: reply})
		return reply.Ended
	case "config":
		var cfg ConfigMessage
		if err := json.Unmarshal(msg.Data, &cfg); err != nil {
			h.sendError(c, "invalid config payload")
			return false
		}
		state.apply(cfg)
		c.send(outgoingMessage{Type: "config", SessionKey: state.sessionKey, Data: map[string]any{
			"channel":  state.channel,
			"language": state.language,
		}})
	case "reset":
		h.engine.ClearContext(ctx, state.sessionKey)
		c.send(outgoingMessage{Type: "reset", SessionKey: state.sessionKey})
	default:
		h.sendError(c, "unsupported message type: "+msg.Type)
	}
	return false
}

func (h *Handler) sendError(c *conn, message string) {
	c.send(outgoingMessage{Type: "error", Data: map[string]string{"message": message}})
}

func (h *Handler) pingLoop(ctx context.Context, c *conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

package stream

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/ann82/dv-assistant-sub003/internal/format"
	"github.com/ann82/dv-assistant-sub003/internal/logging"
	"github.com/ann82/dv-assistant-sub003/internal/model/conversation"
	"github.com/ann82/dv-assistant-sub003/internal/service/assistant"
	"github.com/ann82/dv-assistant-sub003/pkg/utils"
)

// deltaSize is the rune budget of one streamed text chunk.
const deltaSize = 80

// Handler streams a turn's reply via Server-Sent Events.
type Handler struct {
	engine *assistant.Engine
}

func New(engine *assistant.Engine) *Handler {
	return &Handler{engine: engine}
}

// StreamResponse is one SSE payload.
type StreamResponse struct {
	Event      string           `json:"event"`
	Content    string           `json:"content,omitempty"`
	SessionKey string           `json:"sessionKey,omitempty"`
	Reply      *assistant.Reply `json:"reply,omitempty"`
	Finished   bool             `json:"finished,omitempty"`
	Error      string           `json:"error,omitempty"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/conversation/{sessionKey}/stream", h.handleStream)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionKey := chi.URLParam(r, "sessionKey")
	q := r.URL.Query()
	message := q.Get("message")
	if message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	if err := h.HandleStreamRequest(r.Context(), w, sessionKey, message, conversation.ParseChannel(q.Get("channel")), q.Get("language")); err != nil {
		log.Warnf("[stream] request for %s failed: %v", logging.MaskKey(sessionKey), err)
	}
}

// HandleStreamRequest runs one turn and streams it as start, intent, delta,
// message and end events.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionKey, message string, channel conversation.Channel, language string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return errors.New("streaming unsupported")
	}
	utils.SetupSSEHeaders(w)

	h.send(w, flusher, StreamResponse{Event: "start", SessionKey: sessionKey})

	reply, err := h.engine.HandleUtterance(ctx, assistant.Request{
		SessionKey: sessionKey,
		Utterance:  message,
		Channel:    channel,
		Language:   language,
	})
	if err != nil {
		h.send(w, flusher, StreamResponse{Event: "error", SessionKey: sessionKey, Error: err.Error()})
		return err
	}

	h.send(w, flusher, StreamResponse{Event: "intent", SessionKey: sessionKey, Content: string(reply.Intent)})
	for _, chunk := range format.Segments(reply.Voice, deltaSize) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		h.send(w, flusher, StreamResponse{Event: "delta", SessionKey: sessionKey, Content: chunk})
	}
	h.send(w, flusher, StreamResponse{Event: "message", SessionKey: sessionKey, Reply: reply})
	h.send(w, flusher, StreamResponse{Event: "end", SessionKey: sessionKey, Finished: true})

	log.Debugf("[stream] completed turn for %s source=%s", logging.MaskKey(sessionKey), reply.Source)
	return nil
}

func (h *Handler) send(w http.ResponseWriter, flusher http.Flusher, resp StreamResponse) {
	utils.SendSSEEvent(w, flusher, resp.Event, resp)
}

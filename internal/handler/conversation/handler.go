package conversation

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ann82/dv-assistant-sub003/internal/model/conversation"
	"github.com/ann82/dv-assistant-sub003/internal/service/assistant"
	"github.com/ann82/dv-assistant-sub003/pkg/utils"
)

// Handler exposes the engine over JSON.
type Handler struct {
	engine *assistant.Engine
}

func New(engine *assistant.Engine) *Handler {
	return &Handler{engine: engine}
}

// RegisterRoutes mounts the conversation, intent and rewrite endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/conversation/message", h.handleMessage)
	r.Get("/conversation/{sessionKey}", h.handleGetContext)
	r.Delete("/conversation/{sessionKey}", h.handleClearContext)
	r.Post("/conversation/{sessionKey}/followup", h.handleFollowUp)
	r.Post("/intent", h.handleIntent)
	r.Post("/rewrite", h.handleRewrite)
}

type messageRequest struct {
	SessionKey string `json:"sessionKey"`
	Utterance  string `json:"utterance"`
	Channel    string `json:"channel"`
	Language   string `json:"language"`
}

// handleMessage runs one full turn. Web callers without a key get a fresh one.
func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	var payload messageRequest
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Utterance) == "" {
		utils.RespondError(w, http.StatusBadRequest, "utterance is required")
		return
	}
	channel := conversation.ParseChannel(payload.Channel)
	if strings.TrimSpace(payload.SessionKey) == "" {
		if channel != conversation.ChannelWeb {
			utils.RespondError(w, http.StatusBadRequest, "sessionKey is required for voice and sms")
			return
		}
		payload.SessionKey = "web-" + uuid.NewString()
	}

	reply, err := h.engine.HandleUtterance(r.Context(), assistant.Request{
		SessionKey: payload.SessionKey,
		Utterance:  payload.Utterance,
		Channel:    channel,
		Language:   payload.Language,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, assistant.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		utils.RespondError(w, status, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, reply)
}

func (h *Handler) handleGetContext(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.engine.GetContext(r.Context(), chi.URLParam(r, "sessionKey"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleClearContext(w http.ResponseWriter, r *http.Request) {
	h.engine.ClearContext(r.Context(), chi.URLParam(r, "sessionKey"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleFollowUp(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Utterance string `json:"utterance"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil || strings.TrimSpace(payload.Utterance) == "" {
		utils.RespondError(w, http.StatusBadRequest, "utterance is required")
		return
	}

	resp, ok := h.engine.ResolveFollowUp(r.Context(), chi.URLParam(r, "sessionKey"), payload.Utterance)
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"followUp": ok,
		"response": resp,
	})
}

func (h *Handler) handleIntent(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Utterance string `json:"utterance"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil || strings.TrimSpace(payload.Utterance) == "" {
		utils.RespondError(w, http.StatusBadRequest, "utterance is required")
		return
	}
	utils.RespondJSON(w, http.StatusOK, h.engine.ClassifyIntent(r.Context(), payload.Utterance))
}

func (h *Handler) handleRewrite(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Utterance  string `json:"utterance"`
		Intent     string `json:"intent"`
		SessionKey string `json:"sessionKey"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil || strings.TrimSpace(payload.Utterance) == "" {
		utils.RespondError(w, http.StatusBadRequest, "utterance is required")
		return
	}

	var intent conversation.Intent
	if payload.Intent != "" {
		parsed, ok := conversation.ParseIntent(payload.Intent)
		if !ok {
			utils.RespondError(w, http.StatusBadRequest, "unknown intent")
			return
		}
		intent = parsed
	} else {
		intent = h.engine.ClassifyIntent(r.Context(), payload.Utterance).Intent
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"query":  h.engine.RewriteQuery(r.Context(), payload.Utterance, intent, payload.SessionKey),
		"intent": string(intent),
	})
}

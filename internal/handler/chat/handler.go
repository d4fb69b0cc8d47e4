package chat

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	chatModel "github.com/zhixinliu/medichat/backend/internal/model/chat"
	"github.com/zhixinliu/medichat/backend/internal/model/session"
	aiService "github.com/zhixinliu/medichat/backend/internal/service/ai"
	chatService "github.com/zhixinliu/medichat/backend/internal/service/chat"
	"github.com/zhixinliu/medichat/backend/pkg/utils"
)

// Handler serves the consultation routes: the stateless completion relay
// and the server-side session surface.
type Handler struct {
	aiSvc   chatService.Responder
	chatSvc *chatService.Service
}

// New creates a chat handler. aiSvc may be nil when no completion backend
// is configured; the chat routes then answer 503.
func New(aiSvc chatService.Responder, chatSvc *chatService.Service) *Handler {
	return &Handler{aiSvc: aiSvc, chatSvc: chatSvc}
}

// RegisterRoutes mounts the chat and session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChatTurn)

	r.Post("/sessions", h.handleCreateSession)
	r.Get("/sessions/{sessionID}", h.handleGetSession)
	r.Delete("/sessions/{sessionID}", h.handleClearSession)
	r.Get("/sessions/{sessionID}/messages", h.handleTranscript)
	r.Post("/sessions/{sessionID}/messages", h.handleSendMessage)
}

// chatTurnRequest is the stateless relay body: the client carries its own
// transcript and triage progress.
type chatTurnRequest struct {
	Message           string              `json:"message"`
	History           []chatModel.Message `json:"history"`
	TriageData        map[string]string   `json:"triageData"`
	IsFinalAssessment bool                `json:"isFinalAssessment"`
	NeedsOptions      bool                `json:"needsOptions"`
	StepNumber        int                 `json:"stepNumber"`
}

func (h *Handler) handleChatTurn(w http.ResponseWriter, r *http.Request) {
	if h.aiSvc == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "assistant service is not configured")
		return
	}

	var payload chatTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := h.aiSvc.Respond(r.Context(), aiService.Request{
		Message:           payload.Message,
		History:           payload.History,
		TriageData:        payload.TriageData,
		IsFinalAssessment: payload.IsFinalAssessment,
		NeedsOptions:      payload.NeedsOptions,
		StepNumber:        payload.StepNumber,
	})
	if err != nil {
		h.respondTurnError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, reply)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.chatSvc.CreateSession(r.Context())
	if err != nil {
		log.Printf("[chat] create session failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "could not create session")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, sess)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondSessionError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleClearSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.ClearSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.respondSessionError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chatSvc.Transcript(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondSessionError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"messages": messages,
	})
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := h.chatSvc.SendMessage(r.Context(), chi.URLParam(r, "sessionID"), payload.Message)
	if err != nil {
		// An upstream failure still produced a flagged transcript entry;
		// relay the taxonomy status alongside it.
		if reply.ID != "" {
			h.respondTurnError(w, err)
			return
		}
		h.respondSessionError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, reply)
}

// respondTurnError maps a completion failure onto the relay taxonomy.
func (h *Handler) respondTurnError(w http.ResponseWriter, err error) {
	log.Printf("[chat] turn failed: %v", err)

	var provErr *aiService.ProviderError
	if errors.As(err, &provErr) {
		utils.RespondError(w, provErr.StatusCode, provErr.Message)
		return
	}
	if errors.Is(err, aiService.ErrUnreachable) {
		utils.RespondError(w, http.StatusServiceUnavailable, "No response from the assistant service, please try again later.")
		return
	}
	utils.RespondError(w, http.StatusInternalServerError, "could not process the message")
}

func (h *Handler) respondSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, chatService.ErrEmptyMessage):
		utils.RespondError(w, http.StatusBadRequest, "message is required")
	case errors.Is(err, chatService.ErrNoResponder):
		utils.RespondError(w, http.StatusServiceUnavailable, "assistant service is not configured")
	default:
		log.Printf("[chat] session operation failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "session operation failed")
	}
}

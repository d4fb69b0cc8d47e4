package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	aiService "github.com/zhixinliu/medichat/backend/internal/service/ai"
	chatService "github.com/zhixinliu/medichat/backend/internal/service/chat"
	"github.com/zhixinliu/medichat/backend/pkg/utils"
)

// Handler streams consultation replies over Server-Sent Events.
type Handler struct {
	aiSvc   *aiService.Service
	chatSvc *chatService.Service
}

// New creates a stream handler.
func New(aiSvc *aiService.Service, chatSvc *chatService.Service) *Handler {
	return &Handler{aiSvc: aiSvc, chatSvc: chatSvc}
}

// StreamResponse is one SSE payload.
type StreamResponse struct {
	Event     string   `json:"event"`
	Content   string   `json:"content,omitempty"`
	SessionID string   `json:"sessionId,omitempty"`
	Options   []string `json:"options,omitempty"`
	Finished  bool     `json:"finished,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// HandleStreamRequest runs one consultation turn for the session and streams
// the reply. Triage questions carry an options payload and are delivered as
// one message event; plain and final-assessment turns stream deltas.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	req, err := h.chatSvc.ShapeTurn(ctx, sessionID, userMessage)
	if err != nil {
		h.sendSSEError(w, flusher, fmt.Sprintf("failed to load session: %v", err))
		return err
	}

	h.sendSSE(w, flusher, StreamResponse{Event: "start", SessionID: sessionID})

	var content string
	var options []string
	if req.NeedsOptions {
		// Option turns answer with a JSON payload, so streaming raw
		// deltas would expose it; deliver the parsed result whole.
		reply, err := h.aiSvc.Respond(ctx, req)
		if err != nil {
			h.persistErrorTurn(ctx, sessionID, userMessage, err)
			h.sendSSEError(w, flusher, "assistant generation failed")
			return err
		}
		content = reply.Response
		options = reply.Options
		h.sendSSE(w, flusher, StreamResponse{
			Event:     "message",
			SessionID: sessionID,
			Content:   content,
		})
		if len(options) > 0 {
			h.sendSSE(w, flusher, StreamResponse{
				Event:     "options",
				SessionID: sessionID,
				Options:   options,
			})
		}
	} else {
		content, err = h.streamReply(ctx, w, flusher, sessionID, req)
		if err != nil {
			h.persistErrorTurn(ctx, sessionID, userMessage, err)
			h.sendSSEError(w, flusher, "assistant generation failed")
			return err
		}
	}

	if _, err := h.chatSvc.AppendAssistantMessage(ctx, sessionID, userMessage, content, options); err != nil {
		log.Printf("[stream] failed to persist turn for session=%s: %v", sessionID, err)
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "end",
		SessionID: sessionID,
		Finished:  true,
	})

	log.Printf("[stream] completed turn for session=%s step=%d final=%t",
		sessionID, req.StepNumber, req.IsFinalAssessment)
	return nil
}

// streamReply relays model deltas as they arrive and returns the assembled
// reply text.
func (h *Handler) streamReply(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sessionID string, req aiService.Request) (string, error) {
	reader, err := h.aiSvc.StreamRespond(ctx, req)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	var builder strings.Builder
	for {
		chunk, err := reader.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if chunk.Content == "" {
			continue
		}
		builder.WriteString(chunk.Content)
		h.sendSSE(w, flusher, StreamResponse{
			Event:     "delta",
			SessionID: sessionID,
			Content:   chunk.Content,
		})
	}

	return strings.TrimSpace(builder.String()), nil
}

// persistErrorTurn keeps a failed streamed turn in the transcript the same
// way a failed SendMessage turn is kept.
func (h *Handler) persistErrorTurn(ctx context.Context, sessionID, userMessage string, cause error) {
	if _, err := h.chatSvc.AppendErrorTurn(ctx, sessionID, userMessage, cause); err != nil {
		log.Printf("[stream] failed to persist error turn for session=%s: %v", sessionID, err)
	}
}

func (h *Handler) sendSSE(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) {
	utils.SendSSEChunk(w, flusher, response)
}

func (h *Handler) sendSSEError(w http.ResponseWriter, flusher http.Flusher, message string) {
	h.sendSSE(w, flusher, StreamResponse{Event: "error", Error: message})
}

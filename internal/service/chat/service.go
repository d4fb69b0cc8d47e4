// Package chat runs the server-side conversation controller: it owns the
// session log, drives the triage state machine and shapes each turn's
// request to the completion proxy.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhixinliu/medichat/backend/internal/config"
	"github.com/zhixinliu/medichat/backend/internal/model/chat"
	"github.com/zhixinliu/medichat/backend/internal/model/session"
	"github.com/zhixinliu/medichat/backend/internal/model/triage"
	"github.com/zhixinliu/medichat/backend/internal/service/ai"
)

// ErrEmptyMessage rejects blank user submissions.
var ErrEmptyMessage = errors.New("message is required")

// ErrNoResponder is returned when no completion backend is configured.
var ErrNoResponder = errors.New("assistant service is not configured")

// Responder is the slice of the completion proxy the controller needs.
type Responder interface {
	Respond(ctx context.Context, req ai.Request) (ai.Reply, error)
}

// Service coordinates sessions, triage progress and the completion proxy.
type Service struct {
	store     session.Store
	responder Responder
	triageCfg config.TriageConfig
}

// NewService wires the controller to a session store and completion proxy.
func NewService(store session.Store, responder Responder, triageCfg config.TriageConfig) *Service {
	return &Service{store: store, responder: responder, triageCfg: triageCfg}
}

// CreateSession provisions a session seeded with the welcome message and a
// NOT_STARTED triage state.
func (s *Service) CreateSession(ctx context.Context) (session.Session, error) {
	id := uuid.NewString()
	sess := session.Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Messages: []chat.Message{{
			ID:        uuid.NewString(),
			ChatID:    id,
			Text:      chat.WelcomeText,
			IsUser:    false,
			Timestamp: time.Now().UTC(),
		}},
		Triage: triage.NewState(),
	}

	if err := s.store.Put(ctx, sess); err != nil {
		return session.Session{}, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(ctx context.Context, id string) (session.Session, error) {
	return s.store.Get(ctx, id)
}

// Transcript returns the ordered message log of a session.
func (s *Service) Transcript(ctx context.Context, id string) ([]chat.Message, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return sess.Messages, nil
}

// ClearSession drops a session; the next CreateSession starts from scratch.
func (s *Service) ClearSession(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// SendMessage runs one consultation turn. The triage transition is computed
// first and decides the request shape: final assessment once the step counter
// reaches the completion threshold, multiple-choice options while triage is
// still gathering answers, a plain conversational turn otherwise.
//
// On proxy failure the user message and an error-flagged assistant message
// are still appended, but the triage advance is discarded so the same step is
// retried on the next submission. The flagged message is returned along with
// the error.
func (s *Service) SendMessage(ctx context.Context, sessionID, text string) (chat.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return chat.Message{}, ErrEmptyMessage
	}
	if s.responder == nil {
		return chat.Message{}, ErrNoResponder
	}

	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return chat.Message{}, err
	}

	userMsg := chat.Message{
		ID:        uuid.NewString(),
		ChatID:    sessionID,
		Text:      text,
		IsUser:    true,
		Timestamp: time.Now().UTC(),
	}

	advanced := sess.Triage.Clone()
	advanced.Advance(text, s.triageCfg.CompletionThreshold)

	req := ai.Request{
		Message:           text,
		History:           sess.Messages,
		TriageData:        advanced.SymptomsGathered,
		IsFinalAssessment: advanced.IsComplete,
		NeedsOptions:      advanced.NeedsOptions(),
		StepNumber:        advanced.CurrentStep,
	}

	reply, err := s.responder.Respond(ctx, req)
	if err != nil {
		log.Printf("[chat] turn failed for session=%s: %v", sessionID, err)
		errMsg, appendErr := s.AppendErrorTurn(ctx, sessionID, text, err)
		if appendErr != nil {
			log.Printf("[chat] failed to persist error turn for session=%s: %v", sessionID, appendErr)
		}
		return errMsg, err
	}

	assistantMsg := chat.Message{
		ID:        uuid.NewString(),
		ChatID:    sessionID,
		Text:      reply.Response,
		IsUser:    false,
		Timestamp: time.Now().UTC(),
		Options:   reply.Options,
	}

	if req.NeedsOptions {
		advanced.RecordQuestion(reply.Response)
	}
	sess.Triage = advanced
	sess.Messages = append(sess.Messages, userMsg, assistantMsg)

	if err := s.store.Put(ctx, sess); err != nil {
		return chat.Message{}, fmt.Errorf("store session: %w", err)
	}

	log.Printf("[chat] turn completed for session=%s step=%d final=%t options=%d",
		sessionID, advanced.CurrentStep, advanced.IsComplete, len(reply.Options))
	return assistantMsg, nil
}

// AppendErrorTurn records a failed turn: the user message plus an
// error-flagged assistant message carrying the user-facing failure text.
// Triage state is deliberately left at the pre-turn state so the same step
// is retried on the next submission.
func (s *Service) AppendErrorTurn(ctx context.Context, sessionID, userText string, cause error) (chat.Message, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return chat.Message{}, err
	}

	userMsg := chat.Message{
		ID:        uuid.NewString(),
		ChatID:    sessionID,
		Text:      userText,
		IsUser:    true,
		Timestamp: time.Now().UTC(),
	}
	errMsg := chat.Message{
		ID:        uuid.NewString(),
		ChatID:    sessionID,
		Text:      userFacingError(cause),
		IsUser:    false,
		Timestamp: time.Now().UTC(),
		Error:     true,
	}
	sess.Messages = append(sess.Messages, userMsg, errMsg)

	if err := s.store.Put(ctx, sess); err != nil {
		return chat.Message{}, fmt.Errorf("store session: %w", err)
	}
	return errMsg, nil
}

// AppendAssistantMessage persists an assistant reply produced outside
// SendMessage, such as a streamed turn, applying the same triage advance.
func (s *Service) AppendAssistantMessage(ctx context.Context, sessionID, userText, assistantText string, options []string) (chat.Message, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return chat.Message{}, err
	}

	userMsg := chat.Message{
		ID:        uuid.NewString(),
		ChatID:    sessionID,
		Text:      userText,
		IsUser:    true,
		Timestamp: time.Now().UTC(),
	}
	assistantMsg := chat.Message{
		ID:        uuid.NewString(),
		ChatID:    sessionID,
		Text:      assistantText,
		IsUser:    false,
		Timestamp: time.Now().UTC(),
		Options:   options,
	}

	sess.Triage.Advance(userText, s.triageCfg.CompletionThreshold)
	if sess.Triage.NeedsOptions() {
		sess.Triage.RecordQuestion(assistantText)
	}
	sess.Messages = append(sess.Messages, userMsg, assistantMsg)

	if err := s.store.Put(ctx, sess); err != nil {
		return chat.Message{}, fmt.Errorf("store session: %w", err)
	}
	return assistantMsg, nil
}

// ShapeTurn computes the request flags for a turn without committing the
// triage advance; the streaming handler uses it before the model call.
func (s *Service) ShapeTurn(ctx context.Context, sessionID, text string) (ai.Request, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return ai.Request{}, err
	}

	advanced := sess.Triage.Clone()
	advanced.Advance(text, s.triageCfg.CompletionThreshold)

	return ai.Request{
		Message:           text,
		History:           sess.Messages,
		TriageData:        advanced.SymptomsGathered,
		IsFinalAssessment: advanced.IsComplete,
		NeedsOptions:      advanced.NeedsOptions(),
		StepNumber:        advanced.CurrentStep,
	}, nil
}

// userFacingError maps an upstream failure to the text rendered in the chat.
func userFacingError(err error) string {
	var provErr *ai.ProviderError
	if errors.As(err, &provErr) {
		return provErr.Message
	}
	if errors.Is(err, ai.ErrUnreachable) {
		return "No response from the assistant service, please try again later."
	}
	return "I'm sorry, I couldn't process your request. Please try again."
}

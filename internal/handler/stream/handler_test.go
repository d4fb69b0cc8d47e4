package stream

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/zhixinliu/medichat/backend/internal/config"
	"github.com/zhixinliu/medichat/backend/internal/model/session"
	aiService "github.com/zhixinliu/medichat/backend/internal/service/ai"
	chatService "github.com/zhixinliu/medichat/backend/internal/service/chat"
)

type stubModel struct {
	replies []string
	err     error
}

func (m *stubModel) next() string {
	if len(m.replies) == 0 {
		return "Thank you, that is helpful detail about your symptoms."
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]
	return reply
}

func (m *stubModel) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.next(), nil), nil
}

func (m *stubModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func setup(t *testing.T, stub *stubModel) (*Handler, *chatService.Service) {
	t.Helper()
	aiCfg := config.AIConfig{SonarAPIKey: "test", SonarModel: "sonar-pro", MaxTokens: 1500, FinalMaxTokens: 2048}
	triageCfg := config.TriageConfig{CompletionThreshold: 5, MinAssistantReply: 20}

	aiSvc, err := aiService.NewServiceWithModel(context.Background(), stub, aiCfg, triageCfg)
	if err != nil {
		t.Fatalf("NewServiceWithModel err: %v", err)
	}
	chatSvc := chatService.NewService(session.NewMemoryStore(), aiSvc, triageCfg)
	return New(aiSvc, chatSvc), chatSvc
}

func TestStreamTriageTurnSendsOptions(t *testing.T) {
	stub := &stubModel{replies: []string{
		`{"question": "How long have you had the headache?", "options": ["Today", "A few days", "A week", "Longer"]}`,
	}}
	handler, chatSvc := setup(t, stub)

	sess, err := chatSvc.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	rec := httptest.NewRecorder()
	if err := handler.HandleStreamRequest(context.Background(), rec, sess.ID, "I have a headache"); err != nil {
		t.Fatalf("HandleStreamRequest err: %v", err)
	}

	body := rec.Body.String()
	for _, event := range []string{`"event":"start"`, `"event":"message"`, `"event":"options"`, `"event":"end"`} {
		if !strings.Contains(body, event) {
			t.Fatalf("missing %s in stream:\n%s", event, body)
		}
	}
	if !strings.Contains(body, "How long have you had the headache?") {
		t.Fatalf("question not streamed:\n%s", body)
	}

	updated, err := chatSvc.GetSession(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}
	if len(updated.Messages) != 3 {
		t.Fatalf("expected welcome + user + assistant, got %d messages", len(updated.Messages))
	}
	if updated.Triage.CurrentStep != 1 || !updated.Triage.IsActive {
		t.Fatalf("triage did not advance: %+v", updated.Triage)
	}
}

func TestStreamFinalTurnDeltas(t *testing.T) {
	stub := &stubModel{}
	handler, chatSvc := setup(t, stub)

	sess, err := chatSvc.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	answers := []string{"headache", "since yesterday", "behind the eyes", "pretty strong"}
	for _, answer := range answers {
		if _, err := chatSvc.SendMessage(context.Background(), sess.ID, answer); err != nil {
			t.Fatalf("SendMessage(%q) err: %v", answer, err)
		}
	}

	stub.replies = []string{"## Medical Assessment Summary\nYour symptoms suggest a tension headache."}
	rec := httptest.NewRecorder()
	if err := handler.HandleStreamRequest(context.Background(), rec, sess.ID, "no other symptoms"); err != nil {
		t.Fatalf("HandleStreamRequest err: %v", err)
	}

	body := rec.Body.String()
	if !strings.Contains(body, `"event":"delta"`) {
		t.Fatalf("final turn must stream deltas:\n%s", body)
	}
	if strings.Contains(body, `"event":"options"`) {
		t.Fatalf("final turn must not carry options:\n%s", body)
	}

	updated, err := chatSvc.GetSession(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}
	if !updated.Triage.IsComplete {
		t.Fatalf("fifth turn should complete triage: %+v", updated.Triage)
	}
}

func TestStreamFailedTurnPersistsErrorMessage(t *testing.T) {
	stub := &stubModel{err: aiService.ErrUnreachable}
	handler, chatSvc := setup(t, stub)

	sess, err := chatSvc.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	rec := httptest.NewRecorder()
	if err := handler.HandleStreamRequest(context.Background(), rec, sess.ID, "I have a headache"); err == nil {
		t.Fatal("expected error from failed turn")
	}
	if !strings.Contains(rec.Body.String(), `"event":"error"`) {
		t.Fatalf("expected SSE error event, got:\n%s", rec.Body.String())
	}

	updated, err := chatSvc.GetSession(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}
	if len(updated.Messages) != 3 {
		t.Fatalf("failed turn must still be logged, got %d messages", len(updated.Messages))
	}
	last := updated.Messages[len(updated.Messages)-1]
	if !last.Error || last.IsUser {
		t.Fatalf("expected error-flagged assistant message, got %+v", last)
	}
	if updated.Messages[len(updated.Messages)-2].Text != "I have a headache" {
		t.Fatalf("user message missing from transcript: %+v", updated.Messages)
	}
	if updated.Triage.IsActive || len(updated.Triage.SymptomsGathered) != 0 {
		t.Fatalf("triage advanced on failed stream turn: %+v", updated.Triage)
	}
}

func TestStreamUnknownSessionEmitsError(t *testing.T) {
	handler, _ := setup(t, &stubModel{})

	rec := httptest.NewRecorder()
	if err := handler.HandleStreamRequest(context.Background(), rec, "nope", "hello"); err == nil {
		t.Fatal("expected error for unknown session")
	}
	if !strings.Contains(rec.Body.String(), `"event":"error"`) {
		t.Fatalf("expected SSE error event, got:\n%s", rec.Body.String())
	}
}

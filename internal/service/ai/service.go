package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhixinliu/medichat/backend/internal/config"
	"github.com/zhixinliu/medichat/backend/internal/model/chat"
)

// Request carries one consultation turn to the completion proxy.
type Request struct {
	Message           string
	History           []chat.Message
	TriageData        map[string]string
	IsFinalAssessment bool
	NeedsOptions      bool
	StepNumber        int
}

// Reply is the proxy's reshaped answer. Options is nil whenever no
// multiple-choice set could be produced.
type Reply struct {
	Response string   `json:"response"`
	Options  []string `json:"options,omitempty"`
}

// Service proxies consultation turns to the configured completion backend.
// It is stateless per request.
type Service struct {
	chatModel model.BaseChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
	aiCfg     config.AIConfig
	triageCfg config.TriageConfig
}

// NewService compiles the conversation chain against the configured model
// backend: Ark when its credentials are present, the OpenAI-compatible HTTP
// client otherwise.
func NewService(ctx context.Context, aiCfg config.AIConfig, triageCfg config.TriageConfig) (*Service, error) {
	chatModel, err := newChatModel(ctx, aiCfg)
	if err != nil {
		return nil, err
	}
	return NewServiceWithModel(ctx, chatModel, aiCfg, triageCfg)
}

func newChatModel(ctx context.Context, cfg config.AIConfig) (model.BaseChatModel, error) {
	if cfg.ArkEnabled() {
		maxTokens := cfg.MaxTokens
		temperature := float32(cfg.Temperature)
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     cfg.ArkBaseURL,
			Region:      cfg.ArkRegion,
			APIKey:      cfg.ArkAPIKey,
			AccessKey:   cfg.ArkAccessKey,
			SecretKey:   cfg.ArkSecretKey,
			Model:       cfg.ArkModel,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
		})
	}

	if cfg.SonarAPIKey == "" {
		return nil, fmt.Errorf("no completion backend configured: set SONAR_API_KEY or Ark credentials")
	}
	return NewSonarModel(cfg), nil
}

// NewServiceWithModel compiles the chain against a caller-supplied model,
// which is how tests inject stub backends.
func NewServiceWithModel(ctx context.Context, chatModel model.BaseChatModel, aiCfg config.AIConfig, triageCfg config.TriageConfig) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		chain:     runnable,
		aiCfg:     aiCfg,
		triageCfg: triageCfg,
	}, nil
}

// Respond runs one consultation turn: filter and rebuild the history, select
// the prompt variant, call the provider once and reshape the reply. When the
// turn asked for options but the reply cannot be parsed, one best-effort
// extraction call runs before degrading to a plain reply.
func (s *Service) Respond(ctx context.Context, req Request) (Reply, error) {
	msg, err := s.chain.Invoke(ctx, s.chainInput(req), s.chainOptions(req)...)
	if err != nil {
		return Reply{}, err
	}

	content := strings.TrimSpace(msg.Content)
	if !req.NeedsOptions {
		return Reply{Response: content}, nil
	}

	if question, options, ok := parseOptionPayload(content); ok {
		return Reply{Response: question, Options: options}, nil
	}

	log.Printf("[ai] option payload parse failed, attempting extraction retry")
	if options, ok := s.extractOptions(ctx, content); ok {
		return Reply{Response: content, Options: options}, nil
	}

	// Option extraction is an enrichment, never a reason to fail the turn.
	return Reply{Response: content}, nil
}

// StreamRespond streams a consultation turn through the same chain. The HTTP
// backend yields the full reply as a single chunk.
func (s *Service) StreamRespond(ctx context.Context, req Request) (*schema.StreamReader[*schema.Message], error) {
	return s.chain.Stream(ctx, s.chainInput(req), s.chainOptions(req)...)
}

func (s *Service) chainInput(req Request) map[string]any {
	turns := chat.BuildTurns(req.History, req.Message, s.triageCfg.MinAssistantReply)

	// BuildTurns guarantees the final turn is the new user message; the
	// rest is the history placeholder.
	history := make([]*schema.Message, 0, len(turns)-1)
	for _, turn := range turns[:len(turns)-1] {
		switch turn.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(turn.Content))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(turn.Content, nil))
		}
	}

	return map[string]any{
		"system":  buildSystemPrompt(req, s.triageCfg.CompletionThreshold),
		"history": history,
		"query":   req.Message,
	}
}

func (s *Service) chainOptions(req Request) []compose.Option {
	if !req.IsFinalAssessment {
		return nil
	}
	// Final assessments run with a larger output budget.
	return []compose.Option{
		compose.WithChatModelOption(model.WithMaxTokens(s.aiCfg.FinalMaxTokens)),
	}
}

// extractOptions issues the best-effort second call asking for only a JSON
// array of option strings for the already-produced question.
func (s *Service) extractOptions(ctx context.Context, question string) ([]string, bool) {
	msg, err := s.chatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(optionRetryPrompt),
		schema.UserMessage(question),
	})
	if err != nil {
		log.Printf("[ai] option extraction call failed: %v", err)
		return nil, false
	}

	options, err := parseOptionArray(msg.Content)
	if err != nil {
		log.Printf("[ai] option extraction parse failed: %v", err)
		return nil, false
	}
	return options, true
}

type optionPayload struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// parseOptionPayload parses a strict {question, options} reply, tolerating
// surrounding prose or code fences around the JSON object.
func parseOptionPayload(content string) (string, []string, bool) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return "", nil, false
	}

	var payload optionPayload
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &payload); err != nil {
		return "", nil, false
	}
	if strings.TrimSpace(payload.Question) == "" || len(payload.Options) == 0 {
		return "", nil, false
	}
	return strings.TrimSpace(payload.Question), payload.Options, true
}

// parseOptionArray parses a bare JSON array of option strings.
func parseOptionArray(content string) ([]string, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "[")
	end := strings.LastIndex(trimmed, "]")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json array")
	}

	var options []string
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &options); err != nil {
		return nil, err
	}
	if len(options) == 0 {
		return nil, fmt.Errorf("empty option array")
	}
	return options, nil
}

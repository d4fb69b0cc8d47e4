package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/zhixinliu/medichat/backend/internal/config"
)

// ErrUnreachable marks transport-level failures where no response was
// received from the completion provider. Handlers map it to 503.
var ErrUnreachable = errors.New("completion provider unreachable")

// ProviderError carries an upstream API error so its status code and message
// can be relayed to the client.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("completion provider returned %d: %s", e.StatusCode, e.Message)
}

// SonarModel is an OpenAI-compatible chat-completions client implementing
// eino's BaseChatModel, so it slots into the same chain as the Ark backend.
type SonarModel struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

// NewSonarModel builds the HTTP completion backend from configuration.
func NewSonarModel(cfg config.AIConfig) *SonarModel {
	return &SonarModel{
		apiKey:      cfg.SonarAPIKey,
		baseURL:     cfg.SonarBaseURL,
		model:       cfg.SonarModel,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
	}
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate performs one synchronous chat-completion call.
func (m *SonarModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := model.GetCommonOptions(&model.Options{}, opts...)

	reqBody := completionRequest{
		Model:       m.model,
		MaxTokens:   m.maxTokens,
		Temperature: m.temperature,
		Messages:    toWireMessages(input),
	}
	if options.Model != nil && *options.Model != "" {
		reqBody.Model = *options.Model
	}
	if options.MaxTokens != nil {
		reqBody.MaxTokens = *options.MaxTokens
	}
	if options.Temperature != nil {
		reqBody.Temperature = float64(*options.Temperature)
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read completion response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{
			StatusCode: resp.StatusCode,
			Message:    parseProviderError(body),
		}
	}

	var parsed completionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("completion response contained no choices")
	}

	return schema.AssistantMessage(parsed.Choices[0].Message.Content, nil), nil
}

// Stream satisfies BaseChatModel. The provider is called without streaming,
// so the reply is surfaced as a single-element stream.
func (m *SonarModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func toWireMessages(input []*schema.Message) []wireMessage {
	out := make([]wireMessage, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}
		out = append(out, wireMessage{Role: string(msg.Role), Content: msg.Content})
	}
	return out
}

// parseProviderError extracts a human-readable message from an upstream
// error body, which may be {"error": "..."} or {"error": {"message": "..."}}.
func parseProviderError(body []byte) string {
	var wrapped struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && len(wrapped.Error) > 0 {
		var asString string
		if err := json.Unmarshal(wrapped.Error, &asString); err == nil && asString != "" {
			return asString
		}
		var asObject struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(wrapped.Error, &asObject); err == nil && asObject.Message != "" {
			return asObject.Message
		}
	}
	return "error from completion provider"
}

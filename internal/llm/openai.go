package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/averyhart/qa-advisor/internal/chat"
	"github.com/averyhart/qa-advisor/internal/telemetry"
)

// OpenAISender completes conversations against any OpenAI-compatible
// chat/completions endpoint.
type OpenAISender struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewOpenAISender(baseURL string, apiKey string, httpClient *http.Client) *OpenAISender {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OpenAISender{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int64           `json:"max_tokens"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
	Usage   openAIUsage    `json:"usage"`
	Model   string         `json:"model"`
}

type openAIChoice struct {
	Message      openAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openAIUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
}

// Complete sends the history with the system prompt as the first wire message.
func (s *OpenAISender) Complete(
	ctx context.Context,
	system string,
	messages []chat.Message,
	settings chat.ModelSettings,
) (chat.Reply, error) {
	ctx, span := telemetry.StartCompletionSpan(ctx, "openai", settings.Model)
	defer span.End()

	wireMessages := make([]openAIMessage, 0, len(messages)+1)
	wireMessages = append(wireMessages, openAIMessage{Role: string(chat.RoleSystem), Content: system})
	for _, msg := range messages {
		wireMessages = append(wireMessages, openAIMessage{Role: string(msg.Role), Content: msg.Content})
	}

	body, err := json.Marshal(openAIRequest{
		Model:       settings.Model,
		Messages:    wireMessages,
		Temperature: settings.Temperature,
		MaxTokens:   settings.MaxTokens,
	})
	if err != nil {
		return chat.Reply{}, &BoundaryError{Provider: "openai", Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return chat.Reply{}, &BoundaryError{Provider: "openai", Err: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return chat.Reply{}, &BoundaryError{Provider: "openai", Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return chat.Reply{}, &BoundaryError{Provider: "openai", Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return chat.Reply{}, &BoundaryError{Provider: "openai", Err: fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))}
	}

	var parsed openAIResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return chat.Reply{}, &BoundaryError{Provider: "openai", Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if len(parsed.Choices) == 0 {
		return chat.Reply{}, &BoundaryError{Provider: "openai", Err: errors.New("no choices returned from API")}
	}

	usage := chat.TokenUsage{
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
	}
	telemetry.RecordUsage(span, usage)

	model := parsed.Model
	if model == "" {
		model = settings.Model
	}
	return chat.Reply{
		Content:  parsed.Choices[0].Message.Content,
		Provider: "openai",
		Model:    model,
		Usage:    usage,
	}, nil
}

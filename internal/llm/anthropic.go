package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/averyhart/qa-advisor/internal/chat"
	"github.com/averyhart/qa-advisor/internal/telemetry"
)

// AnthropicSender completes conversations against the Anthropic Messages API.
type AnthropicSender struct {
	client anthropic.Client
}

func NewAnthropicSender(client anthropic.Client) *AnthropicSender {
	return &AnthropicSender{client: client}
}

// Complete sends the system prompt and message history, streams the response,
// and returns the accumulated assistant text.
func (s *AnthropicSender) Complete(
	ctx context.Context,
	system string,
	messages []chat.Message,
	settings chat.ModelSettings,
) (chat.Reply, error) {
	ctx, span := telemetry.StartCompletionSpan(ctx, "anthropic", settings.Model)
	defer span.End()

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(settings.Model),
		MaxTokens:   settings.MaxTokens,
		Temperature: anthropic.Float(settings.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: convertMessages(messages),
	}

	stream := s.client.Messages.NewStreaming(ctx, params)
	response := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := response.Accumulate(event); err != nil {
			return chat.Reply{}, &BoundaryError{Provider: "anthropic", Err: fmt.Errorf("failed to accumulate response content stream: %w", err)}
		}
	}
	if stream.Err() != nil {
		return chat.Reply{}, &BoundaryError{Provider: "anthropic", Err: fmt.Errorf("failed to stream response: %w", stream.Err())}
	}
	if response.StopReason == "" {
		b, err := json.Marshal(response)
		if err != nil {
			log.Printf("error while marshalling corrupt message for inspection: %v", err)
		}
		return chat.Reply{}, &BoundaryError{Provider: "anthropic", Err: fmt.Errorf("malformed message: %v", string(b))}
	}

	usage := chat.TokenUsage{
		InputTokens:  response.Usage.InputTokens + response.Usage.CacheReadInputTokens + response.Usage.CacheCreationInputTokens,
		OutputTokens: response.Usage.OutputTokens,
	}
	telemetry.RecordUsage(span, usage)

	return chat.Reply{
		Content:  extractText(response),
		Provider: "anthropic",
		Model:    settings.Model,
		Usage:    usage,
	}, nil
}

// convertMessages maps chat messages onto Anthropic message params. The
// system message travels separately, so only user and assistant messages are
// expected here.
func convertMessages(messages []chat.Message) []anthropic.MessageParam {
	params := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case chat.RoleAssistant:
			params = append(params, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			params = append(params, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return params
}

func extractText(response anthropic.Message) string {
	var sb strings.Builder
	for _, contentBlock := range response.Content {
		switch block := contentBlock.AsAny().(type) {
		case anthropic.TextBlock:
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

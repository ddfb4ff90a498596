// Package chat provides conversation session management for the QA advisor.
package chat

import (
	"context"
	"errors"
	"fmt"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a conversation. Immutable once appended.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ModelSettings is the per-request model configuration.
type ModelSettings struct {
	Model       string
	Temperature float64
	MaxTokens   int64
}

// Validate checks that the settings are within the ranges the completion
// providers accept.
func (s ModelSettings) Validate() error {
	if s.Model == "" {
		return errors.New("model must not be empty")
	}
	if s.Temperature < 0 || s.Temperature > 2 {
		return fmt.Errorf("temperature %v out of range [0, 2]", s.Temperature)
	}
	if s.MaxTokens <= 0 || s.MaxTokens > 128000 {
		return fmt.Errorf("max tokens %d out of range (0, 128000]", s.MaxTokens)
	}
	return nil
}

// TokenUsage reports the token counts of a single completion call.
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
}

// Reply is the result of a completion call.
type Reply struct {
	Content  string
	Provider string
	Model    string
	Usage    TokenUsage
}

// Completer turns a system prompt and an ordered message history into an
// assistant reply. Implementations live in internal/llm.
type Completer interface {
	Complete(ctx context.Context, system string, messages []Message, settings ModelSettings) (Reply, error)
}

// ErrEmptyMessage is returned by Submit when the user text is blank. It is
// reported before any external call is made.
var ErrEmptyMessage = errors.New("message must not be empty")

package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Conversation owns the ordered message history of one session. The first
// message is always the persona system message; it is never removed or
// reordered. The history grows only by appends and is discarded with the
// session.
//
// A Conversation is not safe for concurrent use; callers serialize access
// per session.
type Conversation struct {
	completer Completer
	settings  ModelSettings

	messages []Message
}

// NewConversation creates a conversation seeded with the persona message.
func NewConversation(completer Completer, settings ModelSettings, persona string) *Conversation {
	return &Conversation{
		completer: completer,
		settings:  settings,
		messages:  []Message{{Role: RoleSystem, Content: persona}},
	}
}

// Submit appends the user's message, sends the full history to the completion
// boundary, and appends the assistant's reply on success. On failure the
// user's message stays in the history so resubmitting continues the session,
// and no assistant message is appended.
func (c *Conversation) Submit(ctx context.Context, userText string) (Message, error) {
	if strings.TrimSpace(userText) == "" {
		return Message{}, ErrEmptyMessage
	}

	c.messages = append(c.messages, Message{Role: RoleUser, Content: userText})

	reply, err := c.completer.Complete(ctx, c.persona(), c.messages[1:], c.settings)
	if err != nil {
		return Message{}, fmt.Errorf("completion failed: %w", err)
	}

	log.Printf("Token usage - Input: %d, Output: %d, Total: %d",
		reply.Usage.InputTokens,
		reply.Usage.OutputTokens,
		reply.Usage.InputTokens+reply.Usage.OutputTokens,
	)

	msg := Message{Role: RoleAssistant, Content: reply.Content}
	c.messages = append(c.messages, msg)
	return msg, nil
}

// Reset truncates the history back to just the persona message.
func (c *Conversation) Reset() {
	c.messages = c.messages[:1]
}

// History returns a copy of the message history in display order.
func (c *Conversation) History() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages in the history, persona included.
func (c *Conversation) Len() int {
	return len(c.messages)
}

func (c *Conversation) persona() string {
	return c.messages[0].Content
}
